package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/motcheck/motcheck-engine/pkg/database"
	"github.com/motcheck/motcheck-engine/pkg/models"
)

// PredictionRepository defines the interface for prediction data access.
// Predictions are regenerated wholesale: DeleteByVehicleID then Create for
// each new row, never a partial update.
type PredictionRepository interface {
	Create(ctx context.Context, prediction *models.Prediction) error
	GetByVehicleID(ctx context.Context, vehicleID int64) ([]*models.Prediction, error)
	DeleteByVehicleID(ctx context.Context, vehicleID int64) error
}

// predictionRepository implements PredictionRepository using PostgreSQL.
type predictionRepository struct {
	db *database.DB
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(db *database.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

// Create inserts one prediction row.
func (r *predictionRepository) Create(ctx context.Context, prediction *models.Prediction) error {
	prediction.CreatedAt = time.Now()

	query := `
		INSERT INTO predictions (vehicle_id, category, description, risk_level, confidence, last_failure_date, pattern, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		prediction.VehicleID,
		prediction.Category,
		prediction.Description,
		prediction.RiskLevel,
		prediction.Confidence,
		prediction.LastFailureDate,
		prediction.Pattern,
		prediction.Recommendations,
		prediction.CreatedAt,
	).Scan(&prediction.ID)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	return nil
}

// GetByVehicleID returns all predictions for a vehicle sorted for display,
// HIGH before MEDIUM before LOW.
func (r *predictionRepository) GetByVehicleID(ctx context.Context, vehicleID int64) ([]*models.Prediction, error) {
	query := `
		SELECT id, vehicle_id, category, description, risk_level, confidence,
		       COALESCE(last_failure_date, ''), COALESCE(pattern, ''),
		       COALESCE(recommendations, ''), created_at
		FROM predictions
		WHERE vehicle_id = $1
		ORDER BY CASE risk_level
			WHEN 'HIGH' THEN 3
			WHEN 'MEDIUM' THEN 2
			WHEN 'LOW' THEN 1
			ELSE 0
		END DESC, id`

	rows, err := r.db.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.ID,
			&p.VehicleID,
			&p.Category,
			&p.Description,
			&p.RiskLevel,
			&p.Confidence,
			&p.LastFailureDate,
			&p.Pattern,
			&p.Recommendations,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}

	return predictions, nil
}

// DeleteByVehicleID removes every prediction for a vehicle. No-op when the
// vehicle has none yet.
func (r *predictionRepository) DeleteByVehicleID(ctx context.Context, vehicleID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM predictions WHERE vehicle_id = $1`, vehicleID); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}
