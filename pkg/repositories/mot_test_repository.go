package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/motcheck/motcheck-engine/pkg/database"
	"github.com/motcheck/motcheck-engine/pkg/models"
)

// MotTestRepository defines the interface for MOT test data access.
// Tests are created in bulk during ingestion and never mutated afterwards.
type MotTestRepository interface {
	Create(ctx context.Context, test *models.MotTest) error
	GetByVehicleID(ctx context.Context, vehicleID int64) ([]*models.MotTest, error)
}

// motTestRepository implements MotTestRepository using PostgreSQL.
type motTestRepository struct {
	db *database.DB
}

// NewMotTestRepository creates a new MOT test repository.
func NewMotTestRepository(db *database.DB) MotTestRepository {
	return &motTestRepository{db: db}
}

// Create inserts one MOT test row. Failure and advisory lists are stored as
// JSONB so defect items keep their text/type/dangerous shape verbatim.
func (r *motTestRepository) Create(ctx context.Context, test *models.MotTest) error {
	failures, err := json.Marshal(defectsOrEmpty(test.Failures))
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}
	advisories, err := json.Marshal(defectsOrEmpty(test.Advisories))
	if err != nil {
		return fmt.Errorf("failed to marshal advisories: %w", err)
	}

	query := `
		INSERT INTO mot_tests (vehicle_id, test_date, test_result, expiry_date, odometer_value, odometer_unit, test_number, test_centre, failures, advisories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err = r.db.QueryRow(ctx, query,
		test.VehicleID,
		test.TestDate,
		test.TestResult,
		test.ExpiryDate,
		test.OdometerValue,
		test.OdometerUnit,
		test.TestNumber,
		test.TestCentre,
		failures,
		advisories,
	).Scan(&test.ID)
	if err != nil {
		return fmt.Errorf("failed to create mot test: %w", err)
	}

	return nil
}

// GetByVehicleID returns all tests for a vehicle, newest first by test date.
func (r *motTestRepository) GetByVehicleID(ctx context.Context, vehicleID int64) ([]*models.MotTest, error) {
	query := `
		SELECT id, vehicle_id, test_date, test_result, COALESCE(expiry_date, ''),
		       COALESCE(odometer_value, 0), COALESCE(odometer_unit, ''),
		       COALESCE(test_number, ''), COALESCE(test_centre, ''), failures, advisories
		FROM mot_tests
		WHERE vehicle_id = $1
		ORDER BY test_date DESC, id DESC`

	rows, err := r.db.Query(ctx, query, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mot tests: %w", err)
	}
	defer rows.Close()

	var tests []*models.MotTest
	for rows.Next() {
		var t models.MotTest
		var failures, advisories []byte
		if err := rows.Scan(
			&t.ID,
			&t.VehicleID,
			&t.TestDate,
			&t.TestResult,
			&t.ExpiryDate,
			&t.OdometerValue,
			&t.OdometerUnit,
			&t.TestNumber,
			&t.TestCentre,
			&failures,
			&advisories,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mot test: %w", err)
		}
		if err := json.Unmarshal(failures, &t.Failures); err != nil {
			return nil, fmt.Errorf("failed to unmarshal failures: %w", err)
		}
		if err := json.Unmarshal(advisories, &t.Advisories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal advisories: %w", err)
		}
		tests = append(tests, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mot tests: %w", err)
	}

	return tests, nil
}

// defectsOrEmpty keeps JSONB columns as [] rather than null for empty lists.
func defectsOrEmpty(defects []models.Defect) []models.Defect {
	if defects == nil {
		return []models.Defect{}
	}
	return defects
}
