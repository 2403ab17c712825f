// Package repositories contains data access interfaces and their PostgreSQL
// and in-memory implementations. The implementation is selected once at
// startup wiring, never by conditional logic at call sites.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/database"
	"github.com/motcheck/motcheck-engine/pkg/models"
)

// VehicleRepository defines the interface for vehicle data access.
// GetBy* methods return apperrors.ErrVehicleNotFound on a miss.
type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Vehicle, error)
	GetByRegistration(ctx context.Context, registration string) (*models.Vehicle, error)
	GetByUUID(ctx context.Context, lookupKey string) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	Delete(ctx context.Context, id int64) error
}

// vehicleRepository implements VehicleRepository using PostgreSQL.
type vehicleRepository struct {
	db *database.DB
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(db *database.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

const vehicleColumns = `id, registration, uuid, COALESCE(make, ''), COALESCE(model, ''),
	COALESCE(year, 0), COALESCE(fuel_type, ''), COALESCE(engine_size, ''),
	COALESCE(colour, ''), COALESCE(mot_status, ''), COALESCE(mot_expiry_date, ''), last_checked`

// Create inserts a new vehicle row, assigning the surrogate key, the opaque
// lookup key and the last-checked timestamp. The lookup key is immutable from
// here on.
func (r *vehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	if vehicle.UUID == "" {
		vehicle.UUID = uuid.NewString()
	}
	vehicle.LastChecked = time.Now()

	query := `
		INSERT INTO vehicles (registration, uuid, make, model, year, fuel_type, engine_size, colour, mot_status, mot_expiry_date, last_checked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		vehicle.Registration,
		vehicle.UUID,
		vehicle.Make,
		vehicle.Model,
		vehicle.Year,
		vehicle.FuelType,
		vehicle.EngineSize,
		vehicle.Colour,
		vehicle.MotStatus,
		vehicle.MotExpiryDate,
		vehicle.LastChecked,
	).Scan(&vehicle.ID)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

// GetByID retrieves a vehicle by surrogate key.
func (r *vehicleRepository) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	return r.getOne(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
}

// GetByRegistration retrieves a vehicle by its canonicalized registration.
func (r *vehicleRepository) GetByRegistration(ctx context.Context, registration string) (*models.Vehicle, error) {
	return r.getOne(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE registration = $1`, registration)
}

// GetByUUID retrieves a vehicle by its opaque shareable lookup key.
func (r *vehicleRepository) GetByUUID(ctx context.Context, lookupKey string) (*models.Vehicle, error) {
	return r.getOne(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE uuid = $1`, lookupKey)
}

func (r *vehicleRepository) getOne(ctx context.Context, query string, arg any) (*models.Vehicle, error) {
	var v models.Vehicle
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&v.ID,
		&v.Registration,
		&v.UUID,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.FuelType,
		&v.EngineSize,
		&v.Colour,
		&v.MotStatus,
		&v.MotExpiryDate,
		&v.LastChecked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &v, nil
}

// Update refreshes vehicle metadata. Registration, uuid and id are immutable
// and never written here.
func (r *vehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.LastChecked = time.Now()

	query := `
		UPDATE vehicles
		SET make = $2, model = $3, year = $4, fuel_type = $5, engine_size = $6,
		    colour = $7, mot_status = $8, mot_expiry_date = $9, last_checked = $10
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		vehicle.ID,
		vehicle.Make,
		vehicle.Model,
		vehicle.Year,
		vehicle.FuelType,
		vehicle.EngineSize,
		vehicle.Colour,
		vehicle.MotStatus,
		vehicle.MotExpiryDate,
		vehicle.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrVehicleNotFound
	}
	return nil
}

// Delete removes a vehicle row; MOT tests and predictions cascade.
func (r *vehicleRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	return nil
}
