//go:build integration

package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/models"
	"github.com/motcheck/motcheck-engine/pkg/testhelpers"
)

// vehicleTestContext holds test dependencies for vehicle repository tests.
type vehicleTestContext struct {
	t    *testing.T
	db   *testhelpers.TestDB
	repo VehicleRepository
}

func setupVehicleTest(t *testing.T) *vehicleTestContext {
	db := testhelpers.GetTestDB(t)
	testhelpers.TruncateAll(t, db.DB)
	return &vehicleTestContext{
		t:    t,
		db:   db,
		repo: NewVehicleRepository(db.DB),
	}
}

func (tc *vehicleTestContext) createTestVehicle(ctx context.Context, registration string) *models.Vehicle {
	tc.t.Helper()
	vehicle := &models.Vehicle{
		Registration: registration,
		Make:         "Ford",
		Model:        "Focus",
		Year:         2018,
		FuelType:     "Petrol",
		Colour:       "Blue",
		MotStatus:    models.TestResultPassed,
	}
	if err := tc.repo.Create(ctx, vehicle); err != nil {
		tc.t.Fatalf("failed to create test vehicle: %v", err)
	}
	return vehicle
}

func TestVehicleRepository_CreateAssignsKeys(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	vehicle := tc.createTestVehicle(ctx, "AB12CDE")

	if vehicle.ID == 0 {
		t.Error("expected Create to assign an id")
	}
	if vehicle.UUID == "" {
		t.Error("expected Create to assign a lookup key")
	}
	if vehicle.LastChecked.IsZero() {
		t.Error("expected Create to set last_checked")
	}
}

func TestVehicleRepository_CreateDuplicateRegistration(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	tc.createTestVehicle(ctx, "AB12CDE")

	dup := &models.Vehicle{Registration: "AB12CDE", Make: "Ford", Model: "Focus"}
	if err := tc.repo.Create(ctx, dup); err == nil {
		t.Error("expected unique violation on duplicate registration")
	}
}

func TestVehicleRepository_GetByRegistration(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	created := tc.createTestVehicle(ctx, "AB12CDE")

	got, err := tc.repo.GetByRegistration(ctx, "AB12CDE")
	if err != nil {
		t.Fatalf("failed to get vehicle: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected id %d, got %d", created.ID, got.ID)
	}
	if got.Make != "Ford" || got.Model != "Focus" {
		t.Errorf("unexpected vehicle data: %+v", got)
	}
	if got.UUID != created.UUID {
		t.Errorf("expected lookup key %q, got %q", created.UUID, got.UUID)
	}
}

func TestVehicleRepository_GetByUUID(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	created := tc.createTestVehicle(ctx, "AB12CDE")

	got, err := tc.repo.GetByUUID(ctx, created.UUID)
	if err != nil {
		t.Fatalf("failed to get vehicle by lookup key: %v", err)
	}
	if got.Registration != "AB12CDE" {
		t.Errorf("expected registration AB12CDE, got %q", got.Registration)
	}
}

func TestVehicleRepository_GetMissing(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	_, err := tc.repo.GetByRegistration(ctx, "ZZ99ZZZ")
	if !errors.Is(err, apperrors.ErrVehicleNotFound) {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}

	_, err = tc.repo.GetByUUID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, apperrors.ErrVehicleNotFound) {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}
}

func TestVehicleRepository_Update(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	vehicle := tc.createTestVehicle(ctx, "AB12CDE")
	originalKey := vehicle.UUID

	vehicle.Colour = "Red"
	vehicle.MotStatus = models.TestResultFailed
	if err := tc.repo.Update(ctx, vehicle); err != nil {
		t.Fatalf("failed to update vehicle: %v", err)
	}

	got, err := tc.repo.GetByID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("failed to get vehicle: %v", err)
	}
	if got.Colour != "Red" {
		t.Errorf("expected colour Red, got %q", got.Colour)
	}
	if got.UUID != originalKey {
		t.Error("expected lookup key to be immutable across updates")
	}
}

func TestVehicleRepository_UpdateMissing(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	err := tc.repo.Update(ctx, &models.Vehicle{ID: 9999, Make: "Ford"})
	if !errors.Is(err, apperrors.ErrVehicleNotFound) {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}
}

func TestVehicleRepository_DeleteCascades(t *testing.T) {
	tc := setupVehicleTest(t)
	ctx := context.Background()

	vehicle := tc.createTestVehicle(ctx, "AB12CDE")

	motRepo := NewMotTestRepository(tc.db.DB)
	test := &models.MotTest{
		VehicleID:  vehicle.ID,
		TestDate:   "2024.03.08",
		TestResult: models.TestResultFailed,
	}
	if err := motRepo.Create(ctx, test); err != nil {
		t.Fatalf("failed to create mot test: %v", err)
	}

	predRepo := NewPredictionRepository(tc.db.DB)
	pred := &models.Prediction{
		VehicleID:  vehicle.ID,
		Category:   "Brake System",
		RiskLevel:  models.RiskHigh,
		Confidence: 85,
	}
	if err := predRepo.Create(ctx, pred); err != nil {
		t.Fatalf("failed to create prediction: %v", err)
	}

	if err := tc.repo.Delete(ctx, vehicle.ID); err != nil {
		t.Fatalf("failed to delete vehicle: %v", err)
	}

	tests, err := motRepo.GetByVehicleID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("failed to query mot tests: %v", err)
	}
	if len(tests) != 0 {
		t.Errorf("expected mot tests to cascade on delete, got %d rows", len(tests))
	}

	preds, err := predRepo.GetByVehicleID(ctx, vehicle.ID)
	if err != nil {
		t.Fatalf("failed to query predictions: %v", err)
	}
	if len(preds) != 0 {
		t.Errorf("expected predictions to cascade on delete, got %d rows", len(preds))
	}
}
