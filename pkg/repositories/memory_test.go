package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/models"
)

func TestMemoryStore_VehicleLifecycle(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Vehicles()
	ctx := context.Background()

	vehicle := &models.Vehicle{Registration: "AB12CDE", Make: "Ford", Model: "Focus"}
	require.NoError(t, repo.Create(ctx, vehicle))
	assert.NotZero(t, vehicle.ID)
	assert.NotEmpty(t, vehicle.UUID)
	assert.False(t, vehicle.LastChecked.IsZero())

	byReg, err := repo.GetByRegistration(ctx, "AB12CDE")
	require.NoError(t, err)
	assert.Equal(t, vehicle.ID, byReg.ID)

	byKey, err := repo.GetByUUID(ctx, vehicle.UUID)
	require.NoError(t, err)
	assert.Equal(t, "AB12CDE", byKey.Registration)

	_, err = repo.GetByRegistration(ctx, "ZZ99ZZZ")
	assert.ErrorIs(t, err, apperrors.ErrVehicleNotFound)
}

func TestMemoryStore_UpdateKeepsIdentityFields(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Vehicles()
	ctx := context.Background()

	vehicle := &models.Vehicle{Registration: "AB12CDE", Make: "Ford"}
	require.NoError(t, repo.Create(ctx, vehicle))
	key := vehicle.UUID

	update := &models.Vehicle{ID: vehicle.ID, Registration: "MUTATED", UUID: "mutated", Colour: "Red"}
	require.NoError(t, repo.Update(ctx, update))

	got, err := repo.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB12CDE", got.Registration)
	assert.Equal(t, key, got.UUID)
	assert.Equal(t, "Red", got.Colour)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	repo := store.Vehicles()
	ctx := context.Background()

	vehicle := &models.Vehicle{Registration: "AB12CDE", Colour: "Blue"}
	require.NoError(t, repo.Create(ctx, vehicle))

	got, err := repo.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	got.Colour = "Green"

	again, err := repo.GetByID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue", again.Colour)
}

func TestMemoryStore_DeleteCascades(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	vehicle := &models.Vehicle{Registration: "AB12CDE"}
	require.NoError(t, store.Vehicles().Create(ctx, vehicle))

	test := &models.MotTest{VehicleID: vehicle.ID, TestDate: "2024.03.08", TestResult: models.TestResultFailed}
	require.NoError(t, store.MotTests().Create(ctx, test))

	pred := &models.Prediction{VehicleID: vehicle.ID, Category: "Brake System", RiskLevel: models.RiskHigh}
	require.NoError(t, store.Predictions().Create(ctx, pred))

	require.NoError(t, store.Vehicles().Delete(ctx, vehicle.ID))

	tests, err := store.MotTests().GetByVehicleID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Empty(t, tests)

	preds, err := store.Predictions().GetByVehicleID(ctx, vehicle.ID)
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestMemoryStore_MotTestsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	vehicle := &models.Vehicle{Registration: "AB12CDE"}
	require.NoError(t, store.Vehicles().Create(ctx, vehicle))

	for _, d := range []string{"2022.03.10", "2024.03.08", "2023.03.01"} {
		test := &models.MotTest{VehicleID: vehicle.ID, TestDate: d, TestResult: models.TestResultPassed}
		require.NoError(t, store.MotTests().Create(ctx, test))
	}

	got, err := store.MotTests().GetByVehicleID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024.03.08", got[0].TestDate)
	assert.Equal(t, "2023.03.01", got[1].TestDate)
	assert.Equal(t, "2022.03.10", got[2].TestDate)
}

func TestMemoryStore_PredictionsOrderedByRisk(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	vehicle := &models.Vehicle{Registration: "AB12CDE"}
	require.NoError(t, store.Vehicles().Create(ctx, vehicle))

	for _, risk := range []string{models.RiskLow, models.RiskHigh, models.RiskMedium} {
		pred := &models.Prediction{VehicleID: vehicle.ID, Category: "c", RiskLevel: risk}
		require.NoError(t, store.Predictions().Create(ctx, pred))
	}

	got, err := store.Predictions().GetByVehicleID(ctx, vehicle.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.RiskHigh, got[0].RiskLevel)
	assert.Equal(t, models.RiskMedium, got[1].RiskLevel)
	assert.Equal(t, models.RiskLow, got[2].RiskLevel)
}
