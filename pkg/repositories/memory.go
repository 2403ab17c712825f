package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/models"
)

// MemoryStore is a map-backed implementation of all three repositories,
// sharing one mutex so the vehicle delete cascade stays consistent. It backs
// unit tests and the "memory" storage driver; nothing survives a restart.
type MemoryStore struct {
	mu               sync.RWMutex
	vehicles         map[int64]*models.Vehicle
	motTests         map[int64]*models.MotTest
	predictions      map[int64]*models.Prediction
	nextVehicleID    int64
	nextMotTestID    int64
	nextPredictionID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles:         make(map[int64]*models.Vehicle),
		motTests:         make(map[int64]*models.MotTest),
		predictions:      make(map[int64]*models.Prediction),
		nextVehicleID:    1,
		nextMotTestID:    1,
		nextPredictionID: 1,
	}
}

// Vehicles returns the store's VehicleRepository view.
func (s *MemoryStore) Vehicles() VehicleRepository { return (*memoryVehicles)(s) }

// MotTests returns the store's MotTestRepository view.
func (s *MemoryStore) MotTests() MotTestRepository { return (*memoryMotTests)(s) }

// Predictions returns the store's PredictionRepository view.
func (s *MemoryStore) Predictions() PredictionRepository { return (*memoryPredictions)(s) }

type memoryVehicles MemoryStore

func (m *memoryVehicles) Create(ctx context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vehicle.ID = m.nextVehicleID
	m.nextVehicleID++
	if vehicle.UUID == "" {
		vehicle.UUID = uuid.NewString()
	}
	vehicle.LastChecked = time.Now()

	copied := *vehicle
	m.vehicles[vehicle.ID] = &copied
	return nil
}

func (m *memoryVehicles) GetByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vehicles[id]
	if !ok {
		return nil, apperrors.ErrVehicleNotFound
	}
	copied := *v
	return &copied, nil
}

func (m *memoryVehicles) GetByRegistration(ctx context.Context, registration string) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.vehicles {
		if v.Registration == registration {
			copied := *v
			return &copied, nil
		}
	}
	return nil, apperrors.ErrVehicleNotFound
}

func (m *memoryVehicles) GetByUUID(ctx context.Context, lookupKey string) (*models.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.vehicles {
		if v.UUID == lookupKey {
			copied := *v
			return &copied, nil
		}
	}
	return nil, apperrors.ErrVehicleNotFound
}

func (m *memoryVehicles) Update(ctx context.Context, vehicle *models.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.vehicles[vehicle.ID]
	if !ok {
		return apperrors.ErrVehicleNotFound
	}

	vehicle.Registration = existing.Registration
	vehicle.UUID = existing.UUID
	vehicle.LastChecked = time.Now()
	copied := *vehicle
	m.vehicles[vehicle.ID] = &copied
	return nil
}

// Delete removes the vehicle and, like the SQL schema's ON DELETE CASCADE,
// its MOT tests and predictions.
func (m *memoryVehicles) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.vehicles, id)
	for testID, t := range m.motTests {
		if t.VehicleID == id {
			delete(m.motTests, testID)
		}
	}
	for predID, p := range m.predictions {
		if p.VehicleID == id {
			delete(m.predictions, predID)
		}
	}
	return nil
}

type memoryMotTests MemoryStore

func (m *memoryMotTests) Create(ctx context.Context, test *models.MotTest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	test.ID = m.nextMotTestID
	m.nextMotTestID++

	copied := *test
	m.motTests[test.ID] = &copied
	return nil
}

func (m *memoryMotTests) GetByVehicleID(ctx context.Context, vehicleID int64) ([]*models.MotTest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var tests []*models.MotTest
	for _, t := range m.motTests {
		if t.VehicleID == vehicleID {
			copied := *t
			tests = append(tests, &copied)
		}
	}

	// Newest first; dates within one vehicle share a format, so string order
	// matches chronological order (same as the SQL ORDER BY).
	sort.Slice(tests, func(i, j int) bool {
		if tests[i].TestDate != tests[j].TestDate {
			return tests[i].TestDate > tests[j].TestDate
		}
		return tests[i].ID > tests[j].ID
	})

	return tests, nil
}

type memoryPredictions MemoryStore

func (m *memoryPredictions) Create(ctx context.Context, prediction *models.Prediction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prediction.ID = m.nextPredictionID
	m.nextPredictionID++
	prediction.CreatedAt = time.Now()

	copied := *prediction
	m.predictions[prediction.ID] = &copied
	return nil
}

func (m *memoryPredictions) GetByVehicleID(ctx context.Context, vehicleID int64) ([]*models.Prediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var predictions []*models.Prediction
	for _, p := range m.predictions {
		if p.VehicleID == vehicleID {
			copied := *p
			predictions = append(predictions, &copied)
		}
	}

	sort.Slice(predictions, func(i, j int) bool {
		ri, rj := models.RiskRank(predictions[i].RiskLevel), models.RiskRank(predictions[j].RiskLevel)
		if ri != rj {
			return ri > rj
		}
		return predictions[i].ID < predictions[j].ID
	})

	return predictions, nil
}

func (m *memoryPredictions) DeleteByVehicleID(ctx context.Context, vehicleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.predictions {
		if p.VehicleID == vehicleID {
			delete(m.predictions, id)
		}
	}
	return nil
}
