package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
	"github.com/motcheck/motcheck-engine/pkg/dvsa"
	"github.com/motcheck/motcheck-engine/pkg/models"
	"github.com/motcheck/motcheck-engine/pkg/registration"
	"github.com/motcheck/motcheck-engine/pkg/repositories"
)

// Fetcher retrieves a raw vehicle record from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context, registration string) (*dvsa.VehicleRecord, error)
}

// VehicleLookupService defines the ingestion and read paths for vehicle
// reports.
type VehicleLookupService interface {
	// LookupByRegistration runs the full ingestion workflow: normalize the
	// registration, serve the stored record when one exists, otherwise fetch
	// from the DVSA API, persist, and regenerate predictions.
	LookupByRegistration(ctx context.Context, rawRegistration string) (*models.VehicleReport, error)
	// LookupByUUID serves a previously ingested vehicle by its opaque
	// shareable lookup key. Read-only.
	LookupByUUID(ctx context.Context, lookupKey string) (*models.VehicleReport, error)
}

// vehicleLookupService implements VehicleLookupService.
type vehicleLookupService struct {
	fetcher     Fetcher
	vehicles    repositories.VehicleRepository
	motTests    repositories.MotTestRepository
	predictions repositories.PredictionRepository
	logger      *zap.Logger
}

// NewVehicleLookupService creates the lookup service with its dependencies.
func NewVehicleLookupService(
	fetcher Fetcher,
	vehicles repositories.VehicleRepository,
	motTests repositories.MotTestRepository,
	predictions repositories.PredictionRepository,
	logger *zap.Logger,
) VehicleLookupService {
	return &vehicleLookupService{
		fetcher:     fetcher,
		vehicles:    vehicles,
		motTests:    motTests,
		predictions: predictions,
		logger:      logger,
	}
}

func (s *vehicleLookupService) LookupByRegistration(ctx context.Context, rawRegistration string) (*models.VehicleReport, error) {
	reg, err := registration.Normalize(rawRegistration)
	if err != nil {
		return nil, err
	}

	// Stored vehicles are served as point-in-time snapshots: once ingested, a
	// registration is never re-fetched from the DVSA API.
	vehicle, err := s.vehicles.GetByRegistration(ctx, reg)
	if err == nil {
		return s.assembleReport(ctx, vehicle, true)
	}
	if !errors.Is(err, apperrors.ErrVehicleNotFound) {
		return nil, fmt.Errorf("failed to look up vehicle %s: %w", reg, err)
	}

	record, err := s.fetcher.Fetch(ctx, reg)
	if err != nil {
		return nil, err
	}

	vehicle, tests := NormalizeRecord(record, time.Now())
	vehicle.Registration = reg

	if err := s.ingest(ctx, vehicle, tests); err != nil {
		return nil, err
	}

	s.logger.Info("Ingested vehicle record",
		zap.String("registration", reg),
		zap.Int("mot_tests", len(tests)))

	return s.assembleReport(ctx, vehicle, true)
}

func (s *vehicleLookupService) LookupByUUID(ctx context.Context, lookupKey string) (*models.VehicleReport, error) {
	vehicle, err := s.vehicles.GetByUUID(ctx, lookupKey)
	if err != nil {
		return nil, err
	}
	return s.assembleReport(ctx, vehicle, false)
}

// ingest persists the vehicle, its MOT tests and freshly generated
// predictions. There is no cross-repository transaction (the repository
// interface stays storage-agnostic), so any failure after the vehicle row is
// created triggers a compensating delete - the row cascade removes whatever
// children were written, and a vehicle is never left visible without its
// tests and predictions.
func (s *vehicleLookupService) ingest(ctx context.Context, vehicle *models.Vehicle, tests []*models.MotTest) error {
	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return fmt.Errorf("failed to store vehicle: %w", err)
	}

	// Test rows are independent of each other, so they are written
	// concurrently. Predictions are only generated after every write has
	// completed.
	g, gctx := errgroup.WithContext(ctx)
	for _, test := range tests {
		test.VehicleID = vehicle.ID
		g.Go(func() error {
			return s.motTests.Create(gctx, test)
		})
	}
	if err := g.Wait(); err != nil {
		s.compensate(ctx, vehicle)
		return fmt.Errorf("failed to store mot tests: %w", err)
	}

	predictions := GeneratePredictions(vehicle, tests, time.Now())

	// No-op on first ingestion; regeneration replaces rather than updates.
	if err := s.predictions.DeleteByVehicleID(ctx, vehicle.ID); err != nil {
		s.compensate(ctx, vehicle)
		return fmt.Errorf("failed to clear predictions: %w", err)
	}
	for _, prediction := range predictions {
		prediction.VehicleID = vehicle.ID
		if err := s.predictions.Create(ctx, prediction); err != nil {
			s.compensate(ctx, vehicle)
			return fmt.Errorf("failed to store predictions: %w", err)
		}
	}

	return nil
}

func (s *vehicleLookupService) compensate(ctx context.Context, vehicle *models.Vehicle) {
	if err := s.vehicles.Delete(ctx, vehicle.ID); err != nil {
		s.logger.Error("Failed to roll back partially ingested vehicle",
			zap.String("registration", vehicle.Registration),
			zap.Int64("vehicle_id", vehicle.ID),
			zap.Error(err))
	}
}

// assembleReport reads back the stored rows: tests newest first, predictions
// ordered by risk (both sorts applied by the repositories).
func (s *vehicleLookupService) assembleReport(ctx context.Context, vehicle *models.Vehicle, includeUUID bool) (*models.VehicleReport, error) {
	tests, err := s.motTests.GetByVehicleID(ctx, vehicle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mot tests: %w", err)
	}
	predictions, err := s.predictions.GetByVehicleID(ctx, vehicle.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions: %w", err)
	}

	report := &models.VehicleReport{
		Vehicle:     vehicle,
		MotTests:    tests,
		Predictions: predictions,
	}
	if includeUUID {
		report.UUID = vehicle.UUID
	}
	return report, nil
}
