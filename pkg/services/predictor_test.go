package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motcheck/motcheck-engine/pkg/models"
)

var predictNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func petrolVehicle(year int) *models.Vehicle {
	return &models.Vehicle{
		Registration: "AB12CDE",
		Make:         "Ford",
		Model:        "Focus",
		Year:         year,
		FuelType:     "Petrol",
	}
}

func findPrediction(t *testing.T, predictions []*models.Prediction, category string) *models.Prediction {
	t.Helper()
	for _, p := range predictions {
		if p.Category == category {
			return p
		}
	}
	t.Fatalf("no prediction for category %q", category)
	return nil
}

func TestGeneratePredictions_FallbackNeverEmpty(t *testing.T) {
	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-5), nil, predictNow)

	require.Len(t, predictions, 1)
	assert.Equal(t, "General Maintenance", predictions[0].Category)
	assert.Equal(t, models.RiskLow, predictions[0].RiskLevel)
	assert.Equal(t, 35, predictions[0].Confidence)
}

func TestGeneratePredictions_RepeatedFailureIsHighRisk(t *testing.T) {
	tests := []*models.MotTest{
		{
			TestDate:   "2024.03.08",
			TestResult: models.TestResultFailed,
			Failures: []models.Defect{
				{Text: "Front brake disc significantly worn", Type: "FAIL"},
			},
		},
		{
			TestDate:   "2022.03.10",
			TestResult: models.TestResultFailed,
			Failures: []models.Defect{
				{Text: "Brake pad thickness below minimum", Type: "FAIL"},
			},
		},
	}

	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-5), tests, predictNow)

	brake := findPrediction(t, predictions, "Brake System")
	assert.Equal(t, models.RiskHigh, brake.RiskLevel)
	assert.Equal(t, 85, brake.Confidence)
	assert.Equal(t, "Previously failed 2 times", brake.Pattern)
	assert.Equal(t, "Front brake disc significantly worn", brake.Description,
		"description is the first matching failure text")
	assert.Equal(t, "March 2024", brake.LastFailureDate)
}

func TestGeneratePredictions_SingleRecentFailureIsMediumRisk(t *testing.T) {
	tests := []*models.MotTest{
		{
			TestDate:   predictNow.AddDate(0, -6, 0).Format("2006.01.02"),
			TestResult: models.TestResultFailed,
			Failures: []models.Defect{
				{Text: "Headlight aim too low", Type: "FAIL"},
			},
		},
	}

	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-5), tests, predictNow)

	lighting := findPrediction(t, predictions, "Lighting System")
	assert.Equal(t, models.RiskMedium, lighting.RiskLevel)
	assert.Equal(t, 65, lighting.Confidence)
}

func TestGeneratePredictions_SingleOldFailureIsLowRisk(t *testing.T) {
	tests := []*models.MotTest{
		{
			TestDate:   "2020.01.15",
			TestResult: models.TestResultFailed,
			Failures: []models.Defect{
				{Text: "Front brake disc worn", Type: "FAIL"},
			},
		},
	}

	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-5), tests, predictNow)

	brake := findPrediction(t, predictions, "Brake System")
	assert.Equal(t, models.RiskLow, brake.RiskLevel)
	assert.Equal(t, 40, brake.Confidence)
	assert.Equal(t, "Previous failure detected", brake.Pattern)

	// The brake category matched, so no fallback row appears.
	for _, p := range predictions {
		assert.NotEqual(t, "General Maintenance", p.Category)
	}
}

func TestGeneratePredictions_AgeRelatedWear(t *testing.T) {
	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-12), nil, predictNow)

	age := findPrediction(t, predictions, "Age-Related Wear")
	assert.Equal(t, models.RiskMedium, age.RiskLevel)
	assert.Equal(t, 60, age.Confidence)
	assert.Equal(t, "Vehicle is 12 years old", age.Pattern)
}

func TestGeneratePredictions_AgeBoundary(t *testing.T) {
	// Exactly 10 years old does not trigger the age prediction.
	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-10), nil, predictNow)
	for _, p := range predictions {
		assert.NotEqual(t, "Age-Related Wear", p.Category)
	}
}

func TestGeneratePredictions_DieselEmissions(t *testing.T) {
	vehicle := petrolVehicle(predictNow.Year() - 5)
	vehicle.FuelType = "Diesel"

	predictions := GeneratePredictions(vehicle, nil, predictNow)

	diesel := findPrediction(t, predictions, "Diesel Emissions")
	assert.Equal(t, models.RiskLow, diesel.RiskLevel)
	assert.Equal(t, 45, diesel.Confidence)

	// A category matched, so the fallback is suppressed.
	for _, p := range predictions {
		assert.NotEqual(t, "General Maintenance", p.Category)
	}
}

func TestGeneratePredictions_AdvisoriesDoNotScore(t *testing.T) {
	tests := []*models.MotTest{
		{
			TestDate:   "2024.03.15",
			TestResult: models.TestResultPassed,
			Advisories: []models.Defect{
				{Text: "Nearside rear tyre tread depth low", Type: "ADVISORY"},
			},
		},
	}

	predictions := GeneratePredictions(petrolVehicle(predictNow.Year()-5), tests, predictNow)

	require.Len(t, predictions, 1)
	assert.Equal(t, "General Maintenance", predictions[0].Category)
}

func TestGeneratePredictions_Deterministic(t *testing.T) {
	tests := []*models.MotTest{
		{
			TestDate:   "2024.03.08",
			TestResult: models.TestResultFailed,
			Failures: []models.Defect{
				{Text: "Front brake disc worn", Type: "FAIL"},
				{Text: "Exhaust has a major leak", Type: "FAIL"},
			},
		},
	}
	vehicle := petrolVehicle(predictNow.Year() - 12)
	vehicle.FuelType = "Diesel"

	first := GeneratePredictions(vehicle, tests, predictNow)
	second := GeneratePredictions(vehicle, tests, predictNow)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Category, second[i].Category)
		assert.Equal(t, first[i].RiskLevel, second[i].RiskLevel)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
	}
}
