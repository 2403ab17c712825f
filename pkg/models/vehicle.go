// Package models contains domain types for motcheck-engine.
package models

import "time"

// Risk levels for predictions, ordered HIGH > MEDIUM > LOW for display.
const (
	RiskHigh   = "HIGH"
	RiskMedium = "MEDIUM"
	RiskLow    = "LOW"
)

// Canonical MOT test results. Upstream payloads also use PASS/FAIL, which the
// record normalizer maps onto these.
const (
	TestResultPassed = "PASSED"
	TestResultFailed = "FAILED"
	MotStatusUnknown = "UNKNOWN"
)

// Vehicle is one looked-up vehicle. Registration is stored canonicalized
// (uppercase, no whitespace) and is unique. UUID is the opaque shareable
// lookup key, assigned once at creation.
type Vehicle struct {
	ID            int64     `json:"id"`
	Registration  string    `json:"registration"`
	UUID          string    `json:"uuid"`
	Make          string    `json:"make,omitempty"`
	Model         string    `json:"model,omitempty"`
	Year          int       `json:"year,omitempty"`
	FuelType      string    `json:"fuelType,omitempty"`
	EngineSize    string    `json:"engineSize,omitempty"`
	Colour        string    `json:"colour,omitempty"`
	MotStatus     string    `json:"motStatus,omitempty"`
	MotExpiryDate string    `json:"motExpiryDate,omitempty"`
	LastChecked   time.Time `json:"lastChecked"`
}

// Defect is a single failure or advisory item recorded against an MOT test.
type Defect struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Dangerous bool   `json:"dangerous,omitempty"`
}

// MotTest is one historical inspection event for a vehicle.
type MotTest struct {
	ID            int64    `json:"id"`
	VehicleID     int64    `json:"vehicleId"`
	TestDate      string   `json:"testDate"`
	TestResult    string   `json:"testResult"`
	ExpiryDate    string   `json:"expiryDate,omitempty"`
	OdometerValue int      `json:"odometerValue,omitempty"`
	OdometerUnit  string   `json:"odometerUnit,omitempty"`
	TestNumber    string   `json:"testNumber,omitempty"`
	TestCentre    string   `json:"testCentre,omitempty"`
	Failures      []Defect `json:"failures"`
	Advisories    []Defect `json:"advisories"`
}

// Prediction is a derived heuristic risk assessment. Predictions are
// regenerated wholesale on each ingestion, never updated in place.
type Prediction struct {
	ID              int64     `json:"id"`
	VehicleID       int64     `json:"vehicleId"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	RiskLevel       string    `json:"riskLevel"`
	Confidence      int       `json:"confidence"`
	LastFailureDate string    `json:"lastFailureDate,omitempty"`
	Pattern         string    `json:"pattern,omitempty"`
	Recommendations string    `json:"recommendations,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// VehicleReport aggregates everything the API returns for one vehicle.
type VehicleReport struct {
	Vehicle     *Vehicle      `json:"vehicle"`
	MotTests    []*MotTest    `json:"motTests"`
	Predictions []*Prediction `json:"predictions"`
	UUID        string        `json:"uuid,omitempty"`
}

// RiskRank maps a risk level to a sortable weight. Unknown levels rank lowest.
func RiskRank(level string) int {
	switch level {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}
