// Package dvsa provides a client for the DVSA MOT History API.
// Documentation: https://documentation.history.mot.api.gov.uk/
package dvsa

import "encoding/json"

// Source identifies which known payload shape a VehicleRecord carries.
// The live trade API and the canned fixture record differ in field names
// (primaryColour vs colour, rfrAndComments vs defects) and in the defect
// type taxonomy; downstream normalization switches on this tag.
type Source string

const (
	// SourceTradeAPI is the live MOT history trade API shape.
	SourceTradeAPI Source = "trade-api"
	// SourceFixture is the canned demonstration record shape.
	SourceFixture Source = "fixture"
)

// Defect is a single reason-for-refusal or comment on an MOT test.
// Type is FAIL/ADVISORY in the fixture shape and may additionally be
// MINOR/MAJOR/DANGEROUS/PRS in the trade API shape.
type Defect struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Dangerous bool   `json:"dangerous,omitempty"`
}

// TestCentre appears only in the fixture shape.
type TestCentre struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// MotTest is one raw MOT test entry as returned upstream.
type MotTest struct {
	CompletedDate      string          `json:"completedDate"`
	TestResult         string          `json:"testResult"`
	ExpiryDate         string          `json:"expiryDate,omitempty"`
	OdometerValue      json.RawMessage `json:"odometerValue,omitempty"`
	OdometerUnit       string          `json:"odometerUnit,omitempty"`
	OdometerResultType string          `json:"odometerResultType,omitempty"`
	MotTestNumber      string          `json:"motTestNumber"`
	TestCentre         *TestCentre     `json:"testCentre,omitempty"`
	RfrAndComments     []Defect        `json:"rfrAndComments,omitempty"`
	Defects            []Defect        `json:"defects,omitempty"`
}

// VehicleRecord is the raw vehicle payload from the DVSA API or the fixture.
// Registration, Make and Model are the minimum required fields; everything
// else is optional and shape-dependent.
type VehicleRecord struct {
	Source Source `json:"-"`

	Registration     string          `json:"registration"`
	Make             string          `json:"make"`
	Model            string          `json:"model"`
	FirstUsedDate    string          `json:"firstUsedDate,omitempty"`
	RegistrationDate string          `json:"registrationDate,omitempty"`
	ManufactureDate  string          `json:"manufactureDate,omitempty"`
	FuelType         string          `json:"fuelType,omitempty"`
	PrimaryColour    string          `json:"primaryColour,omitempty"`
	Colour           string          `json:"colour,omitempty"`
	EngineSize       json.RawMessage `json:"engineSize,omitempty"`
	VehicleID        string          `json:"vehicleId,omitempty"`
	MotTests         []MotTest       `json:"motTests"`
}
