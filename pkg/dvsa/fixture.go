package dvsa

import "encoding/json"

// FixtureRecord returns the canned demonstration record for a registration.
// It carries the fixture payload shape (colour/defects field names, PASS/FAIL
// results) and exists for tests and demonstrations only; the production lookup
// path never substitutes it for a failed fetch.
func FixtureRecord(registration string) *VehicleRecord {
	return &VehicleRecord{
		Source:        SourceFixture,
		Registration:  registration,
		Make:          "Ford",
		Model:         "Focus",
		FirstUsedDate: "2018.03.15",
		FuelType:      "Petrol",
		EngineSize:    json.RawMessage(`"1596"`),
		Colour:        "Blue",
		MotTests: []MotTest{
			{
				CompletedDate: "2024.03.15",
				TestResult:    "PASS",
				ExpiryDate:    "2025.03.15",
				OdometerValue: json.RawMessage(`"45231"`),
				OdometerUnit:  "mi",
				MotTestNumber: "123456789012",
				TestCentre:    &TestCentre{Name: "Quick Fit Motors", Number: "V12345"},
				Defects:       []Defect{},
			},
			{
				CompletedDate: "2024.03.08",
				TestResult:    "FAIL",
				OdometerValue: json.RawMessage(`"45228"`),
				OdometerUnit:  "mi",
				MotTestNumber: "123456789011",
				TestCentre:    &TestCentre{Name: "Quick Fit Motors", Number: "V12345"},
				Defects: []Defect{
					{Text: "Front brake disc significantly and obviously worn on both sides", Type: "FAIL"},
					{Text: "Windscreen wiper blade deteriorated, torn or holed", Type: "FAIL"},
				},
			},
			{
				CompletedDate: "2023.03.22",
				TestResult:    "PASS",
				ExpiryDate:    "2024.03.22",
				OdometerValue: json.RawMessage(`"38452"`),
				OdometerUnit:  "mi",
				MotTestNumber: "123456789010",
				TestCentre:    &TestCentre{Name: "AutoTest Centre", Number: "V54321"},
				Defects: []Defect{
					{Text: "Nearside rear tyre tread depth low", Type: "ADVISORY"},
				},
			},
		},
	}
}
