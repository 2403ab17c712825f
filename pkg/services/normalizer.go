// Package services contains the ingestion workflow, record normalization and
// prediction generation for motcheck-engine.
package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/motcheck/motcheck-engine/pkg/dvsa"
	"github.com/motcheck/motcheck-engine/pkg/jsonutil"
	"github.com/motcheck/motcheck-engine/pkg/models"
)

// Defect type classification. The trade API uses a wider taxonomy
// (MINOR/MAJOR/DANGEROUS/PRS) than the fixture shape (FAIL/ADVISORY); both are
// mapped here. Types outside the table are dropped from both lists, as the
// original system did.
var (
	failureTypes  = map[string]bool{"FAIL": true, "MAJOR": true, "DANGEROUS": true, "PRS": true}
	advisoryTypes = map[string]bool{"ADVISORY": true, "MINOR": true}
)

var yearToken = regexp.MustCompile(`(19|20)\d{2}`)

// NormalizeRecord maps a raw upstream record onto the canonical vehicle and
// MOT test shapes. It handles both known payload shapes via the record's
// source tag. Pure function; vehicle and test rows carry no surrogate keys yet.
func NormalizeRecord(raw *dvsa.VehicleRecord, now time.Time) (*models.Vehicle, []*models.MotTest) {
	vehicle := &models.Vehicle{
		Registration: strings.ToUpper(strings.Join(strings.Fields(raw.Registration), "")),
		Make:         raw.Make,
		Model:        raw.Model,
		Year:         deriveYear(raw, now),
		FuelType:     raw.FuelType,
		EngineSize:   jsonutil.FlexibleString(raw.EngineSize),
		Colour:       colourFor(raw),
		MotStatus:    models.MotStatusUnknown,
	}

	tests := make([]*models.MotTest, 0, len(raw.MotTests))
	for _, rawTest := range raw.MotTests {
		test := &models.MotTest{
			TestDate:      rawTest.CompletedDate,
			TestResult:    canonicalResult(rawTest.TestResult),
			ExpiryDate:    rawTest.ExpiryDate,
			OdometerValue: jsonutil.FlexibleInt(rawTest.OdometerValue),
			OdometerUnit:  rawTest.OdometerUnit,
			TestNumber:    rawTest.MotTestNumber,
			Failures:      []models.Defect{},
			Advisories:    []models.Defect{},
		}
		if rawTest.TestCentre != nil {
			test.TestCentre = rawTest.TestCentre.Name
		}

		for _, defect := range defectsFor(raw.Source, rawTest) {
			item := models.Defect{Text: defect.Text, Type: defect.Type, Dangerous: defect.Dangerous}
			switch {
			case failureTypes[strings.ToUpper(defect.Type)]:
				test.Failures = append(test.Failures, item)
			case advisoryTypes[strings.ToUpper(defect.Type)]:
				test.Advisories = append(test.Advisories, item)
			}
		}

		tests = append(tests, test)
	}

	if latest := latestTest(tests); latest != nil {
		vehicle.MotStatus = latest.TestResult
		vehicle.MotExpiryDate = latest.ExpiryDate
	}

	return vehicle, tests
}

// colourFor applies the per-shape field preference: the trade API names the
// field primaryColour, the fixture shape names it colour.
func colourFor(raw *dvsa.VehicleRecord) string {
	switch raw.Source {
	case dvsa.SourceFixture:
		if raw.Colour != "" {
			return raw.Colour
		}
		return raw.PrimaryColour
	default:
		if raw.PrimaryColour != "" {
			return raw.PrimaryColour
		}
		return raw.Colour
	}
}

// defectsFor applies the per-shape defect list preference: rfrAndComments for
// the trade API, defects for the fixture shape.
func defectsFor(source dvsa.Source, test dvsa.MotTest) []dvsa.Defect {
	switch source {
	case dvsa.SourceFixture:
		if test.Defects != nil {
			return test.Defects
		}
		return test.RfrAndComments
	default:
		if test.RfrAndComments != nil {
			return test.RfrAndComments
		}
		return test.Defects
	}
}

// deriveYear extracts the model year from the first year-like token of the
// first-used date, falling back to the registration date, then to the current
// calendar year. The final fallback is a known imprecision carried over from
// the original system, not silently masked: callers see a plausible year
// rather than zero.
func deriveYear(raw *dvsa.VehicleRecord, now time.Time) int {
	for _, field := range []string{raw.FirstUsedDate, raw.RegistrationDate} {
		if token := yearToken.FindString(field); token != "" {
			year, err := strconv.Atoi(token)
			if err == nil {
				return year
			}
		}
	}
	return now.Year()
}

// canonicalResult maps both result vocabularies (PASS/FAIL and PASSED/FAILED)
// onto the canonical stored form. Unknown values pass through uppercased.
func canonicalResult(result string) string {
	switch strings.ToUpper(result) {
	case "PASS", "PASSED":
		return models.TestResultPassed
	case "FAIL", "FAILED":
		return models.TestResultFailed
	default:
		return strings.ToUpper(result)
	}
}

// testDateLayouts covers the dotted upstream format with and without a time
// component plus ISO variants seen in stored data.
var testDateLayouts = []string{
	"2006.01.02 15:04:05",
	"2006.01.02",
	time.RFC3339,
	"2006-01-02",
}

// parseTestDate parses an upstream test date. The bool result reports whether
// any known layout matched.
func parseTestDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range testDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// latestTest returns the test with the most recent parseable date, falling
// back to the first entry (upstream payloads list newest first).
func latestTest(tests []*models.MotTest) *models.MotTest {
	var latest *models.MotTest
	var latestAt time.Time
	for _, t := range tests {
		at, ok := parseTestDate(t.TestDate)
		if !ok {
			continue
		}
		if latest == nil || at.After(latestAt) {
			latest = t
			latestAt = at
		}
	}
	if latest == nil && len(tests) > 0 {
		return tests[0]
	}
	return latest
}
