package services

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/motcheck/motcheck-engine/pkg/models"
)

//go:embed categories.yaml
var categoriesYAML []byte

// FailureCategory is one predefined failure category: a display name, the
// keywords that map failure text onto it, and the fixed recommendation.
// Categories are data, not branches; extending them means editing
// categories.yaml.
type FailureCategory struct {
	Name            string   `yaml:"name"`
	Keywords        []string `yaml:"keywords"`
	Recommendations string   `yaml:"recommendations"`
}

var failureCategories = loadCategories()

func loadCategories() []FailureCategory {
	var doc struct {
		Categories []FailureCategory `yaml:"categories"`
	}
	if err := yaml.Unmarshal(categoriesYAML, &doc); err != nil {
		panic(fmt.Sprintf("invalid embedded categories.yaml: %v", err))
	}
	return doc.Categories
}

// Confidence and risk constants for the heuristic scoring.
const (
	repeatFailureConfidence = 85
	recentFailureConfidence = 65
	oldFailureConfidence    = 40
	ageWearConfidence       = 60
	dieselConfidence        = 45
	fallbackConfidence      = 35
	recentFailureWindow     = 12 * 30 * 24 * time.Hour // ~12 months
	ageWearThresholdYears   = 10
)

// categoryPattern accumulates matching failures for one category across the
// whole test history.
type categoryPattern struct {
	count     int
	firstText string
	lastDate  time.Time
	hasDate   bool
}

// GeneratePredictions produces heuristic risk predictions from a vehicle's
// test history. Deterministic given identical input; never returns an empty
// list. No ordering is applied here - repositories sort by risk on read.
func GeneratePredictions(vehicle *models.Vehicle, motTests []*models.MotTest, now time.Time) []*models.Prediction {
	patterns := make(map[string]*categoryPattern)

	for _, test := range motTests {
		testDate, dateOK := parseTestDate(test.TestDate)
		for _, failure := range test.Failures {
			text := strings.ToLower(failure.Text)
			category, ok := matchCategory(text)
			if !ok {
				continue
			}

			p := patterns[category.Name]
			if p == nil {
				p = &categoryPattern{}
				patterns[category.Name] = p
			}
			p.count++
			if p.firstText == "" {
				p.firstText = failure.Text
			}
			if dateOK && (!p.hasDate || testDate.After(p.lastDate)) {
				p.lastDate = testDate
				p.hasDate = true
			}
		}
	}

	var predictions []*models.Prediction

	// Emit in category table order so repeated runs over the same history
	// produce the same prediction set in the same order.
	for _, category := range failureCategories {
		p, ok := patterns[category.Name]
		if !ok {
			continue
		}

		risk, confidence := assessRisk(p, now)

		description := p.firstText
		if description == "" {
			description = category.Name + " issues detected"
		}

		pattern := "Previous failure detected"
		if p.count > 1 {
			pattern = fmt.Sprintf("Previously failed %d times", p.count)
		}

		lastFailure := ""
		if p.hasDate {
			lastFailure = p.lastDate.Format("January 2006")
		}

		predictions = append(predictions, &models.Prediction{
			Category:        category.Name,
			Description:     description,
			RiskLevel:       risk,
			Confidence:      confidence,
			LastFailureDate: lastFailure,
			Pattern:         pattern,
			Recommendations: category.Recommendations,
		})
	}

	if age := now.Year() - vehicle.Year; vehicle.Year > 0 && age > ageWearThresholdYears {
		predictions = append(predictions, &models.Prediction{
			Category:        "Age-Related Wear",
			Description:     "Components may show age-related deterioration",
			RiskLevel:       models.RiskMedium,
			Confidence:      ageWearConfidence,
			Pattern:         fmt.Sprintf("Vehicle is %d years old", age),
			Recommendations: "Regular maintenance recommended for older vehicles",
		})
	}

	if strings.Contains(strings.ToLower(vehicle.FuelType), "diesel") {
		predictions = append(predictions, &models.Prediction{
			Category:        "Diesel Emissions",
			Description:     "Diesel particulate filter and emissions system monitoring",
			RiskLevel:       models.RiskLow,
			Confidence:      dieselConfidence,
			Pattern:         "Diesel vehicle analysis",
			Recommendations: "Regular highway driving helps maintain DPF system",
		})
	}

	if len(predictions) == 0 {
		predictions = append(predictions, &models.Prediction{
			Category:        "General Maintenance",
			Description:     "Routine maintenance items to monitor",
			RiskLevel:       models.RiskLow,
			Confidence:      fallbackConfidence,
			Pattern:         "Preventive analysis",
			Recommendations: "Continue regular maintenance schedule",
		})
	}

	return predictions
}

// matchCategory returns the first category whose keyword appears in the
// lowercased failure text.
func matchCategory(text string) (FailureCategory, bool) {
	for _, category := range failureCategories {
		for _, keyword := range category.Keywords {
			if strings.Contains(text, keyword) {
				return category, true
			}
		}
	}
	return FailureCategory{}, false
}

// assessRisk scores one category's accumulated failures. Two or more failures
// across history is HIGH regardless of recency; a single failure is MEDIUM
// when recent (or undated) and LOW otherwise.
func assessRisk(p *categoryPattern, now time.Time) (string, int) {
	if p.count >= 2 {
		return models.RiskHigh, repeatFailureConfidence
	}
	if !p.hasDate || now.Sub(p.lastDate) < recentFailureWindow {
		return models.RiskMedium, recentFailureConfidence
	}
	return models.RiskLow, oldFailureConfidence
}
