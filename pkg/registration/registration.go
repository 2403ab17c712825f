// Package registration validates and canonicalizes UK vehicle registration marks.
package registration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/motcheck/motcheck-engine/pkg/apperrors"
)

// Known UK registration formats, matched after canonicalization.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z]{3}$`), // current format (AB12 CDE)
	regexp.MustCompile(`^[A-Z]\d{1,3}[A-Z]{3}$`),  // prefix format (A123 BCD)
	regexp.MustCompile(`^[A-Z]{3}\d{1,3}[A-Z]$`),  // suffix format (ABC 123D)
	regexp.MustCompile(`^[A-Z]{1,3}\d{1,4}$`),     // dateless format (AB 1234)
}

// Normalize strips whitespace, uppercases, and validates raw against the known
// registration formats. The returned value is the canonical stored form.
func Normalize(raw string) (string, error) {
	clean := strings.ToUpper(strings.Join(strings.Fields(raw), ""))

	if len(clean) < 2 || len(clean) > 8 {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidRegistration, raw)
	}

	for _, p := range patterns {
		if p.MatchString(clean) {
			return clean, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidRegistration, raw)
}
