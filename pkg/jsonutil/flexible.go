package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleString converts a json.RawMessage to a string, handling upstream
// payloads that encode the same field as a string in one shape and a number in
// another (the DVSA odometer and engine size fields do both). Returns empty
// string for null/empty.
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleInt converts a json.RawMessage holding either a JSON number or a
// numeric string to an int. Returns 0 when the value is absent or not numeric.
func FlexibleInt(raw json.RawMessage) int {
	s := strings.TrimSpace(FlexibleString(raw))
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
