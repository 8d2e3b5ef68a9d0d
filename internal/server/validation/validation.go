// Package validation checks the shape of user-supplied fields. Every failure
// wraps common.ErrValidation so the HTTP boundary answers 400.
//
// A nil pointer stands for a field that was absent or null in the request.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/petitions/petitiond/internal/common"
)

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9]+(\.[a-z0-9]+)*@[a-z0-9]+(\.[a-z0-9]+)+$`)

// dateLayouts are tried in order when parsing a closing date.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Email fails unless value looks like localpart@domain.tld.
func Email(value *string) error {
	if value == nil {
		return fmt.Errorf("%w: email is null", common.ErrValidation)
	}
	if !emailPattern.MatchString(*value) {
		return fmt.Errorf("%w: invalid email: %s", common.ErrValidation, *value)
	}
	return nil
}

// NonEmptyString fails when a required field is missing or empty. Optional
// fields may be missing or empty.
func NonEmptyString(value *string, field string, required bool) error {
	if !required {
		return nil
	}
	if value == nil || *value == "" {
		return fmt.Errorf("%w: invalid %s", common.ErrValidation, field)
	}
	return nil
}

// Password fails on a missing or empty password.
func Password(value *string) error {
	if value == nil || *value == "" {
		return fmt.Errorf("%w: invalid password", common.ErrValidation)
	}
	return nil
}

// FutureDate parses candidate and requires it to be strictly after now.
func FutureDate(now time.Time, candidate string) (time.Time, error) {
	parsed, ok := parseDate(candidate)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: invalid closing date", common.ErrValidation)
	}
	if !parsed.After(now) {
		return time.Time{}, fmt.Errorf("%w: invalid closing date, must be in the future", common.ErrValidation)
	}
	return parsed, nil
}

// NonNegativeInteger parses an integer >= 0. Integral decimals such as "2.0"
// are accepted. A nil or empty value is accepted (and returns nil) unless
// required is set.
func NonNegativeInteger(value *string, field string, required bool) (*int64, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		if required {
			return nil, fmt.Errorf("%w: invalid %s: cannot be null", common.ErrValidation, field)
		}
		return nil, nil
	}
	n, ok := parseInteger(strings.TrimSpace(*value))
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s: should be an integer", common.ErrValidation, field)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid %s: should be an integer >= 0", common.ErrValidation, field)
	}
	return &n, nil
}

// parseInteger accepts a decimal integer, or a number with an integral value
// written in decimal or exponent form ("2.0", "1e3").
func parseInteger(s string) (int64, bool) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if strings.ContainsAny(s, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// NonNegativeID validates an identifier that arrived as a JSON number.
func NonNegativeID(value *int64, field string) error {
	if value == nil {
		return fmt.Errorf("%w: invalid %s: cannot be null", common.ErrValidation, field)
	}
	if *value < 0 {
		return fmt.Errorf("%w: invalid %s: should be an integer >= 0", common.ErrValidation, field)
	}
	return nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
