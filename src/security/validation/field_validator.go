// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrValidationFailed is the sentinel wrapped by every validator error.
var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxNotesLength         = 10000
	MaxNameLength          = 100
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateOneOf checks that s is one of the allowed values.
func ValidateOneOf(s, fieldName string, allowed ...string) error {
	for _, a := range allowed {
		if s == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be one of %s", ErrValidationFailed, fieldName, strings.Join(allowed, ", "))
}

// ValidateDatetime parses an RFC3339 (or date-only) string, returning the
// parsed time. Empty input is an error; optional fields should not call this.
func ValidateDatetime(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrValidationFailed, fieldName)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid datetime", ErrValidationFailed, fieldName, trimmed)
}

// ValidateFinite checks that an optional numeric field, when present, is a
// real number within sane bounds.
func ValidateFinite(v *float64, fieldName string) error {
	if v == nil {
		return nil
	}
	if *v != *v || *v > 1e15 || *v < -1e15 { // NaN or absurd magnitude
		return fmt.Errorf("%w: %s is not a valid number", ErrValidationFailed, fieldName)
	}
	return nil
}
