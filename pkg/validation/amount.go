package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when a required field holds no value.
	ErrEmpty = errors.New("value is required")

	// ErrNotNumeric is returned when a field cannot be parsed as a number.
	ErrNotNumeric = errors.New("value is not a number")

	// ErrNotFinite is returned for NaN and infinite values.
	ErrNotFinite = errors.New("value is not finite")

	// ErrNegative is returned when a value must not be below zero.
	ErrNegative = errors.New("value must not be negative")

	// ErrNotPositive is returned when a value must be above zero.
	ErrNotPositive = errors.New("value must be greater than zero")
)

// groupedNumber matches numbers written with comma thousands separators.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// FieldError ties a validation failure to the form field that caused it.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ParseAmount parses a form value as a finite, non-negative number. Thousands
// separators (commas between groups of three digits) and surrounding
// whitespace are tolerated.
func ParseAmount(field, raw string) (float64, error) {
	value, err := ParseNumber(field, raw)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, &FieldError{Field: field, Value: raw, Err: ErrNegative}
	}
	return value, nil
}

// ParsePositiveAmount behaves like ParseAmount but also rejects zero.
func ParsePositiveAmount(field, raw string) (float64, error) {
	value, err := ParseAmount(field, raw)
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, &FieldError{Field: field, Value: raw, Err: ErrNotPositive}
	}
	return value, nil
}

// ParseNumber parses a form value as a finite number of either sign.
func ParseNumber(field, raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, &FieldError{Field: field, Value: raw, Err: ErrEmpty}
	}
	if strings.Contains(trimmed, ",") {
		if !groupedNumber.MatchString(trimmed) {
			return 0, &FieldError{Field: field, Value: raw, Err: ErrNotNumeric}
		}
		trimmed = strings.ReplaceAll(trimmed, ",", "")
	}

	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, &FieldError{Field: field, Value: raw, Err: ErrNotFinite}
		}
		return 0, &FieldError{Field: field, Value: raw, Err: ErrNotNumeric}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &FieldError{Field: field, Value: raw, Err: ErrNotFinite}
	}
	return value, nil
}

// ParseOptionalAmount behaves like ParseAmount but returns fallback for an
// empty value.
func ParseOptionalAmount(field, raw string, fallback float64) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return ParseAmount(field, raw)
}
