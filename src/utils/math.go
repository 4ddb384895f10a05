package utils

import "math"

// RoundFloat rounds val to the given number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// TruncFloat truncates val toward zero to the given number of decimal places.
func TruncFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Trunc(val*ratio) / ratio
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
