package typeutils

import (
	"strconv"
	"strings"
)

// Int coerces a raw token into an int, falling back on malformed input.
func Int(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

// Float coerces a raw token into a float64, falling back on malformed input.
func Float(raw string, fallback float64) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback
	}
	return value
}

// Ptr returns a pointer to v, for feeding literals into nullable fields.
func Ptr[T any](v T) *T {
	return &v
}
