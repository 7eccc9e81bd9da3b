package records

import (
	"strconv"
	"strings"
)

// Flag marks a value against its reference range.
type Flag string

const (
	FlagNormal Flag = "normal"
	FlagHigh   Flag = "high"
	FlagLow    Flag = "low"
)

// IsValid reports whether f is one of the known flags.
func (f Flag) IsValid() bool {
	switch f {
	case FlagNormal, FlagHigh, FlagLow:
		return true
	}
	return false
}

// DeriveFlag compares a numeric value with its reference bounds. Values
// that do not parse as numbers, or that have no bounds, are normal.
func DeriveFlag(value string, refMin, refMax *float64) Flag {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(value, ",", ".")), 64)
	if err != nil {
		return FlagNormal
	}
	if refMin != nil && v < *refMin {
		return FlagLow
	}
	if refMax != nil && v > *refMax {
		return FlagHigh
	}
	return FlagNormal
}
