// Package core holds the domain types shared by the catalog cache, the
// record store backends and the monthly aggregation service.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLenientCents parses a unit price that may arrive from the record
// store as a string, an integer or a float. It accepts decimal comma and
// surrounding whitespace and rounds half-up on the third decimal. Unlike a
// strict amount parser it allows zero, since zero-priced processes exist.
// Returns false when the value is absent or not a number.
func ParseLenientCents(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		if n < 0 {
			return 0, false
		}
		return int64(n*100.0 + 0.5), true
	case int:
		if n < 0 {
			return 0, false
		}
		return int64(n) * 100, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return n * 100, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", "."))
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return int64(f*100.0 + 0.5), true
	default:
		return ParseLenientCents(fmt.Sprint(v))
	}
}

// ParseLenientInt parses an output quantity that may arrive as a string or
// a number. Fractions are truncated the way the store's integer column
// would. Returns false for absent or non-numeric values.
func ParseLenientInt(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
		return 0, false
	default:
		return ParseLenientInt(fmt.Sprint(v))
	}
}

// ParseNonNegativeFloat parses a quantity for the time-rate output total,
// which historically holds fractional minute counts. Negative or malformed
// values are rejected.
func ParseNonNegativeFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		if n < 0 {
			return 0, false
		}
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return float64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, false
		}
		return f, true
	default:
		return ParseNonNegativeFloat(fmt.Sprint(v))
	}
}

// Float returns the decimal value for display purposes. Calculations stay
// in cents to avoid floating-point drift.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with up to two decimals, trimming trailing
// zeros ("150", "0.75").
func (m Money) String() string {
	s := strconv.FormatFloat(m.Float(), 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}
