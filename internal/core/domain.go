package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Display sentinels. Internally a missing value is represented by the zero
// value of its field; these strings are applied only at the presentation
// boundary so sorting and aggregation never have to special-case them.
const (
	MissingDateSentinel = "9999-12-31"
	UnknownSentinel     = "不明"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Price is a unit price parsed leniently from the record store. Known
	// is false when the source value could not be parsed as a number.
	Price struct {
		Amount Money
		Known  bool
	}

	// Quantity is an output quantity parsed leniently from the record store.
	Quantity struct {
		Value int64
		Known bool
	}

	// WorkRecord is one normalized work-log entry. A zero WorkDay means the
	// stored record had no date; empty text fields mean the field was absent.
	WorkRecord struct {
		ID        string
		WorkDay   Date
		WorkCode  string
		WorkName  string
		BookName  string
		Process   string
		UnitPrice Price
		Output    Quantity
	}
)

var (
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidWorkDay   = errors.New("invalid work day")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidWorkCode  = errors.New("invalid work code")
	ErrEmptyProcess     = errors.New("empty process name")
	ErrMissingWorkName  = errors.New("work name required when a work code is given")
	ErrNoPersonSelected = errors.New("no person selected")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseWorkDay parses a YYYY-MM-DD date string.
func ParseWorkDay(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidWorkDay
	}
	return Date{Time: t}, nil
}

func (d Date) IsMissing() bool {
	return d.IsZero()
}

// String renders YYYY-MM-DD, or the missing-date sentinel for zero dates.
func (d Date) String() string {
	if d.IsZero() {
		return MissingDateSentinel
	}
	return d.Format("2006-01-02")
}

// Before orders dates ascending with missing dates last.
func (d Date) Before(other Date) bool {
	if d.IsZero() {
		return false
	}
	if other.IsZero() {
		return true
	}
	return d.Time.Before(other.Time)
}

// Subtotal is unit price times output. Either side being unparseable makes
// the record contribute zero, without affecting any other record.
func (r WorkRecord) Subtotal() Money {
	if !r.UnitPrice.Known || !r.Output.Known {
		return Money{}
	}
	return Money{Cents: r.UnitPrice.Amount.Cents * r.Output.Value}
}

// SortByWorkDay sorts records ascending by work date, missing dates last.
// Sorting is stable so ties keep store order.
func SortByWorkDay(records []WorkRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].WorkDay.Before(records[j].WorkDay)
	})
}

// DistinctWorkDays counts unique non-missing work dates.
func DistinctWorkDays(records []WorkRecord) int {
	seen := map[string]struct{}{}
	for _, r := range records {
		if r.WorkDay.IsMissing() {
			continue
		}
		seen[r.WorkDay.String()] = struct{}{}
	}
	return len(seen)
}
