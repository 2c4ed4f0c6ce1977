package core

import (
	"fmt"
	"time"
)

// MonthWindow is a (year, month) pair used as the query and aggregation
// unit for record listings.
type MonthWindow struct {
	Year  int
	Month time.Month
}

// NewMonthWindow validates the pair against the calendar.
func NewMonthWindow(year, month int) (MonthWindow, error) {
	if month < 1 || month > 12 || year < 1 {
		return MonthWindow{}, ErrInvalidMonth
	}
	return MonthWindow{Year: year, Month: time.Month(month)}, nil
}

// MonthWindowOf returns the window containing t.
func MonthWindowOf(t time.Time) MonthWindow {
	return MonthWindow{Year: t.Year(), Month: t.Month()}
}

// Start is the first day of the month at midnight UTC.
func (w MonthWindow) Start() time.Time {
	return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the month at midnight UTC.
func (w MonthWindow) End() time.Time {
	return w.Start().AddDate(0, 1, -1)
}

// Prev is the window containing the day before the first of this month.
func (w MonthWindow) Prev() MonthWindow {
	return MonthWindowOf(w.Start().AddDate(0, 0, -1))
}

// Next is the window containing the day after the last of this month.
// Month lengths vary, so this goes through the real calendar instead of
// adding a fixed number of days.
func (w MonthWindow) Next() MonthWindow {
	return MonthWindowOf(w.End().AddDate(0, 0, 1))
}

// Contains reports whether d falls inside the window. Missing dates are
// never contained.
func (w MonthWindow) Contains(d Date) bool {
	if d.IsMissing() {
		return false
	}
	return d.Year() == w.Year && d.Month() == w.Month
}

// Label renders the Japanese display form, e.g. "2024年5月".
func (w MonthWindow) Label() string {
	return fmt.Sprintf("%d年%d月", w.Year, int(w.Month))
}
