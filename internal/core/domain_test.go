package core

import "testing"

func TestDateOrdering(t *testing.T) {
	records := []WorkRecord{
		{ID: "c", WorkDay: Date{}},
		{ID: "b", WorkDay: NewDate(2024, 5, 2)},
		{ID: "a", WorkDay: NewDate(2024, 5, 1)},
	}
	SortByWorkDay(records)
	got := records[0].ID + records[1].ID + records[2].ID
	if got != "abc" {
		t.Errorf("sort order = %q, want missing date last", got)
	}
}

func TestDistinctWorkDays(t *testing.T) {
	records := []WorkRecord{
		{WorkDay: NewDate(2024, 5, 1)},
		{WorkDay: NewDate(2024, 5, 1)},
		{WorkDay: NewDate(2024, 5, 2)},
		{WorkDay: Date{}}, // missing date does not count as a workday
	}
	if got := DistinctWorkDays(records); got != 2 {
		t.Errorf("DistinctWorkDays = %d, want 2", got)
	}
}

func TestSubtotal(t *testing.T) {
	r := WorkRecord{
		UnitPrice: Price{Amount: Money{Cents: 75}, Known: true},
		Output:    Quantity{Value: 10, Known: true},
	}
	if got := r.Subtotal(); got.Cents != 750 {
		t.Errorf("Subtotal = %d cents, want 750", got.Cents)
	}

	r.UnitPrice.Known = false
	if got := r.Subtotal(); got.Cents != 0 {
		t.Errorf("unknown price should contribute zero, got %d", got.Cents)
	}
}

func TestDateString(t *testing.T) {
	if got := (Date{}).String(); got != MissingDateSentinel {
		t.Errorf("zero date renders %q, want sentinel", got)
	}
	if got := NewDate(2024, 5, 7).String(); got != "2024-05-07" {
		t.Errorf("date renders %q", got)
	}
}
