// Package services holds the application services between the HTTP layer
// and the collaborators: monthly aggregation and record orchestration.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"worklog/internal/core"
	"worklog/internal/records"
)

// TimeRateMarker flags processes paid by time instead of piece count; the
// month view sums their output quantities separately.
const TimeRateMarker = "分給"

// Notice levels for user-visible messages.
const (
	NoticeInfo    = "info"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a user-visible message produced while building a view.
type Notice struct {
	Level   string
	Message string
}

// MonthView is everything the records page needs for one person-month.
type MonthView struct {
	Window  core.MonthWindow
	Prev    core.MonthWindow
	Next    core.MonthWindow
	Records []core.WorkRecord

	TotalAmount         core.Money
	WorkdaysCount       int
	FilteredOutputTotal float64

	Notices []Notice
}

// MonthViewService resolves a display month, fetches one person's records
// for it and computes the summary figures.
type MonthViewService struct {
	store records.Store
	now   func() time.Time
}

func NewMonthViewService(store records.Store) *MonthViewService {
	return &MonthViewService{store: store, now: time.Now}
}

// WithClock injects the time source, for tests.
func (s *MonthViewService) WithClock(now func() time.Time) *MonthViewService {
	s.now = now
	return s
}

// BuildMonthView builds the view for the requested month. reqYear and
// reqMonth are zero when the request named no month; lastWorkDay is the
// session's last submitted work day, possibly empty. The returned view is
// always usable: collaborator failures and bad input degrade to notices,
// never to an error.
func (s *MonthViewService) BuildMonthView(ctx context.Context, personID, reqYear, reqMonth int, lastWorkDay string) MonthView {
	view := MonthView{}

	window, notice := s.resolveMonth(reqYear, reqMonth, lastWorkDay)
	view.Window = window
	view.Prev = window.Prev()
	view.Next = window.Next()
	if notice != nil {
		view.Notices = append(view.Notices, *notice)
	}

	raws, err := s.store.QueryMonth(ctx, personID, window.Year, int(window.Month))
	if err != nil {
		slog.ErrorContext(ctx, "Record query failed",
			"person_id", personID, "year", window.Year, "month", int(window.Month), "error", err)
		view.Notices = append(view.Notices, Notice{
			Level:   NoticeWarning,
			Message: "⚠ レコードの取得中にエラーが発生しました。",
		})
		return view
	}

	view.Records = make([]core.WorkRecord, 0, len(raws))
	for _, raw := range raws {
		view.Records = append(view.Records, NormalizeRecord(ctx, raw))
	}
	core.SortByWorkDay(view.Records)

	for _, r := range view.Records {
		view.TotalAmount = view.TotalAmount.Add(r.Subtotal())
	}
	view.WorkdaysCount = core.DistinctWorkDays(view.Records)
	view.FilteredOutputTotal = timeRateOutputTotal(ctx, raws)

	return view
}

// resolveMonth picks the display month. Explicit valid input wins; absent
// or invalid input falls back to the session's last work day, then to the
// month of (today - 30 days). The result is always a valid month.
func (s *MonthViewService) resolveMonth(reqYear, reqMonth int, lastWorkDay string) (core.MonthWindow, *Notice) {
	if reqYear != 0 || reqMonth != 0 {
		window, err := core.NewMonthWindow(reqYear, reqMonth)
		if err == nil {
			return window, nil
		}
		return s.defaultMonth(lastWorkDay), &Notice{
			Level:   NoticeWarning,
			Message: "⚠ 無効な年月が指定されました。デフォルトの月を表示します。",
		}
	}
	return s.defaultMonth(lastWorkDay), nil
}

func (s *MonthViewService) defaultMonth(lastWorkDay string) core.MonthWindow {
	if lastWorkDay != "" {
		if d, err := core.ParseWorkDay(lastWorkDay); err == nil {
			return core.MonthWindowOf(d.Time)
		}
	}
	return core.MonthWindowOf(s.now().AddDate(0, 0, -30))
}

// NormalizeRecord converts a raw store record into the domain shape.
// Missing or malformed fields become explicit absent values; the record
// itself is never dropped, so partial data stays visible for correction.
func NormalizeRecord(ctx context.Context, raw records.Raw) core.WorkRecord {
	rec := core.WorkRecord{ID: raw.ID}

	if dayStr, ok := raw.Fields[records.FieldWorkDay].(string); ok {
		if d, err := core.ParseWorkDay(dayStr); err == nil {
			rec.WorkDay = d
		}
	}

	// A stored zero code means "no code"; the create path writes 0 when
	// the form left the code blank.
	if code, ok := core.ParseLenientInt(raw.Fields[records.FieldWorkCode]); ok && code != 0 {
		rec.WorkCode = strconv.FormatInt(code, 10)
	}
	rec.WorkName = fieldString(raw.Fields, records.FieldWorkName)
	rec.BookName = fieldString(raw.Fields, records.FieldBookName)
	rec.Process = fieldString(raw.Fields, records.FieldProcess)

	if cents, ok := core.ParseLenientCents(raw.Fields[records.FieldUnitPrice]); ok {
		rec.UnitPrice = core.Price{Amount: core.Money{Cents: cents}, Known: true}
	} else if raw.Fields[records.FieldUnitPrice] != nil {
		slog.WarnContext(ctx, "Unparseable unit price in record",
			"record_id", raw.ID, "unit_price", raw.Fields[records.FieldUnitPrice])
	}

	if qty, ok := core.ParseLenientInt(raw.Fields[records.FieldOutput]); ok {
		rec.Output = core.Quantity{Value: qty, Known: true}
	} else if raw.Fields[records.FieldOutput] != nil {
		slog.WarnContext(ctx, "Unparseable output quantity in record",
			"record_id", raw.ID, "work_output", raw.Fields[records.FieldOutput])
	}

	return rec
}

// timeRateOutputTotal sums raw output quantities of time-rate records.
// It reads the raw fields rather than the normalized quantity because
// legacy rows hold fractional minute counts the integer column truncates.
func timeRateOutputTotal(ctx context.Context, raws []records.Raw) float64 {
	var total float64
	for _, raw := range raws {
		process, _ := raw.Fields[records.FieldProcess].(string)
		if !strings.Contains(process, TimeRateMarker) {
			continue
		}
		v := raw.Fields[records.FieldOutput]
		if v == nil {
			continue
		}
		qty, ok := core.ParseNonNegativeFloat(v)
		if !ok {
			slog.InfoContext(ctx, "Output skipped in time-rate total",
				"record_id", raw.ID, "work_output", v)
			continue
		}
		total += qty
	}
	return total
}

func fieldString(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
