package http

import (
	"strconv"

	"worklog/internal/core"
	"worklog/internal/services"
)

// recordRow is a work record prepared for rendering. Absent values carry
// the display sentinels here, at the presentation boundary, so the domain
// layer stays sentinel-free.
type recordRow struct {
	ID        string
	WorkDay   string
	WorkCode  string
	WorkName  string
	BookName  string
	Process   string
	UnitPrice string
	Output    string
	Subtotal  string
	Highlight bool
}

func displayRow(rec core.WorkRecord, highlightID string) recordRow {
	row := recordRow{
		ID:        rec.ID,
		WorkDay:   rec.WorkDay.String(),
		WorkCode:  orUnknown(rec.WorkCode),
		WorkName:  orUnknown(rec.WorkName),
		BookName:  orUnknown(rec.BookName),
		Process:   orUnknown(rec.Process),
		UnitPrice: "0",
		Output:    "0",
		Subtotal:  rec.Subtotal().String(),
		Highlight: highlightID != "" && rec.ID == highlightID,
	}
	if rec.UnitPrice.Known {
		row.UnitPrice = rec.UnitPrice.Amount.String()
	}
	if rec.Output.Known {
		row.Output = strconv.FormatInt(rec.Output.Value, 10)
	}
	return row
}

func orUnknown(s string) string {
	if s == "" {
		return core.UnknownSentinel
	}
	return s
}

// monthViewData is the records page payload.
type monthViewData struct {
	PersonName string
	Label      string
	PrevYear   int
	PrevMonth  int
	NextYear   int
	NextMonth  int

	Rows                []recordRow
	TotalAmount         string
	WorkdaysCount       int
	FilteredOutputTotal string
	Notices             []services.Notice
}

func buildMonthViewData(view services.MonthView, personName, highlightID string) monthViewData {
	data := monthViewData{
		PersonName:          personName,
		Label:               view.Window.Label(),
		PrevYear:            view.Prev.Year,
		PrevMonth:           int(view.Prev.Month),
		NextYear:            view.Next.Year,
		NextMonth:           int(view.Next.Month),
		TotalAmount:         view.TotalAmount.String(),
		FilteredOutputTotal: strconv.FormatFloat(view.FilteredOutputTotal, 'f', -1, 64),
		WorkdaysCount:       view.WorkdaysCount,
		Notices:             view.Notices,
	}
	data.Rows = make([]recordRow, 0, len(view.Records))
	for _, rec := range view.Records {
		data.Rows = append(data.Rows, displayRow(rec, highlightID))
	}
	return data
}
