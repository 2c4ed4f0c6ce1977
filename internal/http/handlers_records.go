package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"worklog/internal/core"
	"worklog/internal/records"
	"worklog/internal/services"
)

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	personID, _ := s.sessionPersonID(r)

	// Path values are absent on the bare /records route; the aggregator
	// treats zeroes as "no month requested".
	year, _ := strconv.Atoi(r.PathValue("year"))
	month, _ := strconv.Atoi(r.PathValue("month"))

	view := s.months.BuildMonthView(r.Context(), personID, year, month, s.sessionLastWorkDay(r))
	highlight := s.takeHighlight(w, r)
	s.render(w, r, "records.html", buildMonthViewData(view, s.sessionPersonName(r), highlight))
}

type editData struct {
	Row   recordRow
	Year  int
	Month int
	Error string
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	personID, _ := s.sessionPersonID(r)
	recordID := r.PathValue("id")

	raw, err := s.records.Get(r.Context(), personID, recordID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Record fetch failed", "person_id", personID, "record_id", recordID, "error", err)
		http.Error(w, "record fetch failed", http.StatusInternalServerError)
		return
	}

	rec := services.NormalizeRecord(r.Context(), raw)
	window := core.MonthWindowOf(rec.WorkDay.Time)
	s.render(w, r, "edit_record.html", editData{
		Row:   displayRow(rec, ""),
		Year:  window.Year,
		Month: int(window.Month),
	})
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	personID, _ := s.sessionPersonID(r)
	recordID := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	workDay, err := core.ParseWorkDay(strings.TrimSpace(r.Form.Get("work_day")))
	if err != nil {
		http.Error(w, "作業日を正しく入力してください。", http.StatusUnprocessableEntity)
		return
	}
	output, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("work_output")), 10, 64)
	if err != nil || output < 0 {
		http.Error(w, "数量は0以上の整数で入力してください。", http.StatusUnprocessableEntity)
		return
	}

	if err := s.records.Update(r.Context(), personID, recordID, workDay, output); err != nil {
		slog.ErrorContext(r.Context(), "Record update failed", "person_id", personID, "record_id", recordID, "error", err)
		http.Error(w, "更新中にエラーが発生しました。", http.StatusInternalServerError)
		return
	}

	s.rememberWorkDay(w, r, workDay.String(), recordID)
	window := core.MonthWindowOf(workDay.Time)
	http.Redirect(w, r, fmt.Sprintf("/records/%d/%d", window.Year, int(window.Month)), http.StatusSeeOther)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	personID, _ := s.sessionPersonID(r)
	recordID := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := s.records.Delete(r.Context(), personID, recordID); err != nil {
		slog.ErrorContext(r.Context(), "Record delete failed", "person_id", personID, "record_id", recordID, "error", err)
		http.Error(w, "削除中にエラーが発生しました。", http.StatusInternalServerError)
		return
	}

	// The delete form carries the month being displayed so the redirect
	// lands back on it.
	target := "/records"
	year, _ := strconv.Atoi(r.Form.Get("year"))
	month, _ := strconv.Atoi(r.Form.Get("month"))
	if window, err := core.NewMonthWindow(year, month); err == nil {
		target = fmt.Sprintf("/records/%d/%d", window.Year, int(window.Month))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
