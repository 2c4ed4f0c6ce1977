package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"worklog/internal/core"
	"worklog/internal/services"
)

type entryData struct {
	PersonName string
	Today      string
	Processes  []string
	Error      string

	// Submitted values, echoed back on validation failure.
	WorkDay  string
	WorkCode string
	WorkName string
	BookName string
	Process  string
	Output   string
}

func (s *Server) handleEntryForm(w http.ResponseWriter, r *http.Request) {
	prices := s.catalogs.Processes(r.Context())
	day := s.sessionLastWorkDay(r)
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}
	s.render(w, r, "index.html", entryData{
		PersonName: s.sessionPersonName(r),
		Today:      day,
		Processes:  prices.Processes,
		WorkDay:    day,
	})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	personID, _ := s.sessionPersonID(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := entryData{
		PersonName: s.sessionPersonName(r),
		Today:      time.Now().Format("2006-01-02"),
		WorkDay:    strings.TrimSpace(r.Form.Get("work_day")),
		WorkCode:   strings.TrimSpace(r.Form.Get("work_cd")),
		WorkName:   strings.TrimSpace(r.Form.Get("work_name")),
		BookName:   strings.TrimSpace(r.Form.Get("book_name")),
		Process:    strings.TrimSpace(r.Form.Get("work_process")),
		Output:     strings.TrimSpace(r.Form.Get("work_output")),
	}

	renderError := func(message string) {
		prices := s.catalogs.Processes(r.Context())
		form.Processes = prices.Processes
		form.Error = message
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "index.html", form)
	}

	workDay, err := core.ParseWorkDay(form.WorkDay)
	if err != nil {
		renderError("作業日を正しく入力してください。")
		return
	}
	output, err := strconv.ParseInt(form.Output, 10, 64)
	if err != nil || output < 0 {
		renderError("数量は0以上の整数で入力してください。")
		return
	}

	// Unit price comes from the process catalog at submit time, never from
	// the form.
	prices := s.catalogs.Processes(r.Context())
	input := services.CreateRecordInput{
		WorkDay:   workDay,
		WorkCode:  form.WorkCode,
		WorkName:  form.WorkName,
		BookName:  form.BookName,
		Process:   form.Process,
		UnitPrice: prices.UnitPrice(form.Process),
		Output:    output,
	}

	recordID, err := s.records.Create(r.Context(), personID, input)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyProcess):
			renderError("工程を選択してください。")
		case errors.Is(err, core.ErrInvalidWorkCode):
			renderError("作業コードは数字で入力してください。")
		case errors.Is(err, core.ErrMissingWorkName):
			renderError("作業コードを指定した場合は作業名が必要です。")
		case errors.Is(err, core.ErrInvalidWorkDay), errors.Is(err, core.ErrInvalidQuantity):
			renderError("入力内容を確認してください。")
		default:
			slog.ErrorContext(r.Context(), "Record create failed", "person_id", personID, "error", err)
			renderError("登録中にエラーが発生しました。")
		}
		return
	}

	s.rememberWorkDay(w, r, workDay.String(), recordID)
	window := core.MonthWindowOf(workDay.Time)
	http.Redirect(w, r, fmt.Sprintf("/records/%d/%d", window.Year, int(window.Month)), http.StatusSeeOther)
}
