package catalog

import (
	"log/slog"
	"strconv"
	"strings"

	"worklog/internal/core"
)

// Worksheet column headers, as maintained in the reference spreadsheet.
const (
	colPersonID   = "PersonID"
	colPersonName = "PersonName"
	colPINHash    = "PINHash"
	colWorkCode   = "WorkCord"
	colWorkName   = "WorkName"
	colBookName   = "BookName"
	colProcess    = "WorkProcess"
	colUnitPrice  = "UnitPrice"
)

// parsePersons builds a person directory from worksheet rows. Rows with a
// non-numeric identifier or no name are dropped with a warning; a missing
// PIN hash only disables login for that person.
func parsePersons(rows []map[string]string) PersonDirectory {
	dir := make(PersonDirectory, len(rows))
	for _, row := range rows {
		idStr := strings.TrimSpace(row[colPersonID])
		name := strings.TrimSpace(row[colPersonName])
		pinHash := strings.TrimSpace(row[colPINHash])
		if idStr == "" && name == "" {
			continue
		}
		if idStr == "" || name == "" {
			slog.Warn("Incomplete person row dropped", "person_id", idStr, "name", name)
			continue
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			slog.Warn("Non-numeric person ID dropped", "person_id", idStr)
			continue
		}
		if pinHash == "" {
			slog.Warn("Person has no PIN hash and cannot log in", "person_id", id)
		}
		dir[id] = Person{ID: id, Name: name, PINHash: pinHash}
	}
	return dir
}

// parseWorkCodes builds the code index. A name without a code, or a code
// without a name, is dropped with a warning.
func parseWorkCodes(rows []map[string]string) WorkCodeIndex {
	idx := make(WorkCodeIndex)
	for _, row := range rows {
		code := strings.TrimSpace(row[colWorkCode])
		workName := strings.TrimSpace(row[colWorkName])
		bookName := strings.TrimSpace(row[colBookName])
		if code == "" && workName == "" {
			continue
		}
		if code == "" || workName == "" {
			slog.Warn("Incomplete work code row dropped", "work_code", code, "work_name", workName)
			continue
		}
		idx[code] = append(idx[code], WorkEntry{WorkName: workName, BookName: bookName})
	}
	return idx
}

// parseProcesses builds the price list. An unparseable unit price falls
// back to zero rather than dropping the process, so the process stays
// selectable.
func parseProcesses(rows []map[string]string) PriceList {
	list := PriceList{Prices: make(map[string]core.Money)}
	for _, row := range rows {
		process := strings.TrimSpace(row[colProcess])
		priceStr := strings.TrimSpace(row[colUnitPrice])
		if process == "" {
			continue
		}
		var cents int64
		if priceStr != "" {
			var ok bool
			cents, ok = core.ParseLenientCents(priceStr)
			if !ok {
				slog.Warn("Unparseable unit price, treating as zero", "process", process, "unit_price", priceStr)
				cents = 0
			}
		}
		list.Processes = append(list.Processes, process)
		list.Prices[process] = core.Money{Cents: cents}
	}
	return list
}
