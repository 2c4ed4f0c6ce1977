package catalog

import "testing"

func TestParsePersonsDropsBadRows(t *testing.T) {
	rows := []map[string]string{
		{"PersonID": "101", "PersonName": "山田", "PINHash": "h"},
		{"PersonID": "abc", "PersonName": "誰か", "PINHash": "h"}, // non-numeric ID
		{"PersonID": "103", "PersonName": ""},                   // name missing
		{"PersonID": "104", "PersonName": "田中"},                 // no PIN hash: kept, cannot log in
		{},
	}
	dir := parsePersons(rows)
	if len(dir) != 2 {
		t.Fatalf("got %d persons, want 2: %v", len(dir), dir)
	}
	if _, ok := dir[104]; !ok {
		t.Error("person without PIN hash should still appear in the directory")
	}
	if dir[104].PINHash != "" {
		t.Error("missing PIN hash should stay empty")
	}
}

func TestParseWorkCodesDropsIncomplete(t *testing.T) {
	rows := []map[string]string{
		{"WorkCord": "12345", "WorkName": "品A", "BookName": "書A"},
		{"WorkCord": "", "WorkName": "名前だけ"},
		{"WorkCord": "67890", "WorkName": ""},
	}
	idx := parseWorkCodes(rows)
	if len(idx) != 1 {
		t.Fatalf("got %d codes, want 1", len(idx))
	}
	if idx["12345"][0].BookName != "書A" {
		t.Errorf("book name lost: %v", idx["12345"])
	}
}

func TestParseProcessesBadPrice(t *testing.T) {
	rows := []map[string]string{
		{"WorkProcess": "A分給", "UnitPrice": "0.75"},
		{"WorkProcess": "壊れ", "UnitPrice": "x"},
		{"WorkProcess": "空", "UnitPrice": ""},
	}
	list := parseProcesses(rows)
	if len(list.Processes) != 3 {
		t.Fatalf("bad prices must not drop the process: %v", list.Processes)
	}
	if list.UnitPrice("壊れ").Cents != 0 || list.UnitPrice("空").Cents != 0 {
		t.Error("unparseable or empty prices default to zero")
	}
}
