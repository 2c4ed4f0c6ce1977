package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"worklog/internal/auth"
	"worklog/internal/catalog"
	"worklog/internal/core"
	"worklog/internal/records"
	"worklog/internal/records/memory"
	"worklog/internal/services"
)

type fakeCatalogs struct {
	persons catalog.PersonDirectory
	codes   catalog.WorkCodeIndex
	prices  catalog.PriceList
}

func (f fakeCatalogs) Persons(context.Context) catalog.PersonDirectory { return f.persons }
func (f fakeCatalogs) WorkCodes(context.Context) catalog.WorkCodeIndex { return f.codes }
func (f fakeCatalogs) Processes(context.Context) catalog.PriceList     { return f.prices }

type testEnv struct {
	ts     *httptest.Server
	client *http.Client
	store  *memory.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := auth.HashPIN("1234")
	if err != nil {
		t.Fatal(err)
	}
	catalogs := fakeCatalogs{
		persons: catalog.PersonDirectory{
			101: {ID: 101, Name: "田中", PINHash: hash},
			102: {ID: 102, Name: "鈴木"},
		},
		codes: catalog.WorkCodeIndex{
			"12345": {{WorkName: "国語五年", BookName: "上巻"}},
			"12399": {{WorkName: "理科四年", BookName: "下巻"}},
			"777":   {{WorkName: "算数一年", BookName: ""}},
		},
		prices: catalog.PriceList{
			Processes: []string{"組版", "校正分給"},
			Prices: map[string]core.Money{
				"組版":   {Cents: 15000},
				"校正分給": {Cents: 75},
			},
		},
	}

	store := memory.New()
	s := NewServer("127.0.0.1:0", "0123456789abcdef0123456789abcdef",
		catalogs,
		auth.New(catalogs),
		services.NewMonthViewService(store),
		services.NewRecordService(store, nil),
	)
	t.Cleanup(s.rateLimiter.stop)

	ts := httptest.NewServer(s.Handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{ts: ts, client: client, store: store}
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.Post(e.ts.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp := e.postForm(t, "/auth/login", url.Values{"person_id": {"101"}, "pin": {"1234"}})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
}

func TestLoginRequired(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/", "/records", "/api/get_worknames?workcd=12345"} {
		resp := e.get(t, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Errorf("GET %s status = %d, want redirect", path, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/auth/login" {
			t.Errorf("GET %s redirects to %q", path, loc)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	e := newTestEnv(t)

	resp := e.postForm(t, "/auth/login", url.Values{"person_id": {"101"}, "pin": {"0000"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong pin status = %d", resp.StatusCode)
	}

	// Person without a configured PIN cannot log in at all.
	resp = e.postForm(t, "/auth/login", url.Values{"person_id": {"102"}, "pin": {"1234"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("pinless person status = %d", resp.StatusCode)
	}

	e.login(t)

	resp = e.get(t, "/")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("entry form status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "田中") {
		t.Error("entry form should show the person name")
	}
}

func TestCreateRecordAndView(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	resp := e.postForm(t, "/", url.Values{
		"work_day":     {"2024-05-10"},
		"work_cd":      {"12345"},
		"work_name":    {"国語五年"},
		"book_name":    {"上巻"},
		"work_process": {"組版"},
		"work_output":  {"4"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/records/2024/5" {
		t.Errorf("create redirects to %q", loc)
	}

	got, err := e.store.QueryMonth(context.Background(), 101, 2024, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("stored records = %d", len(got))
	}
	// Unit price resolved from the process catalog, not the form.
	if got[0].Fields[records.FieldUnitPrice] != 150.0 {
		t.Errorf("unit price = %v, want 150", got[0].Fields[records.FieldUnitPrice])
	}

	resp = e.get(t, "/records/2024/5")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("records view status = %d", resp.StatusCode)
	}
	page := string(body)
	if !strings.Contains(page, "2024-05-10") || !strings.Contains(page, "国語五年") {
		t.Error("records view should render the new record")
	}
	if !strings.Contains(page, "600") {
		t.Error("records view should show the subtotal 600")
	}
}

func TestCreateRecordValidation(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	cases := []struct {
		name string
		form url.Values
	}{
		{"missing work day", url.Values{"work_process": {"組版"}, "work_output": {"1"}}},
		{"non-numeric code", url.Values{"work_day": {"2024-05-10"}, "work_cd": {"abc"}, "work_name": {"x"}, "work_process": {"組版"}, "work_output": {"1"}}},
		{"code without name", url.Values{"work_day": {"2024-05-10"}, "work_cd": {"12345"}, "work_process": {"組版"}, "work_output": {"1"}}},
		{"missing process", url.Values{"work_day": {"2024-05-10"}, "work_output": {"1"}}},
		{"negative output", url.Values{"work_day": {"2024-05-10"}, "work_process": {"組版"}, "work_output": {"-2"}}},
		{"fractional output", url.Values{"work_day": {"2024-05-10"}, "work_process": {"組版"}, "work_output": {"1.5"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.postForm(t, "/", tc.form)
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.StatusCode)
			}
		})
	}

	got, err := e.store.QueryMonth(context.Background(), 101, 2024, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("rejected submissions must not store records, got %d", len(got))
	}
}

func TestEditAndDeleteRecord(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	id, err := e.store.Create(context.Background(), 101, map[string]any{
		records.FieldWorkDay:   "2024-05-10",
		records.FieldProcess:   "組版",
		records.FieldUnitPrice: 150.0,
		records.FieldOutput:    int64(4),
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := e.get(t, "/edit_record/"+id)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit form status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "2024-05-10") {
		t.Error("edit form should show the record's work day")
	}

	resp = e.postForm(t, "/edit_record/"+id, url.Values{
		"work_day":    {"2024-06-01"},
		"work_output": {"7"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("edit status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/records/2024/6" {
		t.Errorf("edit redirects to %q, want the new month", loc)
	}

	raw, err := e.store.Get(context.Background(), 101, id)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Fields[records.FieldWorkDay] != "2024-06-01" {
		t.Errorf("work day = %v", raw.Fields[records.FieldWorkDay])
	}
	// Only day and output change on edit.
	if raw.Fields[records.FieldProcess] != "組版" {
		t.Errorf("process = %v, must be untouched", raw.Fields[records.FieldProcess])
	}

	resp = e.postForm(t, "/delete_record/"+id, url.Values{"year": {"2024"}, "month": {"6"}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/records/2024/6" {
		t.Errorf("delete redirects to %q", loc)
	}
	if _, err := e.store.Get(context.Background(), 101, id); err == nil {
		t.Error("record should be gone")
	}
}

func TestEditUnknownRecord(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	resp := e.get(t, "/edit_record/mem:999")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWorkNamesAPI(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	decode := func(t *testing.T, resp *http.Response) []workNameEntry {
		t.Helper()
		defer resp.Body.Close()
		var payload struct {
			WorkNames []workNameEntry `json:"worknames"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		return payload.WorkNames
	}

	resp := e.get(t, "/api/get_worknames?workcd=12345")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("exact lookup status = %d", resp.StatusCode)
	}
	names := decode(t, resp)
	if len(names) != 1 || names[0].WorkName != "国語五年" {
		t.Errorf("exact lookup = %+v", names)
	}

	// Prefix fallback kicks in for codes of three or more digits.
	resp = e.get(t, "/api/get_worknames?workcd=123")
	names = decode(t, resp)
	if len(names) != 2 {
		t.Errorf("prefix lookup = %+v, want both 123* codes", names)
	}

	// Short codes match exactly only.
	resp = e.get(t, "/api/get_worknames?workcd=12")
	names = decode(t, resp)
	if len(names) != 0 {
		t.Errorf("short code lookup = %+v, want empty", names)
	}

	resp = e.get(t, "/api/get_worknames?workcd=12x")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("non-numeric status = %d, want 400", resp.StatusCode)
	}

	resp = e.get(t, "/api/get_worknames")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing code status = %d, want 400", resp.StatusCode)
	}
}

func TestUnitPriceAPI(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	resp := e.get(t, "/api/get_unitprice?workprocess=組版")
	var payload struct {
		UnitPrice float64 `json:"unitprice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || payload.UnitPrice != 150 {
		t.Errorf("status = %d, unitprice = %v", resp.StatusCode, payload.UnitPrice)
	}

	resp = e.get(t, "/api/get_unitprice?workprocess=存在しない工程")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown process status = %d, want 404", resp.StatusCode)
	}

	resp = e.get(t, "/api/get_unitprice")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing process status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp := e.get(t, path)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	resp := e.postForm(t, "/auth/logout", url.Values{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp = e.get(t, "/")
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Error("session should be cleared after logout")
	}
}
