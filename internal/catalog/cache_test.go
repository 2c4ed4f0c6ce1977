package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource counts fetches and can be switched to fail.
type fakeSource struct {
	rows    map[string][]map[string]string
	fetches map[string]int
	fail    bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		rows: map[string][]map[string]string{
			"wsPersonID": {
				{"PersonID": "101", "PersonName": "山田", "PINHash": "h1"},
				{"PersonID": "102", "PersonName": "佐藤", "PINHash": "h2"},
			},
			"wsTableCD": {
				{"WorkCord": "12345", "WorkName": "品A", "BookName": "書A"},
				{"WorkCord": "12345", "WorkName": "品B", "BookName": "書B"},
			},
			"wsWorkProcess": {
				{"WorkProcess": "A分給", "UnitPrice": "0.75"},
				{"WorkProcess": "B個数", "UnitPrice": "150"},
			},
		},
		fetches: map[string]int{},
	}
}

func (s *fakeSource) FetchRows(_ context.Context, worksheet string) ([]map[string]string, error) {
	s.fetches[worksheet]++
	if s.fail {
		return nil, errors.New("transport error")
	}
	return s.rows[worksheet], nil
}

// fakeClock is an adjustable time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(src *fakeSource, clock *fakeClock) *Cache {
	return NewCache(src, WithTTL(300*time.Second), WithClock(clock.now))
}

func TestFirstAccessTriggersRefresh(t *testing.T) {
	src := newFakeSource()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)

	persons := c.Persons(context.Background())
	if src.fetches["wsPersonID"] != 1 {
		t.Fatalf("first access should fetch, got %d fetches", src.fetches["wsPersonID"])
	}
	if len(persons) != 2 || persons[101].Name != "山田" {
		t.Errorf("unexpected snapshot: %v", persons)
	}
}

func TestTTLWindow(t *testing.T) {
	src := newFakeSource()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)
	ctx := context.Background()

	c.Persons(ctx)

	// Just inside the window: no second fetch.
	clock.advance(300*time.Second - time.Millisecond)
	c.Persons(ctx)
	if src.fetches["wsPersonID"] != 1 {
		t.Fatalf("access inside TTL refetched: %d fetches", src.fetches["wsPersonID"])
	}

	// Just past the window: must refetch.
	clock.advance(2 * time.Millisecond)
	c.Persons(ctx)
	if src.fetches["wsPersonID"] != 2 {
		t.Fatalf("access past TTL did not refetch: %d fetches", src.fetches["wsPersonID"])
	}
}

func TestPerCatalogTimers(t *testing.T) {
	src := newFakeSource()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)
	ctx := context.Background()

	c.Persons(ctx)
	clock.advance(200 * time.Second)
	c.Processes(ctx) // first access for this catalog

	// 150s later: persons are past TTL, processes are not.
	clock.advance(150 * time.Second)
	c.Persons(ctx)
	c.Processes(ctx)

	if src.fetches["wsPersonID"] != 2 {
		t.Errorf("persons fetches = %d, want 2", src.fetches["wsPersonID"])
	}
	if src.fetches["wsWorkProcess"] != 1 {
		t.Errorf("processes fetches = %d, want 1; refreshing one catalog must not reset another's timer", src.fetches["wsWorkProcess"])
	}
}

func TestRefreshFailurePreservesState(t *testing.T) {
	src := newFakeSource()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)
	ctx := context.Background()

	c.Persons(ctx)
	wantStamp := c.persons.lastRefresh

	src.fail = true
	clock.advance(301 * time.Second)
	persons := c.Persons(ctx)

	if len(persons) != 2 {
		t.Errorf("failed refresh should serve prior snapshot, got %v", persons)
	}
	if c.persons.lastRefresh != wantStamp {
		t.Errorf("failed refresh must not touch lastRefresh: %v != %v", c.persons.lastRefresh, wantStamp)
	}

	// Self-healing: once the source recovers, the next access refreshes.
	src.fail = false
	c.Persons(ctx)
	if c.persons.lastRefresh == wantStamp {
		t.Error("recovered source should refresh the timestamp")
	}
}

func TestFailureBeforeAnySuccessRetries(t *testing.T) {
	src := newFakeSource()
	src.fail = true
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)
	ctx := context.Background()

	if got := c.Persons(ctx); len(got) != 0 {
		t.Errorf("failed first load should return empty snapshot, got %v", got)
	}
	// With no successful load the cache is still unloaded, so the next
	// access retries immediately.
	c.Persons(ctx)
	if src.fetches["wsPersonID"] != 2 {
		t.Errorf("unloaded cache should retry each access, got %d fetches", src.fetches["wsPersonID"])
	}
}

func TestWorkCodeMultipleEntries(t *testing.T) {
	src := newFakeSource()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)

	idx := c.WorkCodes(context.Background())
	entries := idx["12345"]
	if len(entries) != 2 {
		t.Fatalf("one code may map to several entries, got %d", len(entries))
	}
	if entries[0].WorkName != "品A" || entries[1].WorkName != "品B" {
		t.Errorf("entry order must follow the sheet: %v", entries)
	}
}

func TestProcessPrices(t *testing.T) {
	src := newFakeSource()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(src, clock)

	list := c.Processes(context.Background())
	if got := list.UnitPrice("A分給").Cents; got != 75 {
		t.Errorf("A分給 price = %d cents, want 75", got)
	}
	if got := list.UnitPrice("B個数").Cents; got != 15000 {
		t.Errorf("B個数 price = %d cents, want 15000", got)
	}
	if got := list.UnitPrice("なし").Cents; got != 0 {
		t.Errorf("unknown process price = %d, want 0", got)
	}
}
