package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	ports "worklog/internal/sheets"
)

// DefaultTTL bounds how stale a catalog snapshot may get before the next
// access refreshes it.
const DefaultTTL = 300 * time.Second

// Worksheets names the source worksheet of each catalog.
type Worksheets struct {
	Persons   string
	WorkCodes string
	Processes string
}

// DefaultWorksheets matches the layout of the reference spreadsheet.
func DefaultWorksheets() Worksheets {
	return Worksheets{
		Persons:   "wsPersonID",
		WorkCodes: "wsTableCD",
		Processes: "wsWorkProcess",
	}
}

// state is one catalog's cached snapshot. loaded distinguishes "never
// fetched" from a legitimately empty snapshot.
type state[T any] struct {
	snapshot    T
	lastRefresh time.Time
	loaded      bool
}

// Cache lazily refreshes the three reference catalogs. Each catalog keeps
// its own snapshot and refresh timestamp; one catalog's refresh never
// resets another's timer. Refresh failures keep the previous snapshot and
// timestamp untouched, so readers get stale data instead of nothing and
// the next access past TTL retries on its own.
type Cache struct {
	src        ports.ReferenceSource
	worksheets Worksheets
	ttl        time.Duration
	now        func() time.Time

	// Serializes concurrent refreshes per catalog so simultaneous TTL
	// expiries do not stampede the remote source.
	group singleflight.Group

	mu        sync.Mutex
	persons   state[PersonDirectory]
	workCodes state[WorkCodeIndex]
	processes state[PriceList]
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides the default snapshot TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithWorksheets overrides the source worksheet names.
func WithWorksheets(ws Worksheets) Option {
	return func(c *Cache) { c.worksheets = ws }
}

func NewCache(src ports.ReferenceSource, opts ...Option) *Cache {
	c := &Cache{
		src:        src,
		worksheets: DefaultWorksheets(),
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Persons returns the current person directory, refreshing it first when
// the snapshot is missing or older than the TTL.
func (c *Cache) Persons(ctx context.Context) PersonDirectory {
	return getCatalog(ctx, c, "persons", c.worksheets.Persons, &c.persons, parsePersons)
}

// WorkCodes returns the current work-code index.
func (c *Cache) WorkCodes(ctx context.Context) WorkCodeIndex {
	return getCatalog(ctx, c, "workcodes", c.worksheets.WorkCodes, &c.workCodes, parseWorkCodes)
}

// Processes returns the current process price list.
func (c *Cache) Processes(ctx context.Context) PriceList {
	return getCatalog(ctx, c, "processes", c.worksheets.Processes, &c.processes, parseProcesses)
}

// Warm fetches all three catalogs once, for startup.
func (c *Cache) Warm(ctx context.Context) {
	c.Persons(ctx)
	c.WorkCodes(ctx)
	c.Processes(ctx)
}

// getCatalog implements the shared get-or-refresh path. The snapshot
// pointer is owned by c and only touched under c.mu.
func getCatalog[T any](ctx context.Context, c *Cache, name, worksheet string, st *state[T], parse func([]map[string]string) T) T {
	c.mu.Lock()
	fresh := st.loaded && c.now().Sub(st.lastRefresh) <= c.ttl
	snap := st.snapshot
	c.mu.Unlock()
	if fresh {
		return snap
	}

	c.group.Do(name, func() (any, error) {
		// A caller that queued behind a completed refresh must not
		// trigger a second fetch inside the same TTL window.
		c.mu.Lock()
		stillStale := !st.loaded || c.now().Sub(st.lastRefresh) > c.ttl
		c.mu.Unlock()
		if !stillStale {
			return nil, nil
		}

		rows, err := c.src.FetchRows(ctx, worksheet)
		if err != nil {
			// Keep the previous snapshot and timestamp; the next access
			// past TTL retries.
			slog.ErrorContext(ctx, "Catalog refresh failed, serving previous snapshot",
				"catalog", name, "worksheet", worksheet, "error", err)
			return nil, nil
		}

		snapshot := parse(rows)
		now := c.now()
		c.mu.Lock()
		*st = state[T]{snapshot: snapshot, lastRefresh: now, loaded: true}
		c.mu.Unlock()
		slog.InfoContext(ctx, "Catalog refreshed", "catalog", name, "worksheet", worksheet)
		return nil, nil
	})

	c.mu.Lock()
	snap = st.snapshot
	c.mu.Unlock()
	return snap
}
