// Package memory implements the record store in process memory, used by
// tests and as the default backend when no remote store is configured.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"worklog/internal/core"
	"worklog/internal/records"
)

type stored struct {
	id     string
	fields map[string]any
}

type Store struct {
	mu      sync.Mutex
	next    int
	byOwner map[int][]stored
}

var _ records.Store = (*Store)(nil)

func New() *Store {
	return &Store{byOwner: make(map[int][]stored)}
}

func (s *Store) Create(_ context.Context, personID int, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("mem:%d", s.next)
	s.byOwner[personID] = append(s.byOwner[personID], stored{id: id, fields: maps.Clone(fields)})
	return id, nil
}

func (s *Store) QueryMonth(_ context.Context, personID, year, month int) ([]records.Raw, error) {
	window, err := core.NewMonthWindow(year, month)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []records.Raw
	for _, rec := range s.byOwner[personID] {
		dayStr, _ := rec.fields[records.FieldWorkDay].(string)
		day, err := core.ParseWorkDay(dayStr)
		if err != nil || !window.Contains(day) {
			continue
		}
		out = append(out, records.Raw{ID: rec.id, Fields: maps.Clone(rec.fields)})
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, personID int, recordID string) (records.Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byOwner[personID] {
		if rec.id == recordID {
			return records.Raw{ID: rec.id, Fields: maps.Clone(rec.fields)}, nil
		}
	}
	return records.Raw{}, fmt.Errorf("record %s: %w", recordID, records.ErrNotFound)
}

func (s *Store) Update(_ context.Context, personID int, recordID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.byOwner[personID] {
		if rec.id == recordID {
			for k, v := range fields {
				rec.fields[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("record %s: %w", recordID, records.ErrNotFound)
}

func (s *Store) Delete(_ context.Context, personID int, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owned := s.byOwner[personID]
	for i, rec := range owned {
		if rec.id == recordID {
			s.byOwner[personID] = append(owned[:i], owned[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("record %s: %w", recordID, records.ErrNotFound)
}
