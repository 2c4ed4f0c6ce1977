// Package records defines the outbound port for the work-log record store.
// Records live in a per-person partition; the store owns identifier
// assignment and the partition key structure.
package records

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every backend when a record identifier does
// not exist in the person's partition.
var ErrNotFound = errors.New("record not found")

// Stored field names, as the remote table defines them. "WorkCord" is the
// historical spelling in the production base and must stay.
const (
	FieldWorkDay   = "WorkDay"
	FieldWorkCode  = "WorkCord"
	FieldWorkName  = "WorkName"
	FieldBookName  = "BookName"
	FieldProcess   = "WorkProcess"
	FieldUnitPrice = "UnitPrice"
	FieldOutput    = "WorkOutput"
)

// Raw is one record as the store returns it: the opaque identifier plus a
// field map. Values keep their wire types (string or number); the
// aggregation layer normalizes them.
type Raw struct {
	ID     string
	Fields map[string]any
}

// Store is the record-store port. Implementations enforce the
// one-partition-per-person invariant through their key structure.
type Store interface {
	// Create appends a record to the person's partition and returns the
	// store-assigned identifier.
	Create(ctx context.Context, personID int, fields map[string]any) (string, error)

	// QueryMonth returns the person's records whose work date falls inside
	// the given calendar month, filtered server-side.
	QueryMonth(ctx context.Context, personID, year, month int) ([]Raw, error)

	// Get returns one record by identifier.
	Get(ctx context.Context, personID int, recordID string) (Raw, error)

	// Update patches the given fields of an existing record. The observed
	// edit contract only ever touches work day and output quantity.
	Update(ctx context.Context, personID int, recordID string, fields map[string]any) error

	// Delete removes a record.
	Delete(ctx context.Context, personID int, recordID string) error
}
