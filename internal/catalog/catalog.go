// Package catalog caches the three reference catalogs (persons, work
// codes, processes) read from the reference spreadsheet, bounding remote
// calls with a per-catalog TTL.
package catalog

import (
	"sort"

	"worklog/internal/core"
)

// Person is one row of the person catalog. PINHash is empty for persons
// that cannot log in.
type Person struct {
	ID      int
	Name    string
	PINHash string
}

// PersonDirectory is the person catalog snapshot.
type PersonDirectory map[int]Person

// IDs returns the person identifiers in ascending order, for stable
// dropdown rendering.
func (d PersonDirectory) IDs() []int {
	ids := make([]int, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// WorkEntry is one work-name/book-name combination for a work code. A
// single code can map to several entries.
type WorkEntry struct {
	WorkName string
	BookName string
}

// WorkCodeIndex maps a digit-string work code to its entries, in sheet
// order.
type WorkCodeIndex map[string][]WorkEntry

// PriceList is the process catalog snapshot: process names in sheet order
// plus their unit prices.
type PriceList struct {
	Processes []string
	Prices    map[string]core.Money
}

// UnitPrice returns the price for a process, or zero when the process is
// unknown.
func (p PriceList) UnitPrice(process string) core.Money {
	return p.Prices[process]
}
