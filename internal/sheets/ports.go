package sheets

import "context"

// ReferenceSource is the outbound port for the reference spreadsheet.
// FetchRows returns every data row of a worksheet as a header-keyed map,
// the way the catalogs are maintained by hand in the sheet.
type ReferenceSource interface {
	FetchRows(ctx context.Context, worksheet string) ([]map[string]string, error)
}
