package sheets

import (
	"context"

	"debttracker/internal/core"
)

// Ports for outbound adapters.
type (
	// RowWriter appends one exported transaction to a spreadsheet-like sink.
	RowWriter interface {
		AppendRow(ctx context.Context, id core.ID, row core.ExportRow) (rowRef string, err error)
	}

	// RowIndex reports which transactions have already been written. IDs
	// reads the whole index in one call for bulk checks.
	RowIndex interface {
		Contains(ctx context.Context, id core.ID) (bool, error)
		IDs(ctx context.Context) (map[core.ID]struct{}, error)
	}

	RowSink interface {
		RowWriter
		RowIndex
	}
)

// Header is the first row of a transactions sheet. It matches the CSV
// export with the transaction id appended.
var Header = []string{"Date", "Description", "Type", "Amount", "Friend", "ID"}

// Values returns the sheet cells for a row, in Header order.
func Values(id core.ID, row core.ExportRow) []string {
	return []string{row.Date, row.Description, row.Type, row.Amount, row.Friend, string(id)}
}
