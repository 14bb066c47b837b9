// Package export flattens ledger transactions into rows for CSV files and
// spreadsheet sinks.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"debttracker/internal/core"
)

// Header is the first line of every exported file.
var Header = []string{"Date", "Description", "Type", "Amount", "Friend"}

// ErrNothingToExport is returned when the selection holds no transactions.
var ErrNothingToExport = errors.New("no transactions to export")

const dateLayout = "2006-01-02"

// Row flattens one transaction. The date is the calendar day in the local
// zone. The friend column holds the counterparty name when it is known,
// "Split Group" for splits and is empty otherwise.
func Row(tx core.Transaction, friends map[core.ID]string) core.ExportRow {
	row := core.ExportRow{
		Date:        tx.Date.In(time.Local).Format(dateLayout),
		Description: tx.Description,
		Type:        string(tx.Kind),
		Amount:      tx.Amount.Decimal().String(),
	}
	switch {
	case tx.FriendID != nil:
		row.Friend = friends[*tx.FriendID]
	case tx.Split != nil:
		row.Friend = core.SplitGroupLabel
	}
	return row
}

// FriendNames indexes friend names by id for Row.
func FriendNames(friends []core.Friend) map[core.ID]string {
	names := make(map[core.ID]string, len(friends))
	for _, f := range friends {
		names[f.ID] = f.Name
	}
	return names
}

// WriteCSV writes the header and one line per transaction, keeping the
// order of txs. Description and friend are always quoted.
func WriteCSV(w io.Writer, txs []core.Transaction, friends []core.Friend) error {
	if len(txs) == 0 {
		return ErrNothingToExport
	}
	names := FriendNames(friends)
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		if _, err := bw.WriteString(line(Row(tx, names))); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	return bw.Flush()
}

func line(r core.ExportRow) string {
	return strings.Join([]string{r.Date, quote(r.Description), r.Type, r.Amount, quote(r.Friend)}, ",") + "\n"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// FileName is the suggested download name for an export of window taken at
// now. The date part is UTC.
func FileName(window string, now time.Time) string {
	if window == "" {
		window = "all"
	}
	return fmt.Sprintf("transactions_%s_%s.csv", window, now.UTC().Format(dateLayout))
}
