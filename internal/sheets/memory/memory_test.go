package memory

import (
	"context"
	"testing"

	"debttracker/internal/core"
)

func TestStoreAppendAndContains(t *testing.T) {
	s := New()
	ctx := context.Background()

	row := core.ExportRow{Date: "2024-03-08", Description: "Cab", Type: "lend", Amount: "33.33", Friend: "Rahul"}
	ref, err := s.AppendRow(ctx, "tx-1", row)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	ok, err := s.Contains(ctx, "tx-1")
	if err != nil || !ok {
		t.Fatalf("expected tx-1 to be present: ok=%v err=%v", ok, err)
	}
	ok, _ = s.Contains(ctx, "tx-2")
	if ok {
		t.Fatal("tx-2 was never appended")
	}

	rows := s.Rows()
	want := []string{"2024-03-08", "Cab", "lend", "33.33", "Rahul", "tx-1"}
	if len(rows) != 1 || len(rows[0]) != len(want) {
		t.Fatalf("unexpected rows: %v", rows)
	}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, rows[0][i], want[i])
		}
	}
}

func TestStoreRejectsMissingID(t *testing.T) {
	if _, err := New().AppendRow(context.Background(), "", core.ExportRow{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestStoreIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []core.ID{"tx-1", "tx-2"} {
		if _, err := s.AppendRow(ctx, id, core.ExportRow{}); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := s.IDs(ctx)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	if _, ok := ids["tx-2"]; !ok {
		t.Error("tx-2 missing")
	}

	delete(ids, "tx-1")
	if ok, _ := s.Contains(ctx, "tx-1"); !ok {
		t.Error("IDs must return a copy")
	}
}
