package help

import (
	"testing"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/pkg/event"
)

func helpRequestAt(id, tableNumber string, ts time.Time) event.HelpRequest {
	return event.HelpRequest{
		ID:          id,
		TableNumber: tableNumber,
		Message:     DefaultHelpMessage,
		Timestamp:   ts,
	}
}

func TestBoardUpsertAndGet(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())
	req := helpRequestAt("r1", "12", time.Now())

	board.Upsert(req)

	got, ok := board.Get("r1")
	if !ok {
		t.Fatal("Get() reported absent after Upsert()")
	}
	if got.TableNumber != "12" {
		t.Errorf("TableNumber = %q, want %q", got.TableNumber, "12")
	}
	if board.Count() != 1 {
		t.Errorf("Count() = %d, want 1", board.Count())
	}
}

func TestBoardUpsertReplacesSameID(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())
	board.Upsert(helpRequestAt("r1", "12", time.Now()))

	updated := helpRequestAt("r1", "12", time.Now())
	updated.Message = "Check please"
	board.Upsert(updated)

	got, _ := board.Get("r1")
	if got.Message != "Check please" {
		t.Errorf("Message = %q, want %q", got.Message, "Check please")
	}
	if board.Count() != 1 {
		t.Errorf("Count() = %d, want 1", board.Count())
	}
}

func TestBoardUpsertIgnoresEmptyID(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())

	board.Upsert(event.HelpRequest{TableNumber: "12"})

	if board.Count() != 0 {
		t.Errorf("Count() = %d, want 0", board.Count())
	}
}

func TestBoardRemove(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())
	board.Upsert(helpRequestAt("r1", "12", time.Now()))

	board.Remove("r1")

	if _, ok := board.Get("r1"); ok {
		t.Error("Get() reported present after Remove()")
	}

	// Removing an unknown id is a no-op.
	board.Remove("r1")
	board.Remove("never-existed")
	if board.Count() != 0 {
		t.Errorf("Count() = %d, want 0", board.Count())
	}
}

func TestBoardReplaceAll(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())
	board.Upsert(helpRequestAt("stale", "1", time.Now()))

	board.ReplaceAll([]event.HelpRequest{
		helpRequestAt("r2", "2", time.Now()),
		helpRequestAt("r3", "3", time.Now()),
	})

	if _, ok := board.Get("stale"); ok {
		t.Error("stale request survived ReplaceAll()")
	}
	if board.Count() != 2 {
		t.Errorf("Count() = %d, want 2", board.Count())
	}
}

func TestBoardSnapshotSortsNewestFirst(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	board.Upsert(helpRequestAt("old", "1", base))
	board.Upsert(helpRequestAt("new", "2", base.Add(2*time.Minute)))
	board.Upsert(helpRequestAt("mid", "3", base.Add(time.Minute)))

	snap := board.Snapshot()
	wantOrder := []string{"new", "mid", "old"}
	if len(snap) != len(wantOrder) {
		t.Fatalf("Snapshot() length = %d, want %d", len(snap), len(wantOrder))
	}
	for i, want := range wantOrder {
		if snap[i].ID != want {
			t.Errorf("Snapshot()[%d].ID = %q, want %q", i, snap[i].ID, want)
		}
	}
}

func TestBoardSnapshotTiebreaksByID(t *testing.T) {
	board := NewBoard(aqm.NewNoopLogger())
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	board.Upsert(helpRequestAt("b", "1", ts))
	board.Upsert(helpRequestAt("a", "2", ts))

	snap := board.Snapshot()
	if snap[0].ID != "a" || snap[1].ID != "b" {
		t.Errorf("Snapshot() order = [%q, %q], want [a, b]", snap[0].ID, snap[1].ID)
	}
}
