package cart

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/internal/menu"
)

var (
	testPasta = menu.Item{ID: 1, Name: "Pasta Puttanesca", Price: 15.49, Category: "Pasta"}
	testSteak = menu.Item{ID: 2, Name: "Steak & Avocado Bowl", Price: 18.15, Category: "Main"}

	testCheese = menu.Modification{ID: 1, Name: "Extra Cheese", Price: 0.5}
	testSpicy  = menu.Modification{ID: 2, Name: "Spicy Sauce", Price: 0.5}
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	engine := NewEngine(store, aqm.NewNoopLogger())
	return engine, store
}

func TestNewLine(t *testing.T) {
	tests := []struct {
		name      string
		item      menu.Item
		quantity  int
		mods      []menu.Modification
		wantQty   int
		wantTotal float64
	}{
		{
			name:      "singleNoMods",
			item:      testPasta,
			quantity:  1,
			wantQty:   1,
			wantTotal: 15.49,
		},
		{
			name:      "quantityScalesTotal",
			item:      testPasta,
			quantity:  3,
			wantQty:   3,
			wantTotal: 46.47,
		},
		{
			name:      "modificationsRaiseUnitPrice",
			item:      testPasta,
			quantity:  2,
			mods:      []menu.Modification{testCheese, testSpicy},
			wantQty:   2,
			wantTotal: 32.98,
		},
		{
			name:      "quantityBelowOneClampsToOne",
			item:      testPasta,
			quantity:  0,
			wantQty:   1,
			wantTotal: 15.49,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := NewLine(tt.item, tt.quantity, tt.mods, "")
			if line.Quantity != tt.wantQty {
				t.Errorf("Quantity = %d, want %d", line.Quantity, tt.wantQty)
			}
			if !almostEqual(line.TotalPrice, tt.wantTotal) {
				t.Errorf("TotalPrice = %v, want %v", line.TotalPrice, tt.wantTotal)
			}
			if line.Price != tt.item.Price {
				t.Errorf("Price = %v, want %v", line.Price, tt.item.Price)
			}
		})
	}
}

func TestAddMergesSameSelection(t *testing.T) {
	engine, _ := newTestEngine(t)

	first := engine.Add(NewLine(testPasta, 2, []menu.Modification{testCheese, testSpicy}, "no olives"))
	merged := engine.Add(NewLine(testPasta, 3, []menu.Modification{testSpicy, testCheese}, "no olives"))

	if merged.CartID != first.CartID {
		t.Errorf("merged CartID = %d, want %d", merged.CartID, first.CartID)
	}
	if merged.Quantity != 5 {
		t.Errorf("merged Quantity = %d, want 5", merged.Quantity)
	}
	wantTotal := (15.49 + 0.5 + 0.5) * 5
	if !almostEqual(merged.TotalPrice, wantTotal) {
		t.Errorf("merged TotalPrice = %v, want %v", merged.TotalPrice, wantTotal)
	}
	if len(engine.Lines()) != 1 {
		t.Errorf("Lines() length = %d, want 1", len(engine.Lines()))
	}
}

func TestAddKeepsDistinctSelectionsApart(t *testing.T) {
	tests := []struct {
		name  string
		other Line
	}{
		{
			name:  "differentItem",
			other: NewLine(testSteak, 1, nil, ""),
		},
		{
			name:  "differentInstructions",
			other: NewLine(testPasta, 1, nil, "extra hot"),
		},
		{
			name:  "differentModifications",
			other: NewLine(testPasta, 1, []menu.Modification{testCheese}, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			engine.Add(NewLine(testPasta, 1, nil, ""))
			engine.Add(tt.other)

			if got := len(engine.Lines()); got != 2 {
				t.Errorf("Lines() length = %d, want 2", got)
			}
		})
	}
}

func TestAddAssignsDistinctCartIDs(t *testing.T) {
	engine, _ := newTestEngine(t)

	// Freeze the clock so both adds land in the same millisecond.
	fixed := time.UnixMilli(1700000000000)
	engine.now = func() time.Time { return fixed }

	a := engine.Add(NewLine(testPasta, 1, nil, ""))
	b := engine.Add(NewLine(testSteak, 1, nil, ""))

	if a.CartID == b.CartID {
		t.Errorf("CartID collision: both lines got %d", a.CartID)
	}
}

func TestUpdateQuantity(t *testing.T) {
	engine, _ := newTestEngine(t)
	line := engine.Add(NewLine(testPasta, 1, nil, ""))

	engine.UpdateQuantity(line.CartID, 3)

	lines := engine.Lines()
	if len(lines) != 1 {
		t.Fatalf("Lines() length = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", lines[0].Quantity)
	}
	if !almostEqual(lines[0].TotalPrice, 46.47) {
		t.Errorf("TotalPrice = %v, want 46.47", lines[0].TotalPrice)
	}
}

func TestUpdateQuantityBelowOneRemovesLine(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
	}{
		{name: "zero", quantity: 0},
		{name: "negative", quantity: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			line := engine.Add(NewLine(testPasta, 2, nil, ""))

			engine.UpdateQuantity(line.CartID, tt.quantity)

			if got := len(engine.Lines()); got != 0 {
				t.Errorf("Lines() length = %d, want 0", got)
			}
			if got := engine.TotalPrice(); got != "0.00" {
				t.Errorf("TotalPrice() = %q, want \"0.00\"", got)
			}
		})
	}
}

func TestUpdateQuantityDerivesUnitFromAggregate(t *testing.T) {
	engine, _ := newTestEngine(t)
	line := engine.Add(NewLine(testPasta, 1, []menu.Modification{testCheese}, ""))

	// Unit cost comes back out of the aggregate, so repeated resizing keeps
	// the modification surcharge baked in.
	engine.UpdateQuantity(line.CartID, 4)
	engine.UpdateQuantity(line.CartID, 2)

	lines := engine.Lines()
	if len(lines) != 1 {
		t.Fatalf("Lines() length = %d, want 1", len(lines))
	}
	if !almostEqual(lines[0].TotalPrice, (15.49+0.5)*2) {
		t.Errorf("TotalPrice = %v, want %v", lines[0].TotalPrice, (15.49+0.5)*2)
	}
}

func TestUpdateQuantityUnknownLineIsNoop(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.Add(NewLine(testPasta, 1, nil, ""))

	engine.UpdateQuantity(999, 5)

	lines := engine.Lines()
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Errorf("unexpected cart state after unknown update: %+v", lines)
	}
}

func TestRemove(t *testing.T) {
	engine, _ := newTestEngine(t)
	keep := engine.Add(NewLine(testPasta, 1, nil, ""))
	drop := engine.Add(NewLine(testSteak, 1, nil, ""))

	engine.Remove(drop.CartID)

	lines := engine.Lines()
	if len(lines) != 1 {
		t.Fatalf("Lines() length = %d, want 1", len(lines))
	}
	if lines[0].CartID != keep.CartID {
		t.Errorf("remaining CartID = %d, want %d", lines[0].CartID, keep.CartID)
	}

	// Removing an absent line is a no-op.
	engine.Remove(drop.CartID)
	if got := len(engine.Lines()); got != 1 {
		t.Errorf("Lines() length = %d, want 1 after repeat remove", got)
	}
}

func TestClear(t *testing.T) {
	engine, store := newTestEngine(t)
	engine.Add(NewLine(testPasta, 2, nil, ""))
	engine.Add(NewLine(testSteak, 1, nil, ""))

	engine.Clear()

	if got := len(engine.Lines()); got != 0 {
		t.Errorf("Lines() length = %d, want 0", got)
	}
	if got := engine.TotalItems(); got != 0 {
		t.Errorf("TotalItems() = %d, want 0", got)
	}

	// The cleared state is what a restart sees.
	reloaded := NewEngine(store, aqm.NewNoopLogger())
	if got := len(reloaded.Lines()); got != 0 {
		t.Errorf("reloaded Lines() length = %d, want 0", got)
	}
}

func TestTotals(t *testing.T) {
	engine, _ := newTestEngine(t)

	if got := engine.TotalPrice(); got != "0.00" {
		t.Errorf("empty TotalPrice() = %q, want \"0.00\"", got)
	}

	engine.Add(NewLine(testPasta, 2, nil, ""))
	engine.Add(NewLine(testSteak, 1, nil, ""))

	if got := engine.TotalPrice(); got != "49.13" {
		t.Errorf("TotalPrice() = %q, want \"49.13\"", got)
	}
	if got := engine.TotalItems(); got != 3 {
		t.Errorf("TotalItems() = %d, want 3", got)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, aqm.NewNoopLogger())
	added := engine.Add(NewLine(testPasta, 2, []menu.Modification{testSpicy}, "no capers"))

	reloaded := NewEngine(store, aqm.NewNoopLogger())

	lines := reloaded.Lines()
	if len(lines) != 1 {
		t.Fatalf("reloaded Lines() length = %d, want 1", len(lines))
	}
	got := lines[0]
	if got.CartID != added.CartID {
		t.Errorf("CartID = %d, want %d", got.CartID, added.CartID)
	}
	if got.Instructions != "no capers" {
		t.Errorf("Instructions = %q, want %q", got.Instructions, "no capers")
	}
	if !almostEqual(got.TotalPrice, added.TotalPrice) {
		t.Errorf("TotalPrice = %v, want %v", got.TotalPrice, added.TotalPrice)
	}

	// A reloaded engine still merges against restored lines.
	reloaded.Add(NewLine(testPasta, 1, []menu.Modification{testSpicy}, "no capers"))
	if got := len(reloaded.Lines()); got != 1 {
		t.Errorf("Lines() length = %d, want 1 after merge into restored line", got)
	}
}

func TestMalformedSnapshotStartsEmpty(t *testing.T) {
	store := newMemStore()
	store.data[SnapshotKey] = []byte("{not json")

	engine := NewEngine(store, aqm.NewNoopLogger())

	if got := len(engine.Lines()); got != 0 {
		t.Errorf("Lines() length = %d, want 0", got)
	}
}

func TestStoreFailureDoesNotBlockMutation(t *testing.T) {
	store := newMemStore()
	store.putErr = errStoreBroken
	engine := NewEngine(store, aqm.NewNoopLogger())

	engine.Add(NewLine(testPasta, 1, nil, ""))

	if got := len(engine.Lines()); got != 1 {
		t.Errorf("Lines() length = %d, want 1 despite store failure", got)
	}
}

func TestSnapshotUsesWebClientKeys(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, aqm.NewNoopLogger())
	engine.Add(NewLine(testPasta, 1, nil, ""))

	data, ok := store.Get(SnapshotKey)
	if !ok {
		t.Fatal("no snapshot persisted")
	}

	// Snapshots written by the original web client must stay readable, so the
	// key casing is part of the contract.
	for _, key := range []string{`"cartId"`, `"totalPrice"`, `"quantity"`, `"instructions"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("snapshot %s missing key %s", data, key)
		}
	}
}

func TestNilStoreEngine(t *testing.T) {
	engine := NewEngine(nil, nil)

	engine.Add(NewLine(testPasta, 1, nil, ""))
	if got := len(engine.Lines()); got != 1 {
		t.Errorf("Lines() length = %d, want 1", got)
	}
}
