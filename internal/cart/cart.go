package cart

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/internal/menu"
)

// SnapshotKey is the on-device storage key holding the serialized cart.
const SnapshotKey = "cart"

// Store is the on-device persistence the engine snapshots into after every
// mutation.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Line is a single cart entry. TotalPrice is always maintained eagerly: every
// mutation path recomputes it, it is never derived lazily at read time.
type Line struct {
	CartID        int64               `json:"cartId"`
	ItemID        int                 `json:"id"`
	Name          string              `json:"name"`
	Price         float64             `json:"price"`
	Quantity      int                 `json:"quantity"`
	Modifications []menu.Modification `json:"modifications"`
	Instructions  string              `json:"instructions"`
	TotalPrice    float64             `json:"totalPrice"`
}

// NewLine builds an unmerged candidate line from a catalog item:
// totalPrice = (base price + sum of modification prices) x quantity.
// The CartID is assigned by the engine if the line is appended.
func NewLine(item menu.Item, quantity int, mods []menu.Modification, instructions string) Line {
	if quantity < 1 {
		quantity = 1
	}
	unit := item.Price
	for _, mod := range mods {
		unit += mod.Price
	}
	return Line{
		ItemID:        item.ID,
		Name:          item.Name,
		Price:         item.Price,
		Quantity:      quantity,
		Modifications: mods,
		Instructions:  instructions,
		TotalPrice:    unit * float64(quantity),
	}
}

// modIDKey returns the order-independent modification identity of a line.
func modIDKey(mods []menu.Modification) string {
	ids := make([]int, 0, len(mods))
	for _, mod := range mods {
		ids = append(ids, mod.ID)
	}
	sort.Ints(ids)
	return fmt.Sprint(ids)
}

// sameSelection reports whether two lines must merge: same item, same free-text
// instructions and the same modification set regardless of selection order.
func sameSelection(a, b Line) bool {
	if a.ItemID != b.ItemID {
		return false
	}
	if a.Instructions != b.Instructions {
		return false
	}
	return modIDKey(a.Modifications) == modIDKey(b.Modifications)
}

// Engine owns the cart line-item state. It is the single writer of the cart
// snapshot; every mutating operation persists the full cart before returning.
type Engine struct {
	mu     sync.Mutex
	lines  []Line
	store  Store
	logger aqm.Logger
	now    func() time.Time
}

// NewEngine loads the previous cart snapshot from the store. A missing or
// malformed snapshot yields an empty cart, never an error.
func NewEngine(store Store, logger aqm.Logger) *Engine {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	e := &Engine{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	e.load()
	return e
}

func (e *Engine) load() {
	if e.store == nil {
		return
	}
	data, ok := e.store.Get(SnapshotKey)
	if !ok {
		return
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		e.logger.Infof("malformed cart snapshot, starting empty: %v", err)
		return
	}
	e.lines = lines
}

// persist writes the full cart snapshot. Must be called with e.mu held.
// Storage failures are logged, never surfaced.
func (e *Engine) persist() {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(e.lines)
	if err != nil {
		e.logger.Errorf("cannot serialize cart: %v", err)
		return
	}
	if err := e.store.Put(SnapshotKey, data); err != nil {
		e.logger.Errorf("cannot persist cart: %v", err)
	}
}

// nextCartID returns a fresh creation-time identifier. Must be called with
// e.mu held; bumps past collisions so two adds in the same millisecond still
// get distinct ids.
func (e *Engine) nextCartID() int64 {
	id := e.now().UnixMilli()
	for {
		taken := false
		for _, line := range e.lines {
			if line.CartID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
		id++
	}
}

// Add merges the candidate into an existing line with the same selection, or
// appends it with a fresh CartID. The merge is additive: quantities and total
// prices are summed, so the candidate's TotalPrice must already reflect its
// own quantity x unit cost.
func (e *Engine) Add(candidate Line) Line {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.lines {
		if sameSelection(e.lines[i], candidate) {
			e.lines[i].Quantity += candidate.Quantity
			e.lines[i].TotalPrice += candidate.TotalPrice
			e.persist()
			return e.lines[i]
		}
	}

	candidate.CartID = e.nextCartID()
	e.lines = append(e.lines, candidate)
	e.persist()
	return candidate
}

// Remove deletes the line with the given CartID. Removing an absent line is a
// no-op, not an error.
func (e *Engine) Remove(cartID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(cartID)
	e.persist()
}

func (e *Engine) removeLocked(cartID int64) {
	for i := range e.lines {
		if e.lines[i].CartID == cartID {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the line's quantity. A quantity below 1 removes the
// line. The new total derives the unit price from the existing aggregate
// (totalPrice / quantity) rather than recomputing from base price and
// modifications; the resulting float drift across repeated updates matches
// the behavior the web client always had.
func (e *Engine) UpdateQuantity(cartID int64, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity < 1 {
		e.removeLocked(cartID)
		e.persist()
		return
	}

	for i := range e.lines {
		if e.lines[i].CartID == cartID {
			unit := e.lines[i].TotalPrice / float64(e.lines[i].Quantity)
			e.lines[i].Quantity = quantity
			e.lines[i].TotalPrice = unit * float64(quantity)
			break
		}
	}
	e.persist()
}

// Clear empties the cart.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = nil
	e.persist()
}

// Lines returns a snapshot of the cart in insertion order.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// TotalPrice returns the sum of all line totals formatted to two decimals.
func (e *Engine) TotalPrice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var total float64
	for _, line := range e.lines {
		total += line.TotalPrice
	}
	return fmt.Sprintf("%.2f", total)
}

// TotalItems returns the sum of all line quantities, used for the cart badge.
func (e *Engine) TotalItems() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var total int
	for _, line := range e.lines {
		total += line.Quantity
	}
	return total
}
