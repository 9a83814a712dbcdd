package kitchen

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/internal/orders"
	"github.com/bistroclub/bistro/pkg/enums/orderstatus"
)

// FilterAll shows every order regardless of status.
const FilterAll = "all"

// DefaultPollInterval matches the refresh cadence of the kitchen screen.
const DefaultPollInterval = 30 * time.Second

// OrderClient is the slice of the order backend the board uses.
type OrderClient interface {
	List(ctx context.Context) ([]orders.Order, error)
	ListByStatus(ctx context.Context, status orderstatus.Status) ([]orders.Order, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
	Start(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Update(ctx context.Context, order orders.Order) error
}

// Board is the kitchen portal view-model. It polls the order backend on a
// fixed interval; every tick is a full authoritative refetch that replaces
// the previous snapshot (last fetch wins). Status transitions are discrete
// remote calls followed by a refetch, never local mutations.
type Board struct {
	client   OrderClient
	logger   aqm.Logger
	interval time.Duration

	mu         sync.RWMutex
	orders     []orders.Order
	filter     string
	selectedID string
	selected   *orders.Order

	cancel context.CancelFunc
}

func NewBoard(client OrderClient, interval time.Duration, logger aqm.Logger) *Board {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Board{
		client:   client,
		logger:   logger,
		interval: interval,
		filter:   FilterAll,
	}
}

// Start performs the initial fetch and begins polling.
func (b *Board) Start(ctx context.Context) error {
	if err := b.Refresh(ctx); err != nil {
		// The board starts empty; the next tick retries.
		b.logger.Errorf("initial order fetch failed: %v", err)
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	go b.poll(pollCtx)
	return nil
}

// Stop ends polling.
func (b *Board) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}

func (b *Board) poll(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Refresh(ctx); err != nil {
				b.logger.Errorf("order poll failed: %v", err)
			}
		}
	}
}

// Refresh refetches the authoritative order list for the current filter and
// replaces the snapshot wholesale.
func (b *Board) Refresh(ctx context.Context) error {
	fetched, err := b.fetch(ctx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.orders = fetched
	b.mu.Unlock()
	return nil
}

func (b *Board) fetch(ctx context.Context) ([]orders.Order, error) {
	b.mu.RLock()
	filter := b.filter
	b.mu.RUnlock()

	if filter == FilterAll {
		return b.client.List(ctx)
	}
	status := orderstatus.ByName(filter)
	if status == nil {
		return nil, fmt.Errorf("unknown status filter %q", filter)
	}
	return b.client.ListByStatus(ctx, *status)
}

// SetFilter switches the board between "all" and a single status, then
// refetches immediately.
func (b *Board) SetFilter(ctx context.Context, filter string) error {
	if filter != FilterAll && orderstatus.ByName(filter) == nil {
		return fmt.Errorf("unknown status filter %q", filter)
	}

	b.mu.Lock()
	b.filter = filter
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// Filter returns the active filter.
func (b *Board) Filter() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// Orders returns the current snapshot sorted for display: grouped by status
// rank (Pending, Preparing, Completed), newest first within a group.
func (b *Board) Orders() []orders.Order {
	b.mu.RLock()
	out := make([]orders.Order, len(b.orders))
	copy(out, b.orders)
	b.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank(out[i].Status), statusRank(out[j].Status)
		if ri != rj {
			return ri < rj
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func statusRank(name string) int {
	if status := orderstatus.ByName(name); status != nil {
		return status.Rank()
	}
	return len(orderstatus.All)
}

// Select marks an order as the detail selection. Selecting an id absent from
// the snapshot clears the selection.
func (b *Board) Select(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.selectedID = ""
	b.selected = nil
	for i := range b.orders {
		if b.orders[i].ID == id {
			b.selectedID = id
			order := b.orders[i]
			b.selected = &order
			return
		}
	}
}

// Selected returns the current detail selection, if any.
func (b *Board) Selected() (*orders.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.selected == nil {
		return nil, false
	}
	order := *b.selected
	return &order, true
}

// ClearSelection drops the detail selection.
func (b *Board) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectedID = ""
	b.selected = nil
}

// Advance requests the forward transition for the order: Pending starts
// preparation, Preparing completes the order. Completed is a no-op. The
// authoritative state round-trips through the backend before the view
// refreshes.
func (b *Board) Advance(ctx context.Context, id string) error {
	order, ok := b.find(id)
	if !ok {
		return fmt.Errorf("order %s not on the board", id)
	}

	switch order.Status {
	case orderstatus.Statuses.Pending.Code():
		if err := b.client.Start(ctx, id); err != nil {
			return err
		}
	case orderstatus.Statuses.Preparing.Code():
		if err := b.client.Complete(ctx, id); err != nil {
			return err
		}
	default:
		return nil
	}

	return b.afterTransition(ctx, id)
}

// Revert requests the backward correction transition: Completed goes back to
// Preparing (via the start endpoint), Preparing back to Pending (via the
// generic update). Pending is a no-op.
func (b *Board) Revert(ctx context.Context, id string) error {
	order, ok := b.find(id)
	if !ok {
		return fmt.Errorf("order %s not on the board", id)
	}

	switch order.Status {
	case orderstatus.Statuses.Completed.Code():
		if err := b.client.Start(ctx, id); err != nil {
			return err
		}
	case orderstatus.Statuses.Preparing.Code():
		rolled := order
		rolled.Status = orderstatus.Statuses.Pending.Code()
		if err := b.client.Update(ctx, rolled); err != nil {
			return err
		}
	default:
		return nil
	}

	return b.afterTransition(ctx, id)
}

func (b *Board) find(id string) (orders.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, order := range b.orders {
		if order.ID == id {
			return order, true
		}
	}
	return orders.Order{}, false
}

// afterTransition refetches the list and, when the transitioned order is
// still the selection, refetches it singly. The selection is only replaced
// when the id still matches, so a slow response landing after the user moved
// on is dropped.
func (b *Board) afterTransition(ctx context.Context, id string) error {
	if err := b.Refresh(ctx); err != nil {
		return err
	}

	b.mu.RLock()
	stillSelected := b.selectedID == id
	b.mu.RUnlock()
	if !stillSelected {
		return nil
	}

	fresh, err := b.client.Get(ctx, id)
	if err != nil {
		b.logger.Errorf("cannot refetch order %s: %v", id, err)
		b.ClearSelection()
		return nil
	}

	b.mu.Lock()
	if b.selectedID == id {
		b.selected = fresh
	}
	b.mu.Unlock()
	return nil
}
