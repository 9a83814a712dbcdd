package kitchen

import (
	"context"
	"sync"

	"github.com/bistroclub/bistro/internal/orders"
	"github.com/bistroclub/bistro/pkg/enums/orderstatus"
)

// mockOrderClient serves a scripted order set and records transition calls.
// Transitions mutate the scripted set so the follow-up refetch observes them.
type mockOrderClient struct {
	mu sync.Mutex

	orders  map[string]orders.Order
	calls   []string
	listErr error
	getErr  error
	errNext error
}

func newMockOrderClient(seed ...orders.Order) *mockOrderClient {
	c := &mockOrderClient{orders: make(map[string]orders.Order)}
	for _, order := range seed {
		c.orders[order.ID] = order
	}
	return c
}

func (c *mockOrderClient) record(call string) error {
	c.calls = append(c.calls, call)
	if c.errNext != nil {
		err := c.errNext
		c.errNext = nil
		return err
	}
	return nil
}

func (c *mockOrderClient) List(ctx context.Context) ([]orders.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("list"); err != nil {
		return nil, err
	}
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]orders.Order, 0, len(c.orders))
	for _, order := range c.orders {
		out = append(out, order)
	}
	return out, nil
}

func (c *mockOrderClient) ListByStatus(ctx context.Context, status orderstatus.Status) ([]orders.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("listByStatus:" + status.Code()); err != nil {
		return nil, err
	}
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]orders.Order, 0, len(c.orders))
	for _, order := range c.orders {
		if order.Status == status.Code() {
			out = append(out, order)
		}
	}
	return out, nil
}

func (c *mockOrderClient) Get(ctx context.Context, id string) (*orders.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("get:" + id); err != nil {
		return nil, err
	}
	if c.getErr != nil {
		return nil, c.getErr
	}
	order, ok := c.orders[id]
	if !ok {
		return nil, errOrderMissing
	}
	return &order, nil
}

func (c *mockOrderClient) Start(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("start:" + id); err != nil {
		return err
	}
	order := c.orders[id]
	switch order.Status {
	case orderstatus.Statuses.Pending.Code():
		order.Status = orderstatus.Statuses.Preparing.Code()
	case orderstatus.Statuses.Completed.Code():
		order.Status = orderstatus.Statuses.Preparing.Code()
		order.IsCompleted = false
	}
	c.orders[id] = order
	return nil
}

func (c *mockOrderClient) Complete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("complete:" + id); err != nil {
		return err
	}
	order := c.orders[id]
	order.Status = orderstatus.Statuses.Completed.Code()
	order.IsCompleted = true
	c.orders[id] = order
	return nil
}

func (c *mockOrderClient) Update(ctx context.Context, order orders.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("update:" + order.ID); err != nil {
		return err
	}
	c.orders[order.ID] = order
	return nil
}

func (c *mockOrderClient) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *mockOrderClient) status(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orders[id].Status
}
