package guest

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/bistroclub/bistro/internal/cart"
	"github.com/bistroclub/bistro/internal/help"
	"github.com/bistroclub/bistro/internal/orders"
)

var errSubmitFailed = errors.New("backend unavailable")

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

// mockSubmitter records submissions and serves scripted results. block lets a
// test hold one submission open to exercise the in-flight guard.
type mockSubmitter struct {
	mu sync.Mutex

	submissions [][]cart.Line
	tableIDs    []string
	err         error
	block       chan struct{}
	started     chan struct{}
}

func newMockSubmitter() *mockSubmitter {
	return &mockSubmitter{}
}

func (m *mockSubmitter) Submit(ctx context.Context, lines []cart.Line, tableID string) (*orders.Order, error) {
	m.mu.Lock()
	block := m.block
	started := m.started
	m.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions = append(m.submissions, lines)
	m.tableIDs = append(m.tableIDs, tableID)
	if m.err != nil {
		return nil, m.err
	}
	return &orders.Order{ID: "backend-1", TableID: tableID, Status: "Pending"}, nil
}

func (m *mockSubmitter) submissionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submissions)
}

// mockHelpSender records help requests.
type mockHelpSender struct {
	mu sync.Mutex

	status   help.Status
	err      error
	tables   []string
	messages []string
}

func newMockHelpSender() *mockHelpSender {
	return &mockHelpSender{status: help.Connected}
}

func (m *mockHelpSender) SendHelpRequest(ctx context.Context, tableNumber, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tables = append(m.tables, tableNumber)
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockHelpSender) Status() help.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
