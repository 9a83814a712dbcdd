package waiter

import (
	"context"
	"sync"

	"github.com/bistroclub/bistro/internal/help"
)

// mockResolver stands in for the help channel's outbound side.
type mockResolver struct {
	mu sync.Mutex

	status     help.Status
	resolveErr error
	resolved   []string

	// onResolve lets tests mimic the pushed resolved event.
	onResolve func(id string)
}

func newMockResolver() *mockResolver {
	return &mockResolver{status: help.Connected}
}

func (m *mockResolver) ResolveHelpRequest(ctx context.Context, requestID string) error {
	m.mu.Lock()
	err := m.resolveErr
	if err == nil {
		m.resolved = append(m.resolved, requestID)
	}
	onResolve := m.onResolve
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if onResolve != nil {
		onResolve(requestID)
	}
	return nil
}

func (m *mockResolver) Status() help.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}
