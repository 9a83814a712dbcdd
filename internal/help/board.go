package help

import (
	"sort"
	"sync"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/pkg/event"
)

// Board maintains the client-side cache of active help requests. The hub is
// authoritative: the board only changes in response to pushed events or a
// full sync, never optimistically.
type Board struct {
	mu       sync.RWMutex
	requests map[string]event.HelpRequest
	logger   aqm.Logger
}

func NewBoard(logger aqm.Logger) *Board {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Board{
		requests: make(map[string]event.HelpRequest),
		logger:   logger,
	}
}

// Upsert replaces the request with the same id, or adds it.
func (b *Board) Upsert(req event.HelpRequest) {
	if req.ID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests[req.ID] = req
}

// Remove drops the request from the active set. Removing an unknown id is a
// no-op.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.requests, id)
}

// ReplaceAll swaps the entire active set wholesale.
func (b *Board) ReplaceAll(reqs []event.HelpRequest) {
	next := make(map[string]event.HelpRequest, len(reqs))
	for _, req := range reqs {
		if req.ID == "" {
			continue
		}
		next[req.ID] = req
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = next
}

// Get returns the request with the given id, if present.
func (b *Board) Get(id string) (event.HelpRequest, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	req, ok := b.requests[id]
	return req, ok
}

// Snapshot returns the active requests sorted newest first.
func (b *Board) Snapshot() []event.HelpRequest {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]event.HelpRequest, 0, len(b.requests))
	for _, req := range b.requests {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of active requests.
func (b *Board) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.requests)
}
