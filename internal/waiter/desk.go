package waiter

import (
	"context"
	"sync"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/internal/help"
	"github.com/bistroclub/bistro/pkg/event"
)

// Resolver is the outbound slice of the help channel the desk uses.
type Resolver interface {
	ResolveHelpRequest(ctx context.Context, requestID string) error
	Status() help.Status
}

// Desk is the waiter portal view-model: a live view over the help-request
// board plus local selection state. Resolution goes through the hub; the
// board only updates when the resolved event is pushed back.
type Desk struct {
	board   *help.Board
	channel Resolver
	logger  aqm.Logger

	mu         sync.Mutex
	selectedID string
}

func NewDesk(board *help.Board, channel Resolver, logger aqm.Logger) *Desk {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Desk{
		board:   board,
		channel: channel,
		logger:  logger,
	}
}

// Requests returns the active help requests, newest first.
func (d *Desk) Requests() []event.HelpRequest {
	return d.board.Snapshot()
}

// Select marks a request for the detail pane. Selecting an id that is no
// longer active clears the selection.
func (d *Desk) Select(id string) (event.HelpRequest, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	req, ok := d.board.Get(id)
	if !ok {
		d.selectedID = ""
		return event.HelpRequest{}, false
	}
	d.selectedID = id
	return req, true
}

// Selected returns the selected request, looked up live so a request
// resolved elsewhere silently drops out of the selection.
func (d *Desk) Selected() (event.HelpRequest, bool) {
	d.mu.Lock()
	id := d.selectedID
	d.mu.Unlock()

	if id == "" {
		return event.HelpRequest{}, false
	}
	return d.board.Get(id)
}

// ClearSelection drops the detail selection.
func (d *Desk) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectedID = ""
}

// Resolve asks the hub to resolve the request. On success the selection is
// cleared when it pointed at the resolved request; the board itself changes
// only via the pushed resolved event.
func (d *Desk) Resolve(ctx context.Context, id string) error {
	if err := d.channel.ResolveHelpRequest(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	if d.selectedID == id {
		d.selectedID = ""
	}
	d.mu.Unlock()
	return nil
}

// ConnectionStatus reports the channel state for the status indicator.
func (d *Desk) ConnectionStatus() help.Status {
	return d.channel.Status()
}
