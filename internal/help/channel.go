package help

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/bistroclub/bistro/pkg"
	"github.com/bistroclub/bistro/pkg/event"
)

// ErrNotConnected is returned by outbound invocations when the channel is not
// in the Connected state. The message is user-facing.
var ErrNotConnected = errors.New("Not connected to server")

// DefaultHelpMessage is sent when a guest asks for help without typing one.
const DefaultHelpMessage = "Customer needs assistance"

// Status is the channel connection state.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Reconnecting
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Conn is the subset of the hub connection the channel uses.
type Conn interface {
	Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
	Close() error
}

// Dialer establishes the hub connection. Injected in tests.
type Dialer func(cfg pkg.NATSHubConfig) (Conn, error)

func natsDialer(cfg pkg.NATSHubConfig) (Conn, error) {
	return pkg.NewNATSHub(cfg)
}

// Config tunes the channel connection and invocation behavior.
type Config struct {
	URL             string
	ReconnectWait   time.Duration
	ReconnectJitter time.Duration
	MaxReconnects   int
	RequestTimeout  time.Duration
}

// Channel manages the long-lived hub connection, the connection state machine
// (Disconnected -> Connecting -> Connected <-> Reconnecting -> Disconnected)
// and the live help-request board. Reconnection is automatic; outbound
// invocations never queue or retry.
type Channel struct {
	cfg    Config
	board  *Board
	logger aqm.Logger
	dial   Dialer

	mu     sync.RWMutex
	conn   Conn
	status Status
}

func NewChannel(cfg Config, board *Board, logger aqm.Logger) *Channel {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if board == nil {
		board = NewBoard(logger)
	}
	return &Channel{
		cfg:    cfg,
		board:  board,
		logger: logger,
		dial:   natsDialer,
		status: Disconnected,
	}
}

// Board returns the live help-request cache.
func (c *Channel) Board() *Board {
	return c.board
}

// Status returns the current connection state.
func (c *Channel) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Connected reports whether outbound invocations would be attempted.
func (c *Channel) Connected() bool {
	return c.Status() == Connected
}

func (c *Channel) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// Start connects to the hub, subscribes to pushed help-request events and
// requests a full sync of the active set.
func (c *Channel) Start(ctx context.Context) error {
	c.setStatus(Connecting)

	conn, err := c.dial(pkg.NATSHubConfig{
		URL:             c.cfg.URL,
		ReconnectWait:   c.cfg.ReconnectWait,
		ReconnectJitter: c.cfg.ReconnectJitter,
		MaxReconnects:   c.cfg.MaxReconnects,
		OnDisconnected:  c.handleDisconnected,
		OnReconnected:   c.handleReconnected,
		OnClosed:        c.handleClosed,
	})
	if err != nil {
		c.setStatus(Disconnected)
		return fmt.Errorf("cannot connect to help hub: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.status = Connected
	c.mu.Unlock()

	if err := conn.Subscribe(ctx, event.HelpRequestsTopic, c.handleEvent); err != nil {
		return fmt.Errorf("cannot subscribe to %s: %w", event.HelpRequestsTopic, err)
	}

	c.logger.Info("help channel connected", "url", c.cfg.URL)
	c.resync(ctx)
	return nil
}

// Stop tears the connection down unconditionally.
func (c *Channel) Stop(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.status = Disconnected
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Channel) handleDisconnected(err error) {
	c.setStatus(Reconnecting)
	c.logger.Info("help channel lost, reconnecting", "error", err)
}

func (c *Channel) handleReconnected() {
	c.setStatus(Connected)
	c.logger.Info("help channel reconnected")
	// The hub may have changed while we were away; replace the board.
	c.resync(context.Background())
}

func (c *Channel) handleClosed() {
	c.setStatus(Disconnected)
	c.logger.Info("help channel closed, reconnect attempts exhausted")
}

// resync requests the full active set and replaces the board wholesale.
func (c *Channel) resync(ctx context.Context) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	data, err := conn.Request(ctx, event.HelpDeskActiveSubject, nil)
	if err != nil {
		c.logger.Errorf("cannot fetch active help requests: %v", err)
		return
	}

	var reply event.ActiveHelpRequestsReply
	if err := json.Unmarshal(data, &reply); err != nil {
		c.logger.Errorf("cannot decode active help requests: %v", err)
		return
	}

	c.board.ReplaceAll(reply.Requests)
	c.logger.Info("help requests synced", "count", len(reply.Requests))
}

// handleEvent applies one pushed hub event. Events are applied in arrival
// order; unknown event types are ignored for forward compatibility.
func (c *Channel) handleEvent(ctx context.Context, data []byte) error {
	var probe struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		c.logger.Errorf("cannot decode help event type: %v", err)
		return nil
	}

	switch probe.EventType {
	case event.EventHelpRequestReceived:
		var evt event.HelpRequestReceivedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Errorf("cannot decode %s event: %v", probe.EventType, err)
			return nil
		}
		c.board.Upsert(evt.Request)
	case event.EventHelpRequestResolved:
		var evt event.HelpRequestResolvedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Errorf("cannot decode %s event: %v", probe.EventType, err)
			return nil
		}
		c.board.Remove(evt.RequestID)
	case event.EventHelpRequestsSynced:
		var evt event.HelpRequestsSyncedEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			c.logger.Errorf("cannot decode %s event: %v", probe.EventType, err)
			return nil
		}
		c.board.ReplaceAll(evt.Requests)
	}

	return nil
}

// invoke performs one request/reply call against the help desk. It fails fast
// when the channel is not connected and never retries.
func (c *Channel) invoke(ctx context.Context, subject string, payload any) error {
	c.mu.RLock()
	conn := c.conn
	status := c.status
	c.mu.RUnlock()

	if status != Connected || conn == nil {
		return ErrNotConnected
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("cannot encode %s payload: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	data, err := conn.Request(ctx, subject, body)
	if err != nil {
		return err
	}

	var ack event.HelpDeskAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return fmt.Errorf("cannot decode %s reply: %w", subject, err)
	}
	if !ack.OK {
		if ack.Error != "" {
			return errors.New(ack.Error)
		}
		return fmt.Errorf("%s rejected by hub", subject)
	}
	return nil
}

// SendHelpRequest asks the hub to create a help request for the table. The
// board is updated only by the pushed "received" event that follows.
func (c *Channel) SendHelpRequest(ctx context.Context, tableNumber, message string) error {
	if message == "" {
		message = DefaultHelpMessage
	}
	return c.invoke(ctx, event.HelpDeskRequestSubject, event.HelpDeskRequestPayload{
		TableNumber: tableNumber,
		Message:     message,
	})
}

// ResolveHelpRequest asks the hub to resolve the request. The board is
// updated only by the pushed "resolved" event, not optimistically.
func (c *Channel) ResolveHelpRequest(ctx context.Context, requestID string) error {
	return c.invoke(ctx, event.HelpDeskResolveSubject, event.HelpDeskResolvePayload{
		RequestID: requestID,
	})
}
