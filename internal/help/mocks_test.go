package help

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/aquamarinepk/aqm/events"
	"github.com/bistroclub/bistro/pkg"
	"github.com/bistroclub/bistro/pkg/event"
)

var errDialFailed = errors.New("dial failed")

// mockConn implements Conn and records subscriptions and requests. Reply
// payloads are keyed by subject; unknown subjects get an OK ack.
type mockConn struct {
	mu sync.Mutex

	handlers map[string]events.HandlerFunc
	requests []mockRequest
	replies  map[string][]byte
	reqErr   error
	closed   bool
}

type mockRequest struct {
	Subject string
	Payload []byte
}

func newMockConn() *mockConn {
	okAck, _ := json.Marshal(event.HelpDeskAck{OK: true})
	return &mockConn{
		handlers: make(map[string]events.HandlerFunc),
		replies:  map[string][]byte{"": okAck},
	}
}

func (c *mockConn) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	return nil
}

func (c *mockConn) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, mockRequest{Subject: subject, Payload: payload})
	if c.reqErr != nil {
		return nil, c.reqErr
	}
	if reply, ok := c.replies[subject]; ok {
		return reply, nil
	}
	return c.replies[""], nil
}

func (c *mockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *mockConn) setReply(subject string, reply interface{}) {
	data, _ := json.Marshal(reply)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[subject] = data
}

func (c *mockConn) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func (c *mockConn) lastRequest() (mockRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return mockRequest{}, false
	}
	return c.requests[len(c.requests)-1], true
}

// push delivers a hub event to the topic subscriber, as NATS would.
func (c *mockConn) push(topic string, evt interface{}) error {
	c.mu.Lock()
	handler := c.handlers[topic]
	c.mu.Unlock()
	if handler == nil {
		return errors.New("no subscriber on topic " + topic)
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return handler(context.Background(), data)
}

// mockDialer returns the given conn, capturing the hub callbacks so tests can
// simulate connection loss and recovery.
type mockDialer struct {
	conn    *mockConn
	dialErr error

	onDisconnected func(error)
	onReconnected  func()
	onClosed       func()
}

func (d *mockDialer) dial(cfg pkg.NATSHubConfig) (Conn, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	d.onDisconnected = cfg.OnDisconnected
	d.onReconnected = cfg.OnReconnected
	d.onClosed = cfg.OnClosed
	return d.conn, nil
}
