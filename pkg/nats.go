package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm/events"
	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	return p.conn.Publish(topic, msg)
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

type NATSSubscriber struct {
	conn *nats.Conn
}

func NewNATSSubscriber(url string) (*NATSSubscriber, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSubscriber{conn: conn}, nil
}

func (s *NATSSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	_, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
		}
	})
	return err
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}

// NATSHubConfig configures a NATSHub connection.
type NATSHubConfig struct {
	URL             string
	ReconnectWait   time.Duration // delay between reconnect attempts
	ReconnectJitter time.Duration // random jitter added to each attempt
	MaxReconnects   int           // attempts before the connection is closed for good

	// Connection lifecycle callbacks, invoked by the NATS client.
	OnDisconnected func(error)
	OnReconnected  func()
	OnClosed       func()
}

// NATSHub is a long-lived hub connection supporting both subscription to
// pushed events and request/reply invocations.
type NATSHub struct {
	conn *nats.Conn
}

// NewNATSHub connects to the hub. Reconnection is handled by the NATS client
// using the configured wait, jitter and attempt ceiling.
func NewNATSHub(cfg NATSHubConfig) (*NATSHub, error) {
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.ReconnectJitter <= 0 {
		cfg.ReconnectJitter = 512 * time.Millisecond
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 60
	}

	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(cfg.ReconnectJitter, cfg.ReconnectJitter),
		nats.MaxReconnects(cfg.MaxReconnects),
	}
	if cfg.OnDisconnected != nil {
		opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			cfg.OnDisconnected(err)
		}))
	}
	if cfg.OnReconnected != nil {
		opts = append(opts, nats.ReconnectHandler(func(_ *nats.Conn) {
			cfg.OnReconnected()
		}))
	}
	if cfg.OnClosed != nil {
		opts = append(opts, nats.ClosedHandler(func(_ *nats.Conn) {
			cfg.OnClosed()
		}))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS hub: %w", err)
	}
	return &NATSHub{conn: conn}, nil
}

func (h *NATSHub) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	_, err := h.conn.Subscribe(topic, func(msg *nats.Msg) {
		if err := handler(ctx, msg.Data); err != nil {
		}
	})
	return err
}

// Request performs a request/reply invocation against the hub.
func (h *NATSHub) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	msg, err := h.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return nil, fmt.Errorf("hub request %s failed: %w", subject, err)
	}
	return msg.Data, nil
}

func (h *NATSHub) Close() error {
	h.conn.Close()
	return nil
}
