package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// Subscription is a handle to an active topic subscription.
type Subscription interface {
	Unsubscribe() error
}

// Session is the pub/sub surface consumed by higher layers. *Client
// implements it; tests substitute fakes.
type Session interface {
	Publish(topic string, data []byte) error
	Subscribe(topic string, handler func(data []byte)) (Subscription, error)
	Close() error
}

// Client provides a high-level pub/sub interface for walkie.
type Client struct {
	cfg    Config
	logger *slog.Logger
	topics *Topics

	mu     sync.RWMutex
	conn   *nats.Conn
	closed bool

	// Stats
	messagesSent     atomic.Int64
	messagesReceived atomic.Int64
	reconnectCount   atomic.Int64
}

// New creates a new transport client.
// Call Connect() to establish the connection.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		topics: NewTopics(cfg.Prefix),
	}, nil
}

// Connect establishes the NATS connection.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return io.ErrClosedPipe
	}

	if c.conn != nil {
		return nil // Already connected
	}

	c.logger.Info("connecting to NATS", "url", c.cfg.URL)

	conn, err := nats.Connect(c.cfg.URL,
		nats.RetryOnFailedConnect(false),
		nats.ReconnectWait(c.cfg.ReconnectInterval),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}

	c.conn = conn

	c.logger.Info("connected to NATS",
		"url", c.cfg.URL,
		"server_id", conn.ConnectedServerId(),
	)

	return nil
}

// ConnectWithRetry connects with automatic retry on failure.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := c.Connect(ctx)
		if err == nil {
			return nil
		}

		attempts++
		c.reconnectCount.Add(1)

		if c.cfg.MaxReconnectAttempts > 0 && attempts >= c.cfg.MaxReconnectAttempts {
			return fmt.Errorf("max reconnect attempts (%d) reached: %w", c.cfg.MaxReconnectAttempts, err)
		}

		c.logger.Warn("nats connection failed, retrying",
			"error", err,
			"attempt", attempts,
			"retry_in", c.cfg.ReconnectInterval,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

// Topics returns the topics helper.
func (c *Client) Topics() *Topics {
	return c.topics
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.closed && c.conn.IsConnected()
}

// Publish publishes data to a topic.
func (c *Client) Publish(topic string, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	if err := conn.Publish(topic, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	c.messagesSent.Add(1)
	return nil
}

// Subscribe subscribes to a topic and calls the handler for each message.
func (c *Client) Subscribe(topic string, handler func(data []byte)) (Subscription, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return nil, fmt.Errorf("not connected")
	}

	sub, err := conn.Subscribe(topic, func(msg *nats.Msg) {
		c.messagesReceived.Add(1)
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	c.logger.Debug("subscribed to topic", "topic", topic)

	return sub, nil
}

// Close drains and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.logger.Warn("error draining nats connection", "error", err)
			c.conn.Close()
		}
		c.conn = nil
	}

	c.logger.Info("transport client closed")
	return nil
}

// Stats returns client statistics.
func (c *Client) Stats() ClientStats {
	c.mu.RLock()
	connected := c.conn != nil && !c.closed && c.conn.IsConnected()
	c.mu.RUnlock()

	return ClientStats{
		Connected:        connected,
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
		ReconnectCount:   c.reconnectCount.Load(),
	}
}

// ClientStats contains client statistics.
type ClientStats struct {
	Connected        bool  `json:"connected"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesReceived int64 `json:"messages_received"`
	ReconnectCount   int64 `json:"reconnect_count"`
}

var _ Session = (*Client)(nil)
