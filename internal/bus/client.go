// Package bus connects the narration services to NATS. The surface is the
// small one the narrate service needs: subscribe to request subjects, publish
// status events, report connection health.
package bus

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/narralabs/narra-core/internal/config"
	"github.com/nats-io/nats.go"
)

const defaultConnectTimeout = 2 * time.Second

type Client struct {
	conn *nats.Conn
	log  *slog.Logger
}

// Connect dials the configured servers. The connection reconnects forever;
// narration requests in flight during an outage fail and are reported to the
// caller, new ones queue on the provider side once the bus is back.
func Connect(cfg config.BusConfig, log *slog.Logger) (*Client, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}
	log = log.With(slog.String("component", "bus"))

	timeout := defaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		timeout = time.Duration(cfg.ConnectTimeout) * time.Millisecond
	}

	options := []nats.Option{
		nats.Name("narra-core"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("bus disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("bus reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.Username != "" || cfg.Password != "" {
		options = append(options, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}
	if cfg.TLSInsecure {
		options = append(options, nats.Secure(&tls.Config{InsecureSkipVerify: true}))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Info("connected to bus", slog.String("servers", url))

	return &Client{conn: conn, log: log}, nil
}

// Subscribe registers a handler for a request subject. Handlers reply through
// msg.Respond; the subscription is drained on Close.
func (c *Client) Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Publish emits a fire-and-forget event, used for per-item batch progress.
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

func (c *Client) Healthy() bool {
	return c != nil && c.conn != nil && c.conn.Status() == nats.CONNECTED
}

func (c *Client) Close() {
	if c == nil || c.conn == nil {
		return
	}
	c.log.Info("closing bus connection")
	if err := c.conn.Drain(); err != nil {
		c.log.Warn("bus drain failed", slog.String("error", err.Error()))
	}
	c.conn.Close()
}
