package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// ErrNotConnected is returned when publishing on a closed connection.
var ErrNotConnected = errors.New("events: not connected to NATS")

// NATS publishes events on a core NATS connection.
type NATS struct {
	conn *nats.Conn
}

var _ Publisher = (*NATS)(nil)

// Connect dials url. Name identifies the client on the server.
func Connect(url, name string) (*NATS, error) {
	var opts []nats.Option
	if name != "" {
		opts = append(opts, nats.Name(name))
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connect %s: %w", url, err)
	}
	return &NATS{conn: conn}, nil
}

// Publish implements Publisher.
func (n *NATS) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.conn == nil || !n.conn.IsConnected() {
		return ErrNotConnected
	}
	return n.conn.Publish(subject, data)
}

// Close drains pending messages and closes the connection.
func (n *NATS) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
