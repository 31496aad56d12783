package feed

import (
	"context"
	"errors"
)

// Feed connection states as surfaced to the dashboard.
const (
	StatusIdle       = "idle"
	StatusConnecting = "connecting"
	StatusConnected  = "connected"
	StatusError      = "error"
)

// Event name for status broadcasts.
const EventStatus = "feedStatus"

var (
	// ErrMissingUsername is returned by Connect when no feed username is
	// configured.
	ErrMissingUsername = errors.New("missing_username")

	// ErrAlreadyConnecting is returned by Connect while a connection is
	// being established or is already up.
	ErrAlreadyConnecting = errors.New("already_connecting")
)

// Event is one chat message received from the live feed.
type Event struct {
	SenderID    string
	DisplayName string
	Text        string
}

// Conn is an established live-feed connection. Events is closed when the
// connection ends, whether by Close or by the remote side.
type Conn interface {
	Events() <-chan Event
	RoomID() string
	Close() error
}

// Dialer opens a live-feed connection for a username. Implementations wrap
// whatever connector the deployment uses; tests use a stub.
type Dialer interface {
	Dial(ctx context.Context, username string) (Conn, error)
}

// Handler receives each feed chat event. It must not block: the manager
// pumps events on a single goroutine per connection.
type Handler func(senderID, displayName, text string)

// Notifier publishes feed status changes to dashboard clients.
type Notifier interface {
	Publish(event string, payload any)
}
