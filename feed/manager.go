package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/models"
)

const dialTimeout = 15 * time.Second

// Manager owns the live-feed connection lifecycle. Connections are strictly
// operator-initiated and there is no automatic reconnection: a dropped or
// failed connection parks in the error state until the operator connects
// again.
type Manager struct {
	dialer   Dialer
	handler  Handler
	notifier Notifier

	mu     sync.Mutex
	status models.FeedStatus
	conn   Conn
	gen    int // bumped on every Disconnect so a stale pump cannot flip state
}

// NewManager builds a manager in the idle state.
func NewManager(dialer Dialer, handler Handler, notifier Notifier) *Manager {
	return &Manager{
		dialer:   dialer,
		handler:  handler,
		notifier: notifier,
		status:   models.FeedStatus{Status: StatusIdle},
	}
}

// Status returns the current connection view.
func (m *Manager) Status() models.FeedStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connect dials the feed for the given username and starts pumping its
// events into the handler. It blocks until the dial resolves. A dial
// failure leaves the manager in the error state with the failure recorded.
func (m *Manager) Connect(username string) error {
	if username == "" {
		return ErrMissingUsername
	}

	m.mu.Lock()
	if m.status.Status == StatusConnecting || m.status.Status == StatusConnected {
		m.mu.Unlock()
		return ErrAlreadyConnecting
	}
	m.setStatusLocked(models.FeedStatus{Status: StatusConnecting})
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := m.dialer.Dial(ctx, username)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		zap.S().Errorw("feed connect failed", "username", username, "error", err)
		m.setStatusLocked(models.FeedStatus{Status: StatusError, LastError: err.Error()})
		return err
	}

	m.conn = conn
	m.setStatusLocked(models.FeedStatus{Status: StatusConnected, Live: true, RoomID: conn.RoomID()})
	zap.S().Infow("feed connected", "username", username, "roomId", conn.RoomID())

	go m.pump(conn, m.gen)
	return nil
}

// Disconnect closes the current connection, if any, and returns to idle.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		zap.S().Warnw("feed close failed", "error", err)
	}
	m.conn = nil
	m.gen++
	m.setStatusLocked(models.FeedStatus{Status: StatusIdle})
	zap.S().Infow("feed disconnected")
}

// pump forwards events until the connection's channel closes. An exit on an
// unchanged generation means the remote side dropped us.
func (m *Manager) pump(conn Conn, gen int) {
	for ev := range conn.Events() {
		m.handler(ev.SenderID, ev.DisplayName, ev.Text)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.conn = nil
	m.gen++
	m.setStatusLocked(models.FeedStatus{Status: StatusError, LastError: "connection closed"})
	zap.S().Warnw("feed connection dropped")
}

func (m *Manager) setStatusLocked(s models.FeedStatus) {
	m.status = s
	m.notifier.Publish(EventStatus, s)
}
