package feed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	helloTimeout = 10 * time.Second
	eventBuffer  = 64
)

// RelayDialer connects to a chat relay: a websocket endpoint that bridges
// the upstream live platform and forwards chat messages as JSON frames.
// The first frame is a hello naming the room; every following frame is one
// chat message.
type RelayDialer struct {
	URL string
}

// Dial opens the relay connection for a username.
func (d RelayDialer) Dial(ctx context.Context, username string) (Conn, error) {
	if d.URL == "" {
		return nil, errors.New("no feed relay configured")
	}

	endpoint := d.URL + "?username=" + url.QueryEscape(username)
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	var hello struct {
		RoomID string `json:"roomId"`
	}
	_ = ws.SetReadDeadline(time.Now().Add(helloTimeout))
	if err := ws.ReadJSON(&hello); err != nil {
		ws.Close()
		return nil, fmt.Errorf("relay hello: %w", err)
	}
	_ = ws.SetReadDeadline(time.Time{})

	c := &relayConn{
		ws:     ws,
		roomID: hello.RoomID,
		events: make(chan Event, eventBuffer),
	}
	go c.readLoop()
	return c, nil
}

type relayConn struct {
	ws     *websocket.Conn
	roomID string
	events chan Event

	closeOnce sync.Once
	closeErr  error
}

func (c *relayConn) Events() <-chan Event { return c.events }

func (c *relayConn) RoomID() string { return c.roomID }

func (c *relayConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// readLoop decodes chat frames until the socket dies. A full event buffer
// drops the frame instead of stalling the socket read.
func (c *relayConn) readLoop() {
	defer close(c.events)
	defer c.Close()

	for {
		var frame struct {
			UniqueID string `json:"uniqueId"`
			Nickname string `json:"nickname"`
			Comment  string `json:"comment"`
		}
		if err := c.ws.ReadJSON(&frame); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.S().Debugw("relay read ended", "error", err)
			}
			return
		}

		select {
		case c.events <- Event{SenderID: frame.UniqueID, DisplayName: frame.Nickname, Text: frame.Comment}:
		default:
			zap.S().Warnw("relay event dropped, buffer full", "uniqueId", frame.UniqueID)
		}
	}
}
