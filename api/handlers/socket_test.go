package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/chat-tts-api/pipeline"
)

type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env wsEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	app, _ := newTestApp(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketBootstrapAndBroadcast(t *testing.T) {
	app, token := newTestApp(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	conn := dialWS(t, server, token)
	defer conn.Close()

	// The bootstrap replays the current snapshots in a fixed order.
	wantBootstrap := []string{
		pipeline.EventStatus, pipeline.EventQueue, pipeline.EventSettings,
		pipeline.EventLists, pipeline.EventBans, "feedStatus", "historyBulk",
	}
	for _, want := range wantBootstrap {
		env := readEnvelope(t, conn)
		assert.Equal(t, want, env.Event)
	}

	require.Eventually(t, func() bool { return app.Hub.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	// A live mutation reaches the connected client.
	app.Pipeline.Ban("troll-9", "spam", 0)

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "ban event never arrived")
		env := readEnvelope(t, conn)
		if env.Event == pipeline.EventLog {
			continue
		}
		assert.Equal(t, pipeline.EventBans, env.Event)
		assert.Contains(t, string(env.Data), "troll-9")
		break
	}
}

func TestWebSocketClientCleanupOnClose(t *testing.T) {
	app, token := newTestApp(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	conn := dialWS(t, server, token)
	require.Eventually(t, func() bool { return app.Hub.ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return app.Hub.ClientCount() == 0 },
		2*time.Second, 5*time.Millisecond)
}
