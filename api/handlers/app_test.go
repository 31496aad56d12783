package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/chat-tts-api/api"
	"github.com/linesmerrill/chat-tts-api/api/handlers"
	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/feed"
	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/pipeline"
	"github.com/linesmerrill/chat-tts-api/speech"
	"github.com/linesmerrill/chat-tts-api/storage"
)

type nullEngine struct{}

func (nullEngine) Name() string                                        { return models.EngineSystem }
func (nullEngine) Speak(context.Context, string, speech.Options) error { return nil }

type nullDialer struct{}

func (nullDialer) Dial(context.Context, string) (feed.Conn, error) {
	return nil, context.DeadlineExceeded
}

func testSettings() models.Settings {
	return models.Settings{
		TTSEnabled:  false,
		MaxChars:    200,
		MaxWords:    30,
		MaxQueue:    10,
		HistorySize: 100,
		Engine:      models.EngineSettings{Name: models.EngineSystem, Rate: 1.0},
		AutoBan:     models.AutoBanSettings{StrikeThreshold: 3, BanMinutes: 10},
	}
}

// newTestApp wires a full App against a temp data directory and returns it
// with a valid operator JWT.
func newTestApp(t *testing.T) (*handlers.App, string) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, storage.WriteJSONAtomic(filepath.Join(dir, "settings.json"), testSettings()))
	settings, err := storage.NewSettingsStore(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	lists, err := storage.NewListStore(
		filepath.Join(dir, "badwords_exact.txt"),
		filepath.Join(dir, "badwords_substring.txt"))
	require.NoError(t, err)

	auth := api.NewAuth("test-operator-token", "test-jwt-secret")
	hub := handlers.NewHub(auth.Validate)

	ledger, err := pipeline.NewLedger(storage.NewBanFile(filepath.Join(dir, "banned_users.json")), hub)
	require.NoError(t, err)

	engine := nullEngine{}
	p := pipeline.New(settings, lists, ledger,
		map[string]speech.Engine{models.EngineSystem: engine}, engine, hub)

	app := &handlers.App{
		Config:   &config.Config{PublicDir: dir},
		Pipeline: p,
		Feed:     feed.NewManager(nullDialer{}, p.HandleChat, hub),
		Lists:    lists,
		Hub:      hub,
		Auth:     auth,
	}
	app.Initialize()

	body, _ := json.Marshal(map[string]string{"token": "test-operator-token"})
	req := httptest.NewRequest("POST", "/api/v1/auth/token", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var tokenResp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokenResp))
	return app, tokenResp["token"]
}

func doJSON(t *testing.T, app *handlers.App, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheckHandler(t *testing.T) {
	app, _ := newTestApp(t)

	rr := doJSON(t, app, "", "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true}`, rr.Body.String())
}

func TestOperatorRoutesRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/status"},
		{"GET", "/api/v1/bans"},
		{"POST", "/api/v1/queue/test"},
		{"PATCH", "/api/v1/settings"},
		{"GET", "/api/v1/history"},
	} {
		rr := doJSON(t, app, "", route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
	}
}

func TestBanUnbanRoundtrip(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/ban",
		map[string]any{"uniqueId": "troll-1", "reason": "spam", "minutes": 30})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, app, token, "GET", "/api/v1/bans", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list models.BanList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	entry, ok := list.Users["troll-1"]
	require.True(t, ok)
	assert.Equal(t, "spam", entry.Reason)
	assert.NotZero(t, entry.UntilMs)

	rr = doJSON(t, app, token, "POST", "/api/v1/unban", map[string]any{"uniqueId": "troll-1"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, app, token, "POST", "/api/v1/unban", map[string]any{"uniqueId": "troll-1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBanRequiresUniqueID(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/ban", map[string]any{"reason": "spam"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQueueTestInjectAndStatus(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/queue/test",
		map[string]any{"text": "mensaje de prueba", "repeat": 3})
	require.Equal(t, http.StatusOK, rr.Code)
	var injected struct {
		Queued   int              `json:"queued"`
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &injected))
	assert.Equal(t, 3, injected.Queued)
	require.Len(t, injected.Messages, 3)

	rr = doJSON(t, app, token, "GET", "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var status models.StatusSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, 3, status.QueueSize)
	assert.False(t, status.TTSEnabled)
}

func TestQueueTestRejectsEmptyText(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/queue/test", map[string]any{"text": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp struct {
		Reason models.Reason `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.ReasonEmpty, resp.Reason)
}

func TestQueueSkipAndClear(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/queue/test",
		map[string]any{"text": "mensaje de prueba", "repeat": 2})
	require.Equal(t, http.StatusOK, rr.Code)
	var injected struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &injected))

	rr = doJSON(t, app, token, "POST", "/api/v1/queue/skip",
		map[string]any{"id": injected.Messages[0].ID})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, app, token, "POST", "/api/v1/queue/skip", map[string]any{"id": 424242})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, app, token, "POST", "/api/v1/queue/clear", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"removed": 1}`, rr.Body.String())
}

func TestToggleRequiresEnabledField(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/tts", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, app, token, "POST", "/api/v1/tts", map[string]any{"enabled": true})
	require.Equal(t, http.StatusOK, rr.Code)
	var status models.StatusSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.True(t, status.TTSEnabled)
}

func TestSettingsPatchClampsOutOfRange(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "PATCH", "/api/v1/settings",
		map[string]any{"maxQueue": 9999, "engineName": "winamp", "unknownField": true})
	require.Equal(t, http.StatusOK, rr.Code)

	var updated models.Settings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 100, updated.MaxQueue)
	assert.Equal(t, models.EngineSystem, updated.Engine.Name)
}

func TestListsAddWordAndReplace(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "POST", "/api/v1/lists/word",
		map[string]any{"word": "Imbécil!", "list": "exact"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"word": "imbecil", "list": "exact"}`, rr.Body.String())

	rr = doJSON(t, app, token, "POST", "/api/v1/lists/word", map[string]any{"word": "no"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, app, token, "PUT", "/api/v1/lists",
		map[string]any{"substring": "tonto\nbobo\n"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, app, token, "GET", "/api/v1/lists", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var lists models.ListsSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lists))
	assert.Equal(t, []string{"imbecil"}, lists.Exact)
	assert.ElementsMatch(t, []string{"tonto", "bobo"}, lists.Substring)

	// The new vocabulary is live for moderation immediately.
	rr = doJSON(t, app, token, "POST", "/api/v1/queue/test", map[string]any{"text": "eres imbecil"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestFeedStatusAndConnectValidation(t *testing.T) {
	app, token := newTestApp(t)

	rr := doJSON(t, app, token, "GET", "/api/v1/feed/status", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var status models.FeedStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, feed.StatusIdle, status.Status)

	// No username in the request and none configured.
	rr = doJSON(t, app, token, "POST", "/api/v1/feed/connect", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Dial failures surface as gateway errors.
	rr = doJSON(t, app, token, "POST", "/api/v1/feed/connect", map[string]any{"username": "streamer"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	rr = doJSON(t, app, token, "POST", "/api/v1/feed/disconnect", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHistoryEndpointWithLimit(t *testing.T) {
	app, token := newTestApp(t)

	for i := 0; i < 3; i++ {
		rr := doJSON(t, app, token, "POST", "/api/v1/queue/test", map[string]any{"text": "mensaje de prueba"})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doJSON(t, app, token, "GET", "/api/v1/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rr = doJSON(t, app, token, "GET", "/api/v1/history?limit=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
