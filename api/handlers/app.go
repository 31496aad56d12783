// Package handlers exposes the operator HTTP API and the dashboard
// websocket. Handlers hold their collaborators as struct fields the same
// way the routes are registered: one handler struct per resource.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/chat-tts-api/api"
	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/feed"
	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/pipeline"
	"github.com/linesmerrill/chat-tts-api/storage"
)

// App stores the router and the service collaborators, so it can be reused
type App struct {
	Router   *mux.Router
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Feed     *feed.Manager
	Lists    *storage.ListStore
	Hub      *Hub
	Auth     *api.Auth
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	r.Use(api.LoggingMiddleware)

	b := Bans{Pipeline: a.Pipeline}
	q := QueueAPI{Pipeline: a.Pipeline}
	s := SettingsAPI{Pipeline: a.Pipeline}
	l := Lists{Store: a.Lists, Pipeline: a.Pipeline, Notifier: a.Hub}
	f := FeedAPI{Manager: a.Feed, Pipeline: a.Pipeline}
	h := HistoryAPI{Pipeline: a.Pipeline}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.HandleFunc("/ws", a.Hub.HandleWebSocket)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(a.Auth.CreateToken)).Methods("POST")

	apiCreate.Handle("/bans", a.Auth.Middleware(http.HandlerFunc(b.BansHandler))).Methods("GET")
	apiCreate.Handle("/ban", a.Auth.Middleware(http.HandlerFunc(b.BanHandler))).Methods("POST")
	apiCreate.Handle("/unban", a.Auth.Middleware(http.HandlerFunc(b.UnbanHandler))).Methods("POST")

	apiCreate.Handle("/status", a.Auth.Middleware(http.HandlerFunc(q.StatusHandler))).Methods("GET")
	apiCreate.Handle("/tts", a.Auth.Middleware(http.HandlerFunc(q.ToggleHandler))).Methods("POST")
	apiCreate.Handle("/queue", a.Auth.Middleware(http.HandlerFunc(q.QueueHandler))).Methods("GET")
	apiCreate.Handle("/queue/clear", a.Auth.Middleware(http.HandlerFunc(q.ClearHandler))).Methods("POST")
	apiCreate.Handle("/queue/skip", a.Auth.Middleware(http.HandlerFunc(q.SkipHandler))).Methods("POST")
	apiCreate.Handle("/queue/test", a.Auth.Middleware(http.HandlerFunc(q.TestHandler))).Methods("POST")

	apiCreate.Handle("/settings", a.Auth.Middleware(http.HandlerFunc(s.SettingsHandler))).Methods("GET")
	apiCreate.Handle("/settings", a.Auth.Middleware(http.HandlerFunc(s.UpdateSettingsHandler))).Methods("PATCH")

	apiCreate.Handle("/lists", a.Auth.Middleware(http.HandlerFunc(l.ListsHandler))).Methods("GET")
	apiCreate.Handle("/lists", a.Auth.Middleware(http.HandlerFunc(l.ReplaceListsHandler))).Methods("PUT")
	apiCreate.Handle("/lists/word", a.Auth.Middleware(http.HandlerFunc(l.AddWordHandler))).Methods("POST")

	apiCreate.Handle("/feed/status", a.Auth.Middleware(http.HandlerFunc(f.StatusHandler))).Methods("GET")
	apiCreate.Handle("/feed/connect", a.Auth.Middleware(http.HandlerFunc(f.ConnectHandler))).Methods("POST")
	apiCreate.Handle("/feed/disconnect", a.Auth.Middleware(http.HandlerFunc(f.DisconnectHandler))).Methods("POST")

	apiCreate.Handle("/history", a.Auth.Middleware(http.HandlerFunc(h.HistoryHandler))).Methods("GET")

	// dashboard hosted at "/"
	r.PathPrefix("/").Handler(http.StripPrefix("/", http.FileServer(http.Dir(a.Config.PublicDir))))
	return r
}

// Initialize is invoked by main to wire the websocket bootstrap and create
// a router
func (a *App) Initialize() {
	a.Hub.SetBootstrap(func(send func(event string, payload any)) {
		send(pipeline.EventStatus, a.Pipeline.StatusSnapshot())
		send(pipeline.EventQueue, a.Pipeline.QueueSnapshot())
		send(pipeline.EventSettings, a.Pipeline.Settings())
		send(pipeline.EventLists, a.Pipeline.ListsSnapshot())
		send(pipeline.EventBans, a.Pipeline.Ledger().Snapshot())
		send(feed.EventStatus, a.Feed.Status())
		send("historyBulk", a.Pipeline.HistorySnapshot())
	})
	a.initializeRoutes()
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
