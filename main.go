package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/api"
	"github.com/linesmerrill/chat-tts-api/api/handlers"
	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/feed"
	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/pipeline"
	"github.com/linesmerrill/chat-tts-api/speech"
	"github.com/linesmerrill/chat-tts-api/storage"
)

const reloadInterval = 2 * time.Second

func main() {
	cfg := config.New()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	settingsPath := filepath.Join(cfg.DataDir, "settings.json")
	bansPath := filepath.Join(cfg.DataDir, "banned_users.json")
	exactPath := filepath.Join(cfg.DataDir, "badwords_exact.txt")
	subPath := filepath.Join(cfg.DataDir, "badwords_substring.txt")

	if err := storage.EnsureSettingsFile(settingsPath); err != nil {
		log.Fatalf("failed to seed settings: %v", err)
	}
	settings, err := storage.NewSettingsStore(settingsPath)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	lists, err := storage.NewListStore(exactPath, subPath)
	if err != nil {
		log.Fatalf("failed to load word lists: %v", err)
	}

	auth := api.NewAuth(cfg.OperatorToken, cfg.JWTSecret)
	hub := handlers.NewHub(auth.Validate)

	ledger, err := pipeline.NewLedger(storage.NewBanFile(bansPath), hub)
	if err != nil {
		log.Fatalf("failed to load ban ledger: %v", err)
	}

	baseline := speech.NewSystemEngine()
	engines := map[string]speech.Engine{models.EngineSystem: baseline}
	if player, err := speech.NewPlayer(); err != nil {
		zap.S().Warnw("audio playback unavailable, advanced engine disabled", "error", err)
	} else {
		engines[models.EnginePiper] = speech.NewPiperEngine(player, func() string {
			return settings.Get().Engine.Command
		})
	}

	p := pipeline.New(settings, lists, ledger, engines, baseline, hub)
	manager := feed.NewManager(feed.RelayDialer{URL: cfg.FeedRelayURL}, p.HandleChat, hub)

	poller := storage.NewPoller(reloadInterval)
	poller.Watch(settingsPath, p.ReloadSettings)
	poller.Watch(bansPath, func() {
		if err := ledger.Reload(); err != nil {
			zap.S().Warnw("ban reload failed, keeping previous", "error", err)
		}
	})
	reloadLists := func() {
		if _, err := lists.Reload(); err != nil {
			zap.S().Warnw("word list reload failed, keeping previous", "error", err)
			return
		}
		hub.Publish(pipeline.EventLists, p.ListsSnapshot())
	}
	poller.Watch(exactPath, reloadLists)
	poller.Watch(subPath, reloadLists)
	poller.Start()
	defer poller.Stop()

	a := handlers.App{
		Config:   cfg,
		Pipeline: p,
		Feed:     manager,
		Lists:    lists,
		Hub:      hub,
		Auth:     auth,
	}
	a.Initialize()

	zap.S().Infow("chat-tts-api is up and running",
		"port", cfg.Port,
		"dataDir", cfg.DataDir,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", cfg.Port), a.Router))
}
