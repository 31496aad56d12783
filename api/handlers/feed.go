package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/feed"
	"github.com/linesmerrill/chat-tts-api/pipeline"
)

// FeedAPI exported for testing purposes
type FeedAPI struct {
	Manager  *feed.Manager
	Pipeline *pipeline.Pipeline
}

// StatusHandler returns the live-feed connection state
func (f FeedAPI) StatusHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(f.Manager.Status())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// ConnectHandler connects to the live feed. An empty username falls back
// to the configured feed username.
func (f FeedAPI) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Username == "" {
		body.Username = f.Pipeline.Settings().FeedUsername
	}

	if err := f.Manager.Connect(body.Username); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, feed.ErrMissingUsername) || errors.Is(err, feed.ErrAlreadyConnecting) {
			status = http.StatusBadRequest
		}
		config.ErrorStatus("failed to connect to feed", status, w, err)
		return
	}

	resp, err := json.Marshal(f.Manager.Status())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// DisconnectHandler drops the live-feed connection
func (f FeedAPI) DisconnectHandler(w http.ResponseWriter, r *http.Request) {
	f.Manager.Disconnect()

	resp, err := json.Marshal(f.Manager.Status())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}
