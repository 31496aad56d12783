package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/pipeline"
)

// Bans exported for testing purposes
type Bans struct {
	Pipeline *pipeline.Pipeline
}

// BansHandler returns the current ban list
func (b Bans) BansHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(b.Pipeline.Ledger().Snapshot())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// BanHandler bans a sender. Minutes of zero or less means permanent.
func (b Bans) BanHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UniqueID string `json:"uniqueId"`
		Reason   string `json:"reason"`
		Minutes  int    `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.UniqueID == "" {
		config.ErrorStatus("failed to ban user", http.StatusBadRequest, w, errors.New("uniqueId is required"))
		return
	}

	entry := b.Pipeline.Ban(body.UniqueID, body.Reason, body.Minutes)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"uniqueId": body.UniqueID,
		"ban":      entry,
	})
}

// UnbanHandler lifts a ban
func (b Bans) UnbanHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UniqueID string `json:"uniqueId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if !b.Pipeline.Unban(body.UniqueID) {
		config.ErrorStatus("failed to unban user", http.StatusNotFound, w, errors.New("user is not banned"))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"uniqueId": body.UniqueID,
		"banned":   false,
	})
}
