package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/pipeline"
)

// HistoryAPI exported for testing purposes
type HistoryAPI struct {
	Pipeline *pipeline.Pipeline
}

// HistoryHandler returns the recorded outcomes, oldest first. A limit
// query parameter keeps only the newest entries.
func (h HistoryAPI) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	entries := h.Pipeline.HistorySnapshot()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			config.ErrorStatus("failed to parse limit", http.StatusBadRequest, w, err)
			return
		}
		if limit < 0 {
			limit = 0
		}
		if limit < len(entries) {
			entries = entries[len(entries)-limit:]
		}
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}

	resp, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}
