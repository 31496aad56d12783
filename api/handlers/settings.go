package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/pipeline"
)

// SettingsAPI exported for testing purposes
type SettingsAPI struct {
	Pipeline *pipeline.Pipeline
}

// SettingsHandler returns the current settings snapshot
func (s SettingsAPI) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(s.Pipeline.Settings())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// UpdateSettingsHandler applies a partial settings update. Absent fields
// keep their values; out-of-range fields are clamped, not rejected.
func (s SettingsAPI) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	updated, err := s.Pipeline.UpdateSettings(patch)
	if err != nil {
		config.ErrorStatus("failed to persist settings", http.StatusInternalServerError, w, err)
		return
	}

	resp, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}
