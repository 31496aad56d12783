package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/pipeline"
)

// QueueAPI exported for testing purposes
type QueueAPI struct {
	Pipeline *pipeline.Pipeline
}

// StatusHandler returns the compact speech status
func (q QueueAPI) StatusHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(q.Pipeline.StatusSnapshot())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// QueueHandler returns the queue snapshot
func (q QueueAPI) QueueHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(q.Pipeline.QueueSnapshot())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// ToggleHandler enables or disables speech
func (q QueueAPI) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Enabled == nil {
		config.ErrorStatus("failed to toggle speech", http.StatusBadRequest, w, errors.New("enabled is required"))
		return
	}

	if _, err := q.Pipeline.SetSpeechEnabled(*body.Enabled); err != nil {
		config.ErrorStatus("failed to persist settings", http.StatusInternalServerError, w, err)
		return
	}

	resp, err := json.Marshal(q.Pipeline.StatusSnapshot())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// ClearHandler empties the queue
func (q QueueAPI) ClearHandler(w http.ResponseWriter, r *http.Request) {
	removed := q.Pipeline.Clear()

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"removed": removed,
	})
}

// SkipHandler removes one pending message by id
func (q QueueAPI) SkipHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if !q.Pipeline.Skip(body.ID) {
		config.ErrorStatus("failed to skip message", http.StatusNotFound, w, errors.New("message is not queued"))
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"skipped": body.ID,
	})
}

// TestHandler injects an operator test message, optionally repeated
func (q QueueAPI) TestHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UniqueID string `json:"uniqueId"`
		Nickname string `json:"nickname"`
		Text     string `json:"text"`
		Repeat   int    `json:"repeat"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.UniqueID == "" {
		body.UniqueID = "local-operator"
	}
	if body.Nickname == "" {
		body.Nickname = "Operator"
	}

	queued, reason := q.Pipeline.SubmitTest(body.UniqueID, body.Nickname, body.Text, body.Repeat)
	if len(queued) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"queued": 0,
			"reason": reason,
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"queued":   len(queued),
		"messages": queued,
	})
}
