package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/linesmerrill/chat-tts-api/config"
	"github.com/linesmerrill/chat-tts-api/pipeline"
	"github.com/linesmerrill/chat-tts-api/storage"
)

// Lists exported for testing purposes
type Lists struct {
	Store    *storage.ListStore
	Pipeline *pipeline.Pipeline
	Notifier pipeline.Notifier
}

// ListsHandler returns both word lists
func (l Lists) ListsHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := json.Marshal(l.Pipeline.ListsSnapshot())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// ReplaceListsHandler overwrites one or both list files with full
// newline-delimited content
func (l Lists) ReplaceListsHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Exact     *string `json:"exact"`
		Substring *string `json:"substring"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := l.Store.Replace(body.Exact, body.Substring); err != nil {
		config.ErrorStatus("failed to replace lists", http.StatusInternalServerError, w, err)
		return
	}

	snapshot := l.Pipeline.ListsSnapshot()
	l.Notifier.Publish(pipeline.EventLists, snapshot)

	resp, err := json.Marshal(snapshot)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(resp)
}

// AddWordHandler appends a single sanitized word to the named list
func (l Lists) AddWordHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Word string `json:"word"`
		List string `json:"list"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.List == "" {
		body.List = storage.ListExact
	}

	word, err := l.Store.AddWord(body.List, body.Word)
	if err != nil {
		config.ErrorStatus("failed to add word", http.StatusBadRequest, w, err)
		return
	}

	l.Notifier.Publish(pipeline.EventLists, l.Pipeline.ListsSnapshot())

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"word": word,
		"list": body.List,
	})
}
