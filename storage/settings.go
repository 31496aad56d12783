package storage

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/linesmerrill/chat-tts-api/models"
)

// Clamp bounds for operator-editable settings. Out-of-range values are
// clamped, not rejected, so a sloppy patch still produces a usable config.
const (
	minMaxChars    = 1
	maxMaxChars    = 500
	minMaxWords    = 1
	maxMaxWords    = 60
	minMaxQueue    = 1
	maxMaxQueue    = 100
	minHistory     = 10
	maxHistory     = 1000
	minCooldownMs  = 0
	maxCooldownMs  = 600000
	minRate        = 0.5
	maxRate        = 2.0
	minStrikes     = 1
	maxStrikes     = 20
	minBanMinutes  = 1
	maxBanMinutes  = 1440
)

// DefaultSettings is the seed configuration for a fresh data directory.
func DefaultSettings() models.Settings {
	return models.Settings{
		TTSEnabled:        true,
		MaxChars:          200,
		MaxWords:          30,
		MaxQueue:          20,
		HistorySize:       200,
		GlobalCooldownMs:  1000,
		PerUserCooldownMs: 5000,
		Engine:            models.EngineSettings{Name: models.EngineSystem, Rate: 1.0},
		AutoBan:           models.AutoBanSettings{Enabled: false, StrikeThreshold: 3, BanMinutes: 30},
	}
}

// EnsureSettingsFile writes the default settings when no file exists yet,
// so a first run works without hand-editing JSON.
func EnsureSettingsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return WriteJSONAtomic(path, DefaultSettings())
}

// SettingsStore holds the current settings snapshot and its on-disk
// mirror. Get returns the snapshot without locking; Update and Reload
// serialize writers and swap in a whole new snapshot, never mutating the
// published one.
type SettingsStore struct {
	path string
	mu   sync.Mutex // serializes Update/Reload
	cur  atomic.Pointer[models.Settings]
}

// NewSettingsStore loads the settings file. The pipeline cannot run with
// undefined limits, so a missing or malformed file is an error the caller
// treats as fatal.
func NewSettingsStore(path string) (*SettingsStore, error) {
	var s models.Settings
	if err := ReadJSON(path, &s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	clampSettings(&s)
	store := &SettingsStore{path: path}
	store.cur.Store(&s)
	return store, nil
}

// Get returns the current immutable snapshot.
func (st *SettingsStore) Get() models.Settings {
	return *st.cur.Load()
}

// Update applies a partial patch: every provided field is validated and
// clamped independently, the new snapshot is persisted and then swapped
// in. Returns the resulting snapshot.
func (st *SettingsStore) Update(patch models.SettingsPatch) (models.Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := *st.cur.Load()
	applyPatch(&s, patch)
	clampSettings(&s)
	if err := WriteJSONAtomic(st.path, &s); err != nil {
		return models.Settings{}, fmt.Errorf("persist settings: %w", err)
	}
	st.cur.Store(&s)
	return s, nil
}

// Reload re-reads the file to absorb an external edit. On read failure the
// previous snapshot stays in effect and the error is returned. The bool
// reports whether the snapshot changed.
func (st *SettingsStore) Reload() (models.Settings, bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	var s models.Settings
	if err := ReadJSON(st.path, &s); err != nil {
		return *st.cur.Load(), false, err
	}
	clampSettings(&s)
	if s == *st.cur.Load() {
		return s, false, nil
	}
	st.cur.Store(&s)
	return s, true, nil
}

func applyPatch(s *models.Settings, p models.SettingsPatch) {
	if p.FeedUsername != nil {
		s.FeedUsername = *p.FeedUsername
	}
	if p.TTSEnabled != nil {
		s.TTSEnabled = *p.TTSEnabled
	}
	if p.MaxChars != nil {
		s.MaxChars = *p.MaxChars
	}
	if p.MaxWords != nil {
		s.MaxWords = *p.MaxWords
	}
	if p.MaxQueue != nil {
		s.MaxQueue = *p.MaxQueue
	}
	if p.HistorySize != nil {
		s.HistorySize = *p.HistorySize
	}
	if p.GlobalCooldownMs != nil {
		s.GlobalCooldownMs = *p.GlobalCooldownMs
	}
	if p.PerUserCooldownMs != nil {
		s.PerUserCooldownMs = *p.PerUserCooldownMs
	}
	if p.EngineName != nil {
		s.Engine.Name = *p.EngineName
	}
	if p.EngineVoice != nil {
		s.Engine.Voice = *p.EngineVoice
	}
	if p.EngineRate != nil {
		s.Engine.Rate = *p.EngineRate
	}
	if p.EngineCommand != nil {
		s.Engine.Command = *p.EngineCommand
	}
	if p.AutoBanEnabled != nil {
		s.AutoBan.Enabled = *p.AutoBanEnabled
	}
	if p.StrikeThreshold != nil {
		s.AutoBan.StrikeThreshold = *p.StrikeThreshold
	}
	if p.BanMinutes != nil {
		s.AutoBan.BanMinutes = *p.BanMinutes
	}
}

func clampSettings(s *models.Settings) {
	s.MaxChars = clampInt(s.MaxChars, minMaxChars, maxMaxChars)
	s.MaxWords = clampInt(s.MaxWords, minMaxWords, maxMaxWords)
	s.MaxQueue = clampInt(s.MaxQueue, minMaxQueue, maxMaxQueue)
	s.HistorySize = clampInt(s.HistorySize, minHistory, maxHistory)
	s.GlobalCooldownMs = clampInt(s.GlobalCooldownMs, minCooldownMs, maxCooldownMs)
	s.PerUserCooldownMs = clampInt(s.PerUserCooldownMs, minCooldownMs, maxCooldownMs)
	if s.Engine.Name != models.EnginePiper {
		s.Engine.Name = models.EngineSystem
	}
	if s.Engine.Rate < minRate || s.Engine.Rate > maxRate {
		s.Engine.Rate = 1.0
	}
	s.AutoBan.StrikeThreshold = clampInt(s.AutoBan.StrikeThreshold, minStrikes, maxStrikes)
	s.AutoBan.BanMinutes = clampInt(s.AutoBan.BanMinutes, minBanMinutes, maxBanMinutes)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
