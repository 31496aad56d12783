package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/chat-tts-api/models"
)

func writeSettingsFile(t *testing.T, dir string, body string) string {
	t.Helper()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validSettings = `{
  "feedUsername": "streamer",
  "ttsEnabled": true,
  "maxChars": 200,
  "maxWords": 40,
  "maxQueue": 6,
  "historySize": 200,
  "globalCooldownMs": 1500,
  "perUserCooldownMs": 8000,
  "engine": {"name": "system", "voice": "Monica", "rate": 1.0},
  "autoBan": {"enabled": true, "strikeThreshold": 3, "banMinutes": 30}
}`

func TestSettingsStoreLoad(t *testing.T) {
	path := writeSettingsFile(t, t.TempDir(), validSettings)
	st, err := NewSettingsStore(path)
	require.NoError(t, err)

	s := st.Get()
	assert.Equal(t, "streamer", s.FeedUsername)
	assert.Equal(t, 6, s.MaxQueue)
	assert.Equal(t, models.EngineSystem, s.Engine.Name)
}

func TestSettingsStoreMissingFileIsError(t *testing.T) {
	_, err := NewSettingsStore(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSettingsStoreUpdateClampsAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := writeSettingsFile(t, dir, validSettings)
	st, err := NewSettingsStore(path)
	require.NoError(t, err)

	huge := 9999
	bad := "winamp"
	s, err := st.Update(models.SettingsPatch{MaxQueue: &huge, EngineName: &bad})
	require.NoError(t, err)
	assert.Equal(t, 100, s.MaxQueue, "out-of-range values clamp")
	assert.Equal(t, models.EngineSystem, s.Engine.Name, "unknown engine falls back")
	assert.Equal(t, 200, s.MaxChars, "unpatched fields keep their values")

	// The snapshot survives a reload from disk.
	st2, err := NewSettingsStore(path)
	require.NoError(t, err)
	assert.Equal(t, s, st2.Get())
}

func TestSettingsStoreReloadAbsorbsExternalEdit(t *testing.T) {
	dir := t.TempDir()
	path := writeSettingsFile(t, dir, validSettings)
	st, err := NewSettingsStore(path)
	require.NoError(t, err)

	edited := []byte(`{"maxChars": 120, "maxWords": 10, "maxQueue": 3, "historySize": 50,
		"engine": {"name": "piper", "rate": 1.2}, "autoBan": {"strikeThreshold": 5, "banMinutes": 60}}`)
	require.NoError(t, os.WriteFile(path, edited, 0o644))

	s, changed, err := st.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 3, s.MaxQueue)
	assert.Equal(t, models.EnginePiper, s.Engine.Name)
}

func TestSettingsStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeSettingsFile(t, dir, validSettings)
	st, err := NewSettingsStore(path)
	require.NoError(t, err)
	before := st.Get()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, changed, err := st.Reload()
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, s)
	assert.Equal(t, before, st.Get())
}

func TestBanFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banned_users.json")
	f := NewBanFile(path)

	list, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, list.Users, "missing file loads empty")

	list.Users["troll"] = models.BanEntry{Reason: "spam", AddedAtMs: 42, UntilMs: 0}
	require.NoError(t, f.Save(list))

	loaded, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, list, loaded)
}

func TestReadLinesStripsBOMAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFFhola\r\n\n  puto  \n"), 0o644))

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hola", "puto"}, lines)
}

func TestListStoreAddWord(t *testing.T) {
	dir := t.TempDir()
	exact := filepath.Join(dir, "exact.txt")
	sub := filepath.Join(dir, "sub.txt")
	st, err := NewListStore(exact, sub)
	require.NoError(t, err)

	word, err := st.AddWord(ListExact, "  Imbécil! ")
	require.NoError(t, err)
	assert.Equal(t, "imbecil", word)
	assert.True(t, st.Get().HasExact("imbecil"))

	// Duplicate adds are idempotent.
	_, err = st.AddWord(ListExact, "imbecil")
	require.NoError(t, err)
	lines, err := ReadLines(exact)
	require.NoError(t, err)
	assert.Equal(t, []string{"imbecil"}, lines)

	_, err = st.AddWord(ListExact, "a")
	assert.Error(t, err)

	_, err = st.AddWord("bogus", "palabra")
	assert.Error(t, err)
}

func TestListStoreReplace(t *testing.T) {
	dir := t.TempDir()
	st, err := NewListStore(filepath.Join(dir, "exact.txt"), filepath.Join(dir, "sub.txt"))
	require.NoError(t, err)

	exact := "hola\ntonto\n"
	sub := "idiota\r\nno\n"
	require.NoError(t, st.Replace(&exact, &sub))

	lists := st.Get()
	assert.True(t, lists.HasExact("tonto"))
	assert.Equal(t, []string{"idiota"}, lists.Substrings(), "short entries excluded at load")
}
