package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV wraps pcm in a minimal RIFF container.
func buildWAV(pcm []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(pcm)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(channelCount))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate*channelCount*2))
	binary.Write(&b, binary.LittleEndian, uint16(channelCount*2))
	binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(pcm)))
	b.Write(pcm)
	return b.Bytes()
}

func TestExtractPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	got, err := extractPCM(buildWAV(pcm))
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestExtractPCMRejectsGarbage(t *testing.T) {
	_, err := extractPCM([]byte("short"))
	assert.Error(t, err)

	_, err = extractPCM(bytes.Repeat([]byte{0}, 64))
	assert.Error(t, err)
}

type fakePlayer struct {
	played [][]byte
	err    error
}

func (f *fakePlayer) Play(wav []byte) error {
	f.played = append(f.played, wav)
	return f.err
}

func TestPiperEngineNoCommand(t *testing.T) {
	e := NewPiperEngine(&fakePlayer{}, func() string { return "" })
	err := e.Speak(context.Background(), "hola", Options{})
	assert.Error(t, err)
}

// TestPiperEngineArtifactCleanup runs the full synthesize-play-delete path
// with a stub synthesis script standing in for piper.
func TestPiperEngineArtifactCleanup(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub synthesis script requires sh")
	}

	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.wav")
	require.NoError(t, os.WriteFile(fixture, buildWAV([]byte{9, 9, 9, 9}), 0o644))

	script := filepath.Join(dir, "fake-piper.sh")
	require.NoError(t, os.WriteFile(script, []byte(
		"#!/bin/sh\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"--output_file\" ]; then out=$2; fi\n  shift\ndone\ncp "+fixture+" \"$out\"\n"), 0o755))

	player := &fakePlayer{}
	e := NewPiperEngine(player, func() string { return "sh " + script })
	e.tmpDir = dir

	require.NoError(t, e.Speak(context.Background(), "hola mundo", Options{Rate: 1.0}))
	require.Len(t, player.played, 1)
	assert.Equal(t, buildWAV([]byte{9, 9, 9, 9}), player.played[0])

	// The artifact must be gone regardless of playback outcome.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), "tts-", "artifact should be deleted")
	}
}
