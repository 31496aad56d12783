package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// Audio parameters the piper output and the oto context agree on.
const (
	sampleRate   = 22050
	channelCount = 1
)

// Player renders WAV data through the system audio device via oto. One
// player is shared by the process; the worker's single-consumer loop means
// playback calls never overlap.
type Player struct {
	ctx *oto.Context
}

// NewPlayer initializes the audio context. Returns an error if the audio
// device is unavailable.
func NewPlayer() (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	zap.S().Debugw("audio player initialized", "rate", sampleRate, "channels", channelCount)
	return &Player{ctx: ctx}, nil
}

// Play plays WAV audio synchronously, returning when playback finishes.
func (p *Player) Play(wav []byte) error {
	pcm, err := extractPCM(wav)
	if err != nil {
		return err
	}
	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
	return player.Close()
}

// extractPCM strips the WAV/RIFF container and returns the raw PCM data.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	pos := 12
	for pos < len(wav)-8 {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if chunkID == "data" {
			start := pos + 8
			end := start + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[start:end], nil
		}
		pos += 8 + chunkSize
		if chunkSize%2 != 0 {
			pos++ // chunks are word-aligned
		}
	}
	return nil, errors.New("data chunk not found in WAV")
}
