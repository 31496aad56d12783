package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/models"
)

// wavPlayer is the playback half of the piper engine. *Player satisfies
// it; tests substitute a fake.
type wavPlayer interface {
	Play(wav []byte) error
}

// PiperEngine is the advanced engine: it pipes text into a local piper
// synthesis process, which writes a WAV artifact to a temp file, then
// plays the artifact and removes it. The artifact is deleted whether or
// not playback succeeds.
type PiperEngine struct {
	player  wavPlayer
	command func() string // current synthesis command, hot-reloadable
	tmpDir  string
}

// NewPiperEngine returns a piper engine playing through the given player.
// The command func is consulted per utterance so settings edits apply to
// the next message without a rebuild.
func NewPiperEngine(player wavPlayer, command func() string) *PiperEngine {
	return &PiperEngine{player: player, command: command, tmpDir: os.TempDir()}
}

// Name returns the settings name of this engine.
func (e *PiperEngine) Name() string { return models.EnginePiper }

// Speak synthesizes text with the configured piper command and plays the
// resulting artifact. The voice option names the model file and the rate
// maps to piper's length scale (the inverse of speed).
func (e *PiperEngine) Speak(ctx context.Context, text string, opts Options) error {
	fields := strings.Fields(e.command())
	if len(fields) == 0 {
		return errors.New("piper: no command configured")
	}
	bin, args := fields[0], fields[1:]

	artifact := filepath.Join(e.tmpDir, fmt.Sprintf("tts-%s.wav", uuid.NewString()))
	defer func() {
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			zap.S().Warnw("failed to remove tts artifact", "path", artifact, "error", err)
		}
	}()

	rate := opts.Rate
	if rate <= 0 {
		rate = 1.0
	}
	if opts.Voice != "" {
		args = append(args, "--model", opts.Voice)
	}
	args = append(args,
		"--length_scale", fmt.Sprintf("%.2f", 1.0/rate),
		"--output_file", artifact,
	)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("piper synthesis: %w: %s", err, out)
	}

	wav, err := os.ReadFile(artifact)
	if err != nil {
		return fmt.Errorf("read tts artifact: %w", err)
	}
	zap.S().Debugw("piper synthesized", "chars", len(text), "bytes", len(wav))
	return e.player.Play(wav)
}
