package speech

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/models"
)

// baseWPM is the speaking rate the OS voices treat as 1.0.
const baseWPM = 175

// SystemEngine is the baseline engine: it shells out to the operating
// system's built-in voice and is assumed always available. It is the
// fallback target when the configured engine fails.
type SystemEngine struct{}

// NewSystemEngine returns the OS voice engine.
func NewSystemEngine() *SystemEngine {
	return &SystemEngine{}
}

// Name returns the settings name of this engine.
func (e *SystemEngine) Name() string { return models.EngineSystem }

// Speak renders text through the OS voice, blocking until the utterance
// finishes.
func (e *SystemEngine) Speak(ctx context.Context, text string, opts Options) error {
	rate := opts.Rate
	if rate <= 0 {
		rate = 1.0
	}
	wpm := strconv.Itoa(int(float64(baseWPM) * rate))

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		args := []string{"-r", wpm}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		cmd = exec.CommandContext(ctx, "say", append(args, text)...)
	case "windows":
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; $s = New-Object System.Speech.Synthesis.SpeechSynthesizer; $s.Speak(%s)",
			psQuote(text))
		cmd = exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", script)
	default:
		args := []string{"-s", wpm}
		if opts.Voice != "" {
			args = append(args, "-v", opts.Voice)
		}
		cmd = exec.CommandContext(ctx, "espeak", append(args, text)...)
	}

	zap.S().Debugw("system tts speaking", "chars", len(text), "voice", opts.Voice)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("system tts: %w: %s", err, out)
	}
	return nil
}

// psQuote single-quotes a string for PowerShell, doubling embedded quotes.
func psQuote(s string) string {
	out := make([]rune, 0, len(s)+2)
	out = append(out, '\'')
	for _, r := range s {
		if r == '\'' {
			out = append(out, '\'')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
