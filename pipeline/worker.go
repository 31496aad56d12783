package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/chat-tts-api/models"
	"github.com/linesmerrill/chat-tts-api/speech"
)

// Pause between utterances so consecutive audio renders never overlap.
const interUtterancePause = 120 * time.Millisecond

// Per-utterance ceiling; a wedged synthesis subprocess must not stall the
// queue forever.
const speakTimeout = 60 * time.Second

// Worker is the single consumer draining the dispatch queue into a speech
// engine. At most one worker loop runs at a time, enforced by an atomic
// run flag rather than by locking the queue; the queue stays mutable
// (skip, clear, enqueue) while an utterance is in flight.
type Worker struct {
	queue    *Queue
	settings settingsSource
	engines  map[string]speech.Engine
	baseline speech.Engine
	notifier Notifier
	onDrain  func() // called after each dequeue so snapshots stay fresh

	running  atomic.Bool
	speaking atomic.Bool
	pause    time.Duration
}

// settingsSource is the read side of the settings store.
type settingsSource interface {
	Get() models.Settings
}

// NewWorker builds a worker. Engines are keyed by settings engine name;
// baseline is the always-available engine tried when the configured one
// fails (per message, never a permanent downgrade).
func NewWorker(queue *Queue, settings settingsSource, engines map[string]speech.Engine, baseline speech.Engine, notifier Notifier) *Worker {
	return &Worker{
		queue:    queue,
		settings: settings,
		engines:  engines,
		baseline: baseline,
		notifier: notifier,
		onDrain:  func() {},
		pause:    interUtterancePause,
	}
}

// Kick starts the worker loop unless one is already running. Safe to call
// from any goroutine on every enqueue and on speech re-enable.
func (w *Worker) Kick() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	go w.loop()
}

// Speaking reports whether an utterance is currently being rendered.
func (w *Worker) Speaking() bool {
	return w.speaking.Load()
}

func (w *Worker) loop() {
	for {
		s := w.settings.Get()
		if !s.TTSEnabled {
			break
		}
		msg, ok := w.queue.Pop()
		if !ok {
			break
		}
		w.onDrain()

		w.speaking.Store(true)
		w.speak(msg, s)
		w.speaking.Store(false)

		time.Sleep(w.pause)
	}
	w.running.Store(false)

	// An enqueue may have landed between the final Pop and the flag
	// reset; re-check so that message is not stranded.
	if w.queue.Len() > 0 && w.settings.Get().TTSEnabled {
		w.Kick()
	}
}

// speak renders one message through the configured engine, falling back
// to the baseline engine for this message only. A message whose fallback
// also fails is dropped, not requeued: by the time a retry would run, the
// cooldown and content decisions that admitted it may no longer hold.
func (w *Worker) speak(msg models.Message, s models.Settings) {
	ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
	defer cancel()

	opts := speech.Options{Voice: s.Engine.Voice, Rate: s.Engine.Rate}
	engine, ok := w.engines[s.Engine.Name]
	if !ok {
		engine = w.baseline
	}

	w.publishLog("tts_speak", map[string]any{
		"id": msg.ID, "uniqueId": msg.SenderID, "nickname": msg.DisplayName,
		"text": msg.Text, "engine": engine.Name(),
	})

	err := engine.Speak(ctx, msg.Text, opts)
	if err == nil {
		return
	}
	zap.S().Errorw("speech engine failed", "engine", engine.Name(), "id", msg.ID, "error", err)
	w.publishLog("tts_error", map[string]any{"id": msg.ID, "engine": engine.Name(), "error": err.Error()})

	if engine == w.baseline {
		return
	}
	w.publishLog("tts_fallback", map[string]any{"id": msg.ID, "engine": w.baseline.Name()})
	if err := w.baseline.Speak(ctx, msg.Text, opts); err != nil {
		zap.S().Errorw("fallback engine failed, dropping message", "id", msg.ID, "error", err)
		w.publishLog("tts_error", map[string]any{"id": msg.ID, "engine": w.baseline.Name(), "error": err.Error()})
	}
}

func (w *Worker) publishLog(eventType string, fields map[string]any) {
	w.notifier.Publish(EventLog, models.LogEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Fields:    fields,
	})
}
