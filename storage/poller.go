package storage

import (
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Poller is the external-change notification source for hot reload. It
// polls file modification times on a cron schedule and invokes the
// registered callback when a file changes, which keeps the pipeline
// decoupled from any particular filesystem-event mechanism.
type Poller struct {
	cron *cron.Cron

	mu    sync.Mutex
	files []*watched
}

type watched struct {
	path     string
	mtime    time.Time
	onChange func()
}

// NewPoller creates a poller that checks every interval. Interval below
// one second is raised to one second; cron's @every schedule has second
// resolution.
func NewPoller(interval time.Duration) *Poller {
	if interval < time.Second {
		interval = time.Second
	}
	p := &Poller{cron: cron.New()}
	_, err := p.cron.AddFunc("@every "+interval.String(), p.check)
	if err != nil {
		zap.S().Errorw("failed to register reload poll job", "error", err)
	}
	return p
}

// Watch registers a file. The current mtime is recorded as the baseline so
// only future edits fire the callback.
func (p *Poller) Watch(path string, onChange func()) {
	w := &watched{path: path, onChange: onChange}
	if info, err := os.Stat(path); err == nil {
		w.mtime = info.ModTime()
	}
	p.mu.Lock()
	p.files = append(p.files, w)
	p.mu.Unlock()
}

// Start begins polling.
func (p *Poller) Start() {
	p.cron.Start()
	zap.S().Info("hot-reload poller started")
}

// Stop halts polling and waits for an in-flight check to finish.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

func (p *Poller) check() {
	p.mu.Lock()
	files := make([]*watched, len(p.files))
	copy(files, p.files)
	p.mu.Unlock()

	for _, w := range files {
		info, err := os.Stat(w.path)
		if err != nil {
			continue // deleted or unreadable; keep the last known state
		}
		if info.ModTime().Equal(w.mtime) {
			continue
		}
		w.mtime = info.ModTime()
		zap.S().Debugw("watched file changed", "path", w.path)
		w.onChange()
	}
}
