package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/quantfold/trading-engine/internal/logger"
)

// TaskFunc is one run of a periodic task. Returning an error logs it
// and keeps the schedule; the next tick runs the task again.
type TaskFunc func(ctx context.Context) error

// Supervisor owns the engine's periodic background tasks. Every task
// has a name, a fixed interval and a cancellable context; a panicking
// task is restarted on its next tick instead of taking the process
// down.
type Supervisor struct {
	log *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	tasks   []*task
}

type task struct {
	name       string
	interval   time.Duration
	fn         TaskFunc
	runAtStart bool
}

// New creates an empty supervisor
func New(log *logger.Logger) *Supervisor {
	return &Supervisor{log: log}
}

// Register adds a named periodic task. Registration after Start is a
// programming error and is ignored with a log line.
func (s *Supervisor) Register(name string, interval time.Duration, runAtStart bool, fn TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Error("task %s registered after start, ignored", name)
		return
	}
	s.tasks = append(s.tasks, &task{
		name:       name,
		interval:   interval,
		fn:         fn,
		runAtStart: runAtStart,
	})
}

// Start launches every registered task on its own goroutine. The
// returned context is cancelled when Stop is called.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.run(ctx, t)
		s.log.Info("task %s scheduled every %s", t.name, t.interval)
	}
}

// Stop cancels every task and waits for them to drain
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.log.Info("all tasks stopped")
}

func (s *Supervisor) run(ctx context.Context, t *task) {
	defer s.wg.Done()

	if t.runAtStart {
		s.runOnce(ctx, t)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, t)
		}
	}
}

// runOnce executes one tick of a task, containing panics so a bad tick
// never kills the schedule.
func (s *Supervisor) runOnce(ctx context.Context, t *task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task %s panicked: %v, restarting on next tick", t.name, r)
		}
	}()

	if err := t.fn(ctx); err != nil {
		s.log.Warning("task %s: %v", t.name, err)
	}
}
