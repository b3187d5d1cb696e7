// Package schedule runs named background tasks on a fixed interval, on top
// of gocron.
//
// Usage:
//
//	s := schedule.New()
//	s.Every(time.Hour).Name("stock-watch").WithoutOverlapping().Run(job)
//	s.Start(ctx) // returns immediately; stops when ctx is cancelled
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/shashiranjanraj/medstore/pkg/logger"
)

// Task is the function signature for a scheduled task. The context is
// cancelled when the scheduler stops.
type Task func(ctx context.Context)

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	noOverlap bool

	mu      sync.Mutex
	running bool
}

// Scheduler collects entries and hands them to gocron on Start.
type Scheduler struct {
	cron *gocron.Scheduler

	mu      sync.Mutex
	entries []*entry
	stopped bool

	wg   sync.WaitGroup
	done chan struct{}
}

// New returns an empty scheduler. Entries run once when Start is called and
// then every interval.
func New() *Scheduler {
	return &Scheduler{cron: gocron.NewScheduler(time.UTC)}
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

func (s *Scheduler) Every(interval time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: interval}}
}

// WithoutOverlapping skips a run while the previous one is still executing.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Name gives the entry an identifier for logging.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// Run registers the task.
func (b *Builder) Run(fn Task) {
	b.e.task = fn
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
}

// Start schedules every registered entry and returns. The scheduler stops
// when ctx is done; Wait blocks until then.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	for _, e := range current {
		e := e
		job := s.cron.Every(e.interval).Tag(e.id)
		if e.noOverlap {
			job = job.SingletonMode()
		}
		if _, err := job.Do(func() { s.dispatch(ctx, e) }); err != nil {
			logger.Error("schedule: task rejected", "id", e.id, "error", err)
		}
	}

	s.done = make(chan struct{})
	s.cron.StartAsync()
	logger.Info("schedule: scheduler started", "tasks", len(current))

	go func() {
		defer close(s.done)
		<-ctx.Done()
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		s.cron.Stop()
		logger.Info("schedule: scheduler stopped")
	}()
}

// Wait blocks until the scheduler has stopped and every running task has
// returned. It returns immediately when Start was never called.
func (s *Scheduler) Wait() {
	if s.done == nil {
		return
	}
	<-s.done
	s.wg.Wait()
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		if r := recover(); r != nil {
			logger.Error("schedule: task panicked", "id", e.id, "panic", r)
		}
	}()

	logger.Debug("schedule: running task", "id", e.id)
	e.task(ctx)
}

// List describes the registered entries, e.g. "stock-watch [1h0m0s]".
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, fmt.Sprintf("%s [%s]", e.id, e.interval))
	}
	return out
}
