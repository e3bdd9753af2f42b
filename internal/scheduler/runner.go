// Package scheduler runs the recurring jobs on a wall-clock anchored grid.
// Anchored jobs first fire at the next occurrence of their configured
// hour:minute in the bot's time zone and then repeat on a fixed period from
// that instant; unanchored jobs fire once immediately at startup and repeat
// from there. Job bodies share one state store, so each tick is executed on
// its own and a failing or panicking tick never takes the loop down.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/metrics"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Anchor pins a job's first run to a wall-clock time of day.
type Anchor struct {
	Hour   int
	Minute int
}

// Job is one recurring unit of work.
type Job struct {
	Name   string
	Period time.Duration
	Anchor *Anchor
	Run    func(ctx context.Context) error
}

// JobStatus describes one scheduled job for introspection.
type JobStatus struct {
	Name    string    `json:"name"`
	Period  string    `json:"period"`
	Anchor  string    `json:"anchor,omitempty"`
	PrevRun time.Time `json:"prev_run,omitempty"`
	NextRun time.Time `json:"next_run,omitempty"`
}

// Runner owns the job set and drives it on a shared cron instance.
type Runner struct {
	cron    *cron.Cron
	clock   clock.Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	jobs    []Job
	entries map[string]cron.EntryID
}

// NewRunner creates a runner. All schedule arithmetic happens in loc.
func NewRunner(loc *time.Location, clk clock.Clock, log *logger.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		cron:    cron.New(cron.WithLocation(loc)),
		clock:   clk,
		logger:  log,
		metrics: m,
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds a job. Registration is only allowed before Start.
func (r *Runner) Register(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("cannot register job %q: runner already started", job.Name)
	}
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Period <= 0 {
		return fmt.Errorf("job %q: period must be positive", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("job %q: run function is required", job.Name)
	}
	if _, exists := r.entries[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}

	r.jobs = append(r.jobs, job)
	r.entries[job.Name] = 0

	return nil
}

// Start computes each job's first firing and starts the cron loop. Anchors
// are resolved exactly once here; a restart re-anchors, a running process
// never does.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("runner already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.started = true

	now := r.clock.Now()
	for _, job := range r.jobs {
		job := job

		first := now
		if job.Anchor != nil {
			first = clock.NextDailyAnchor(now, job.Anchor.Hour, job.Anchor.Minute)
		}

		entryID := r.cron.Schedule(
			anchorSchedule{first: first, period: job.Period},
			cron.FuncJob(func() { r.runJob(job) }),
		)
		r.entries[job.Name] = entryID

		r.logger.Info("job scheduled",
			logger.Field{Key: "job", Value: job.Name},
			logger.Field{Key: "period", Value: job.Period.String()},
			logger.Field{Key: "first_run", Value: first.Format(time.RFC3339)})

		if job.Anchor == nil {
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.runJob(job)
			}()
		}
	}

	r.cron.Start()
	r.logger.Info("scheduler started", logger.Field{Key: "jobs", Value: len(r.jobs)})

	return nil
}

// Stop prevents new ticks and waits for in-flight ones to run to completion.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()

	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.wg.Wait()
	r.cancel()

	r.logger.Info("scheduler stopped")
}

// IsStarted reports whether the runner is currently running.
func (r *Runner) IsStarted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.started
}

// Snapshot returns the current job set with previous and next run times
// once the runner has started.
func (r *Runner) Snapshot() []JobStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(r.jobs))
	for _, job := range r.jobs {
		status := JobStatus{
			Name:   job.Name,
			Period: job.Period.String(),
		}
		if job.Anchor != nil {
			status.Anchor = fmt.Sprintf("%02d:%02d", job.Anchor.Hour, job.Anchor.Minute)
		}
		if r.started {
			entry := r.cron.Entry(r.entries[job.Name])
			status.PrevRun = entry.Prev
			status.NextRun = entry.Next
		}
		statuses = append(statuses, status)
	}

	return statuses
}

// runJob executes one tick. Errors and panics are contained here so the job
// stays scheduled for its next tick.
func (r *Runner) runJob(job Job) {
	runID := uuid.NewString()
	start := r.clock.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.RecordJobRun(job.Name, "panic", r.clock.Now().Sub(start))
			r.logger.Error("job tick panic recovered", fmt.Errorf("panic: %v", rec),
				logger.Field{Key: "job", Value: job.Name},
				logger.Field{Key: "run_id", Value: runID})
		}
	}()

	r.logger.Debug("job tick started",
		logger.Field{Key: "job", Value: job.Name},
		logger.Field{Key: "run_id", Value: runID})

	if err := job.Run(r.ctx); err != nil {
		r.metrics.RecordJobRun(job.Name, "error", r.clock.Now().Sub(start))
		r.logger.Error("job tick failed", err,
			logger.Field{Key: "job", Value: job.Name},
			logger.Field{Key: "run_id", Value: runID})
		return
	}

	duration := r.clock.Now().Sub(start)
	r.metrics.RecordJobRun(job.Name, "ok", duration)
	r.logger.Debug("job tick completed",
		logger.Field{Key: "job", Value: job.Name},
		logger.Field{Key: "run_id", Value: runID},
		logger.Field{Key: "duration", Value: duration.String()})
}
