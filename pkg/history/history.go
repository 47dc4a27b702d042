// Package history archives terminal job outcomes outside the in-memory
// result cache.
//
// The pool itself keeps all queue and active state in process memory; this
// archiver is an optional event subscriber that writes completed, failed,
// and stopped results to a database for reporting. Clearing the pool's
// result cache does not touch the archive, and the archive never feeds back
// into scheduling.
package history

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jdziat/bulkproc/pkg/core"
	"github.com/jdziat/bulkproc/pkg/schedule"
)

// EventSource is the slice of the pool API the archiver consumes.
type EventSource interface {
	Events() <-chan core.Event
	Unsubscribe(<-chan core.Event)
}

// Archiver subscribes to pool events and persists terminal outcomes.
type Archiver struct {
	source    EventSource
	storage   Storage
	logger    *slog.Logger
	retention time.Duration
	prune     schedule.Schedule

	// ready is closed once the archiver is subscribed and processing.
	ready     chan struct{}
	readyOnce sync.Once
}

// ArchiverOption configures an Archiver.
type ArchiverOption interface {
	apply(*Archiver)
}

type archiverOptionFunc func(*Archiver)

func (f archiverOptionFunc) apply(a *Archiver) { f(a) }

// WithRetention sets how long archived records are kept. Zero disables
// pruning.
func WithRetention(d time.Duration) ArchiverOption {
	return archiverOptionFunc(func(a *Archiver) {
		a.retention = d
	})
}

// WithPruneSchedule sets the pruning cadence.
func WithPruneSchedule(s schedule.Schedule) ArchiverOption {
	return archiverOptionFunc(func(a *Archiver) {
		a.prune = s
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ArchiverOption {
	return archiverOptionFunc(func(a *Archiver) {
		a.logger = l
	})
}

// NewArchiver creates an archiver reading from source and writing to storage.
func NewArchiver(source EventSource, storage Storage, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		source:    source,
		storage:   storage,
		logger:    slog.Default(),
		retention: 7 * 24 * time.Hour,
		prune:     schedule.Every(time.Hour),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt.apply(a)
	}
	return a
}

// WaitReady blocks until the archiver has subscribed to events.
func (a *Archiver) WaitReady() {
	<-a.ready
}

// Start consumes events until ctx is cancelled.
func (a *Archiver) Start(ctx context.Context) {
	events := a.source.Events()
	defer a.source.Unsubscribe(events)

	a.readyOnce.Do(func() { close(a.ready) })

	nextPrune := a.prune.Next(time.Now())
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			a.handleEvent(ctx, e)
		case now := <-ticker.C:
			if a.retention > 0 && !now.Before(nextPrune) {
				a.runPrune(ctx, now)
				nextPrune = a.prune.Next(now)
			}
		}
	}
}

func (a *Archiver) handleEvent(ctx context.Context, e core.Event) {
	switch ev := e.(type) {
	case *core.JobCompleted:
		a.insert(ctx, ev.Job, ev.Result, false)
	case *core.JobFailed:
		a.insert(ctx, ev.Job, ev.Result, false)
	case *core.JobStopped:
		// A stop against a queued job carries no result and is not archived.
		if ev.Result != nil {
			a.insert(ctx, ev.Job, ev.Result, true)
		}
	}
}

func (a *Archiver) insert(ctx context.Context, job *core.Job, res *core.Result, stopped bool) {
	rec := &Record{
		JobID:       job.ID,
		DisplayName: job.DisplayName,
		SizeBytes:   job.SizeBytes,
		Stopped:     stopped,
		FinishedAt:  time.Now(),
	}
	if res != nil {
		rec.Success = res.Success
		rec.Message = res.Message
		rec.OutputRefs = strings.Join(res.OutputRefs, "\n")
		if !res.FinishedAt.IsZero() {
			rec.FinishedAt = res.FinishedAt
		}
	} else if job.Error != "" {
		rec.Message = job.Error
	}

	if err := a.storage.Insert(ctx, rec); err != nil {
		a.logger.Error("failed to archive result", "job_id", job.ID, "error", err)
	}
}

func (a *Archiver) runPrune(ctx context.Context, now time.Time) {
	removed, err := a.storage.Prune(ctx, now.Add(-a.retention))
	if err != nil {
		a.logger.Error("history prune failed", "error", err)
		return
	}
	if removed > 0 {
		a.logger.Info("pruned archived results", "removed", removed)
	}
}
