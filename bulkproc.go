// Package bulkproc provides a bounded-concurrency job queue for bulk file
// processing.
//
// This is the main package users should import. It re-exports all public
// types from the internal pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	// Create a pool with three workers and the default 100 MiB floor
//	p := bulkproc.New(bulkproc.MaxWorkers(3))
//
//	// Submit a file
//	job, err := p.Submit(ctx, bulkproc.SubmitRequest{
//	    SourceName: "exports/2024.tar",
//	    SizeBytes:  512 << 20,
//	})
//
//	// Poll status, stop, or read aggregate load
//	job, _ = p.Get(job.ID)
//	p.Stop(job.ID)
//	stats := p.Stats(ctx)
package bulkproc

import (
	"log/slog"
	"time"

	"github.com/jdziat/bulkproc/pkg/admission"
	"github.com/jdziat/bulkproc/pkg/blob"
	"github.com/jdziat/bulkproc/pkg/core"
	"github.com/jdziat/bulkproc/pkg/history"
	"github.com/jdziat/bulkproc/pkg/pool"
	"github.com/jdziat/bulkproc/pkg/processor"
	"github.com/jdziat/bulkproc/pkg/schedule"
	"github.com/jdziat/bulkproc/pkg/sysmon"

	"gorm.io/gorm"
)

// Type aliases re-exporting the public API
type (
	// Job represents one submitted unit of bulk processing work.
	Job = core.Job

	// JobStatus represents the current state of a job.
	JobStatus = core.JobStatus

	// Result is the terminal record written once per job.
	Result = core.Result

	// Processor is the pluggable processing strategy.
	Processor = core.Processor

	// ProcessorFunc adapts a function to the Processor interface.
	ProcessorFunc = core.ProcessorFunc

	// Event is the interface for all pool lifecycle events.
	Event = core.Event

	// JobQueued is emitted when a submission enters the queue.
	JobQueued = core.JobQueued

	// JobStarted is emitted when the scheduler admits a job.
	JobStarted = core.JobStarted

	// JobProgress is emitted on progress changes.
	JobProgress = core.JobProgress

	// JobCompleted is emitted when a job finishes successfully.
	JobCompleted = core.JobCompleted

	// JobFailed is emitted when a job fails.
	JobFailed = core.JobFailed

	// JobStopped is emitted when a job is terminated by a stop request.
	JobStopped = core.JobStopped

	// AdmissionError indicates a submission rejected before queueing.
	AdmissionError = core.AdmissionError

	// Pool schedules submitted jobs onto a fixed-size set of workers.
	Pool = pool.Pool

	// Option configures a Pool.
	Option = pool.Option

	// SubmitRequest describes one file submission.
	SubmitRequest = pool.SubmitRequest

	// Stats is a snapshot of pool load.
	Stats = pool.Stats

	// Load is a point-in-time snapshot of host utilization.
	Load = sysmon.Load

	// Store is the narrow object-store contract the pool consumes.
	Store = blob.Store

	// StepProcessor advances progress in fixed timed increments.
	StepProcessor = processor.StepProcessor

	// CopyProcessor streams objects through the blob store in chunks.
	CopyProcessor = processor.CopyProcessor

	// Archiver persists terminal outcomes for reporting.
	Archiver = history.Archiver

	// Schedule defines when a recurring maintenance task runs next.
	Schedule = schedule.Schedule
)

// Status constants
const (
	StatusPending    = core.StatusPending
	StatusProcessing = core.StatusProcessing
	StatusCompleted  = core.StatusCompleted
	StatusFailed     = core.StatusFailed
)

// Admission limits
const (
	DefaultMinSizeBytes = admission.DefaultMinSizeBytes
	DefaultMaxWorkers   = pool.DefaultMaxWorkers
)

// Error variables
var (
	ErrJobNotFound  = core.ErrJobNotFound
	ErrFileTooSmall = core.ErrFileTooSmall
	ErrPoolClosed   = core.ErrPoolClosed
)

// New creates a pool with the given options.
func New(opts ...Option) *Pool {
	return pool.New(opts...)
}

// NewMemoryStore creates an in-process blob store for tests and examples.
func NewMemoryStore() *blob.MemoryStore {
	return blob.NewMemoryStore()
}

// NewMinioStore creates a blob store backed by an S3-compatible endpoint.
func NewMinioStore(cfg blob.MinioConfig) (*blob.MinioStore, error) {
	return blob.NewMinioStore(cfg)
}

// NewArchiver creates a history archiver reading the pool's event stream.
func NewArchiver(p *Pool, storage history.Storage, opts ...history.ArchiverOption) *Archiver {
	return history.NewArchiver(p, storage, opts...)
}

// NewGormHistory creates a GORM-backed history storage.
func NewGormHistory(db *gorm.DB) *history.GormStorage {
	return history.NewGormStorage(db)
}

// Pool option functions

// MaxWorkers sets the concurrency bound.
func MaxWorkers(n int) Option {
	return pool.MaxWorkers(n)
}

// MinSizeBytes sets the admission floor in bytes.
func MinSizeBytes(n int64) Option {
	return pool.MinSizeBytes(n)
}

// WithProcessor sets the processing strategy.
func WithProcessor(p Processor) Option {
	return pool.WithProcessor(p)
}

// WithStore sets the blob store for uploaded content.
func WithStore(s Store) Option {
	return pool.WithStore(s)
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return pool.WithLogger(l)
}

// Schedule functions

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific UTC time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Cron creates a schedule from a cron expression.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}
