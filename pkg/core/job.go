// Package core provides the domain models and interfaces for the bulkproc package.
package core

import (
	"context"
	"maps"
	"time"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether a status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job represents one submitted unit of bulk file processing work.
//
// A job id lives in exactly one of the registry's three collections at any
// time: the pending queue, the active map, or the result cache.
type Job struct {
	ID          string            `json:"id"`
	SourceName  string            `json:"source_name"`
	DisplayName string            `json:"display_name"`
	SizeBytes   int64             `json:"size_bytes"`
	Status      JobStatus         `json:"status"`
	Progress    int               `json:"progress"`
	WorkerID    string            `json:"worker_id,omitempty"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the job. The registry hands out clones so
// callers never observe a partially written record.
func (j *Job) Clone() *Job {
	c := *j
	if j.Metadata != nil {
		c.Metadata = maps.Clone(j.Metadata)
	}
	return &c
}

// Result is the terminal record written once per job into the result cache.
type Result struct {
	JobID      string            `json:"job_id"`
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OutputRefs []string          `json:"output_refs,omitempty"`
	FinishedAt time.Time         `json:"finished_at"`
}

// ProgressFunc receives progress updates from a running processor.
// Values are percentages in [0,100]; the registry keeps them monotonic.
type ProgressFunc func(percent int)

// Processor is the pluggable processing strategy executed for each admitted
// job. Implementations must check ctx between units of work so that stop
// requests take effect cooperatively, and must report progress through the
// supplied callback.
type Processor interface {
	Process(ctx context.Context, job *Job, report ProgressFunc) (*Result, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, job *Job, report ProgressFunc) (*Result, error)

func (f ProcessorFunc) Process(ctx context.Context, job *Job, report ProgressFunc) (*Result, error) {
	return f(ctx, job, report)
}
