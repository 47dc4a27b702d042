package core

import "time"

// Event is the interface for all pool lifecycle events.
type Event interface {
	eventMarker()
}

// JobQueued is emitted when a submission passes admission and enters the queue.
type JobQueued struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobQueued) eventMarker() {}

// JobStarted is emitted when the scheduler admits a job to a worker.
type JobStarted struct {
	Job       *Job
	WorkerID  string
	Timestamp time.Time
}

func (*JobStarted) eventMarker() {}

// JobProgress is emitted when a running job reports a progress change.
type JobProgress struct {
	JobID     string
	Percent   int
	Timestamp time.Time
}

func (*JobProgress) eventMarker() {}

// JobCompleted is emitted when a job finishes successfully.
type JobCompleted struct {
	Job       *Job
	Result    *Result
	Duration  time.Duration
	Timestamp time.Time
}

func (*JobCompleted) eventMarker() {}

// JobFailed is emitted when a job fails. Failures are terminal; there is no
// automatic retry.
type JobFailed struct {
	Job       *Job
	Result    *Result
	Error     error
	Timestamp time.Time
}

func (*JobFailed) eventMarker() {}

// JobStopped is emitted when a job is terminated by an explicit stop request,
// whether it was queued or already running.
type JobStopped struct {
	Job       *Job
	Result    *Result
	Timestamp time.Time
}

func (*JobStopped) eventMarker() {}
