// Package registry provides the in-memory job registry for the bulkproc package.
//
// The registry is the single source of truth for job records. Every admitted
// job id lives in exactly one of three collections: the FIFO pending queue,
// the active map (keyed by worker id), or the result cache. All transitions
// happen under one mutex so the exclusivity invariant holds under concurrent
// completions, stops, and new submissions.
package registry

import (
	"sync"
	"time"

	"github.com/jdziat/bulkproc/pkg/core"
)

// terminalEntry pairs a terminal job with its processing result in the
// result cache.
type terminalEntry struct {
	job    *core.Job
	result *core.Result
}

// Registry tracks jobs across the pending queue, the active map, and the
// result cache. The zero value is not usable; call New.
type Registry struct {
	mu      sync.Mutex
	queue   []*core.Job
	active  map[string]*core.Job     // worker id -> job
	workers map[string]string        // job id -> worker id
	results map[string]terminalEntry // job id -> terminal record
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		queue:   make([]*core.Job, 0),
		active:  make(map[string]*core.Job),
		workers: make(map[string]string),
		results: make(map[string]terminalEntry),
	}
}

// Enqueue appends a pending job to the tail of the queue.
func (r *Registry) Enqueue(job *core.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue = append(r.queue, job)
}

// AdmitNext pops the head of the queue and binds it to workerID, provided
// the active set is below maxWorkers. It returns a clone of the admitted job,
// or false when there is no capacity or nothing is queued. Safe to call at
// any time; concurrent calls cannot admit the same job twice.
func (r *Registry) AdmitNext(maxWorkers int, workerID string) (*core.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.active) >= maxWorkers || len(r.queue) == 0 {
		return nil, false
	}

	job := r.queue[0]
	r.queue = r.queue[1:]

	now := time.Now()
	job.Status = core.StatusProcessing
	job.WorkerID = workerID
	job.StartedAt = &now

	r.active[workerID] = job
	r.workers[job.ID] = workerID

	return job.Clone(), true
}

// SetProgress records a progress update for an active job. Progress is
// monotonic and capped at 99 while processing; only the completion
// transition writes 100. It returns the applied value and whether the
// record changed.
func (r *Registry) SetProgress(jobID string, percent int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	workerID, ok := r.workers[jobID]
	if !ok {
		return 0, false
	}
	job := r.active[workerID]

	if percent > 99 {
		percent = 99
	}
	if percent <= job.Progress {
		return job.Progress, false
	}
	job.Progress = percent
	return percent, true
}

// Complete transitions an active job to Completed and moves it into the
// result cache. It is a no-op against a job that is no longer active (for
// example one already stopped), returning false in that case.
func (r *Registry) Complete(jobID string, res *core.Result) (*core.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizeLocked(jobID, core.StatusCompleted, "", res)
}

// Fail transitions an active job to Failed with the given message and moves
// it into the result cache. Like Complete, it is a no-op when the job is no
// longer active.
func (r *Registry) Fail(jobID, errMsg string, res *core.Result) (*core.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizeLocked(jobID, core.StatusFailed, errMsg, res)
}

func (r *Registry) finalizeLocked(jobID string, status core.JobStatus, errMsg string, res *core.Result) (*core.Job, bool) {
	workerID, ok := r.workers[jobID]
	if !ok {
		return nil, false
	}
	job := r.active[workerID]

	now := time.Now()
	job.Status = status
	job.Error = errMsg
	job.CompletedAt = &now
	if status == core.StatusCompleted {
		job.Progress = 100
	}

	delete(r.active, workerID)
	delete(r.workers, jobID)

	if res == nil {
		res = &core.Result{JobID: jobID, Success: status == core.StatusCompleted, Message: errMsg}
	}
	res.JobID = jobID
	res.FinishedAt = now
	r.results[jobID] = terminalEntry{job: job, result: res}

	return job.Clone(), true
}

// RemoveQueued removes a pending job from the queue without recording any
// terminal state. The job never existed from the result cache's point of view.
func (r *Registry) RemoveQueued(jobID string) (*core.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, job := range r.queue {
		if job.ID == jobID {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return job.Clone(), true
		}
	}
	return nil, false
}

// ActiveWorker returns the worker id bound to a job, if the job is active.
func (r *Registry) ActiveWorker(jobID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workerID, ok := r.workers[jobID]
	return workerID, ok
}

// Get returns a copy of the job record wherever it currently lives.
func (r *Registry) Get(jobID string) (*core.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if workerID, ok := r.workers[jobID]; ok {
		return r.active[workerID].Clone(), nil
	}
	if entry, ok := r.results[jobID]; ok {
		return entry.job.Clone(), nil
	}
	for _, job := range r.queue {
		if job.ID == jobID {
			return job.Clone(), nil
		}
	}
	return nil, core.ErrJobNotFound
}

// Result returns the processing result for a terminal job.
func (r *Registry) Result(jobID string) (*core.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.results[jobID]
	if !ok {
		return nil, false
	}
	return entry.result, true
}

// Queued returns copies of the pending jobs in FIFO order.
func (r *Registry) Queued() []*core.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*core.Job, len(r.queue))
	for i, job := range r.queue {
		out[i] = job.Clone()
	}
	return out
}

// Active returns copies of the jobs currently bound to workers.
func (r *Registry) Active() []*core.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*core.Job, 0, len(r.active))
	for _, job := range r.active {
		out = append(out, job.Clone())
	}
	return out
}

// Counts returns the sizes of the three collections in one consistent read.
func (r *Registry) Counts() (queued, active, completed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue), len(r.active), len(r.results)
}

// Cleanup clears the entire result cache and returns the number of entries
// removed. The queue and active map are never touched.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.results)
	r.results = make(map[string]terminalEntry)
	return n
}
