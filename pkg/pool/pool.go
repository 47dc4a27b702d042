package pool

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/bulkproc/pkg/admission"
	"github.com/jdziat/bulkproc/pkg/blob"
	"github.com/jdziat/bulkproc/pkg/core"
	"github.com/jdziat/bulkproc/pkg/processor"
	"github.com/jdziat/bulkproc/pkg/registry"
	"github.com/jdziat/bulkproc/pkg/sysmon"
)

// UploadPrefix is where submitted content is written in the blob store.
const UploadPrefix = "uploads"

// SubmitRequest describes one file submission.
type SubmitRequest struct {
	SourceName  string
	DisplayName string
	SizeBytes   int64
	Metadata    map[string]string

	// Content, when set together with a configured store, is uploaded
	// under UploadPrefix before the job enters the queue.
	Content io.Reader
}

// Stats is a snapshot of pool load. Reading stats never touches
// scheduling state.
type Stats struct {
	MaxWorkers int         `json:"max_workers"`
	Active     int         `json:"active"`
	Queued     int         `json:"queued"`
	Completed  int         `json:"completed"`
	Load       sysmon.Load `json:"system_load"`
}

// Pool schedules submitted jobs onto a fixed-size set of workers. Each
// admitted job runs on its own goroutine with a cancellable context; the
// registry is the only shared mutable state.
type Pool struct {
	registry *registry.Registry
	config   Config
	monitor  *sysmon.Monitor
	logger   *slog.Logger

	mu        sync.Mutex
	cancels   map[string]context.CancelFunc // job id -> worker context cancel
	eventSubs []chan core.Event
	closed    bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a pool. Without options it uses three workers, the 100 MiB
// admission floor, and the timed step processor.
func New(opts ...Option) *Pool {
	config := Config{
		MaxWorkers: DefaultMaxWorkers,
		Policy:     admission.DefaultPolicy(),
		Processor:  &processor.StepProcessor{},
		Logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt.ApplyPool(&config)
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultMaxWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		registry:   registry.New(),
		config:     config,
		monitor:    sysmon.New(),
		logger:     config.Logger,
		cancels:    make(map[string]context.CancelFunc),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

// Submit validates a submission, uploads its content when a store is
// configured, appends the job to the queue tail, and triggers an admission
// check. The returned job is a snapshot; poll Get for updates.
func (p *Pool) Submit(ctx context.Context, req SubmitRequest) (*core.Job, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, core.ErrPoolClosed
	}

	if err := p.config.Policy.Check(req.SizeBytes); err != nil {
		return nil, err
	}

	job := &core.Job{
		ID:          uuid.New().String(),
		SourceName:  admission.SanitizeName(req.SourceName),
		DisplayName: admission.SanitizeName(req.DisplayName),
		SizeBytes:   req.SizeBytes,
		Status:      core.StatusPending,
		Metadata:    admission.SanitizeMetadata(req.Metadata),
		CreatedAt:   time.Now(),
	}
	if job.DisplayName == "" {
		job.DisplayName = path.Base(job.SourceName)
	}

	if req.Content != nil && p.config.Store != nil {
		key := path.Join(UploadPrefix, job.ID, path.Base(job.SourceName))
		if err := p.config.Store.Put(ctx, key, req.Content, req.SizeBytes, ""); err != nil {
			return nil, fmt.Errorf("bulkproc: upload failed: %w", err)
		}
		job.SourceName = key
	}

	p.registry.Enqueue(job)
	p.logger.Info("job queued", "job_id", job.ID, "file", job.DisplayName, "size", job.SizeBytes)
	p.emit(&core.JobQueued{Job: job.Clone(), Timestamp: time.Now()})

	p.admit()

	return job.Clone(), nil
}

// admit moves queued jobs onto workers while capacity is free. It is safe
// to call from any goroutine at any time; the registry performs each
// admission as a single atomic decision.
func (p *Pool) admit() {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		workerID := uuid.New().String()
		job, ok := p.registry.AdmitNext(p.config.MaxWorkers, workerID)
		if !ok {
			return
		}

		jobCtx, cancel := context.WithCancel(p.baseCtx)
		p.mu.Lock()
		p.cancels[job.ID] = cancel
		p.mu.Unlock()

		p.logger.Info("job admitted", "job_id", job.ID, "worker_id", workerID)
		p.emit(&core.JobStarted{Job: job.Clone(), WorkerID: workerID, Timestamp: time.Now()})

		p.wg.Add(1)
		go p.runJob(jobCtx, job)
	}
}

func (p *Pool) runJob(ctx context.Context, job *core.Job) {
	defer p.wg.Done()
	defer p.admit() // a freed slot always re-evaluates the queue
	defer p.removeCancel(job.ID)

	// A stop may have landed between admission and this goroutine starting;
	// the job is already terminal then and there is nothing to run.
	if _, ok := p.registry.ActiveWorker(job.ID); !ok {
		return
	}

	start := time.Now()
	res, err := p.execute(ctx, job)

	if err != nil {
		msg := admission.SanitizeErrorMessage(err.Error())
		terminal, ok := p.registry.Fail(job.ID, msg, res)
		if !ok {
			// Lost the terminal-state race to a stop request.
			return
		}
		result, _ := p.registry.Result(job.ID)
		p.logger.Warn("job failed", "job_id", job.ID, "error", msg)
		p.emit(&core.JobFailed{Job: terminal, Result: result, Error: err, Timestamp: time.Now()})
		return
	}

	terminal, ok := p.registry.Complete(job.ID, res)
	if !ok {
		return
	}
	result, _ := p.registry.Result(job.ID)
	p.logger.Info("job completed", "job_id", job.ID, "duration", time.Since(start))
	p.emit(&core.JobCompleted{Job: terminal, Result: result, Duration: time.Since(start), Timestamp: time.Now()})
}

// execute runs the processor, converting panics into errors so a bad
// strategy can never take down the scheduler.
func (p *Pool) execute(ctx context.Context, job *core.Job) (res *core.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	report := func(percent int) {
		if applied, changed := p.registry.SetProgress(job.ID, percent); changed {
			p.emit(&core.JobProgress{JobID: job.ID, Percent: applied, Timestamp: time.Now()})
		}
	}

	return p.config.Processor.Process(ctx, job, report)
}

// Stop terminates a job. An active job is finalized as Failed with
// "stopped by user" and its worker context is cancelled; a queued job is
// removed without leaving a trace in the result cache. Stop returns false
// for unknown or already-terminal jobs, so a double stop is a harmless no-op.
func (p *Pool) Stop(jobID string) bool {
	if terminal, ok := p.registry.Fail(jobID, core.StopMessage, nil); ok {
		p.cancelJob(jobID)
		result, _ := p.registry.Result(jobID)
		p.logger.Info("job stopped", "job_id", jobID)
		p.emit(&core.JobStopped{Job: terminal, Result: result, Timestamp: time.Now()})
		p.admit()
		return true
	}

	if job, ok := p.registry.RemoveQueued(jobID); ok {
		p.logger.Info("queued job removed", "job_id", jobID)
		p.emit(&core.JobStopped{Job: job, Timestamp: time.Now()})
		return true
	}

	return false
}

// Get returns the latest known state of a job, or core.ErrJobNotFound.
func (p *Pool) Get(jobID string) (*core.Job, error) {
	return p.registry.Get(jobID)
}

// Result returns the processing result for a terminal job.
func (p *Pool) Result(jobID string) (*core.Result, bool) {
	return p.registry.Result(jobID)
}

// Queued returns snapshots of the pending jobs in FIFO order.
func (p *Pool) Queued() []*core.Job {
	return p.registry.Queued()
}

// Active returns snapshots of the jobs currently bound to workers.
func (p *Pool) Active() []*core.Job {
	return p.registry.Active()
}

// Cleanup clears the whole result cache and returns the number of entries
// removed. Queued and active jobs are never affected.
func (p *Pool) Cleanup() int {
	n := p.registry.Cleanup()
	p.logger.Info("result cache cleared", "removed", n)
	return n
}

// Stats returns a snapshot of queue depth and host load.
func (p *Pool) Stats(ctx context.Context) Stats {
	queued, active, completed := p.registry.Counts()
	stats := Stats{
		MaxWorkers: p.config.MaxWorkers,
		Active:     active,
		Queued:     queued,
		Completed:  completed,
	}

	snap, err := p.monitor.Sample(ctx)
	if err != nil {
		p.logger.Warn("system load sample incomplete", "error", err)
	}
	stats.Load = snap

	return stats
}

// Store returns the configured blob store, or nil.
func (p *Pool) Store() blob.Store {
	return p.config.Store
}

// Shutdown stops admitting work, cancels all active workers, and waits for
// them to finish or for ctx to expire. Queued and in-flight job state is
// lost with the process; the pool keeps no durable queue.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.baseCancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("pool shut down")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns a channel receiving lifecycle events. Slow consumers drop
// events rather than blocking workers. Call Unsubscribe when done.
func (p *Pool) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	p.mu.Lock()
	p.eventSubs = append(p.eventSubs, ch)
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events. The channel
// is not closed; callers must stop reading before calling Unsubscribe.
func (p *Pool) Unsubscribe(ch <-chan core.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.eventSubs {
		if sub == ch {
			p.eventSubs = append(p.eventSubs[:i], p.eventSubs[i+1:]...)
			return
		}
	}
}

func (p *Pool) emit(e core.Event) {
	p.mu.Lock()
	subs := make([]chan core.Event, len(p.eventSubs))
	copy(subs, p.eventSubs)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop rather than block a worker on a slow consumer.
		}
	}
}

func (p *Pool) cancelJob(jobID string) {
	p.mu.Lock()
	cancel, ok := p.cancels[jobID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

func (p *Pool) removeCancel(jobID string) {
	p.mu.Lock()
	cancel, ok := p.cancels[jobID]
	delete(p.cancels, jobID)
	p.mu.Unlock()
	if ok {
		cancel()
	}
}
