// Package processor provides processing strategies for the bulkproc package.
//
// A strategy implements core.Processor and is injected into the pool, so the
// scheduler and registry stay decoupled from what "processing" means.
// StepProcessor advances progress in fixed timed increments; CopyProcessor
// streams the uploaded object through the blob store in chunks.
package processor

import (
	"context"
	"time"

	"github.com/jdziat/bulkproc/pkg/core"
)

// StepProcessor advances progress in fixed increments with a fixed delay
// between increments, checking for cancellation between steps. It stands in
// for real transformation work in development and tests.
type StepProcessor struct {
	Steps    int           // number of progress increments, default 10
	Interval time.Duration // delay between increments, default 200ms
}

// Process runs the timed progress loop for one job.
func (p *StepProcessor) Process(ctx context.Context, job *core.Job, report core.ProgressFunc) (*core.Result, error) {
	steps := p.Steps
	if steps <= 0 {
		steps = 10
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		report(i * 100 / steps)
		timer.Reset(interval)
	}

	return &core.Result{
		JobID:   job.ID,
		Success: true,
		Message: "processing complete",
	}, nil
}
