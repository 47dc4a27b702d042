package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleEventsImplementEvent(t *testing.T) {
	now := time.Now()
	job := &Job{ID: "test"}

	events := []Event{
		&JobQueued{Job: job, Timestamp: now},
		&JobStarted{Job: job, WorkerID: "w1", Timestamp: now},
		&JobProgress{JobID: job.ID, Percent: 40, Timestamp: now},
		&JobCompleted{Job: job, Result: &Result{JobID: job.ID, Success: true}, Duration: time.Second, Timestamp: now},
		&JobFailed{Job: job, Error: errors.New("boom"), Timestamp: now},
		&JobStopped{Job: job, Timestamp: now},
	}

	for _, e := range events {
		assert.NotNil(t, e)
	}
}
