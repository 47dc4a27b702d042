package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/bulkproc/pkg/core"
	"github.com/jdziat/bulkproc/pkg/schedule"
)

func newTestStorage(t *testing.T) *GormStorage {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	s := NewGormStorage(db)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

// fakeSource feeds events to an archiver without a running pool.
type fakeSource struct {
	ch chan core.Event
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan core.Event, 16)}
}

func (f *fakeSource) Events() <-chan core.Event     { return f.ch }
func (f *fakeSource) Unsubscribe(<-chan core.Event) {}

func TestGormStorageInsertAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, &Record{
		JobID:       "j1",
		DisplayName: "big.tar",
		SizeBytes:   200 << 20,
		Success:     true,
		Message:     "processed",
		FinishedAt:  time.Now(),
	}))
	require.NoError(t, s.Insert(ctx, &Record{
		JobID:      "j2",
		Success:    false,
		Stopped:    true,
		Message:    "stopped by user",
		FinishedAt: time.Now().Add(time.Second),
	}))

	records, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first
	assert.Equal(t, "j2", records[0].JobID)
	assert.True(t, records[0].Stopped)
	assert.Equal(t, "j1", records[1].JobID)
	assert.True(t, records[1].Success)
}

func TestGormStoragePrune(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Insert(ctx, &Record{JobID: "old", FinishedAt: old}))
	require.NoError(t, s.Insert(ctx, &Record{JobID: "new", FinishedAt: time.Now()}))

	removed, err := s.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	records, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].JobID)
}

func TestArchiverPersistsTerminalEvents(t *testing.T) {
	s := newTestStorage(t)
	src := newFakeSource()
	a := NewArchiver(src, s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Start(ctx)
	a.WaitReady()

	job := &core.Job{ID: "j1", DisplayName: "big.tar", SizeBytes: 200 << 20}
	src.ch <- &core.JobCompleted{
		Job:       job,
		Result:    &core.Result{JobID: "j1", Success: true, Message: "done", OutputRefs: []string{"processed/j1/big.tar"}, FinishedAt: time.Now()},
		Timestamp: time.Now(),
	}
	src.ch <- &core.JobFailed{
		Job:       &core.Job{ID: "j2", Error: "corrupt archive"},
		Result:    &core.Result{JobID: "j2", Success: false, Message: "corrupt archive", FinishedAt: time.Now()},
		Error:     errors.New("corrupt archive"),
		Timestamp: time.Now(),
	}
	src.ch <- &core.JobStopped{
		Job:       &core.Job{ID: "j3", Error: core.StopMessage},
		Result:    &core.Result{JobID: "j3", Success: false, Message: core.StopMessage, FinishedAt: time.Now()},
		Timestamp: time.Now(),
	}
	// A stop against a queued job has no result and must not be archived.
	src.ch <- &core.JobStopped{
		Job:       &core.Job{ID: "j4"},
		Timestamp: time.Now(),
	}

	require.Eventually(t, func() bool {
		records, err := s.List(context.Background(), 10)
		return err == nil && len(records) == 3
	}, 5*time.Second, 10*time.Millisecond)

	records, err := s.List(context.Background(), 10)
	require.NoError(t, err)

	byID := make(map[string]Record)
	for _, rec := range records {
		byID[rec.JobID] = rec
	}

	assert.True(t, byID["j1"].Success)
	assert.Equal(t, "processed/j1/big.tar", byID["j1"].OutputRefs)
	assert.False(t, byID["j2"].Success)
	assert.True(t, byID["j3"].Stopped)
	_, archived := byID["j4"]
	assert.False(t, archived)
}

func TestArchiverIgnoresNonTerminalEvents(t *testing.T) {
	s := newTestStorage(t)
	src := newFakeSource()
	a := NewArchiver(src, s, WithRetention(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Start(ctx)
	a.WaitReady()

	src.ch <- &core.JobQueued{Job: &core.Job{ID: "j1"}, Timestamp: time.Now()}
	src.ch <- &core.JobStarted{Job: &core.Job{ID: "j1"}, WorkerID: "w1", Timestamp: time.Now()}
	src.ch <- &core.JobProgress{JobID: "j1", Percent: 50, Timestamp: time.Now()}

	time.Sleep(50 * time.Millisecond)

	records, err := s.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestArchiverOptions(t *testing.T) {
	s := newTestStorage(t)
	src := newFakeSource()

	a := NewArchiver(src, s,
		WithRetention(time.Hour),
		WithPruneSchedule(schedule.Every(time.Minute)),
	)
	assert.Equal(t, time.Hour, a.retention)
}
