package processor

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/bulkproc/pkg/blob"
	"github.com/jdziat/bulkproc/pkg/core"
)

func TestStepProcessorReportsMonotonicProgress(t *testing.T) {
	p := &StepProcessor{Steps: 4, Interval: time.Millisecond}
	job := &core.Job{ID: "j1", SizeBytes: 1 << 30}

	var reports []int
	res, err := p.Process(context.Background(), job, func(pct int) {
		reports = append(reports, pct)
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success)

	assert.Equal(t, []int{25, 50, 75, 100}, reports)
}

func TestStepProcessorDefaults(t *testing.T) {
	p := &StepProcessor{Steps: 2, Interval: time.Millisecond}
	job := &core.Job{ID: "j1"}

	res, err := p.Process(context.Background(), job, func(int) {})
	require.NoError(t, err)
	assert.Equal(t, "j1", res.JobID)
}

func TestStepProcessorCooperativeCancel(t *testing.T) {
	p := &StepProcessor{Steps: 100, Interval: 10 * time.Millisecond}
	job := &core.Job{ID: "j1"}

	ctx, cancel := context.WithCancel(context.Background())

	var last int
	done := make(chan error, 1)
	go func() {
		_, err := p.Process(ctx, job, func(pct int) { last = pct })
		done <- err
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, last, 100, "cancelled run must not report full progress")
	case <-time.After(time.Second):
		t.Fatal("processor did not observe cancellation before the next increment")
	}
}

func TestCopyProcessorRoundTrip(t *testing.T) {
	store := blob.NewMemoryStore()
	payload := bytes.Repeat([]byte("abc123"), 100)
	require.NoError(t, store.Put(context.Background(), "uploads/j1/data.bin",
		bytes.NewReader(payload), int64(len(payload)), ""))

	p := &CopyProcessor{Store: store, ChunkSize: 64}
	job := &core.Job{ID: "j1", SourceName: "uploads/j1/data.bin", SizeBytes: int64(len(payload))}

	var reports []int
	res, err := p.Process(context.Background(), job, func(pct int) {
		reports = append(reports, pct)
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.OutputRefs, 1)
	assert.Equal(t, "processed/j1/data.bin", res.OutputRefs[0])

	// Progress is monotonic and byte-accurate at the end
	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1])
	}
	assert.Equal(t, 100, reports[len(reports)-1])

	rc, err := store.Get(context.Background(), res.OutputRefs[0])
	require.NoError(t, err)
	defer rc.Close()
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestCopyProcessorTransform(t *testing.T) {
	store := blob.NewMemoryStore()
	payload := []byte("hello world")
	require.NoError(t, store.Put(context.Background(), "uploads/j2/in.txt",
		bytes.NewReader(payload), int64(len(payload)), ""))

	p := &CopyProcessor{
		Store: store,
		Transform: func(chunk []byte) ([]byte, error) {
			return bytes.ToUpper(chunk), nil
		},
	}
	job := &core.Job{ID: "j2", SourceName: "uploads/j2/in.txt", SizeBytes: int64(len(payload))}

	res, err := p.Process(context.Background(), job, func(int) {})
	require.NoError(t, err)

	rc, err := store.Get(context.Background(), res.OutputRefs[0])
	require.NoError(t, err)
	defer rc.Close()
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("HELLO WORLD"), out)
}

func TestCopyProcessorMissingSource(t *testing.T) {
	p := &CopyProcessor{Store: blob.NewMemoryStore()}
	job := &core.Job{ID: "j3", SourceName: "uploads/j3/missing.bin", SizeBytes: 10}

	_, err := p.Process(context.Background(), job, func(int) {})
	assert.Error(t, err)
}

func TestCopyProcessorCancelled(t *testing.T) {
	store := blob.NewMemoryStore()
	payload := bytes.Repeat([]byte("x"), 1024)
	require.NoError(t, store.Put(context.Background(), "uploads/j4/big.bin",
		bytes.NewReader(payload), int64(len(payload)), ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &CopyProcessor{Store: store, ChunkSize: 64}
	job := &core.Job{ID: "j4", SourceName: "uploads/j4/big.bin", SizeBytes: int64(len(payload))}

	_, err := p.Process(ctx, job, func(int) {})
	assert.ErrorIs(t, err, context.Canceled)
}
