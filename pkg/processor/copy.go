package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/jdziat/bulkproc/pkg/blob"
	"github.com/jdziat/bulkproc/pkg/core"
)

// DefaultChunkSize is the read unit for CopyProcessor (4 MiB).
const DefaultChunkSize = 4 << 20

// OutputPrefix is where processed objects are written in the store.
const OutputPrefix = "processed"

// CopyProcessor streams a job's uploaded object from the blob store in
// chunks and writes the processed output back under OutputPrefix. Progress
// is reported from bytes read against the job's declared size, and the
// context is checked between chunks so stop requests take effect at chunk
// granularity.
type CopyProcessor struct {
	Store     blob.Store
	ChunkSize int

	// Transform is applied to each chunk. Nil means pass-through.
	Transform func(chunk []byte) ([]byte, error)
}

// Process reads job.SourceName from the store chunk by chunk and uploads the
// transformed output.
func (p *CopyProcessor) Process(ctx context.Context, job *core.Job, report core.ProgressFunc) (*core.Result, error) {
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	src, err := p.Store.Get(ctx, job.SourceName)
	if err != nil {
		return nil, fmt.Errorf("open source object: %w", err)
	}
	defer src.Close()

	var out bytes.Buffer
	buf := make([]byte, chunkSize)
	var read int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			chunk := buf[:n]
			if p.Transform != nil {
				chunk, err = p.Transform(chunk)
				if err != nil {
					return nil, fmt.Errorf("transform chunk: %w", err)
				}
			}
			out.Write(chunk)
			read += int64(n)
			if job.SizeBytes > 0 {
				report(int(read * 100 / job.SizeBytes))
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read source object: %w", readErr)
		}
	}

	outputKey := path.Join(OutputPrefix, job.ID, path.Base(job.SourceName))
	size := int64(out.Len())
	if err := p.Store.Put(ctx, outputKey, &out, size, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("write output object: %w", err)
	}

	return &core.Result{
		JobID:      job.ID,
		Success:    true,
		Message:    fmt.Sprintf("processed %d bytes", read),
		OutputRefs: []string{outputKey},
	}, nil
}
