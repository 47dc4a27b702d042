package core

import (
	"errors"
	"fmt"
)

// Lookup and submission errors
var (
	ErrJobNotFound  = errors.New("bulkproc: job not found")
	ErrFileTooSmall = errors.New("bulkproc: file below minimum size for bulk processing")
	ErrPoolClosed   = errors.New("bulkproc: pool is shut down")
)

// StopMessage is recorded as the error of a job terminated by a stop request.
const StopMessage = "stopped by user"

// AdmissionError indicates a submission was rejected before entering the
// queue. No job id is allocated for a rejected submission.
type AdmissionError struct {
	SizeBytes int64
	MinBytes  int64
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("bulkproc: file too small: %d bytes (minimum %d)", e.SizeBytes, e.MinBytes)
}

func (e *AdmissionError) Unwrap() error {
	return ErrFileTooSmall
}
