// Package admission provides the submission policy for the bulkproc package.
//
// This package includes:
//   - The minimum-size admission floor applied before a job id is allocated
//   - Input clamps and sanitization for caller-supplied names and metadata
//
// Most users should import the root package github.com/jdziat/bulkproc
// which applies these checks on Submit.
package admission

import (
	"strings"
	"unicode/utf8"

	"github.com/jdziat/bulkproc/pkg/core"
)

// Admission limits and configuration
const (
	// DefaultMinSizeBytes is the default admission floor (100 MiB). Files
	// below the floor are rejected before a job id is allocated.
	DefaultMinSizeBytes = 100 << 20

	// MaxNameLength is the maximum length for source and display names
	MaxNameLength = 255

	// MaxMetadataEntries is the maximum number of caller metadata entries
	MaxMetadataEntries = 64

	// MaxMetadataValueLength is the maximum length of a metadata value
	MaxMetadataValueLength = 4096

	// MaxWorkers is the hard limit for pool concurrency
	MaxWorkers = 256

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096
)

// Policy holds the admission configuration for a pool.
type Policy struct {
	MinSizeBytes int64
}

// DefaultPolicy returns the observed production policy.
func DefaultPolicy() Policy {
	return Policy{MinSizeBytes: DefaultMinSizeBytes}
}

// Check validates a submission size against the policy. It returns an
// *core.AdmissionError when the file is below the floor.
func (p Policy) Check(sizeBytes int64) error {
	min := p.MinSizeBytes
	if min <= 0 {
		min = DefaultMinSizeBytes
	}
	if sizeBytes < min {
		return &core.AdmissionError{SizeBytes: sizeBytes, MinBytes: min}
	}
	return nil
}

// ClampWorkers ensures a worker count is within [1, MaxWorkers].
func ClampWorkers(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// SanitizeName truncates a caller-supplied file name for storage.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		runes := []rune(name)
		name = string(runes[:MaxNameLength])
	}
	return name
}

// SanitizeMetadata drops excess entries and truncates oversized values.
// The map is copied; the caller's map is never mutated.
func SanitizeMetadata(md map[string]string) map[string]string {
	if md == nil {
		return nil
	}
	out := make(map[string]string, len(md))
	for k, v := range md {
		if len(out) >= MaxMetadataEntries {
			break
		}
		if utf8.RuneCountInString(v) > MaxMetadataValueLength {
			runes := []rune(v)
			v = string(runes[:MaxMetadataValueLength])
		}
		out[SanitizeName(k)] = v
	}
	return out
}

// SanitizeErrorMessage strips control characters and truncates error text
// before it is recorded on a failed job.
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}
