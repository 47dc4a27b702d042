// Package pool provides the bounded-concurrency scheduler for the bulkproc package.
package pool

import (
	"log/slog"

	"github.com/jdziat/bulkproc/pkg/admission"
	"github.com/jdziat/bulkproc/pkg/blob"
	"github.com/jdziat/bulkproc/pkg/core"
)

// DefaultMaxWorkers is the observed default concurrency bound.
const DefaultMaxWorkers = 3

// Option configures a Pool.
type Option interface {
	ApplyPool(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyPool(c *Config) { f(c) }

// Config holds pool configuration.
type Config struct {
	MaxWorkers int
	Policy     admission.Policy
	Processor  core.Processor
	Store      blob.Store
	Logger     *slog.Logger
}

// MaxWorkers sets the concurrency bound. Values are clamped to
// [1, admission.MaxWorkers].
func MaxWorkers(n int) Option {
	return optionFunc(func(c *Config) {
		c.MaxWorkers = admission.ClampWorkers(n)
	})
}

// MinSizeBytes sets the admission floor in bytes.
func MinSizeBytes(n int64) Option {
	return optionFunc(func(c *Config) {
		c.Policy.MinSizeBytes = n
	})
}

// WithProcessor sets the processing strategy executed for each admitted job.
func WithProcessor(p core.Processor) Option {
	return optionFunc(func(c *Config) {
		c.Processor = p
	})
}

// WithStore sets the blob store used to persist uploaded bytes. Without a
// store, submissions must reference objects by name only.
func WithStore(s blob.Store) Option {
	return optionFunc(func(c *Config) {
		c.Store = s
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		c.Logger = l
	})
}
