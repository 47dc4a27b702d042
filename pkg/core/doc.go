// Package core provides the fundamental types and interfaces for the bulkproc package.
//
// This package contains:
//   - Job and Result data models
//   - The Processor interface defining the pluggable processing strategy
//   - Event types for lifecycle monitoring
//   - Error types for submission and lookup failures
//
// Most users should import the root package github.com/jdziat/bulkproc
// instead of this package directly.
package core
