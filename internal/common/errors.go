// Package common defines shared constants and sentinel errors used across
// the exporter CLI. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Configuration / pre-flight errors.
	ErrConfig           = errors.New("configuration error")
	ErrInvalidKeyLength = errors.New("encryption key must be exactly 32 bytes")
	ErrKeyRequired      = errors.New("export is encrypted, an encryption key is required")

	// Task lifecycle errors.
	ErrNoTaskID         = errors.New("no task id returned from export trigger")
	ErrNoResultLocation = errors.New("task finished but no download url found")

	// Flow-control errors (distinguished exit path).
	ErrInterrupted = errors.New("interrupted")
)
