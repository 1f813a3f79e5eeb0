package chipsupplier

import "github.com/jamesmcclain/chipsupplier/internal"

// Mode is re-exported from the internal package to avoid import cycles.
// See internal/types.go for full documentation.
type Mode = internal.Mode

// Operation modes. The numeric values are part of the external contract.
const (
	ModeIdle       = internal.ModeIdle
	ModeTraining   = internal.ModeTraining
	ModeEvaluation = internal.ModeEvaluation
	ModeInference  = internal.ModeInference
)

// Config is re-exported from the internal package to avoid import cycles.
// See internal/types.go for full documentation.
type Config = internal.Config

// ChipInfo is re-exported from the internal package to avoid import cycles.
// See internal/types.go for full documentation.
type ChipInfo = internal.ChipInfo

// SupplierStats is re-exported from the internal package to avoid import
// cycles. See internal/types.go for full documentation.
type SupplierStats = internal.SupplierStats

// WorkerStats is re-exported from the internal package to avoid import
// cycles. See internal/types.go for full documentation.
type WorkerStats = internal.WorkerStats

// LatencyStats is re-exported from the internal package to avoid import
// cycles. See internal/types.go for full documentation.
type LatencyStats = internal.LatencyStats

// ParseMode converts a mode name ("training", "evaluation", "inference",
// "idle") to a Mode.
var ParseMode = internal.ParseMode

// Package errors.
var (
	// ErrStopped is returned by Next once Stop has flipped the mode to Idle.
	ErrStopped = internal.ErrStopped
	// ErrWrongMode is returned when an operation is invalid in the current mode.
	ErrWrongMode = internal.ErrWrongMode
	// ErrBufferSize is returned when a caller buffer does not match the payload size.
	ErrBufferSize = internal.ErrBufferSize
	// ErrNoLabels is returned when a label buffer is passed but no label source is configured.
	ErrNoLabels = internal.ErrNoLabels
	// ErrAlreadyRunning is returned by Start on a running supplier.
	ErrAlreadyRunning = internal.ErrAlreadyRun
)
