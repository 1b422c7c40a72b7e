// Package errs implements the error taxonomy of §7: a small set of typed
// errors that unwind to the Run Coordinator, each carrying the failing
// file/connection/batch identifier. Invariant violations and permanent
// failures abort the run; transient errors are retried by their
// component, and one that still fails after its retries reaches the
// Coordinator and aborts the run too.
package errs

import "fmt"

// InputCorruption is raised when a checkpoint row carries inconsistent
// contents (e.g. "modified" without old_content).
type InputCorruption struct {
	CheckpointRowID int64
	Reason          string
}

func (e *InputCorruption) Error() string {
	return fmt.Sprintf("input corruption in checkpoint row %d: %s", e.CheckpointRowID, e.Reason)
}

// DiffInvariantViolation is raised when the Diff Analyzer produces a
// line_map that violates I4 or I5.
type DiffInvariantViolation struct {
	FileID int64
	Reason string
}

func (e *DiffInvariantViolation) Error() string {
	return fmt.Sprintf("diff invariant violation for file %d: %s", e.FileID, e.Reason)
}

// ReconcileInvariantViolation is raised when a connection's refreshed
// code_snippet is not a contiguous slice of the new file content.
type ReconcileInvariantViolation struct {
	ConnectionID int64
	FileID       int64
	Reason       string
}

func (e *ReconcileInvariantViolation) Error() string {
	return fmt.Sprintf("reconcile invariant violation for connection %d (file %d): %s", e.ConnectionID, e.FileID, e.Reason)
}

// SplitterTransient wraps an error from the Splitter that should be
// retried (timeouts, rate limits).
type SplitterTransient struct {
	BatchIndex int
	Err        error
}

func (e *SplitterTransient) Error() string {
	return fmt.Sprintf("transient splitter error on batch %d: %v", e.BatchIndex, e.Err)
}

func (e *SplitterTransient) Unwrap() error { return e.Err }

// SplitterPermanent wraps a fatal Splitter error that aborts the run.
type SplitterPermanent struct {
	BatchIndex int
	Err        error
}

func (e *SplitterPermanent) Error() string {
	return fmt.Sprintf("permanent splitter error on batch %d: %v", e.BatchIndex, e.Err)
}

func (e *SplitterPermanent) Unwrap() error { return e.Err }

// StoreTransient wraps a store error. The Coordinator replays the final
// commit once when it fails with this error before aborting.
type StoreTransient struct {
	Op  string
	Err error
}

func (e *StoreTransient) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *StoreTransient) Unwrap() error { return e.Err }

// Cancelled indicates the run was cancelled cleanly; it is not a failure
// and carries no identifiers.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "run cancelled" }
