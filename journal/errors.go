package journal

import (
	"errors"
	"fmt"
)

// ==================== Sentinel Errors ====================

var (
	// ErrEmptyRunID is returned when a run ID parameter is empty
	ErrEmptyRunID = fmt.Errorf("run ID cannot be empty")

	// ErrRunNotFound is returned when a run doesn't exist in the journal
	ErrRunNotFound = fmt.Errorf("run not found")

	// ErrRunFinished is returned when writing to a run that already ended
	ErrRunFinished = fmt.Errorf("run already finished")

	// ErrBucketNotFound is returned when a required bucket doesn't exist
	ErrBucketNotFound = fmt.Errorf("journal bucket not found")
)

// ==================== Structured Error Types ====================

// DatabaseError wraps bbolt errors with the operation and bucket involved.
type DatabaseError struct {
	Op     string // e.g. "open", "create bucket", "get bucket"
	Bucket string // empty if not applicable
	Err    error
}

func (e *DatabaseError) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("journal %s [bucket: %s]: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("journal %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// RunError wraps run-level errors with the run ID.
type RunError struct {
	Op    string // e.g. "start", "get", "finish", "record mount"
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run %s [id: %s]: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRunNotFound checks if the error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsDatabaseError checks if the error is a bbolt-level failure.
func IsDatabaseError(err error) bool {
	var de *DatabaseError
	return errors.As(err, &de)
}
