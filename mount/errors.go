package mount

import (
	"errors"
	"fmt"
)

// Sentinel errors carried inside MountError, checkable with errors.Is().
var (
	// ErrSourceNotFound is returned when a bind source path does not exist
	ErrSourceNotFound = errors.New("attempt to bind mount nonexistent source path")

	// ErrDestinationNotFound is returned when the mount point does not exist
	ErrDestinationNotFound = errors.New("attempt to bind mount on nonexistent path")

	// ErrCommandNotFound is returned when the mount utility is not on PATH
	ErrCommandNotFound = errors.New("mount command not found")

	// ErrMountFailed is returned when mount(8) exits non-zero or cannot be run
	ErrMountFailed = errors.New("mount failed")
)

// MountError is the single error kind returned by Bind and LookupCommand.
//
// Op identifies the failing step:
//   - "validate": source or destination missing
//   - "mount": the initial mount invocation failed
//   - "remount": the read-only remount failed
//   - "lookup": the mount utility could not be found (Path is the command)
//
// Errors from creating mount points are not MountErrors; they are returned
// as the underlying *os.PathError.
type MountError struct {
	Op         string // Operation: "validate", "mount", "remount", "lookup"
	Path       string // Destination path (absolute)
	Source     string // Source path or pseudo-filesystem name
	ExitStatus int    // mount(8) exit status, -1 if it could not be run
	Err        error  // Underlying error
}

func (e *MountError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s failed for %s (source=%s): %v", e.Op, e.Path, e.Source, e.Err)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// IsMountError reports whether err is, or wraps, a *MountError.
func IsMountError(err error) bool {
	var me *MountError
	return errors.As(err, &me)
}
