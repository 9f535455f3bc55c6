package journal

import (
	"time"

	"go-chroot/mount"
)

// Compile-time interface check
var _ mount.Recorder = (*RunRecorder)(nil)

// RunRecorder writes the mounts of one run to the journal. It is the
// mount.Recorder handed to Table.Apply.
type RunRecorder struct {
	db    *DB
	runID string
	now   func() time.Time
}

// Recorder returns a mount.Recorder bound to runID.
func (db *DB) Recorder(runID string) *RunRecorder {
	return &RunRecorder{db: db, runID: runID, now: time.Now}
}

// RunID returns the run this recorder writes to.
func (r *RunRecorder) RunID() string {
	return r.runID
}

// RecordMount stores the outcome of one mount attempt.
func (r *RunRecorder) RecordMount(e mount.Entry, source, destination string, err error) error {
	rec := &MountRecord{
		Name:        e.Name,
		Source:      source,
		Destination: destination,
		Create:      e.Create,
		Recursive:   e.Recursive,
		Readonly:    e.Readonly,
		Status:      MountStatusMounted,
		Time:        r.now(),
	}
	if err != nil {
		rec.Status = MountStatusFailed
		rec.Error = err.Error()
	}
	return r.db.RecordMount(r.runID, rec)
}
