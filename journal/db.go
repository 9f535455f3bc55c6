// Package journal records mount runs in a bbolt database.
//
// Every `go-chroot apply` is a run identified by a UUID. Each mount the run
// attempts is stored under the run, in order, with its outcome. Nothing here
// undoes mounts; the journal only tells a caller what a partially failed run
// left behind.
package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names for the bbolt database
const (
	BucketRuns   = "runs"
	BucketMounts = "run_mounts"
)

const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"

	MountStatusMounted = "mounted"
	MountStatusFailed  = "failed"
)

// DB wraps a bbolt database holding the mount journal
type DB struct {
	db   *bolt.DB
	path string
}

// RunRecord captures one apply invocation.
type RunRecord struct {
	ID        string    `json:"id"`
	Root      string    `json:"root"`
	Table     string    `json:"table"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Mounted   int       `json:"mounted"`
	Failed    int       `json:"failed"`
	Error     string    `json:"error,omitempty"`
}

// MountRecord is one attempted mount within a run.
type MountRecord struct {
	Seq         uint64    `json:"seq"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Create      bool      `json:"create"`
	Recursive   bool      `json:"recursive"`
	Readonly    bool      `json:"readonly"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	Time        time.Time `json:"time"`
}

// OpenDB opens or creates the journal at path, creating parent directories
// and the required buckets. The file is created with 0600 permissions.
//
// Example:
//
//	db, err := journal.OpenDB("/var/lib/go-chroot/mounts.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	bdb, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketRuns, BucketMounts} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return &DatabaseError{Op: "create bucket", Bucket: name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	return &DB{db: bdb, path: path}, nil
}

// Close closes the database. It is safe to call Close multiple times.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	err := db.db.Close()
	db.db = nil
	return err
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// StartRun creates a new running run and returns its ID.
func (db *DB) StartRun(root, table string, startTime time.Time) (string, error) {
	runID := uuid.New().String()
	rec := &RunRecord{
		ID:        runID,
		Root:      root,
		Table:     table,
		Status:    RunStatusRunning,
		StartTime: startTime,
	}

	err := db.db.Update(func(tx *bolt.Tx) error {
		bucket, err := getBucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		return putJSON(bucket, []byte(runID), rec)
	})
	if err != nil {
		return "", &RunError{Op: "start", RunID: runID, Err: err}
	}
	return runID, nil
}

// RecordMount appends a mount to a running run and updates its counters.
// rec.Seq is assigned here.
func (db *DB) RecordMount(runID string, rec *MountRecord) error {
	if runID == "" {
		return &RunError{Op: "record mount", Err: ErrEmptyRunID}
	}

	err := db.db.Update(func(tx *bolt.Tx) error {
		runs, err := getBucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		mounts, err := getBucket(tx, BucketMounts)
		if err != nil {
			return err
		}

		run, err := loadRun(runs, runID)
		if err != nil {
			return err
		}
		if !run.EndTime.IsZero() {
			return ErrRunFinished
		}

		seq, err := mounts.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq

		switch rec.Status {
		case MountStatusMounted:
			run.Mounted++
		case MountStatusFailed:
			run.Failed++
		}

		if err := putJSON(mounts, mountKey(runID, seq), rec); err != nil {
			return err
		}
		return putJSON(runs, []byte(runID), run)
	})
	if err != nil {
		return &RunError{Op: "record mount", RunID: runID, Err: err}
	}
	return nil
}

// FinishRun marks a run as ended. A nil runErr means success.
func (db *DB) FinishRun(runID string, endTime time.Time, runErr error) error {
	if runID == "" {
		return &RunError{Op: "finish", Err: ErrEmptyRunID}
	}

	err := db.db.Update(func(tx *bolt.Tx) error {
		runs, err := getBucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		run, err := loadRun(runs, runID)
		if err != nil {
			return err
		}
		if !run.EndTime.IsZero() {
			return ErrRunFinished
		}

		run.EndTime = endTime
		run.Status = RunStatusSuccess
		if runErr != nil {
			run.Status = RunStatusFailed
			run.Error = runErr.Error()
		}
		return putJSON(runs, []byte(runID), run)
	})
	if err != nil {
		return &RunError{Op: "finish", RunID: runID, Err: err}
	}
	return nil
}

// GetRun fetches a run by ID.
func (db *DB) GetRun(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, &RunError{Op: "get", Err: ErrEmptyRunID}
	}

	var run *RunRecord
	err := db.db.View(func(tx *bolt.Tx) error {
		runs, err := getBucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		run, err = loadRun(runs, runID)
		return err
	})
	if err != nil {
		return nil, &RunError{Op: "get", RunID: runID, Err: err}
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]RunRecord, error) {
	var runs []RunRecord

	err := db.db.View(func(tx *bolt.Tx) error {
		bucket, err := getBucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(k, v []byte) error {
			var r RunRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode run %s: %w", k, err)
			}
			runs = append(runs, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return runs, nil
}

// LatestRun returns the most recently started run, or nil if the journal
// is empty.
func (db *DB) LatestRun() (*RunRecord, error) {
	runs, err := db.ListRuns()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RunMounts returns the mounts recorded for a run, in the order attempted.
func (db *DB) RunMounts(runID string) ([]MountRecord, error) {
	if runID == "" {
		return nil, &RunError{Op: "list mounts", Err: ErrEmptyRunID}
	}

	prefix := mountPrefix(runID)
	var records []MountRecord

	err := db.db.View(func(tx *bolt.Tx) error {
		bucket, err := getBucket(tx, BucketMounts)
		if err != nil {
			return err
		}

		c := bucket.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec MountRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, &RunError{Op: "list mounts", RunID: runID, Err: err}
	}
	return records, nil
}

func getBucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, &DatabaseError{Op: "get bucket", Bucket: name, Err: ErrBucketNotFound}
	}
	return bucket, nil
}

func loadRun(bucket *bolt.Bucket, runID string) (*RunRecord, error) {
	data := bucket.Get([]byte(runID))
	if data == nil {
		return nil, ErrRunNotFound
	}
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}

func putJSON(bucket *bolt.Bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return bucket.Put(key, data)
}

// Mount keys are runID NUL seq, with seq big-endian so a prefix scan returns
// mounts in the order they were recorded.
func mountKey(runID string, seq uint64) []byte {
	key := mountPrefix(runID)
	return binary.BigEndian.AppendUint64(key, seq)
}

func mountPrefix(runID string) []byte {
	return []byte(runID + "\x00")
}
