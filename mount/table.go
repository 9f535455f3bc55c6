package mount

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go-chroot/util"

	"gopkg.in/ini.v1"
)

// ErrMissingField is returned when a mount table section lacks a required key.
var ErrMissingField = errors.New("required key missing")

// Entry is one mount in a Table.
type Entry struct {
	Name        string // Section name, used in logs and the journal
	Source      string // Host path, "$/"-prefixed system path, or pseudo-filesystem name
	Destination string // Path inside the chroot root
	Options
}

// Table is an ordered mount plan. Entries are mounted in order.
//
// The ini form has one section per mount; section order is mount order:
//
//	[proc]
//	source      = proc
//	destination = /proc
//	create      = yes
//
//	[usr]
//	source      = $/usr
//	destination = /usr
//	recursive   = true
//	readonly    = true
type Table struct {
	Entries []Entry

	// SystemPath replaces the "$" in "$/"-prefixed sources. Empty or "/"
	// means the host root.
	SystemPath string
}

// TableError describes an invalid mount table section.
type TableError struct {
	Section string // Section name
	Field   string // Offending key (empty for section-level errors)
	Err     error  // Underlying error
}

func (e *TableError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("mount table [%s] %s: %v", e.Section, e.Field, e.Err)
	}
	return fmt.Sprintf("mount table [%s]: %v", e.Section, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}

// Recorder is told about every mount Apply attempts. err is nil on success.
type Recorder interface {
	RecordMount(entry Entry, source, destination string, err error) error
}

// LoadTable reads a mount table from an ini file.
func LoadTable(path string) (*Table, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mount table: %w", err)
	}
	return tableFromINI(f)
}

// ParseTable reads a mount table from ini data.
func ParseTable(data []byte) (*Table, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mount table: %w", err)
	}
	return tableFromINI(f)
}

func tableFromINI(f *ini.File) (*Table, error) {
	t := &Table{}

	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}

		e := Entry{
			Name:        sec.Name(),
			Source:      strings.TrimSpace(sec.Key("source").String()),
			Destination: strings.TrimSpace(sec.Key("destination").String()),
			Options: Options{
				Create:    sectionBool(sec, "create"),
				Recursive: sectionBool(sec, "recursive"),
				Readonly:  sectionBool(sec, "readonly"),
			},
		}

		if e.Source == "" {
			return nil, &TableError{Section: e.Name, Field: "source", Err: ErrMissingField}
		}
		if e.Destination == "" {
			return nil, &TableError{Section: e.Name, Field: "destination", Err: ErrMissingField}
		}

		t.Entries = append(t.Entries, e)
	}

	return t, nil
}

// sectionBool is true only when the key is present and holds a valid
// boolean true. Missing keys and unparsable values are false.
func sectionBool(sec *ini.Section, name string) bool {
	if !sec.HasKey(name) {
		return false
	}
	b, err := sec.Key(name).Bool()
	return err == nil && b
}

// ResolveSource maps an entry source to what Bind receives:
//   - pseudo-filesystem names are returned unchanged
//   - "$/path" becomes SystemPath + "/path"
//   - anything else is returned unchanged
func (t *Table) ResolveSource(spath string) string {
	if IsPseudoFS(spath) || !strings.HasPrefix(spath, "$/") {
		return spath
	}
	if t.SystemPath == "" || t.SystemPath == "/" {
		return spath[1:]
	}
	return filepath.Join(t.SystemPath, spath[1:])
}

// Apply mounts every entry under root, in order, stopping at the first
// failure.
//
// It returns the entries that were mounted before the failure so the caller
// can tear them down; nothing is unmounted here. rec may be nil. A recorder
// failure after a successful mount aborts Apply like a mount failure would.
func (t *Table) Apply(m *Mounter, root string, rec Recorder) ([]Entry, error) {
	mounted := make([]Entry, 0, len(t.Entries))

	for _, e := range t.Entries {
		source := t.ResolveSource(e.Source)
		dest := util.JoinUnder(root, e.Destination)

		m.logger.Info("Mounting %s: %s on %s", e.Name, source, dest)
		err := m.Bind(source, dest, e.Options)

		if rec != nil {
			if recErr := rec.RecordMount(e, source, dest, err); recErr != nil {
				if err != nil {
					m.logger.Warn("Recording failed mount %s: %v", e.Name, recErr)
				} else {
					// Mounted but unrecorded: the caller still owns it.
					return append(mounted, e), fmt.Errorf("record mount %s: %w", e.Name, recErr)
				}
			}
		}

		if err != nil {
			m.logger.Error("Mount %s failed: %v", e.Name, err)
			return mounted, fmt.Errorf("mount %s: %w", e.Name, err)
		}

		mounted = append(mounted, e)
	}

	return mounted, nil
}
