// Package mount sets up bind mounts and pseudo-filesystem mounts for a
// chroot by shelling out to mount(8).
//
// Every invocation passes --no-mtab so /etc/mtab is never touched. A bind
// mount can be recursive (--rbind) and can be remounted read-only in a
// second invocation:
//
//	mount --no-mtab -t proc proc /srv/root/proc
//	mount --no-mtab --bind /usr /srv/root/usr
//	mount --no-mtab --bind --options remount,ro /srv/root/usr
//
// Calls are synchronous and unlocked. Callers must serialize mounts that
// touch the same destination.
package mount

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-chroot/log"
	"go-chroot/util"

	"golang.org/x/sys/unix"
)

// Pseudo-filesystem names accepted as a Bind source.
const (
	FSProc  = "proc"
	FSSysfs = "sysfs"
	FSTmpfs = "tmpfs"
)

// DefaultCommand is the mount utility invoked unless SetCommand overrides it.
const DefaultCommand = "mount"

// Flags passed to mount(8).
const (
	flagNoMtab   = "--no-mtab"
	flagBind     = "--bind"
	flagRBind    = "--rbind"
	flagType     = "-t"
	flagOptions  = "--options"
	optRemountRO = "remount,ro"
)

// Options control a single Bind call. The zero value is a plain,
// read-write bind mount onto an existing destination.
type Options struct {
	Create    bool // Create a missing destination (directory or placeholder file)
	Recursive bool // Use --rbind instead of --bind
	Readonly  bool // Remount read-only after mounting
}

// Mounter performs mounts through a CmdRunner.
type Mounter struct {
	runner  CmdRunner
	logger  log.LibraryLogger
	command string
}

// NewMounter creates a Mounter.
//
// A nil runner runs mount(8) through os/exec. A nil logger, or one already
// scoped inside the go-chroot namespace, is replaced by a component logger
// named "go-chroot.mount".
func NewMounter(runner CmdRunner, logger log.LibraryLogger) *Mounter {
	if runner == nil {
		runner = NewExecCmdRunner()
	}
	return &Mounter{
		runner:  runner,
		logger:  log.ForComponent(logger, "mount"),
		command: DefaultCommand,
	}
}

// SetCommand overrides the mount utility (e.g. "/usr/bin/mount").
func (m *Mounter) SetCommand(name string) {
	if name == "" {
		name = DefaultCommand
	}
	m.command = name
}

// Command returns the mount utility this Mounter invokes.
func (m *Mounter) Command() string {
	return m.command
}

// LookupCommand checks that the mount utility can be found, so callers can
// fail before attempting any mount.
func (m *Mounter) LookupCommand() error {
	if m.runner.CommandExists(m.command) {
		return nil
	}
	return &MountError{
		Op:         "lookup",
		Path:       m.command,
		ExitStatus: -1,
		Err:        fmt.Errorf("%w %q", ErrCommandNotFound, m.command),
	}
}

// Bind mounts source on destination using a default Mounter.
func Bind(source, destination string, opts Options) error {
	return NewMounter(nil, nil).Bind(source, destination, opts)
}

// IsPseudoFS reports whether name is one of the kernel filesystems that
// are mounted by type rather than bound from a path.
func IsPseudoFS(name string) bool {
	switch name {
	case FSProc, FSSysfs, FSTmpfs:
		return true
	}
	return false
}

// Bind mounts source on destination.
//
// The method:
//  1. Canonicalizes source (unless it is a pseudo-filesystem name) and
//     destination, resolving symlinks
//  2. With opts.Create, creates the destination: a directory when the
//     source is a directory or a pseudo-filesystem, otherwise the parent
//     directories plus an empty placeholder file. Existing nodes are left
//     alone.
//  3. Checks that source and destination exist
//  4. Runs mount(8): by type for pseudo-filesystems, --bind/--rbind otherwise
//  5. With opts.Readonly, remounts the destination read-only
//
// Validation and mount(8) failures are returned as *MountError. Failures
// while creating the destination are returned unchanged.
func (m *Mounter) Bind(source, destination string, opts Options) error {
	pseudo := IsPseudoFS(source)
	if !pseudo {
		resolved, err := util.RealPath(source)
		if err != nil {
			return err
		}
		source = resolved
	}

	dest, err := util.RealPath(destination)
	if err != nil {
		return err
	}

	if opts.Create {
		if err := createMountPoint(source, dest, pseudo); err != nil {
			return err
		}
	}

	if !pseudo && !util.FileExists(source) {
		return &MountError{
			Op:     "validate",
			Path:   dest,
			Source: source,
			Err:    fmt.Errorf("%w %q", ErrSourceNotFound, source),
		}
	}
	if !util.FileExists(dest) {
		return &MountError{
			Op:     "validate",
			Path:   dest,
			Source: source,
			Err:    fmt.Errorf("%w %q", ErrDestinationNotFound, dest),
		}
	}

	var args []string
	if pseudo {
		args = []string{flagNoMtab, flagType, source, source, dest}
	} else {
		m.logger.Debug("  Bind mounting '%s' on '%s'", source, dest)
		args = []string{flagNoMtab, bindFlag(opts.Recursive), source, dest}
	}
	if err := m.run("mount", source, dest, args); err != nil {
		return err
	}

	if opts.Readonly {
		args = []string{flagNoMtab, bindFlag(opts.Recursive), flagOptions, optRemountRO, dest}
		if err := m.run("remount", source, dest, args); err != nil {
			return err
		}
	}

	return nil
}

func (m *Mounter) run(op, source, dest string, args []string) error {
	_, stderr, status, err := m.runner.RunCommand(m.command, args...)
	if err != nil {
		return &MountError{
			Op:         op,
			Path:       dest,
			Source:     source,
			ExitStatus: -1,
			Err:        fmt.Errorf("%w: %w", ErrMountFailed, err),
		}
	}
	if status != 0 {
		detail := fmt.Sprintf("exit status %d", status)
		if msg := strings.TrimSpace(stderr); msg != "" {
			detail += ": " + msg
		}
		return &MountError{
			Op:         op,
			Path:       dest,
			Source:     source,
			ExitStatus: status,
			Err:        fmt.Errorf("%w (%s %s): %s", ErrMountFailed, m.command, strings.Join(args, " "), detail),
		}
	}
	return nil
}

func bindFlag(recursive bool) string {
	if recursive {
		return flagRBind
	}
	return flagBind
}

// createMountPoint creates dest so that source can be mounted on it.
func createMountPoint(source, dest string, pseudo bool) error {
	if pseudo || util.DirExists(source) {
		return mkdirAll(dest)
	}

	if err := mkdirAll(filepath.Dir(dest)); err != nil {
		return err
	}
	return touch(dest)
}

// mkdirAll is os.MkdirAll that treats any existing node at path as success.
func mkdirAll(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		if errors.Is(err, unix.EEXIST) || util.FileExists(path) {
			return nil
		}
		return err
	}
	return nil
}

// touch creates an empty file at path unless a non-directory already exists
// there. An existing directory is an error.
func touch(path string) error {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_WRONLY|unix.O_CLOEXEC, 0644)
	if err != nil {
		if errors.Is(err, unix.EEXIST) {
			// A file source cannot be bind mounted on a directory
			if util.DirExists(path) {
				return &os.PathError{Op: "open", Path: path, Err: unix.EISDIR}
			}
			return nil
		}
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	return unix.Close(fd)
}
