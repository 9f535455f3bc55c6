package mount

import (
	"bytes"
	"errors"
	"os/exec"
)

// CmdRunner runs external commands.
//
// RunCommand returns err == nil whenever the process ran, whatever its exit
// status; callers inspect exitStatus. err is non-nil only when the command
// could not be started, in which case exitStatus is -1.
type CmdRunner interface {
	RunCommand(cmdName string, args ...string) (stdout, stderr string, exitStatus int, err error)

	// CommandExists reports whether cmdName resolves through PATH.
	CommandExists(cmdName string) (exists bool)
}

type execCmdRunner struct{}

// NewExecCmdRunner returns a CmdRunner backed by os/exec.
func NewExecCmdRunner() CmdRunner {
	return execCmdRunner{}
}

func (execCmdRunner) RunCommand(cmdName string, args ...string) (string, string, int, error) {
	cmd := exec.Command(cmdName, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
		}
		return stdout.String(), stderr.String(), -1, err
	}

	return stdout.String(), stderr.String(), 0, nil
}

func (execCmdRunner) CommandExists(cmdName string) bool {
	_, err := exec.LookPath(cmdName)
	return err == nil
}
