// Package fakes provides a scripted CmdRunner for mount tests.
package fakes

import (
	"strings"
	"sync"
)

// FakeCmdRunner records every command it is asked to run and answers with
// results registered through AddCmdResult. Unregistered commands succeed
// with exit status 0.
type FakeCmdRunner struct {
	mu sync.Mutex

	CommandResults map[string][]FakeCmdResult
	RunCommands    [][]string

	// Commands CommandExists reports as present
	AvailableCommands map[string]bool
}

// FakeCmdResult is the scripted outcome of one command.
type FakeCmdResult struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	Error      error
	Sticky     bool // Set to true if this result should ALWAYS be returned for the given command
}

func NewFakeCmdRunner() *FakeCmdRunner {
	return &FakeCmdRunner{
		AvailableCommands: map[string]bool{},
	}
}

func (runner *FakeCmdRunner) RunCommand(cmdName string, args ...string) (string, string, int, error) {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	runCmd := append([]string{cmdName}, args...)
	runner.RunCommands = append(runner.RunCommands, runCmd)
	return runner.getOutputsForCmd(runCmd)
}

func (runner *FakeCmdRunner) CommandExists(cmdName string) bool {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	return runner.AvailableCommands[cmdName]
}

// AddCmdResult scripts the result for fullCmd, the command and its arguments
// joined by single spaces. Results for the same command are consumed in
// order unless Sticky.
func (runner *FakeCmdRunner) AddCmdResult(fullCmd string, result FakeCmdResult) {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	if runner.CommandResults == nil {
		runner.CommandResults = make(map[string][]FakeCmdResult)
	}
	runner.CommandResults[fullCmd] = append(runner.CommandResults[fullCmd], result)
}

// Invocations returns the recorded commands joined by single spaces.
func (runner *FakeCmdRunner) Invocations() []string {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	out := make([]string, 0, len(runner.RunCommands))
	for _, cmd := range runner.RunCommands {
		out = append(out, strings.Join(cmd, " "))
	}
	return out
}

func (runner *FakeCmdRunner) getOutputsForCmd(runCmd []string) (string, string, int, error) {
	fullCmd := strings.Join(runCmd, " ")

	results, found := runner.CommandResults[fullCmd]
	if !found || len(results) == 0 {
		return "", "", 0, nil
	}

	result := results[0]
	if !result.Sticky {
		runner.CommandResults[fullCmd] = results[1:]
	}

	return result.Stdout, result.Stderr, result.ExitStatus, result.Error
}
