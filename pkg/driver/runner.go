package driver

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Sinks receive the child process output streams. Both stages of a run
// share one pair so their output interleaves into the same destination.
type Sinks struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Outcome is the terminal status of one stage process.
type Outcome struct {
	Stage      Stage
	ExitStatus int
}

// Runner launches a composed command as a child process and blocks until
// it terminates. A non-nil error means the process could not be started;
// a process that ran and failed is reported through Outcome.ExitStatus.
type Runner interface {
	Run(stage Stage, command []string, sinks Sinks) (Outcome, error)
}

// ExecRunner runs commands as local child processes. It spawns exactly
// one process per call and does not retry or enforce timeouts.
type ExecRunner struct{}

func (ExecRunner) Run(stage Stage, command []string, sinks Sinks) (Outcome, error) {
	if len(command) == 0 {
		return Outcome{}, &LaunchError{Stage: stage, Err: fmt.Errorf("empty command")}
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdout = sinks.Stdout
	cmd.Stderr = sinks.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Outcome{Stage: stage, ExitStatus: exitErr.ExitCode()}, nil
		}
		return Outcome{}, &LaunchError{Stage: stage, Err: err}
	}

	return Outcome{Stage: stage}, nil
}
