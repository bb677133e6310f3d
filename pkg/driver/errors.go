package driver

import (
	"errors"
	"fmt"
)

// ErrConflictingModes is returned when a run requests both init-only and
// exec-only; the combination would run neither stage.
var ErrConflictingModes = errors.New("init-only and exec-only are mutually exclusive")

// StageError reports a stage whose process ran and exited non-zero.
type StageError struct {
	Stage      Stage
	ExitStatus int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed with exit status %d", e.Stage, e.ExitStatus)
}

// LaunchError reports a stage whose process could not be started at all,
// as opposed to running and failing.
type LaunchError struct {
	Stage Stage
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("%s stage could not be launched: %v", e.Stage, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
