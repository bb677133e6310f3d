package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shohirose/nexus-vip-tools/pkg/config"
)

// Orchestrator sequences the init and exec stages of a simulation run.
// Exec never starts before init has completed successfully; the first
// stage failure ends the run.
type Orchestrator struct {
	cfg    *config.Config
	runner Runner
}

// New creates an orchestrator that runs stages as local child processes.
func New(cfg *config.Config) *Orchestrator {
	return NewWithRunner(cfg, ExecRunner{})
}

// NewWithRunner creates an orchestrator with a custom stage runner.
func NewWithRunner(cfg *config.Config, runner Runner) *Orchestrator {
	return &Orchestrator{cfg: cfg, runner: runner}
}

// Run drives one complete run for a case. Omitted output case and study
// names default to the input case name before any stage starts.
func (o *Orchestrator) Run(req Request) (err error) {
	req.normalize()

	if req.InitOnly && req.ExecOnly {
		return ErrConflictingModes
	}

	sinks, release, err := o.openSinks(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := release(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !req.ExecOnly {
		if err := o.runStage(StageInit, o.cfg.StandExe, req, sinks); err != nil {
			return err
		}
		if req.InitOnly {
			return nil
		}
	}

	return o.runStage(StageExec, o.cfg.NexusExe, req, sinks)
}

func (o *Orchestrator) runStage(stage Stage, binary string, req Request, sinks Sinks) error {
	command := Compose(o.cfg.MPIExec, StageRequest{
		Binary:     binary,
		InputCase:  req.InputCase,
		OutputCase: req.OutputCase,
		Study:      req.Study,
		NumCPUs:    req.NumCPUs,
	})

	slog.Info("running stage", "stage", stage, "case", req.InputCase, "command", command)

	outcome, err := o.runner.Run(stage, command, sinks)
	if err != nil {
		return err
	}
	if outcome.ExitStatus != 0 {
		return &StageError{Stage: stage, ExitStatus: outcome.ExitStatus}
	}

	slog.Debug("stage finished", "stage", stage, "case", req.InputCase)
	return nil
}

// openSinks returns the output sinks for a run and a release function
// that must be called on every exit path. Without logging the sinks are
// the request's writers and release is a no-op.
func (o *Orchestrator) openSinks(req Request) (Sinks, func() error, error) {
	if !req.Log {
		return Sinks{Stdout: req.Stdout, Stderr: req.Stderr}, func() error { return nil }, nil
	}

	outPath := filepath.Join(req.LogDir, req.InputCase+".o.log")
	errPath := filepath.Join(req.LogDir, req.InputCase+".e.log")

	fout, err := os.Create(outPath)
	if err != nil {
		return Sinks{}, nil, fmt.Errorf("creating stdout log: %w", err)
	}
	ferr, err := os.Create(errPath)
	if err != nil {
		fout.Close()
		return Sinks{}, nil, fmt.Errorf("creating stderr log: %w", err)
	}

	slog.Debug("logging stage output", "stdout", outPath, "stderr", errPath)

	release := func() error {
		return errors.Join(fout.Close(), ferr.Close())
	}
	return Sinks{Stdout: fout, Stderr: ferr}, release, nil
}
