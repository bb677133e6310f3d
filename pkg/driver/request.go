package driver

import (
	"io"
	"os"
)

// Stage identifies one of the two ordered steps of a run.
type Stage string

const (
	StageInit Stage = "init"
	StageExec Stage = "exec"
)

// StageRequest describes a single stage invocation.
type StageRequest struct {
	Binary     string
	InputCase  string
	OutputCase string
	Study      string
	NumCPUs    int
}

// Request holds the caller-supplied parameters for one complete run.
type Request struct {
	InputCase  string
	OutputCase string // defaults to InputCase
	Study      string // defaults to InputCase
	NumCPUs    int    // defaults to 1
	InitOnly   bool
	ExecOnly   bool

	// Log writes both stages' output to <InputCase>.o.log and
	// <InputCase>.e.log in LogDir instead of Stdout/Stderr.
	Log    bool
	LogDir string // defaults to the working directory

	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

func (r *Request) normalize() {
	if r.OutputCase == "" {
		r.OutputCase = r.InputCase
	}
	if r.Study == "" {
		r.Study = r.InputCase
	}
	if r.NumCPUs < 1 {
		r.NumCPUs = 1
	}
	if r.LogDir == "" {
		r.LogDir = "."
	}
	if r.Stdout == nil {
		r.Stdout = os.Stdout
	}
	if r.Stderr == nil {
		r.Stderr = os.Stderr
	}
}
