package main

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/shohirose/nexus-vip-tools/pkg/config"
	"github.com/shohirose/nexus-vip-tools/pkg/driver"
)

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"stage failure propagates child status", &driver.StageError{Stage: driver.StageExec, ExitStatus: 7}, 7},
		{"killed child maps to sentinel", &driver.StageError{Stage: driver.StageInit, ExitStatus: -1}, exitFailure},
		{"launch failure", &driver.LaunchError{Stage: driver.StageInit, Err: errors.New("not found")}, exitFailure},
		{"mode conflict", driver.ErrConflictingModes, exitFailure},
		{"generic error", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitStatus(tt.err); got != tt.want {
				t.Errorf("exitStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for flag, shorthand := range map[string]string{
		"output-case": "o",
		"study":       "s",
		"num-cpus":    "n",
		"init-only":   "",
		"exec-only":   "",
		"log":         "",
		"batch":       "",
	} {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("flag --%s not registered", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag --%s shorthand = %q, want %q", flag, f.Shorthand, shorthand)
		}
	}
}

// writeFakeTool creates a shell script that appends its arguments to
// tool.log in the working directory and exits with the given status.
func writeFakeTool(t *testing.T, dir, name string, exitStatus int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho \"" + name + " $@\" >> tool.log\nexit " + strconv.Itoa(exitStatus) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (stand-in for t.Chdir, which
// requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func defaultOpts() runOptions {
	return runOptions{numCPUs: 1, loggingType: "text", logLevel: "warn"}
}

func setupRunDir(t *testing.T, initExit, execExit int) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not in PATH")
	}
	dir := t.TempDir()
	t.Setenv(config.EnvStandExe, writeFakeTool(t, dir, "standexe", initExit))
	t.Setenv(config.EnvNexusExe, writeFakeTool(t, dir, "nexusexe", execExit))
	chdir(t, dir)
	return dir
}

func TestRun_EndToEnd(t *testing.T) {
	dir := setupRunDir(t, 0, 0)

	if err := run("caseA", defaultOpts()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log, err := os.ReadFile(filepath.Join(dir, "tool.log"))
	if err != nil {
		t.Fatal(err)
	}
	want := "standexe caseA -c caseA -s caseA\nnexusexe caseA -c caseA -s caseA\n"
	if string(log) != want {
		t.Errorf("tool invocations = %q, want %q", log, want)
	}
}

func TestRun_EndToEnd_InitFailureStopsExec(t *testing.T) {
	dir := setupRunDir(t, 3, 0)

	err := run("caseA", defaultOpts())
	var stageErr *driver.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error = %v, want *StageError", err)
	}
	if stageErr.Stage != driver.StageInit || stageErr.ExitStatus != 3 {
		t.Errorf("StageError = %+v, want init with exit status 3", stageErr)
	}

	log, err := os.ReadFile(filepath.Join(dir, "tool.log"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(log), "nexusexe") {
		t.Errorf("exec must not run after init failure, tool log:\n%s", log)
	}
}

func TestRun_EndToEnd_LogFiles(t *testing.T) {
	dir := setupRunDir(t, 0, 0)

	opts := defaultOpts()
	opts.logOutput = true
	if err := run("caseA", opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"caseA.o.log", "caseA.e.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("log file %s: %v", name, err)
		}
	}
}

func TestRun_EndToEnd_Batch(t *testing.T) {
	dir := setupRunDir(t, 0, 0)
	for _, deck := range []string{"caseA.fcs", "caseB.fcs"} {
		if err := os.WriteFile(filepath.Join(dir, deck), []byte("DECK\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	opts := defaultOpts()
	opts.batch = true
	if err := run("case?.fcs", opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log, err := os.ReadFile(filepath.Join(dir, "tool.log"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"standexe caseA", "nexusexe caseA", "standexe caseB", "nexusexe caseB"} {
		if !strings.Contains(string(log), want) {
			t.Errorf("tool log missing %q:\n%s", want, log)
		}
	}
}

func TestRun_EndToEnd_MissingConfig(t *testing.T) {
	t.Setenv(config.EnvStandExe, "")
	t.Setenv(config.EnvNexusExe, "")
	os.Unsetenv(config.EnvStandExe)
	os.Unsetenv(config.EnvNexusExe)
	chdir(t, t.TempDir())

	err := run("caseA", defaultOpts())
	if !errors.Is(err, config.ErrStandExeNotSet) {
		t.Fatalf("error = %v, want ErrStandExeNotSet", err)
	}
}

func TestRootCmd_RequiresInputCase(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs(nil)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when input_case is missing")
	}
}
