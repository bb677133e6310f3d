// Command nexus-run drives the two stages of a Nexus simulation case:
// initialization with standexe followed by execution with nexusexe,
// optionally fanned out over MPI workers.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shohirose/nexus-vip-tools/pkg/cases"
	"github.com/shohirose/nexus-vip-tools/pkg/config"
	"github.com/shohirose/nexus-vip-tools/pkg/deck"
	"github.com/shohirose/nexus-vip-tools/pkg/driver"
	"github.com/shohirose/nexus-vip-tools/pkg/logging"
)

var version = "dev"

const exitFailure = 1

type runOptions struct {
	outputCase  string
	study       string
	initOnly    bool
	execOnly    bool
	numCPUs     int
	logOutput   bool
	batch       bool
	contextFile string
	renderGlobs []string
	toolsFile   string
	loggingType string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitStatus(err))
	}
}

// exitStatus propagates the failing stage's own exit status; every other
// failure maps to the sentinel code.
func exitStatus(err error) int {
	var stageErr *driver.StageError
	if errors.As(err, &stageErr) && stageErr.ExitStatus > 0 {
		return stageErr.ExitStatus
	}
	return exitFailure
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "nexus-run [flags] input_case",
		Short: "Initialize and execute a Nexus simulation case",
		Long: `nexus-run initializes a simulation case with standexe and then executes
it with nexusexe. Both tool paths are resolved from the STAND_EXE and
NEXUS_EXE environment variables (a .env file in the working directory is
honored) or from a YAML tools file given with --tools.

With --num-cpus greater than one, each stage is launched through the
parallel-launch wrapper (mpiexec unless overridden via MPIEXEC_EXE).

With --batch, input_case is a glob over deck files and every matched
case is run in turn.`,
		Version:      version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputCase, "output-case", "o", "", "output case name (defaults to the input case)")
	cmd.Flags().StringVarP(&opts.study, "study", "s", "", "study or VDB directory name (defaults to the input case)")
	cmd.Flags().BoolVar(&opts.initOnly, "init-only", false, "run initialization only")
	cmd.Flags().BoolVar(&opts.execOnly, "exec-only", false, "run the simulation without initialization")
	cmd.Flags().IntVarP(&opts.numCPUs, "num-cpus", "n", 1, "number of worker processes")
	cmd.Flags().BoolVar(&opts.logOutput, "log", false, "write stage output to <case>.o.log and <case>.e.log")
	cmd.Flags().BoolVar(&opts.batch, "batch", false, "treat input_case as a glob over deck files")
	cmd.Flags().StringVar(&opts.contextFile, "context", "", "YAML context file for rendering templated decks before the run")
	cmd.Flags().StringArrayVar(&opts.renderGlobs, "render", nil, "deck file globs to render (defaults to <case>*)")
	cmd.Flags().StringVar(&opts.toolsFile, "tools", "", "YAML file with stand_exe/nexus_exe/mpiexec paths")
	cmd.Flags().StringVar(&opts.loggingType, "logging-type", logging.Tint, "logging type: json, text or tint")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "logging level: debug, info, warn, error")

	return cmd
}

func run(inputCase string, opts runOptions) error {
	if err := logging.Initialize(opts.loggingType, opts.logLevel); err != nil {
		return err
	}

	if err := includeEnv(); err != nil {
		return err
	}

	if opts.initOnly && opts.execOnly {
		return driver.ErrConflictingModes
	}

	cfg, err := config.Load(opts.toolsFile)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	var renderData map[string]any
	if opts.contextFile != "" {
		renderData, err = deck.LoadContext(opts.contextFile)
		if err != nil {
			return err
		}
	}

	o := driver.New(cfg)

	if !opts.batch {
		return runCase(o, inputCase, renderData, opts)
	}

	names, err := cases.Discover(os.DirFS("."), inputCase)
	if err != nil {
		return fmt.Errorf("discovering cases: %w", err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no deck files match %q", inputCase)
	}
	slog.Info("discovered cases", "pattern", inputCase, "count", len(names))

	var failed []string
	for _, name := range names {
		slog.Info("running case", "case", name)
		if runErr := runCase(o, name, renderData, opts); runErr != nil {
			slog.Error("case failed", "case", name, "error", runErr)
			failed = append(failed, name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d case(s) failed: %v", len(failed), failed)
	}
	return nil
}

func runCase(o *driver.Orchestrator, inputCase string, renderData map[string]any, opts runOptions) error {
	if renderData != nil {
		globs := opts.renderGlobs
		if len(globs) == 0 {
			globs = []string{inputCase + "*"}
		}
		if err := deck.Render(".", globs, nil, renderData); err != nil {
			return err
		}
	}

	return o.Run(driver.Request{
		InputCase:  inputCase,
		OutputCase: opts.outputCase,
		Study:      opts.study,
		NumCPUs:    opts.numCPUs,
		InitOnly:   opts.initOnly,
		ExecOnly:   opts.execOnly,
		Log:        opts.logOutput,
	})
}

func includeEnv() error {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("loading .env: %w", err)
		}
		slog.Debug("no .env file found")
		return nil
	}
	slog.Info("using .env file")
	return nil
}
