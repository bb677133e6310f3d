package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMPIExec is the parallel-launch wrapper used when no
	// override is configured.
	DefaultMPIExec = "mpiexec"

	EnvStandExe = "STAND_EXE"
	EnvNexusExe = "NEXUS_EXE"
	EnvMPIExec  = "MPIEXEC_EXE"
)

var (
	ErrStandExeNotSet = errors.New("STAND_EXE is not configured")
	ErrNexusExeNotSet = errors.New("NEXUS_EXE is not configured")
)

// Config holds the resolved locations of the external simulation tools.
type Config struct {
	StandExe string
	NexusExe string
	MPIExec  string
}

// fileConfig is the optional tools file format.
type fileConfig struct {
	StandExe string `yaml:"stand_exe"`
	NexusExe string `yaml:"nexus_exe"`
	MPIExec  string `yaml:"mpiexec"`
}

// Load resolves tool paths from the environment, falling back to the
// tools file when given. Environment variables take precedence. Both
// simulator paths are required; the MPI wrapper defaults to mpiexec.
func Load(toolsFile string) (*Config, error) {
	var fc fileConfig
	if toolsFile != "" {
		data, err := os.ReadFile(toolsFile)
		if err != nil {
			return nil, fmt.Errorf("reading tools file: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parsing tools file %s: %w", toolsFile, err)
		}
	}

	cfg := &Config{
		StandExe: getEnvOrDefault(EnvStandExe, fc.StandExe),
		NexusExe: getEnvOrDefault(EnvNexusExe, fc.NexusExe),
		MPIExec:  getEnvOrDefault(EnvMPIExec, fc.MPIExec),
	}
	if cfg.MPIExec == "" {
		cfg.MPIExec = DefaultMPIExec
	}

	if cfg.StandExe == "" {
		return nil, ErrStandExeNotSet
	}
	if cfg.NexusExe == "" {
		return nil, ErrNexusExeNotSet
	}

	return cfg, nil
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}
