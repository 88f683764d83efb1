// Package config holds the agent's user-editable configuration, stored as
// a YAML file in the working directory. CLI flags override file values;
// file values override defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFilename is the config file looked up in the working directory.
const DefaultFilename = "primenet.yml"

// Program families this agent can manage work for.
const (
	ProgramMlucas    = "mlucas"
	ProgramGpuOwl    = "gpuowl"
	ProgramCUDALucas = "cudalucas"
)

// Config is the full agent configuration.
type Config struct {
	// Identity.
	Username string `yaml:"username"`
	// Password enables the legacy manual-testing submission path. Leave
	// empty to use the v5 API (recommended).
	Password string `yaml:"password,omitempty"`
	Hostname string `yaml:"hostname"`

	// Work selection.
	WorkType   int     `yaml:"worktype"`
	NumCache   int     `yaml:"num_cache"`
	DaysOfWork float64 `yaml:"days_work"`
	Workers    int     `yaml:"num_workers"`
	CPUNum     int     `yaml:"cpu_num"`

	// Worker program family and its files.
	Program       string `yaml:"program"`
	CUDALucasFile string `yaml:"cudalucas_file,omitempty"`
	Workfile      string `yaml:"workfile"`
	ResultsFile   string `yaml:"resultsfile"`

	// Loop behavior.
	IntervalSeconds int `yaml:"interval_seconds"`

	// Progress projection tuning.
	HoursPerDay    int     `yaml:"hours_per_day"`
	Stage2Overhead float64 `yaml:"stage2_overhead"`

	// Primes above this exponent are announced locally but not reported
	// to the server. Zero disables the suppression.
	NoReportPrimeAbove int `yaml:"no_report_prime_above,omitempty"`

	// Hardware description sent at registration.
	CPUModel       string `yaml:"cpu_model"`
	Features       string `yaml:"features"`
	FrequencyMHz   int    `yaml:"frequency"`
	MemoryMiB      int    `yaml:"memory"`
	L1KiB          int    `yaml:"l1"`
	L2KiB          int    `yaml:"l2"`
	Cores          int    `yaml:"np"`
	ThreadsPerCore int    `yaml:"hp"`
}

// Default returns the configuration defaults, with the CPU model detected
// from the host where possible.
func Default() *Config {
	hostname, _ := os.Hostname()
	if len(hostname) > 20 {
		hostname = hostname[:20]
	}
	return &Config{
		Hostname:        hostname,
		WorkType:        100, // smallest available first-time tests
		NumCache:        0,
		DaysOfWork:      3.0,
		Workers:         1,
		CPUNum:          0,
		Program:         ProgramMlucas,
		Workfile:        "worktodo.ini",
		ResultsFile:     "results.txt",
		IntervalSeconds: 6 * 60 * 60,
		HoursPerDay:     24,
		Stage2Overhead:  1.5,
		CPUModel:        detectCPUModel(),
		FrequencyMHz:    1000,
		L1KiB:           8,
		L2KiB:           512,
		Cores:           1,
	}
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the server-imposed field limits.
func (c *Config) Validate() error {
	if l := len(c.CPUModel); l < 8 || l > 64 {
		return fmt.Errorf("cpu_model must be between 8 and 64 characters, got %d", l)
	}
	if len(c.Hostname) > 20 {
		return errors.New("hostname must be at most 20 characters")
	}
	if len(c.Features) > 64 {
		return errors.New("features must be at most 64 characters")
	}
	if c.CPUNum >= c.Workers {
		return errors.New("cpu_num must be less than num_workers")
	}
	switch c.Program {
	case ProgramMlucas, ProgramGpuOwl, ProgramCUDALucas:
	default:
		return fmt.Errorf("unknown program %q", c.Program)
	}
	if c.Program == ProgramCUDALucas && c.CUDALucasFile == "" {
		return errors.New("cudalucas_file is required for the cudalucas program")
	}
	return nil
}

// Interval returns the poll interval; zero means run one cycle and exit.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// WorkfilePath resolves the work-queue file inside workdir.
func (c *Config) WorkfilePath(workdir string) string {
	return filepath.Join(workdir, c.Workfile)
}

// ResultsPath resolves the results file inside workdir.
func (c *Config) ResultsPath(workdir string) string {
	return filepath.Join(workdir, c.ResultsFile)
}

// SentPath resolves the cumulative sent-results ledger inside workdir.
func (c *Config) SentPath(workdir string) string {
	return filepath.Join(workdir, "results_sent.txt")
}

var modelNamePattern = regexp.MustCompile(`model name\s*:\s*(.+)`)

// detectCPUModel reads the processor model string from /proc/cpuinfo.
func detectCPUModel() string {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err == nil {
		if m := modelNamePattern.FindStringSubmatch(string(data)); m != nil {
			model := strings.TrimSpace(m[1])
			if len(model) > 64 {
				model = model[:64]
			}
			if len(model) >= 8 {
				return model
			}
		}
	}
	return "cpu.unknown"
}
