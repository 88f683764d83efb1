package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/config"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/primenet"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/session"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "primenet",
	Short: "PrimeNet client agent for GIMPS worker programs",
	Long: `primenet connects Mlucas, GpuOwl and CUDALucas to the PrimeNet server:
it registers the machine, keeps the work queue filled, reports progress
and submits finished results, while the worker program runs independently
against the shared working directory.`,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	workdir     string
	configPath  string
	serverURL   string
	workfile    string
	resultsfile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&workdir, "workdir", ".", "Working directory shared with the worker program")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <workdir>/"+config.DefaultFilename+")")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "PrimeNet server URL (default production)")
	rootCmd.PersistentFlags().StringVar(&workfile, "workfile", "", "Work queue filename (default from config)")
	rootCmd.PersistentFlags().StringVar(&resultsfile, "resultsfile", "", "Results filename (default from config)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(unreserveCmd)
	rootCmd.AddCommand(quitCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(watchCmd)
}

// newController wires the full controller stack from the CLI flags. The
// returned cleanup closes the settings database.
func newController() (*session.Controller, func(), error) {
	path := configPath
	if path == "" {
		path = filepath.Join(workdir, config.DefaultFilename)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if workfile != "" {
		cfg.Workfile = workfile
	}
	if resultsfile != "" {
		cfg.ResultsFile = resultsfile
	}
	st, err := store.New(filepath.Join(workdir, "primenet.db"))
	if err != nil {
		return nil, nil, err
	}
	c := session.New(workdir, cfg, st, primenet.NewClient(serverURL))
	return c, func() { st.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
