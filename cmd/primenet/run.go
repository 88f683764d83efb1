package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop",
	Long: `Runs the cycle loop: submit finished results, report progress, refill
the work queue, then sleep for the configured interval. An interval of
zero runs one cycle and exits. Registers the machine first if needed.`,
	RunE: runRun,
}

var (
	runInterval int
	runOnce     bool
)

func init() {
	runCmd.Flags().IntVar(&runInterval, "interval", -1, "Seconds between cycles (overrides config; 0 = single cycle)")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run one cycle and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()

	if runInterval >= 0 {
		c.Config.IntervalSeconds = runInterval
	}
	if runOnce {
		c.Config.IntervalSeconds = 0
	}

	needs, err := c.NeedsRegistration()
	if err != nil {
		return err
	}
	if needs {
		log.Printf("Registration missing or configuration changed, updating the server first")
		if err := c.Register(false); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
