package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/queue"
)

var unreserveAll bool

var unreserveCmd = &cobra.Command{
	Use:   "unreserve [exponent]",
	Short: "Release queued assignments back to the server",
	Long: `Releases one assignment (by exponent) or, with --all, every queued
assignment. Released assignments are removed from the work file so the
worker program stops picking them up.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnreserve,
}

func init() {
	unreserveCmd.Flags().BoolVar(&unreserveAll, "all", false, "Release every queued assignment")
}

func runUnreserve(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()

	if unreserveAll {
		return c.UnreserveAll()
	}
	if len(args) != 1 {
		return fmt.Errorf("an exponent or --all is required")
	}
	exponent, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid exponent %q", args[0])
	}
	for _, a := range queue.Deduped(c.Queue.Load()) {
		if a.N == exponent {
			return c.Unreserve(a)
		}
	}
	return fmt.Errorf("no queued assignment with exponent %d", exponent)
}
