package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var quitUnreserve bool

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Stop requesting new assignments",
	Long: `Sets the no-more-work flag: the agent keeps reporting progress and
submitting results, but requests no new assignments, so the queue drains
as the worker finishes each entry. With --unreserve the queued
assignments are also released immediately. Undo with "primenet resume".`,
	RunE: runQuit,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume requesting new assignments",
	RunE:  runResume,
}

func init() {
	quitCmd.Flags().BoolVar(&quitUnreserve, "unreserve", false, "Also release every queued assignment now")
}

func runQuit(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.SetNoMoreWork(true); err != nil {
		return err
	}
	fmt.Println("No new assignments will be requested. Resume with \"primenet resume\".")
	if quitUnreserve {
		return c.UnreserveAll()
	}
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.SetNoMoreWork(false); err != nil {
		return err
	}
	fmt.Println("New assignments will be requested again on the next cycle.")
	return nil
}
