package main

import (
	"github.com/spf13/cobra"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of assignment progress",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()
	return tui.New(c).Run()
}
