package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tdulcet/Distributed-Computing-Scripts-sub000/internal/config"
)

var (
	registerUsername string
	registerHostname string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this machine with PrimeNet",
	Long: `Registers (or re-registers) the machine: sends the hardware description
to the server, stores the assigned GUID and exchanges program options.
The username is saved to the config file for later runs.`,
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "PrimeNet user name (ANONYMOUS is accepted)")
	registerCmd.Flags().StringVar(&registerHostname, "hostname", "", "Computer name shown on mersenne.org")
}

func runRegister(cmd *cobra.Command, args []string) error {
	c, cleanup, err := newController()
	if err != nil {
		return err
	}
	defer cleanup()

	if registerUsername != "" {
		c.Config.Username = registerUsername
	}
	if registerHostname != "" {
		c.Config.Hostname = registerHostname
	}
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if err := c.Register(false); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = filepath.Join(workdir, config.DefaultFilename)
	}
	return c.Config.Save(path)
}
