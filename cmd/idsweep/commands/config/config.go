// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage idsweep configuration files.

Subcommands:
  show    Display the resolved configuration
  schema  Generate JSON schema for IDE/validation
  init    Create a sample configuration file`,
}

func init() {
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(initCmd)
}
