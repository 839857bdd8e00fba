package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/platformops/idsweep/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample configuration file",
	Long: `Create a sample idsweep configuration file with commented defaults.

By default the file is created at $XDG_CONFIG_HOME/idsweep/idsweep.yaml.
Use --config to choose a custom path.

Examples:
  # Create the config in the default location
  idsweep config init

  # Create it at a custom path
  idsweep config init --config /etc/idsweep/config.yaml

  # Overwrite an existing file
  idsweep config init --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath(config.Sweep)
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
	}

	if err := config.Save(config.Sample(config.Sweep), configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set server.url, server.token, and provider in the file")
	fmt.Println("  2. Point an exclusion list at it via the exclusions key")
	fmt.Printf("  3. Preview a sweep with: idsweep list --config %s\n", configPath)

	return nil
}
