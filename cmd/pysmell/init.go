package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pysmell/pysmell/internal/config"
)

// NewInitCmd creates the init subcommand, which writes a starter config
// file with every threshold and its explanation.
func NewInitCmd() *cobra.Command {
	var (
		force      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file holding every threshold pysmell knows,
set to its default value and annotated with an explanation.

Examples:
  # Create code_quality_config.yaml in the current directory
  pysmell init

  # Create it elsewhere, overwriting an existing file
  pysmell init --config myproject/code_quality_config.yaml --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(configPath)
			if err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s\nUse --force to overwrite", path)
			}

			content, err := config.DefaultConfigYAML()
			if err != nil {
				return fmt.Errorf("failed to render default configuration: %w", err)
			}
			if err := os.WriteFile(path, content, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}

			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFileName, "Configuration file path")
	return cmd
}
