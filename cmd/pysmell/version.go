package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pysmell/pysmell/internal/version"
)

// NewVersionCmd creates the version subcommand
func NewVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Println(version.Short())
				return nil
			}
			fmt.Println(version.Full())
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
