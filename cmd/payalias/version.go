package main

import (
	"payalias/internal/core/version"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printJSON(cmd, version.Info("payalias"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
