package main

import (
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check that mtr and traceroute can run",
	Long: `Check whether mtr and traceroute are installed and usable.

For a missing tool the install command for your system is shown. On
macOS a non-setuid mtr is reported as needing elevation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		statuses := a.checker.CheckAll(commandContext(cmd))
		return newWriter().WriteTools(statuses)
	},
}
