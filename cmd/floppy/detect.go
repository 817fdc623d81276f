package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retrofloppy/floppycore/container"
	"github.com/retrofloppy/floppycore/protect"
)

var detectCmd = &cobra.Command{
	Use:                   "detect FILE",
	Short:                 "Print the container format, geometry, and any detected copy protection",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		img, warnings, err := container.OpenFromPath(args[0])
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", w.String())
		}

		fmt.Fprintln(cmd.OutOrStdout(), img.String())

		if result, ok := protect.DetectImage(img); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "protection: %s (%s)\n", result.Name, result.Reason)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "protection: none detected")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
