package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retrofloppy/floppycore/container"
)

var openCmd = &cobra.Command{
	Use:                   "open FILE",
	Short:                 "Open an image and print its geometry summary",
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
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
