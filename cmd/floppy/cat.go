package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retrofloppy/floppycore/container"
	"github.com/retrofloppy/floppycore/filesystem"
)

var catFSFlag string

var catCmd = &cobra.Command{
	Use:                   "cat FILE",
	Short:                 "List the directory of the filesystem on FILE",
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		img, _, err := container.OpenFromPath(args[0])
		if err != nil {
			return err
		}

		fs, err := filesystem.Mount(img, catFSFlag)
		if err != nil {
			return err
		}

		info := fs.Info()
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes/block, %d blocks\n", info.FSType, info.BlockSize, info.TotalBlocks)

		entries, err := fs.ReadDir()
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %8d %s\n", e.Name, e.Size, e.Attributes)
		}
		return nil
	},
}

func init() {
	catCmd.Flags().StringVarP(&catFSFlag, "fs", "f", "auto", `Filesystem variant: auto, cpm, mgt`)
	rootCmd.AddCommand(catCmd)
}
