package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/retrofloppy/floppycore/container"
	"github.com/retrofloppy/floppycore/filesystem"
)

var readFSFlag string
var readOutFlag string

var readCmd = &cobra.Command{
	Use:                   "read FILE ENTRY",
	Short:                 "Read one file's bytes out of a mounted filesystem",
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		img, _, err := container.OpenFromPath(args[0])
		if err != nil {
			return err
		}

		fs, err := filesystem.Mount(img, readFSFlag)
		if err != nil {
			return err
		}

		data, err := fs.ReadFile(args[1])
		if err != nil {
			return err
		}

		if readOutFlag != "" {
			return os.WriteFile(readOutFlag, data, 0o644)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	readCmd.Flags().StringVarP(&readFSFlag, "fs", "f", "auto", `Filesystem variant: auto, cpm, mgt`)
	readCmd.Flags().StringVarP(&readOutFlag, "out", "o", "", `Write the decoded bytes to this host path instead of stdout`)
	rootCmd.AddCommand(readCmd)
}
