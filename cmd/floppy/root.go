// Command floppy is a thin demonstration CLI over the floppycore library:
// open, detect, cat, and read. It renders already-decoded library output; it
// does no sector-map rendering, no disassembly, and no string scanning of its
// own (those are the excluded interactive explorer, per §2's Non-goals note).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Registered with the filesystem package's mount dispatcher via init().
	_ "github.com/retrofloppy/floppycore/cpm"
	_ "github.com/retrofloppy/floppycore/mgt"
)

var rootCmd = &cobra.Command{
	Use:   "floppy",
	Short: "Inspect 8-bit microcomputer floppy disk images",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
