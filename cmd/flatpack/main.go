// flatpack consolidates a directory of source files into one flattened
// Markdown-style document of fenced code blocks, and restores such a
// document back into a directory tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flatpack/flatpack/internal/diag"
)

// Version of the flatpack application. Set by the release build via linker flags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "flatpack",
		Short:         "Pack a source tree into one fenced-block document, or unpack it back",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPackCmd())
	root.AddCommand(newUnpackCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// renderEvents prints warn and error diagnostics to stderr. Info events are
// shown only with --verbose.
func renderEvents(events []diag.Event, verbose bool) {
	for _, ev := range events {
		if ev.Level == diag.Info && !verbose {
			continue
		}
		fmt.Fprintln(os.Stderr, ev.String())
	}
}
