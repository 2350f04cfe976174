package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/flatpack/flatpack/internal/codec"
	"github.com/flatpack/flatpack/internal/reconstruct"
)

func newUnpackCmd() *cobra.Command {
	var (
		fromClipboard bool
		inputFile     string
		outputDir     string
		defaultLang   string
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Restore files from a flattened document (file or clipboard)",
		Example: `  flatpack unpack -b -o restored        # read the clipboard, write under restored/
  flatpack unpack -i project.md -o out  # read project.md, write under out/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromClipboard && inputFile != "" {
				return errors.New("cannot use --clipboard and --input-file simultaneously")
			}
			if !fromClipboard && inputFile == "" {
				return errors.New("unpack requires either --clipboard or --input-file")
			}

			var text string
			if fromClipboard {
				var err error
				if text, err = clipboard.ReadAll(); err != nil {
					return fmt.Errorf("clipboard read failed: %w", err)
				}
			} else {
				data, err := os.ReadFile(inputFile)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", inputFile, err)
				}
				text = string(data)
			}
			if text == "" {
				return errors.New("input is empty; no parsable document found")
			}

			records, parseStats := codec.Parse(text, codec.ParseOptions{DefaultLanguage: defaultLang})
			renderEvents(parseStats.Events, verbose)
			if len(records) == 0 {
				return errors.New("no file blocks with a valid path comment found")
			}

			res := reconstruct.Reconstruct(context.Background(), outputDir, records, reconstruct.Options{})
			renderEvents(res.Events, verbose)
			if !res.Success {
				return fmt.Errorf("could not create output directory %s", outputDir)
			}

			fmt.Printf("Blocks: %d  restored: %d  rejected: %d  errors: %d\n",
				parseStats.Blocks, res.Created, parseStats.Rejected, res.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&fromClipboard, "clipboard", "b", false, "unpack content from the clipboard")
	cmd.Flags().StringVarP(&inputFile, "input-file", "i", "", "input document to restore from")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "directory to restore files under")
	cmd.Flags().StringVar(&defaultLang, "default-language", "", "language assigned to blocks with an empty fence tag")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-file diagnostics")
	return cmd
}
