package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/flatpack/flatpack/internal/codec"
	"github.com/flatpack/flatpack/internal/exclude"
	"github.com/flatpack/flatpack/internal/packer"
	"github.com/flatpack/flatpack/internal/record"
	"github.com/flatpack/flatpack/internal/tokencount"
)

const docExtension = ".md"

func newPackCmd() *cobra.Command {
	var (
		toClipboard    bool
		outputFile     string
		excludeSpec    string
		simpleExcludes bool
		selected       []string
		suffixMapFile  string
		countTokens    bool
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "pack [dir]",
		Short: "Pack a source directory and output to a file or the clipboard",
		Args:  cobra.MaximumNArgs(1),
		Example: `  flatpack pack -b                      # pack current directory to clipboard
  flatpack pack -o project.md           # pack to project.md
  flatpack pack src -e '*.log,build/'   # exclude logs and the build tree
  flatpack pack -s .go,.md -o out.md    # only pack Go and Markdown files`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if toClipboard && outputFile != "" {
				return errors.New("cannot use --clipboard and --output-file simultaneously")
			}
			if !toClipboard && outputFile == "" {
				return errors.New("pack requires either --clipboard or --output-file")
			}

			sourceDir := "."
			if len(args) == 1 {
				sourceDir = args[0]
			}

			suffixMap := record.DefaultSuffixMap()
			if suffixMapFile != "" {
				var err error
				if suffixMap, err = record.LoadSuffixMap(suffixMapFile); err != nil {
					return err
				}
			}

			selectedSet := selectedSuffixes(suffixMap, selected)
			if len(selectedSet) == 0 {
				return errors.New("no mapped suffixes selected")
			}

			rules := exclude.ParseSpec(excludeSpec)
			if simpleExcludes {
				rules = exclude.ParseSimple(excludeSpec)
			}

			opts := packer.Options{
				SuffixMap: suffixMap,
				Selected:  selectedSet,
				Rules:     rules,
			}
			if countTokens {
				opts.TokenCounter = tokencount.New()
			}

			records, stats := packer.Pack(context.Background(), sourceDir, opts)
			renderEvents(stats.Events, verbose)
			if stats.Cancelled {
				return errors.New("pack cancelled; partial result discarded")
			}
			if len(records) == 0 {
				return errors.New("no relevant files found to pack")
			}

			prioritizeReadme(records)
			text := codec.Serialize(records)

			if toClipboard {
				if err := clipboard.WriteAll(text); err != nil {
					return fmt.Errorf("clipboard copy failed: %w", err)
				}
				fmt.Println("Content successfully copied to clipboard.")
			} else {
				if filepath.Ext(outputFile) == "" {
					outputFile += docExtension
				}
				if err := os.WriteFile(outputFile, []byte(text), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outputFile, err)
				}
				fmt.Printf("Content successfully written to %s.\n", outputFile)
			}

			fmt.Printf("Packed: %d  skipped by type: %d  excluded: %d  errors: %d\n",
				stats.Packed, stats.SkippedType, stats.SkippedExcluded, stats.Errors)
			if countTokens {
				fmt.Printf("Estimated tokens: %d\n", stats.Tokens)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&toClipboard, "clipboard", "b", false, "pack content to the clipboard")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output filename for the packed document")
	cmd.Flags().StringVarP(&excludeSpec, "exclude", "e", "", "comma/newline-separated exclusion patterns (gitignore-style, '!' negates, trailing '/' is directory-only)")
	cmd.Flags().BoolVar(&simpleExcludes, "simple-excludes", false, "interpret --exclude as the simple suffix/literal variant")
	cmd.Flags().StringSliceVarP(&selected, "select", "s", nil, "suffixes to pack (default: every mapped suffix)")
	cmd.Flags().StringVar(&suffixMapFile, "suffix-map", "", "JSON file mapping suffixes to language and comment symbol")
	cmd.Flags().BoolVar(&countTokens, "tokens", false, "report an estimated token count for the packed document")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-file diagnostics")
	return cmd
}

func selectedSuffixes(m record.SuffixMap, requested []string) map[string]bool {
	set := map[string]bool{}
	if len(requested) == 0 {
		for _, ext := range m.Extensions() {
			set[ext] = true
		}
		return set
	}
	for _, ext := range requested {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := m[ext]; ok {
			set[ext] = true
		}
	}
	return set
}

// prioritizeReadme moves a top-level README to the front so the packed
// document opens with the project's own description.
func prioritizeReadme(records []record.FileRecord) {
	for i, rec := range records {
		if strings.EqualFold(rec.RelPath, "readme.md") {
			readme := records[i]
			copy(records[1:i+1], records[:i])
			records[0] = readme
			return
		}
	}
}
