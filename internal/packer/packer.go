// Package packer walks a source tree, applies the suffix and exclusion
// filters, and produces the ordered file records that the codec serializes.
package packer

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flatpack/flatpack/internal/codec"
	"github.com/flatpack/flatpack/internal/diag"
	"github.com/flatpack/flatpack/internal/exclude"
	"github.com/flatpack/flatpack/internal/record"
	"github.com/flatpack/flatpack/internal/tokencount"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Progress is invoked after processing a directory or file. Returning true
// cancels the walk at the next checkpoint. Calls are throttled so a slow
// consumer is never overwhelmed.
type Progress func(processed, total int, name string, isDir bool) (cancel bool)

// Options configures one Pack run. SuffixMap and Selected decide file
// eligibility; Rules is the compiled exclusion list. TokenCounter, when set,
// contributes a token estimate to the stats.
type Options struct {
	SuffixMap    record.SuffixMap
	Selected     map[string]bool
	Rules        []exclude.Rule
	Progress     Progress
	TokenCounter tokencount.Counter

	// ProgressInterval overrides the callback throttle; zero means 100ms.
	ProgressInterval time.Duration
}

// Stats summarizes one Pack run. Per-file problems are counted, never
// returned as errors; Cancelled means the partial result must be discarded.
type Stats struct {
	Packed          int
	SkippedType     int
	SkippedExcluded int
	Errors          int
	Tokens          int
	Cancelled       bool
	Events          []diag.Event
}

// Pack walks root top-down and returns one record per eligible file, in walk
// order. Excluded directories are pruned as whole subtrees. A file must have
// an extension present in both the suffix map and the selected set, and must
// not match the exclusion rules. Files are read with lenient decoding; read
// failures are counted and the walk continues.
func Pack(ctx context.Context, root string, opts Options) ([]record.FileRecord, Stats) {
	stats := Stats{}
	events := &diag.Collector{}
	defer func() { stats.Events = events.Events() }()

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		events.Errorf(root, "cannot resolve source root: %v", err)
		stats.Errors++
		return nil, stats
	}
	if info, err := os.Stat(rootAbs); err != nil || !info.IsDir() {
		events.Errorf(root, "source root is not a readable directory")
		stats.Errors++
		return nil, stats
	}

	matcher := exclude.NewMatcher(opts.Rules)
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	total := 0
	if opts.Progress != nil {
		total = estimateTotal(rootAbs, matcher, events)
	}

	var records []record.FileRecord
	processed := 0
	lastCallback := time.Time{}

	report := func(name string, isDir bool) bool {
		if ctx.Err() != nil {
			return true
		}
		if opts.Progress == nil {
			return false
		}
		now := time.Now()
		if now.Sub(lastCallback) < interval {
			return false
		}
		lastCallback = now
		return opts.Progress(processed, total, name, isDir)
	}

	walkErr := filepath.WalkDir(rootAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.Errors++
			events.Warnf(path, "walk error: %v", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(rootAbs, path)
		if relErr != nil {
			events.Warnf(path, "cannot resolve relative path; skipped")
			stats.Errors++
			return nil
		}
		rel = filepath.ToSlash(rel)
		processed++

		if d.IsDir() {
			if rel != "." && matcher.Match(rel, true) {
				stats.SkippedExcluded++
				events.Infof(rel, "directory excluded; subtree pruned")
				return fs.SkipDir
			}
			if report(d.Name(), true) {
				stats.Cancelled = true
				return fs.SkipAll
			}
			return nil
		}

		if report(d.Name(), false) {
			stats.Cancelled = true
			return fs.SkipAll
		}

		if matcher.Match(rel, false) {
			stats.SkippedExcluded++
			events.Infof(rel, "excluded by rule")
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		entry, mapped := opts.SuffixMap[ext]
		if !mapped {
			stats.SkippedType++
			events.Infof(rel, "suffix %q not mapped; skipped", ext)
			return nil
		}
		if opts.Selected != nil && !opts.Selected[ext] {
			stats.SkippedType++
			events.Infof(rel, "suffix %q not selected; skipped", ext)
			return nil
		}

		content, readErr := readLenient(path)
		if readErr != nil {
			stats.Errors++
			events.Errorf(rel, "read failed: %v", readErr)
			return nil
		}

		records = append(records, record.FileRecord{
			RelPath:       rel,
			Content:       stripOwnPathComment(content, rel, events),
			Language:      entry.Language,
			CommentSymbol: entry.Comment,
		})
		stats.Packed++
		return nil
	})
	if walkErr != nil {
		stats.Errors++
		events.Errorf(root, "walk aborted: %v", walkErr)
	}

	if stats.Cancelled {
		return records, stats
	}

	if opts.Progress != nil {
		opts.Progress(total, total, "done", false)
	}
	if opts.TokenCounter != nil {
		for _, rec := range records {
			stats.Tokens += opts.TokenCounter.Count(rec.Content)
		}
	}
	return records, stats
}

// estimateTotal runs a cheap preliminary walk, with the same pruning, so
// progress callbacks can report against a total. Failures degrade to an
// indeterminate total of zero.
func estimateTotal(rootAbs string, matcher *exclude.Matcher, events *diag.Collector) int {
	total := 0
	err := filepath.WalkDir(rootAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(rootAbs, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() && rel != "." && matcher.Match(rel, true) {
			return fs.SkipDir
		}
		total++
		return nil
	})
	if err != nil {
		events.Warnf(rootAbs, "could not estimate item total: %v", err)
		return 0
	}
	return total
}

// readLenient reads a file as text: the UTF-8 BOM is stripped and invalid
// byte sequences are dropped rather than failing the file.
func readLenient(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), ""), nil
}

// stripOwnPathComment removes a first-line path comment from the content so
// serialization regenerates exactly one correct path line. A stale comment
// pointing at a different path is dropped the same way, which effectively
// overwrites it.
func stripOwnPathComment(content, rel string, events *diag.Collector) string {
	firstLine, rest, found := strings.Cut(content, "\n")
	symbol, commented, ok := codec.ExtractPathComment(firstLine)
	if !ok || symbol == "" {
		return content
	}
	if filepath.ToSlash(commented) != rel {
		events.Infof(rel, "replacing stale path comment %q", commented)
	}
	if !found {
		return ""
	}
	return rest
}
