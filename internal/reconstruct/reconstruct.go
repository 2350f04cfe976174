// Package reconstruct writes parsed file records back into a directory
// tree, validating every relative path before it touches the filesystem.
package reconstruct

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/flatpack/flatpack/internal/codec"
	"github.com/flatpack/flatpack/internal/diag"
	"github.com/flatpack/flatpack/internal/pathsafe"
	"github.com/flatpack/flatpack/internal/record"
)

// Progress mirrors the packer callback: called per record, throttled,
// returning true to cancel. Already-written files stay on disk after a
// cancellation; the write loop is best-effort, not transactional.
type Progress func(processed, total int, name string, isDir bool) (cancel bool)

type Options struct {
	Progress Progress

	// ProgressInterval overrides the callback throttle; zero means 100ms.
	ProgressInterval time.Duration
}

// Result aggregates one reconstruction. Success is false only when the
// output root itself was unusable; per-file failures are reported through
// Errors and Events.
type Result struct {
	Success   bool
	Created   int
	Errors    int
	Cancelled bool
	Events    []diag.Event
}

// Reconstruct ensures outputRoot exists and writes each record under it.
// Records are processed independently: an unsafe path or a failed write is
// counted and the loop continues. Existing files are overwritten; content is
// written with LF newlines.
func Reconstruct(ctx context.Context, outputRoot string, records []record.FileRecord, opts Options) Result {
	res := Result{}
	events := &diag.Collector{}
	defer func() { res.Events = events.Events() }()

	absRoot, err := filepath.Abs(outputRoot)
	if err == nil {
		err = os.MkdirAll(absRoot, 0o755)
	}
	if err != nil {
		events.Errorf(outputRoot, "cannot create output root: %v", err)
		return res
	}
	res.Success = true

	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	lastCallback := time.Time{}

	for i, rec := range records {
		if ctx.Err() != nil {
			res.Cancelled = true
			break
		}
		if opts.Progress != nil {
			if now := time.Now(); now.Sub(lastCallback) >= interval {
				lastCallback = now
				if opts.Progress(i, len(records), rec.RelPath, false) {
					res.Cancelled = true
					break
				}
			}
		}

		parts, err := pathsafe.Clean(rec.RelPath)
		if err != nil {
			res.Errors++
			events.Errorf(rec.RelPath, "invalid path: %v", err)
			continue
		}
		dest, ok := pathsafe.WithinRoot(absRoot, parts)
		if !ok {
			res.Errors++
			events.Errorf(rec.RelPath, "path escapes output root; skipped")
			continue
		}

		if dir := filepath.Dir(dest); dir != absRoot {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				res.Errors++
				events.Errorf(rec.RelPath, "create directory: %v", err)
				continue
			}
		}
		content := codec.NormalizeNewlines(rec.Content)
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			res.Errors++
			events.Errorf(rec.RelPath, "write failed: %v", err)
			continue
		}
		res.Created++
		events.Infof(rec.RelPath, "written")
	}
	return res
}
