// Package pathsafe validates relative paths taken from untrusted flattened
// documents before they are used to create files.
package pathsafe

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrEmpty        = errors.New("path is empty after cleaning")
	ErrAbsolute     = errors.New("path is absolute")
	ErrTraversal    = errors.New("path contains a '..' segment")
	ErrInvalidChars = errors.New(`path contains one of < > : " | ? *`)
)

var (
	invalidChars = regexp.MustCompile(`[<>:"|?*]`)
	driveLetter  = regexp.MustCompile(`^[A-Za-z]:`)
	splitter     = regexp.MustCompile(`[/\\]+`)
)

// Clean normalizes a relative path from a document into its segments:
// leading and trailing separators stripped, split on both separator styles,
// empty and "." segments dropped. It returns an error for empty results,
// absolute paths (including drive-letter forms), ".." segments, and
// characters that are illegal on common filesystems.
func Clean(rel string) ([]string, error) {
	if invalidChars.MatchString(rel) {
		return nil, ErrInvalidChars
	}
	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "\\") || driveLetter.MatchString(rel) || filepath.IsAbs(rel) {
		return nil, ErrAbsolute
	}
	var parts []string
	for _, p := range splitter.Split(strings.Trim(rel, "/\\"), -1) {
		if p == "" || p == "." {
			continue
		}
		if p == ".." {
			return nil, ErrTraversal
		}
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return nil, ErrEmpty
	}
	return parts, nil
}

// Validate reports whether rel survives Clean.
func Validate(rel string) error {
	_, err := Clean(rel)
	return err
}

// WithinRoot joins the cleaned segments under absRoot and verifies the
// result is still a descendant of absRoot. This catches traversal that
// normalization missed. absRoot must already be absolute.
func WithinRoot(absRoot string, parts []string) (string, bool) {
	full := filepath.Join(append([]string{absRoot}, parts...)...)
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", false
	}
	if abs != absRoot && !strings.HasPrefix(abs, absRoot+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}
