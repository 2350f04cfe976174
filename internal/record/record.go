// Package record defines the file record moved through the whole pipeline
// and the suffix registry that maps file extensions to fence languages and
// comment symbols.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileRecord is one file in a flattened document: its project-relative
// slash-separated path, its text content, the language tag placed after the
// opening fence, and the comment symbol used for the path line.
type FileRecord struct {
	RelPath       string
	Content       string
	Language      string
	CommentSymbol string
}

// Entry is one suffix registry value.
type Entry struct {
	Language string `json:"language"`
	Comment  string `json:"comment"`
}

// SuffixMap maps a lower-cased extension (including the leading dot) to its
// language tag and comment symbol. It does not need to be exhaustive: an
// unmapped extension makes a file ineligible for packing, but parsing a
// document never consults the map.
type SuffixMap map[string]Entry

// DefaultSuffixMap returns the built-in extension registry.
func DefaultSuffixMap() SuffixMap {
	return SuffixMap{
		".py":   {Language: "python", Comment: "#"},
		".js":   {Language: "javascript", Comment: "//"},
		".ts":   {Language: "typescript", Comment: "//"},
		".go":   {Language: "go", Comment: "//"},
		".html": {Language: "html", Comment: "<!--"},
		".css":  {Language: "css", Comment: "/*"},
		".scss": {Language: "scss", Comment: "//"},
		".json": {Language: "json", Comment: ""},
		".md":   {Language: "markdown", Comment: ""},
		".java": {Language: "java", Comment: "//"},
		".cs":   {Language: "csharp", Comment: "//"},
		".cpp":  {Language: "cpp", Comment: "//"},
		".h":    {Language: "cpp", Comment: "//"},
		".xml":  {Language: "xml", Comment: "<!--"},
		".yaml": {Language: "yaml", Comment: "#"},
		".yml":  {Language: "yaml", Comment: "#"},
		".sh":   {Language: "bash", Comment: "#"},
		".ini":  {Language: "ini", Comment: ";"},
		".txt":  {Language: "text", Comment: "#"},
	}
}

// Lookup returns the entry for a path's extension, lower-cased.
func (m SuffixMap) Lookup(path string) (Entry, bool) {
	e, ok := m[strings.ToLower(filepath.Ext(path))]
	return e, ok
}

// Extensions returns the mapped extensions, unsorted.
func (m SuffixMap) Extensions() []string {
	exts := make([]string, 0, len(m))
	for ext := range m {
		exts = append(exts, ext)
	}
	return exts
}

// LoadSuffixMap reads a JSON suffix map of the shape
// {".py": {"language": "python", "comment": "#"}, ...}. Keys are normalized
// to lower case; keys not starting with a dot are rejected.
func LoadSuffixMap(path string) (SuffixMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suffix map: %w", err)
	}
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse suffix map %s: %w", path, err)
	}
	m := make(SuffixMap, len(raw))
	for ext, entry := range raw {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return nil, fmt.Errorf("suffix map %s: invalid extension %q", path, ext)
		}
		m[ext] = entry
	}
	return m, nil
}
