// Package codec is the round-trip text transform: it serializes an ordered
// list of file records into a flattened document of fenced code blocks, and
// parses such a document back into records. The wire format is
// self-describing; parsing never needs a suffix map.
package codec

import (
	"regexp"
	"strings"

	"github.com/flatpack/flatpack/internal/diag"
	"github.com/flatpack/flatpack/internal/pathsafe"
	"github.com/flatpack/flatpack/internal/record"
)

// codeBlockPattern finds non-overlapping fenced blocks: triple backtick, an
// optional language tag, a newline, lazy content, a newline, optional
// whitespace, closing triple backtick.
var codeBlockPattern = regexp.MustCompile("(?s)```(\\w*)\n(.*?)\n[ \t]*```")

// pathCommentPattern matches the first line of a block: an optional comment
// marker (a run of '#', '//', ';', or an opening '<!--' / '/*'), the path
// token, and an optional closing marker.
var pathCommentPattern = regexp.MustCompile(`^\s*(?:(<!--|/\*)\s*|((?:#|//|;)+)\s*)?(\S+?)\s*(?:-->|\*/)?\s*$`)

// trimArtifacts strips stray wrapping characters a model or editor may have
// left around the path token.
var (
	leadingArtifacts  = regexp.MustCompile(`^[*(]+`)
	trailingArtifacts = regexp.MustCompile(`[)*]+$`)
)

// ParseOptions tunes Parse. DefaultLanguage is substituted for empty fence
// tags; left empty, the record's language stays empty.
type ParseOptions struct {
	DefaultLanguage string
}

// Stats summarizes one Parse pass.
type Stats struct {
	Blocks     int
	Parsed     int
	Rejected   int
	Duplicates int
	Events     []diag.Event
}

// Serialize renders records, in order, as fenced blocks separated by one
// blank line. Each block opens with the record's language tag, then the
// comment-prefixed path line (omitted when the comment symbol is empty),
// then the content with trailing blank lines stripped and exactly one
// newline before the closing fence.
func Serialize(records []record.FileRecord) string {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		var b strings.Builder
		b.WriteString("```")
		b.WriteString(rec.Language)
		b.WriteString("\n")
		b.WriteString(PathCommentLine(rec.CommentSymbol, rec.RelPath))
		body := strings.TrimRight(rec.Content, " \t\n")
		if body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
		b.WriteString("```\n")
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// PathCommentLine formats the path line for a comment symbol, wrapping
// bracketing styles front and back. An empty symbol yields an empty string.
func PathCommentLine(symbol, relPath string) string {
	switch symbol {
	case "":
		return ""
	case "<!--":
		return "<!-- " + relPath + " -->\n"
	case "/*":
		return "/* " + relPath + " */\n"
	default:
		return symbol + " " + relPath + "\n"
	}
}

// Parse scans text for fenced blocks and extracts one file record per block
// whose first line is a valid path comment. Line endings are normalized
// before scanning. Blocks with no recognizable path comment, an empty or
// '#'-leading path, or an unsafe path are rejected with a warn event. When
// the same path appears twice, the later block's record replaces the
// earlier one in place (last occurrence wins).
func Parse(text string, opts ParseOptions) ([]record.FileRecord, Stats) {
	stats := Stats{}
	events := &diag.Collector{}
	norm := NormalizeNewlines(text)

	var records []record.FileRecord
	index := map[string]int{}

	for _, m := range codeBlockPattern.FindAllStringSubmatch(norm, -1) {
		stats.Blocks++
		language, block := m[1], strings.TrimSpace(m[2])
		if language == "" {
			language = opts.DefaultLanguage
		}

		firstLine, rest, _ := strings.Cut(block, "\n")
		symbol, relPath, ok := ExtractPathComment(firstLine)
		if !ok {
			stats.Rejected++
			events.Warnf("", "block %d (%s): first line is not a path comment; skipped", stats.Blocks, language)
			continue
		}
		if err := pathsafe.Validate(relPath); err != nil {
			stats.Rejected++
			events.Warnf(relPath, "block %d: unsafe path rejected: %v", stats.Blocks, err)
			continue
		}

		content := rest
		if content != "" {
			content = strings.TrimRight(content, "\n") + "\n"
		}
		rec := record.FileRecord{
			RelPath:       relPath,
			Content:       content,
			Language:      language,
			CommentSymbol: symbol,
		}
		if at, seen := index[relPath]; seen {
			stats.Duplicates++
			events.Infof(relPath, "duplicate path; later block overwrites the earlier one")
			records[at] = rec
			continue
		}
		index[relPath] = len(records)
		records = append(records, rec)
		stats.Parsed++
	}
	if stats.Blocks == 0 {
		events.Warnf("", "no fenced code blocks found")
	}
	stats.Events = events.Events()
	return records, stats
}

// ExtractPathComment matches a block's first line against the path-comment
// shape and returns the detected comment symbol and the cleaned path token.
func ExtractPathComment(line string) (symbol, relPath string, ok bool) {
	m := pathCommentPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	symbol = m[1]
	if symbol == "" {
		symbol = m[2]
	}
	relPath = strings.Trim(trailingArtifacts.ReplaceAllString(leadingArtifacts.ReplaceAllString(m[3], ""), ""), "`")
	if relPath == "" || strings.HasPrefix(relPath, "#") {
		return "", "", false
	}
	// A bare word with no path separator or extension dot is prose, not a path.
	if !strings.ContainsAny(relPath, "/\\._-") {
		return "", "", false
	}
	return symbol, relPath, true
}

// NormalizeNewlines rewrites CRLF and lone CR line endings to LF. Fence and
// path patterns are anchored on single-newline boundaries, so this must run
// before scanning.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
