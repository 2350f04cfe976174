package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatpack/flatpack/internal/record"
)

func TestSerializeSingleBlock(t *testing.T) {
	records := []record.FileRecord{
		{RelPath: "src/main.py", Content: "print(1)\n", Language: "python", CommentSymbol: "#"},
	}
	assert.Equal(t, "```python\n# src/main.py\nprint(1)\n```\n", Serialize(records))
}

func TestSerializeCommentStyles(t *testing.T) {
	records := []record.FileRecord{
		{RelPath: "app.js", Content: "let x = 1\n", Language: "javascript", CommentSymbol: "//"},
		{RelPath: "index.html", Content: "<p>hi</p>\n", Language: "html", CommentSymbol: "<!--"},
		{RelPath: "style.css", Content: "body {}\n", Language: "css", CommentSymbol: "/*"},
		{RelPath: "notes.md", Content: "# Notes\n", Language: "markdown", CommentSymbol: ""},
	}
	text := Serialize(records)
	assert.Contains(t, text, "```javascript\n// app.js\nlet x = 1\n```\n")
	assert.Contains(t, text, "```html\n<!-- index.html -->\n<p>hi</p>\n```\n")
	assert.Contains(t, text, "```css\n/* style.css */\nbody {}\n```\n")
	// Empty comment symbol: no path line at all.
	assert.Contains(t, text, "```markdown\n# Notes\n```\n")
	// Blocks are separated by a blank line.
	assert.Equal(t, 3, strings.Count(text, "```\n\n```"))
}

func TestSerializeStripsTrailingBlankLines(t *testing.T) {
	records := []record.FileRecord{
		{RelPath: "a.py", Content: "x = 1\n\n\n", Language: "python", CommentSymbol: "#"},
	}
	assert.Equal(t, "```python\n# a.py\nx = 1\n```\n", Serialize(records))
}

func TestParseRecoversRecord(t *testing.T) {
	text := "```python\n# src/main.py\nprint(1)\n```\n"
	records, stats := Parse(text, ParseOptions{})
	require.Len(t, records, 1)
	assert.Equal(t, record.FileRecord{
		RelPath:       "src/main.py",
		Content:       "print(1)\n",
		Language:      "python",
		CommentSymbol: "#",
	}, records[0])
	assert.Equal(t, 1, stats.Blocks)
	assert.Equal(t, 1, stats.Parsed)
	assert.Zero(t, stats.Rejected)
}

func TestRoundTrip(t *testing.T) {
	records := []record.FileRecord{
		{RelPath: "src/main.py", Content: "print(1)\n\ndef f():\n    pass\n", Language: "python", CommentSymbol: "#"},
		{RelPath: "web/app.ts", Content: "export const n = 2\n", Language: "typescript", CommentSymbol: "//"},
		{RelPath: "web/index.html", Content: "<html></html>\n", Language: "html", CommentSymbol: "<!--"},
		{RelPath: "web/style.css", Content: "a { color: red }\n", Language: "css", CommentSymbol: "/*"},
		{RelPath: "conf/app.ini", Content: "[core]\nkey=1\n", Language: "ini", CommentSymbol: ";"},
	}
	parsed, stats := Parse(Serialize(records), ParseOptions{})
	require.Zero(t, stats.Rejected)
	require.Equal(t, records, parsed)
}

func TestSerializeParseSerializeIsIdempotent(t *testing.T) {
	records := []record.FileRecord{
		{RelPath: "a/b.py", Content: "x = 1", Language: "python", CommentSymbol: "#"},
		{RelPath: "c.sh", Content: "echo hi\n\n", Language: "bash", CommentSymbol: "#"},
	}
	first := Serialize(records)
	parsed, _ := Parse(first, ParseOptions{})
	assert.Equal(t, first, Serialize(parsed))
}

func TestDuplicatePathLastOccurrenceWins(t *testing.T) {
	text := "```python\n# a/b.py\nfirst = True\n```\n\n" +
		"```python\n# other.py\nok = 1\n```\n\n" +
		"```python\n# a/b.py\nsecond = True\n```\n"
	records, stats := Parse(text, ParseOptions{})
	require.Len(t, records, 2)
	// The later block replaces the earlier one but keeps its position.
	assert.Equal(t, "a/b.py", records[0].RelPath)
	assert.Equal(t, "second = True\n", records[0].Content)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestParseRejectsUnsafePaths(t *testing.T) {
	text := "```python\n# ../escape.py\nbad = 1\n```\n\n" +
		"```python\n# /abs/path.py\nbad = 2\n```\n\n" +
		"```python\n# C:/abs/path.py\nbad = 3\n```\n"
	records, stats := Parse(text, ParseOptions{})
	assert.Empty(t, records)
	assert.Equal(t, 3, stats.Rejected)
}

func TestParseRejectsBlocksWithoutPathComment(t *testing.T) {
	text := "```python\nprint(1)\n```\n\n" + // code, not a comment
		"```text\n# \nno path token\n```\n\n" +
		"```go\n// valid/path.go\npackage main\n```\n"
	records, stats := Parse(text, ParseOptions{})
	require.Len(t, records, 1)
	assert.Equal(t, "valid/path.go", records[0].RelPath)
	assert.Equal(t, 2, stats.Rejected)
}

func TestParseNormalizesNewlines(t *testing.T) {
	text := "```python\r\n# src/win.py\r\nprint(1)\r\n```\r\n"
	records, stats := Parse(text, ParseOptions{})
	require.Len(t, records, 1)
	assert.Equal(t, "print(1)\n", records[0].Content)
	assert.Zero(t, stats.Rejected)
}

func TestParseDefaultLanguage(t *testing.T) {
	text := "```\n# plain/file.txt\nhello\n```\n"

	records, _ := Parse(text, ParseOptions{})
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Language, "empty tag stays empty by default")

	records, _ = Parse(text, ParseOptions{DefaultLanguage: "text"})
	require.Len(t, records, 1)
	assert.Equal(t, "text", records[0].Language)
}

func TestExtractPathComment(t *testing.T) {
	cases := []struct {
		line   string
		symbol string
		path   string
		ok     bool
	}{
		{"# src/main.py", "#", "src/main.py", true},
		{"#src/main.py", "#", "src/main.py", true},
		{"// lib/util.js", "//", "lib/util.js", true},
		{"; conf/app.ini", ";", "conf/app.ini", true},
		{"<!-- index.html -->", "<!--", "index.html", true},
		{"/* css/site.css */", "/*", "css/site.css", true},
		{"  # spaced/out.py  ", "#", "spaced/out.py", true},
		{"# `src/quoted.py`", "#", "src/quoted.py", true},
		{"# (src/wrapped.py)", "#", "src/wrapped.py", true},
		{"print(1)", "", "", false},
		{"# A comment with words", "", "", false},
		{"### Heading", "", "", false},
		{"#!/usr/bin/env python", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		symbol, path, ok := ExtractPathComment(tc.line)
		assert.Equal(t, tc.ok, ok, "line %q", tc.line)
		if tc.ok {
			assert.Equal(t, tc.symbol, symbol, "line %q", tc.line)
			assert.Equal(t, tc.path, path, "line %q", tc.line)
		}
	}
}
