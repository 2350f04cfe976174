// Package exclude parses user-supplied exclusion specifications and matches
// candidate paths against them with gitignore-style semantics: glob
// patterns, '!' negation, and a trailing '/' marking directory-only rules.
// Rules are evaluated in order and the last matching rule wins.
package exclude

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/flatpack/flatpack/internal/diag"
)

// Rule is one parsed exclusion directive.
type Rule struct {
	Pattern string
	Negate  bool
	DirOnly bool
}

var specSplitter = regexp.MustCompile(`[,\n]`)

// ParseSpec parses a gitignore-style exclusion spec: items separated by
// commas or newlines, whitespace trimmed, empty items and '#' comment lines
// dropped. A leading '!' negates; a trailing '/' restricts the rule to
// directories.
func ParseSpec(spec string) []Rule {
	var rules []Rule
	for _, item := range specSplitter.Split(spec, -1) {
		item = strings.TrimSpace(item)
		if item == "" || strings.HasPrefix(item, "#") {
			continue
		}
		rule := Rule{}
		if strings.HasPrefix(item, "!") {
			rule.Negate = true
			item = item[1:]
		}
		if strings.HasSuffix(item, "/") {
			rule.DirOnly = true
			item = strings.TrimRight(item, "/")
		}
		if item == "" {
			continue
		}
		rule.Pattern = item
		rules = append(rules, rule)
	}
	return rules
}

// ParseSimple parses the basename/suffix-only exclusion variant and compiles
// it down to the same glob rules. Tokens like "*.log" or bare ".log" become
// suffix globs, a trailing '/' marks a directory rule, and anything else is
// a literal name or path pattern.
func ParseSimple(spec string) []Rule {
	var rules []Rule
	for _, item := range specSplitter.Split(spec, -1) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		switch {
		case strings.HasPrefix(item, "*."):
			if len(item) > 2 {
				rules = append(rules, Rule{Pattern: "*." + strings.ToLower(item[2:])})
			}
		case strings.HasPrefix(item, ".") && len(item) > 1 && !strings.Contains(item[1:], "."):
			// A single-dot token like ".log" is a suffix exclusion. The
			// compiled glob also matches the bare dotfile name itself.
			rules = append(rules, Rule{Pattern: "*." + strings.ToLower(item[1:])})
		case strings.HasSuffix(item, "/"):
			rules = append(rules, Rule{Pattern: strings.TrimRight(item, "/"), DirOnly: true})
		default:
			rules = append(rules, Rule{Pattern: item})
		}
	}
	return rules
}

// Matcher evaluates an ordered rule list against relative paths.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Match reports whether relPath (slash-separated, root-relative) is
// excluded. A pattern without '/' is matched against the basename; a pattern
// with '/' against the full relative path. Directory-only rules match the
// directory itself, and match files via any ancestor directory. Each
// matching rule overrides the verdict of the ones before it.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	relPath = strings.Trim(filepath.ToSlash(relPath), "/")
	if relPath == "" || relPath == "." {
		return false
	}
	excluded := false
	for _, rule := range m.rules {
		if m.ruleMatches(rule, relPath, isDir) {
			excluded = !rule.Negate
		}
	}
	return excluded
}

func (m *Matcher) ruleMatches(rule Rule, relPath string, isDir bool) bool {
	if rule.DirOnly && !isDir {
		// A directory rule still excludes files living under a matching
		// directory; walk pruning makes this redundant during packing but
		// callers may match arbitrary paths.
		return ancestorMatches(rule.Pattern, relPath)
	}
	if !strings.Contains(rule.Pattern, "/") {
		return globMatch(rule.Pattern, path.Base(relPath))
	}
	return globMatch(rule.Pattern, relPath)
}

func ancestorMatches(pattern, relPath string) bool {
	dir := path.Dir(relPath)
	if strings.Contains(pattern, "/") {
		for ; dir != "." && dir != "/"; dir = path.Dir(dir) {
			if globMatch(pattern, dir) {
				return true
			}
		}
		return false
	}
	segs := strings.Split(relPath, "/")
	for _, seg := range segs[:len(segs)-1] {
		if globMatch(pattern, seg) {
			return true
		}
	}
	return false
}

func globMatch(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		// Invalid pattern; treat as non-matching rather than failing the walk.
		return false
	}
	return ok
}

// IsExcluded resolves p against root and runs the matcher. A path that has
// no valid relative form (outside root, different volume) is treated as not
// excluded and reported through the collector.
func IsExcluded(p, root string, isDir bool, m *Matcher, events *diag.Collector) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		if events != nil {
			events.Warnf(p, "cannot resolve relative to %s; assuming not excluded", root)
		}
		return false
	}
	return m.Match(filepath.ToSlash(rel), isDir)
}
