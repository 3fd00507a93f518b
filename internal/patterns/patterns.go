// Package patterns extracts structural facts (functions, imports, exports,
// TODO annotations) from source text using per-language ordered rule sets.
// Matching is regex based and deliberately approximate; a token that merely
// looks like a declaration may match. Callers treat the output as a best
// effort inventory, not a parse.
package patterns

import (
	"regexp"
	"strings"

	"github.com/codescope/codescope/internal/types"
)

// rule captures one named group from every match of its pattern.
type rule struct {
	pattern *regexp.Regexp
	// filter drops a captured name when it returns false. nil accepts all.
	filter func(string) bool
}

// ruleSet is the ordered extraction rules for one language kind.
type ruleSet struct {
	functions []rule
	imports   []rule
	exports   []rule
}

// Extraction is the result of running the rule set for one file.
type Extraction struct {
	Functions []string
	Imports   []string
	Exports   []string
}

// Extractor dispatches on language kind to the matching rule set.
type Extractor struct {
	rules map[types.LanguageKind]*ruleSet
}

// reserved words that look like method declarations in script sources
var scriptReserved = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "typeof": true,
	"new": true, "do": true, "else": true, "await": true, "yield": true,
}

func notScriptReserved(name string) bool {
	return !scriptReserved[name]
}

var scriptRules = &ruleSet{
	functions: []rule{
		{pattern: regexp.MustCompile(`(?m)(?:^|\s)(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)\s*\(`)},
		{pattern: regexp.MustCompile(`(?m)(?:^|\s)(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?(?:\([^)\n]*\)|[A-Za-z_$][\w$]*)\s*=>`)},
		{
			pattern: regexp.MustCompile(`(?m)^\s*(?:async\s+)?([A-Za-z_$][\w$]*)\s*\([^)\n]*\)\s*\{`),
			filter:  notScriptReserved,
		},
	},
	imports: []rule{
		{pattern: regexp.MustCompile(`(?m)^\s*import\s+(?:type\s+)?(?:[\w$*\s{},]+?\s+from\s+)?['"]([^'"\n]+)['"]`)},
		{pattern: regexp.MustCompile(`(?m)^\s*export\s+(?:[\w$*\s{},]+?\s+)?from\s+['"]([^'"\n]+)['"]`)},
		{pattern: regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)},
		{pattern: regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"\n]+)['"]\s*\)`)},
	},
	exports: []rule{
		{pattern: regexp.MustCompile(`(?m)^\s*export\s+(?:default\s+)?(?:abstract\s+)?(?:async\s+)?(?:function\s*\*?|class|const|let|var|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)},
		{pattern: regexp.MustCompile(`(?m)^\s*module\.exports\.([A-Za-z_$][\w$]*)\s*=`)},
	},
}

var indentRules = &ruleSet{
	functions: []rule{
		{pattern: regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+(\w+)\s*\(`)},
		{pattern: regexp.MustCompile(`(?m)^\s*class\s+(\w+)\s*[(:]`)},
	},
	imports: []rule{
		{pattern: regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`)},
		{pattern: regexp.MustCompile(`(?m)^\s*from\s+(\.*[\w.]+|\.+)\s+import\b`)},
	},
	exports: nil,
}

// export-block members need splitting, handled outside the plain rule loop
var scriptExportBlock = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]+)\}`)

// NewExtractor builds the per-kind rule table. Markup, style and data kinds
// carry no rules and always yield an empty extraction.
func NewExtractor() *Extractor {
	return &Extractor{
		rules: map[types.LanguageKind]*ruleSet{
			types.KindScript: scriptRules,
			types.KindIndent: indentRules,
		},
	}
}

// Extract runs the rule set for kind over content. Names are deduplicated
// preserving first occurrence; unknown kinds yield empty (non-nil) slices.
func (e *Extractor) Extract(content string, kind types.LanguageKind) Extraction {
	out := Extraction{
		Functions: []string{},
		Imports:   []string{},
		Exports:   []string{},
	}

	rs := e.rules[kind]
	if rs == nil {
		return out
	}

	out.Functions = applyRules(rs.functions, content)
	out.Imports = applyRules(rs.imports, content)
	out.Exports = applyRules(rs.exports, content)

	if kind == types.KindScript {
		out.Exports = appendUnique(out.Exports, exportBlockNames(content)...)
	}

	return out
}

func applyRules(rules []rule, content string) []string {
	names := []string{}
	for _, r := range rules {
		for _, m := range r.pattern.FindAllStringSubmatch(content, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			if r.filter != nil && !r.filter(name) {
				continue
			}
			names = appendUnique(names, name)
		}
	}
	return names
}

// exportBlockNames splits `export { a, b as c }` into member names,
// preferring the exported alias over the local name.
func exportBlockNames(content string) []string {
	var names []string
	for _, m := range scriptExportBlock.FindAllStringSubmatch(content, -1) {
		for _, member := range strings.Split(m[1], ",") {
			member = strings.TrimSpace(member)
			if member == "" {
				continue
			}
			if idx := strings.Index(member, " as "); idx >= 0 {
				member = strings.TrimSpace(member[idx+4:])
			}
			names = append(names, member)
		}
	}
	return names
}

func appendUnique(dst []string, names ...string) []string {
	for _, name := range names {
		seen := false
		for _, existing := range dst {
			if existing == name {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, name)
		}
	}
	return dst
}
