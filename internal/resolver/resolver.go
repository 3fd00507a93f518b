// Package resolver maps import specifiers to files under a project root on a
// best-effort basis. Resolution is optional enrichment over the raw edge
// list: an unresolvable specifier yields a binding with an empty Resolved
// path, never an error.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/codescope/codescope/internal/types"
)

// scriptExtensions are tried in order when a script specifier has no
// extension. Directory specifiers fall back to an index file.
var scriptExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".json"}

// aliasBases are the directories an "@/" or "~/" alias is tried against,
// relative to the project root.
var aliasBases = []string{"", "src", "app"}

// Binding pairs a specifier with the file it resolved to, if any.
type Binding struct {
	Specifier string `json:"specifier"`
	Resolved  string `json:"resolved,omitempty"`
}

// Resolver resolves specifiers for one project root.
type Resolver struct {
	root string
}

// New creates a Resolver for root.
func New(root string) *Resolver {
	return &Resolver{root: filepath.Clean(root)}
}

// Resolve maps one specifier imported by fromFile. The language rules are
// chosen from the importing file's kind.
func (r *Resolver) Resolve(fromFile, specifier string) Binding {
	binding := Binding{Specifier: specifier}

	switch types.KindForPath(fromFile) {
	case types.KindIndent:
		binding.Resolved = r.resolvePython(fromFile, specifier)
	case types.KindScript:
		binding.Resolved = r.resolveScript(fromFile, specifier)
	}

	return binding
}

// ResolveAll maps every specifier imported by fromFile, preserving order.
func (r *Resolver) ResolveAll(fromFile string, specifiers []string) []Binding {
	bindings := make([]Binding, 0, len(specifiers))
	for _, spec := range specifiers {
		bindings = append(bindings, r.Resolve(fromFile, spec))
	}
	return bindings
}

// resolvePython handles dotted module paths. Absolute paths resolve against
// the root; leading dots resolve against the importing file's package, one
// extra dot per parent level.
func (r *Resolver) resolvePython(fromFile, specifier string) string {
	if specifier == "" {
		return ""
	}

	if strings.HasPrefix(specifier, ".") {
		dots := 0
		for dots < len(specifier) && specifier[dots] == '.' {
			dots++
		}
		base := filepath.Dir(fromFile)
		for i := 1; i < dots; i++ {
			base = filepath.Dir(base)
		}
		remainder := specifier[dots:]
		if remainder == "" {
			return r.existing(filepath.Join(base, "__init__.py"))
		}
		return r.pythonModule(base, remainder)
	}

	return r.pythonModule(r.root, specifier)
}

// pythonModule tries base/a/b.py then package base/a/b/__init__.py.
func (r *Resolver) pythonModule(base, dotted string) string {
	rel := filepath.Join(strings.Split(dotted, ".")...)
	if p := r.existing(filepath.Join(base, rel+".py")); p != "" {
		return p
	}
	return r.existing(filepath.Join(base, rel, "__init__.py"))
}

// resolveScript handles relative and aliased specifiers. Bare module names
// (package imports) are never resolved.
func (r *Resolver) resolveScript(fromFile, specifier string) string {
	switch {
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || specifier == "." || specifier == "..":
		target := filepath.Join(filepath.Dir(fromFile), specifier)
		return r.scriptTarget(target)

	case strings.HasPrefix(specifier, "@/") || strings.HasPrefix(specifier, "~/"):
		trimmed := specifier[2:]
		for _, base := range aliasBases {
			if p := r.scriptTarget(filepath.Join(r.root, base, trimmed)); p != "" {
				return p
			}
		}
		return ""

	default:
		return ""
	}
}

// scriptTarget tries the path itself, then with each extension appended,
// then as a directory with an index file.
func (r *Resolver) scriptTarget(target string) string {
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return filepath.Clean(target)
	}

	for _, ext := range scriptExtensions {
		if p := r.existing(target + ext); p != "" {
			return p
		}
	}

	for _, ext := range scriptExtensions {
		if p := r.existing(filepath.Join(target, "index"+ext)); p != "" {
			return p
		}
	}

	return ""
}

// existing returns the cleaned path when it names a regular file.
func (r *Resolver) existing(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return filepath.Clean(path)
}
