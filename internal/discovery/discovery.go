// Package discovery walks a project tree and returns the analyzable source
// files. Exclusion patterns use doublestar globs matched against the path
// relative to the root (forward slashes). A missing or unreadable root is
// fatal; errors below the root are skipped so one bad subtree never aborts
// the walk.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codescope/codescope/internal/debug"
	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

// DefaultExcludePatterns removes VCS metadata, dependency caches, build
// output and coverage artifacts from every walk.
var DefaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/.svn/**",
	"**/.hg/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/coverage/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/venv/**",
	"**/.next/**",
	"**/.nuxt/**",
	"**/vendor/**",
	"**/.cache/**",
	"**/.pytest_cache/**",
	"**/.mypy_cache/**",
	"**/*.min.js",
	"**/*.min.css",
}

// testDirSegments are path segments that mark test trees.
var testDirSegments = map[string]bool{
	"test":      true,
	"tests":     true,
	"__tests__": true,
	"spec":      true,
}

// Discovery finds source files under a project root.
type Discovery struct{}

// New creates a Discovery.
func New() *Discovery {
	return &Discovery{}
}

// Discover returns the deduplicated, sorted absolute paths of all analyzable
// files under root. The config's Languages list narrows the extension set,
// IgnorePatterns extend the default exclusions, and IncludeTests controls
// whether test files and test directories are kept.
func (d *Discovery) Discover(ctx context.Context, root string, cfg types.AnalysisConfig) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, scoperrors.NewPathNotFound(root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, scoperrors.NewPathNotFound(absRoot, err)
	}
	if !info.IsDir() {
		return nil, scoperrors.NewPathNotFound(absRoot, os.ErrInvalid)
	}

	extensions := allowedExtensions(cfg.Languages)
	excludes := make([]string, 0, len(DefaultExcludePatterns)+len(cfg.IgnorePatterns))
	excludes = append(excludes, DefaultExcludePatterns...)
	excludes = append(excludes, cfg.IgnorePatterns...)

	seen := make(map[string]bool)
	var files []string

	walkErr := filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == absRoot {
				return err
			}
			debug.LogDiscovery("skipping %s: %v\n", path, err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path == absRoot {
				return nil
			}
			if excluded(excludes, rel+"/") || excluded(excludes, rel) {
				return filepath.SkipDir
			}
			if !cfg.IncludeTests && testDirSegments[strings.ToLower(entry.Name())] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := types.ExtensionOf(path)
		if !extensions[ext] {
			return nil
		}
		if excluded(excludes, rel) {
			return nil
		}
		if !cfg.IncludeTests && IsTestFile(path) {
			return nil
		}

		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, scoperrors.NewCancelled("discover", walkErr)
		}
		return nil, scoperrors.NewPathNotFound(absRoot, walkErr)
	}

	sort.Strings(files)
	debug.LogDiscovery("found %d files under %s\n", len(files), absRoot)
	return files, nil
}

// IsTestFile reports whether a file is test-named by convention:
// *.test.*, *.spec.*, test_*.py, *_test.py, or inside a test directory.
func IsTestFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	if strings.Contains(name, ".test.") || strings.Contains(name, ".spec.") {
		return true
	}
	if strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py") {
		return true
	}
	for _, segment := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if testDirSegments[strings.ToLower(segment)] {
			return true
		}
	}
	return false
}

func excluded(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
	}
	return false
}

// allowedExtensions builds the extension set, narrowed by the languages
// allow-list when present. Entries may be extensions ("ts") or family names
// ("python", "javascript").
func allowedExtensions(languages []string) map[string]bool {
	all := make(map[string]bool)
	for _, ext := range types.KnownExtensions() {
		all[ext] = true
	}
	if len(languages) == 0 {
		return all
	}

	allowed := make(map[string]bool)
	for _, lang := range languages {
		lang = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(lang), "."))
		switch lang {
		case "javascript":
			for _, ext := range []string{"js", "jsx", "mjs", "cjs"} {
				allowed[ext] = true
			}
		case "typescript":
			allowed["ts"] = true
			allowed["tsx"] = true
		case "python":
			allowed["py"] = true
		default:
			if all[lang] {
				allowed[lang] = true
			}
		}
	}
	return allowed
}
