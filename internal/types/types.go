// Package types defines the shared data model for the analysis pipeline.
// All records are immutable once constructed; aggregation stages read them
// concurrently without locking.
package types

import (
	"path/filepath"
	"strings"
)

// Default limits applied when the caller does not configure them.
const (
	// DefaultMaxFileSize is the largest file (in bytes) read for deep analysis.
	DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

	// QuickStatsSampleSize bounds the number of files sampled by QuickStats.
	QuickStatsSampleSize = 100
)

// AnalysisDepth controls how much work FileAnalyzer does per file.
type AnalysisDepth string

const (
	DepthBasic  AnalysisDepth = "basic"  // size and line counts only
	DepthMedium AnalysisDepth = "medium" // + functions, imports, exports, todos
	DepthDeep   AnalysisDepth = "deep"   // + complexity estimate
)

// ParseDepth normalizes a user-supplied depth string, falling back to medium.
func ParseDepth(s string) AnalysisDepth {
	switch AnalysisDepth(strings.ToLower(strings.TrimSpace(s))) {
	case DepthBasic:
		return DepthBasic
	case DepthDeep:
		return DepthDeep
	default:
		return DepthMedium
	}
}

// Valid reports whether the depth is one of the three known levels.
func (d AnalysisDepth) Valid() bool {
	return d == DepthBasic || d == DepthMedium || d == DepthDeep
}

// AtLeast reports whether d includes all work done at level other.
func (d AnalysisDepth) AtLeast(other AnalysisDepth) bool {
	return d.rank() >= other.rank()
}

func (d AnalysisDepth) rank() int {
	switch d {
	case DepthBasic:
		return 0
	case DepthDeep:
		return 2
	default:
		return 1
	}
}

// LanguageKind groups file extensions into families that share extraction
// rules. Dispatch is by enum value, never by re-inspecting the extension.
type LanguageKind uint8

const (
	KindUnknown LanguageKind = iota
	KindScript               // js, ts, jsx, tsx, mjs, cjs
	KindIndent               // python
	KindMarkup               // html
	KindStyle                // css, scss, sass, less
	KindData                 // json, yaml
)

// String returns the kind name used in logs.
func (k LanguageKind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindIndent:
		return "indent"
	case KindMarkup:
		return "markup"
	case KindStyle:
		return "style"
	case KindData:
		return "data"
	default:
		return "unknown"
	}
}

var kindByExtension = map[string]LanguageKind{
	"js":   KindScript,
	"jsx":  KindScript,
	"ts":   KindScript,
	"tsx":  KindScript,
	"mjs":  KindScript,
	"cjs":  KindScript,
	"py":   KindIndent,
	"html": KindMarkup,
	"htm":  KindMarkup,
	"css":  KindStyle,
	"scss": KindStyle,
	"sass": KindStyle,
	"less": KindStyle,
	"json": KindData,
	"yaml": KindData,
	"yml":  KindData,
}

// KindForExtension maps a lowercase extension (without dot) to its kind.
func KindForExtension(ext string) LanguageKind {
	return kindByExtension[strings.ToLower(ext)]
}

// KindForPath maps a file path to its language kind.
func KindForPath(path string) LanguageKind {
	return KindForExtension(ExtensionOf(path))
}

// ExtensionOf returns the lowercase extension without the leading dot, or
// "unknown" for files with no extension.
func ExtensionOf(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "unknown"
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// KnownExtensions returns the full set of analyzable extensions.
func KnownExtensions() []string {
	out := make([]string, 0, len(kindByExtension))
	for ext := range kindByExtension {
		out = append(out, ext)
	}
	return out
}

// TodoKind is the annotation marker found in a comment.
type TodoKind string

const (
	TodoTODO  TodoKind = "TODO"
	TodoFIXME TodoKind = "FIXME"
	TodoHACK  TodoKind = "HACK"
	TodoNOTE  TodoKind = "NOTE"
)

// TodoComment is one TODO-style annotation. File is empty on the per-file
// record and filled in when the comment is flattened to project level.
type TodoComment struct {
	Kind    TodoKind `json:"type"`
	Content string   `json:"content"`
	Line    int      `json:"line"`
	File    string   `json:"file,omitempty"`
}

// FileAnalysis holds the structural facts extracted from a single file.
// Functions, Imports and Exports are deduplicated; Complexity is >= 1
// whenever it was computed (deep analysis of a qualifying file).
type FileAnalysis struct {
	Path        string        `json:"path"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	Size        int64         `json:"size"`
	LinesOfCode int           `json:"linesOfCode"`
	Functions   []string      `json:"functions"`
	Imports     []string      `json:"imports"`
	Exports     []string      `json:"exports"`
	Todos       []TodoComment `json:"todos"`
	Complexity  int           `json:"complexity"`
}

// DependencyEdgeType distinguishes the two edge flavors in the graph.
type DependencyEdgeType string

const (
	EdgeImport DependencyEdgeType = "import"
	EdgeExport DependencyEdgeType = "export"
)

// DependencyEdge is one directed fact in the dependency graph. To may be a
// module specifier rather than a resolved file path.
type DependencyEdge struct {
	From string             `json:"from"`
	To   string             `json:"to"`
	Type DependencyEdgeType `json:"type"`
}

// ProjectMetrics aggregates file records into project totals and averages.
// AvgLinesPerFile is always TotalLines/TotalFiles (0 for empty projects).
type ProjectMetrics struct {
	TotalFiles      int      `json:"totalFiles"`
	TotalLines      int      `json:"totalLines"`
	TotalFunctions  int      `json:"totalFunctions"`
	AvgLinesPerFile float64  `json:"avgLinesPerFile"`
	AvgComplexity   float64  `json:"avgComplexity"`
	Languages       []string `json:"languages"`
	TestCoverage    float64  `json:"testCoverage"`
}

// ProjectAnalysis is the complete result for one tree. Constructed atomically
// at the end of a run and cached as an immutable snapshot.
type ProjectAnalysis struct {
	ProjectPath          string           `json:"projectPath"`
	Files                []FileAnalysis   `json:"files"`
	Dependencies         []DependencyEdge `json:"dependencies"`
	Metrics              ProjectMetrics   `json:"metrics"`
	ArchitecturePatterns []string         `json:"architecturePatterns"`
	Todos                []TodoComment    `json:"todos"`
}

// QuickStats is a cheap bounded-sample summary of a project.
type QuickStats struct {
	FileCount          int      `json:"fileCount"`
	Languages          []string `json:"languages"`
	EstimatedSizeBytes int64    `json:"estimatedSizeBytes"`
}

// AnalysisConfig is supplied by the caller and read-only during a run.
// IncludeTests and Depth participate in the cache key.
type AnalysisConfig struct {
	IncludeTests   bool          `json:"includeTests" toml:"include_tests"`
	Depth          AnalysisDepth `json:"analysisDepth" toml:"analysis_depth"`
	Languages      []string      `json:"languages,omitempty" toml:"languages"`
	IgnorePatterns []string      `json:"ignorePatterns,omitempty" toml:"ignore_patterns"`
	MaxFileSize    int64         `json:"maxFileSize" toml:"max_file_size"`
}

// DefaultAnalysisConfig returns the documented defaults: tests excluded,
// medium depth, 1 MiB size cap, no extra ignore patterns.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		IncludeTests: false,
		Depth:        DepthMedium,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// Normalized returns a copy with zero values replaced by defaults.
func (c AnalysisConfig) Normalized() AnalysisConfig {
	out := c
	if !out.Depth.Valid() {
		out.Depth = DepthMedium
	}
	if out.MaxFileSize <= 0 {
		out.MaxFileSize = DefaultMaxFileSize
	}
	return out
}
