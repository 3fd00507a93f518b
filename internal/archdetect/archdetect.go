// Package archdetect labels a project with architecture patterns using
// path-based heuristics. Predicates run in a fixed order over lower-cased
// paths; labels are independent and may co-occur. Absence of indicators
// yields an empty list, never an error.
package archdetect

import (
	"path/filepath"
	"strings"

	"github.com/codescope/codescope/internal/discovery"
	"github.com/codescope/codescope/internal/types"
)

// Architecture pattern labels, emitted in declaration order.
const (
	LabelComponent = "Component Architecture"
	LabelMVC       = "MVC Pattern"
	LabelLayered   = "Layered Architecture"
	LabelService   = "Service Layer"
	LabelAPI       = "API Layer"
	LabelTested    = "Test Coverage"
	LabelMonorepo  = "Monorepo Structure"
	LabelUtility   = "Utility Modules"
)

// Detector evaluates the predicate list over a file set.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// pathFacts is the lower-cased view of the file set the predicates read.
type pathFacts struct {
	paths    []string        // full lower-cased slash paths
	segments map[string]bool // lower-cased path segments (dirs and file names)
	hasTests bool
}

type predicate struct {
	label string
	match func(*pathFacts) bool
}

var predicates = []predicate{
	{LabelComponent, func(f *pathFacts) bool {
		return f.segments["components"] || f.segments["component"] || f.anyContains("component")
	}},
	{LabelMVC, func(f *pathFacts) bool {
		return f.anyContains("model") && f.anyContains("view") && f.anyContains("controller")
	}},
	{LabelLayered, func(f *pathFacts) bool {
		layers := 0
		for _, layer := range []string{"controller", "service", "repository", "model"} {
			if f.segments[layer] || f.segments[layer+"s"] {
				layers++
			}
		}
		return layers >= 2
	}},
	{LabelService, func(f *pathFacts) bool {
		return f.segments["services"] || f.segments["service"] || f.anyContains("service")
	}},
	{LabelAPI, func(f *pathFacts) bool {
		return f.segments["api"] || f.segments["apis"] || f.segments["routes"] || f.segments["endpoints"]
	}},
	{LabelTested, func(f *pathFacts) bool {
		return f.hasTests
	}},
	{LabelMonorepo, func(f *pathFacts) bool {
		return f.segments["packages"] || f.segments["apps"]
	}},
	{LabelUtility, func(f *pathFacts) bool {
		return f.segments["utils"] || f.segments["util"] || f.segments["helpers"] || f.segments["lib"]
	}},
}

func (f *pathFacts) anyContains(substr string) bool {
	for _, p := range f.paths {
		if strings.Contains(p, substr) {
			return true
		}
	}
	return false
}

// Detect returns the matching labels in declaration order. Paths are
// considered relative to root so segments above the project never match.
func (d *Detector) Detect(root string, files []types.FileAnalysis) []string {
	facts := &pathFacts{segments: make(map[string]bool)}

	for _, file := range files {
		rel := file.Path
		if r, err := filepath.Rel(root, file.Path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
		lower := strings.ToLower(filepath.ToSlash(rel))
		facts.paths = append(facts.paths, lower)
		for _, segment := range strings.Split(lower, "/") {
			facts.segments[segment] = true
		}
		if !facts.hasTests && discovery.IsTestFile(file.Path) {
			facts.hasTests = true
		}
	}

	labels := []string{}
	for _, p := range predicates {
		if p.match(facts) {
			labels = append(labels, p.label)
		}
	}
	return labels
}
