// Package metrics aggregates per-file analysis records into project totals
// and derived quality reports. All outputs are deterministic for a given
// input set regardless of file order.
package metrics

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codescope/codescope/internal/discovery"
	"github.com/codescope/codescope/internal/types"
)

// sourceTypes are the extensions counted as testable source in the
// coverage heuristic.
var sourceTypes = map[string]bool{
	"js": true, "jsx": true, "ts": true, "tsx": true,
	"mjs": true, "cjs": true, "py": true,
}

// Calculator computes project metrics and derived reports.
type Calculator struct{}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate builds the ProjectMetrics for a set of file records.
// AvgLinesPerFile is always TotalLines/TotalFiles (0 for an empty set);
// AvgComplexity averages only files where complexity was computed.
func (c *Calculator) Calculate(files []types.FileAnalysis) types.ProjectMetrics {
	m := types.ProjectMetrics{Languages: []string{}}
	m.TotalFiles = len(files)

	languages := make(map[string]bool)
	complexitySum := 0
	complexityCount := 0

	for _, f := range files {
		m.TotalLines += f.LinesOfCode
		m.TotalFunctions += len(f.Functions)
		languages[f.Type] = true
		if f.Complexity > 0 {
			complexitySum += f.Complexity
			complexityCount++
		}
	}

	if m.TotalFiles > 0 {
		m.AvgLinesPerFile = round2(float64(m.TotalLines) / float64(m.TotalFiles))
	}
	if complexityCount > 0 {
		m.AvgComplexity = round2(float64(complexitySum) / float64(complexityCount))
	}

	for lang := range languages {
		m.Languages = append(m.Languages, lang)
	}
	sort.Strings(m.Languages)

	m.TestCoverage = c.TestCoverage(files)
	return m
}

// TestCoverage estimates the percentage of source files that have a matching
// test file. A source file counts as tested when any test file's base name
// contains the source file's base name. Returns 0 when there are no source
// files.
func (c *Calculator) TestCoverage(files []types.FileAnalysis) float64 {
	var sourceBases []string
	var testBases []string

	for _, f := range files {
		base := baseName(f.Path)
		if discovery.IsTestFile(f.Path) {
			testBases = append(testBases, base)
		} else if sourceTypes[f.Type] {
			sourceBases = append(sourceBases, base)
		}
	}

	if len(sourceBases) == 0 {
		return 0
	}

	tested := 0
	for _, src := range sourceBases {
		for _, test := range testBases {
			if strings.Contains(test, src) {
				tested++
				break
			}
		}
	}

	return math.Round(float64(tested) / float64(len(sourceBases)) * 100)
}

// SizeDistribution buckets files by line count.
type SizeDistribution struct {
	Small  int `json:"small"`  // < 100 lines
	Medium int `json:"medium"` // < 500 lines
	Large  int `json:"large"`  // < 1000 lines
	Huge   int `json:"huge"`
}

// Distribution returns the line-count histogram for a set of files.
func (c *Calculator) Distribution(files []types.FileAnalysis) SizeDistribution {
	var d SizeDistribution
	for _, f := range files {
		switch {
		case f.LinesOfCode < 100:
			d.Small++
		case f.LinesOfCode < 500:
			d.Medium++
		case f.LinesOfCode < 1000:
			d.Large++
		default:
			d.Huge++
		}
	}
	return d
}

// debt weights per annotation kind
var debtWeights = map[types.TodoKind]float64{
	types.TodoFIXME: 3,
	types.TodoTODO:  2,
	types.TodoHACK:  1,
	types.TodoNOTE:  0.5,
}

// TechnicalDebtIndex scores annotation load plus complexity and size overage,
// averaged over the files that carry annotations. 0 when no file has any.
func (c *Calculator) TechnicalDebtIndex(files []types.FileAnalysis) float64 {
	total := 0.0
	flagged := 0

	for _, f := range files {
		if len(f.Todos) == 0 {
			continue
		}
		flagged++

		score := 0.0
		for _, todo := range f.Todos {
			score += debtWeights[todo.Kind]
		}
		if f.Complexity > 20 {
			score += float64(f.Complexity-20) * 0.1
		}
		if f.LinesOfCode > 500 {
			score += float64(f.LinesOfCode-500) * 0.01
		}
		total += score
	}

	if flagged == 0 {
		return 0
	}
	return round2(total / float64(flagged))
}

// QualityScore is 100 minus debt and missing-coverage penalties, floored at 0.
func (c *Calculator) QualityScore(files []types.FileAnalysis) float64 {
	score := 100.0
	score -= c.TechnicalDebtIndex(files) * 2
	score -= (100 - c.TestCoverage(files)) * 0.3
	if score < 0 {
		score = 0
	}
	return round2(score)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
