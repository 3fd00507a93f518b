// Package analyzer contains the per-file analyzer, the bounded-concurrency
// batch runner, and the ProjectAnalyzer facade that ties discovery,
// extraction, aggregation and caching together.
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/codescope/codescope/internal/complexity"
	"github.com/codescope/codescope/internal/debug"
	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/patterns"
	"github.com/codescope/codescope/internal/types"
)

// FileAnalyzer produces one FileAnalysis per file. Depth controls how much
// work is done: basic stops at size and line counts, medium adds pattern
// extraction, deep adds the complexity estimate.
type FileAnalyzer struct {
	extractor   *patterns.Extractor
	estimator   *complexity.Estimator
	maxFileSize int64
}

// NewFileAnalyzer creates a FileAnalyzer with the given size cap.
// Non-positive caps fall back to the default.
func NewFileAnalyzer(maxFileSize int64) *FileAnalyzer {
	if maxFileSize <= 0 {
		maxFileSize = types.DefaultMaxFileSize
	}
	return &FileAnalyzer{
		extractor:   patterns.NewExtractor(),
		estimator:   complexity.NewEstimator(),
		maxFileSize: maxFileSize,
	}
}

// Analyze builds the record for one file. A file qualifies for content
// analysis when its extension maps to a known text kind and its size is
// within the cap; non-qualifying files get a normal zero-valued record.
// Read and extraction failures on a qualifying file are logged and yield
// the partial record. The returned error is non-nil only for stat failures
// and context cancellation.
func (a *FileAnalyzer) Analyze(ctx context.Context, path string, depth types.AnalysisDepth) (types.FileAnalysis, error) {
	record := types.FileAnalysis{
		Path:      path,
		Name:      filepath.Base(path),
		Type:      types.ExtensionOf(path),
		Functions: []string{},
		Imports:   []string{},
		Exports:   []string{},
		Todos:     []types.TodoComment{},
	}

	info, err := os.Stat(path)
	if err != nil {
		return record, scoperrors.NewFileError("stat", path, err)
	}
	record.Size = info.Size()

	kind := types.KindForPath(path)
	if kind == types.KindUnknown || record.Size > a.maxFileSize {
		return record, nil
	}

	if err := ctx.Err(); err != nil {
		return record, scoperrors.NewCancelled("analyze_file", err).WithPath(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		debug.LogAnalysis("read failed for %s: %v\n", path, err)
		return record, nil
	}
	content := string(raw)

	record.LinesOfCode = countNonBlankLines(content)

	if depth.AtLeast(types.DepthMedium) {
		extraction := a.extractor.Extract(content, kind)
		record.Functions = extraction.Functions
		record.Imports = extraction.Imports
		record.Exports = extraction.Exports
		record.Todos = patterns.ScanTodos(content)
	}

	if depth.AtLeast(types.DepthDeep) {
		record.Complexity = a.estimator.Estimate(content)
	}

	return record, nil
}

func countNonBlankLines(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
