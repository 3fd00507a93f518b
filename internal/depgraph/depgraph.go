// Package depgraph builds the project dependency edge list from per-file
// import and export inventories. Edges are emitted in file order with no
// deduplication, no cycle detection and no specifier resolution; the To
// field of an import edge is the raw module specifier.
package depgraph

import "github.com/codescope/codescope/internal/types"

// Builder assembles dependency edges.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns one import edge per import entry and one export edge per
// export entry, preserving the order of files and of entries within a file.
func (b *Builder) Build(files []types.FileAnalysis) []types.DependencyEdge {
	edges := []types.DependencyEdge{}

	for _, file := range files {
		for _, imp := range file.Imports {
			edges = append(edges, types.DependencyEdge{
				From: file.Path,
				To:   imp,
				Type: types.EdgeImport,
			})
		}
		for _, exp := range file.Exports {
			edges = append(edges, types.DependencyEdge{
				From: file.Path,
				To:   exp,
				Type: types.EdgeExport,
			})
		}
	}

	return edges
}
