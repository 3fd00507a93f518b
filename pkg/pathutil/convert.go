// Package pathutil provides utilities for converting between absolute and relative paths.
//
// The pipeline uses absolute paths internally for consistency and to avoid ambiguity.
// User-facing output uses relative paths for readability and portability; this package
// is the conversion layer between the two representations.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/codescope/codescope/internal/types"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.js", "/home/user/project") → "src/main.js"
//   - ToRelative("/other/location/file.js", "/home/user/project") → "/other/location/file.js" (outside root)
//   - ToRelative("src/main.js", "/home/user/project") → "src/main.js" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A ".." prefix means the file is outside the root; the absolute path is clearer
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToAbsolute resolves a possibly relative path against a root directory.
func ToAbsolute(path, rootDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(rootDir, path))
}

// ToRelativeFiles converts paths in a FileAnalysis slice from absolute to relative.
// Creates a new slice without modifying the original records.
//
// Intended for output boundaries where results are displayed to users:
//   - CLI analyze output
//   - JSON serialization
//   - MCP server responses
func ToRelativeFiles(files []types.FileAnalysis, rootDir string) []types.FileAnalysis {
	if len(files) == 0 {
		return files
	}

	converted := make([]types.FileAnalysis, len(files))
	copy(converted, files)

	for i := range converted {
		converted[i].Path = ToRelative(converted[i].Path, rootDir)
	}

	return converted
}

// ToRelativeTodos converts file paths in a TodoComment slice from absolute to
// relative. Creates a new slice without modifying the original records.
func ToRelativeTodos(todos []types.TodoComment, rootDir string) []types.TodoComment {
	if len(todos) == 0 {
		return todos
	}

	converted := make([]types.TodoComment, len(todos))
	copy(converted, todos)

	for i := range converted {
		converted[i].File = ToRelative(converted[i].File, rootDir)
	}

	return converted
}
