package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "src/app.js", "console.log('app');")
	writeFile(t, root, "src/style.css", "body {}")
	writeFile(t, root, "server/main.py", "print('hi')")
	writeFile(t, root, "node_modules/lib/index.js", "module.exports = {};")
	writeFile(t, root, "dist/bundle.js", "var x;")
	writeFile(t, root, "tests/app.test.js", "test();")
	writeFile(t, root, "src/app.spec.ts", "spec();")
	writeFile(t, root, "README.md", "# readme")
	return root
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestDiscover_DefaultsExcludeDependenciesBuildAndTests(t *testing.T) {
	root := fixtureProject(t)

	files, err := New().Discover(context.Background(), root, types.DefaultAnalysisConfig())
	require.NoError(t, err)

	got := relPaths(t, root, files)
	assert.Equal(t, []string{"server/main.py", "src/app.js", "src/style.css"}, got)
}

func TestDiscover_IncludeTests(t *testing.T) {
	root := fixtureProject(t)

	cfg := types.DefaultAnalysisConfig()
	cfg.IncludeTests = true

	files, err := New().Discover(context.Background(), root, cfg)
	require.NoError(t, err)

	got := relPaths(t, root, files)
	assert.Contains(t, got, "tests/app.test.js")
	assert.Contains(t, got, "src/app.spec.ts")
	assert.NotContains(t, got, "node_modules/lib/index.js")
}

func TestDiscover_LanguageFilter(t *testing.T) {
	root := fixtureProject(t)

	cfg := types.DefaultAnalysisConfig()
	cfg.Languages = []string{"python"}

	files, err := New().Discover(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"server/main.py"}, relPaths(t, root, files))
}

func TestDiscover_IgnorePatterns(t *testing.T) {
	root := fixtureProject(t)

	cfg := types.DefaultAnalysisConfig()
	cfg.IgnorePatterns = []string{"**/src/**"}

	files, err := New().Discover(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"server/main.py"}, relPaths(t, root, files))
}

func TestDiscover_MissingRootIsFatal(t *testing.T) {
	_, err := New().Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), types.DefaultAnalysisConfig())
	require.Error(t, err)
	assert.True(t, scoperrors.IsPathNotFound(err))
}

func TestDiscover_RootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "single.js", "let x;")

	_, err := New().Discover(context.Background(), file, types.DefaultAnalysisConfig())
	require.Error(t, err)
	assert.True(t, scoperrors.IsPathNotFound(err))
}

func TestDiscover_ResultsAreAbsoluteAndSorted(t *testing.T) {
	root := fixtureProject(t)

	files, err := New().Discover(context.Background(), root, types.DefaultAnalysisConfig())
	require.NoError(t, err)

	assert.True(t, sort.StringsAreSorted(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "expected absolute path, got %s", f)
	}
}

func TestIsTestFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/app.test.js", true},
		{"src/app.spec.ts", true},
		{"tests/helper.py", true},
		{"pkg/test_utils.py", true},
		{"pkg/utils_test.py", true},
		{"src/app.js", false},
		{"src/contest.js", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTestFile(tt.path), tt.path)
	}
}
