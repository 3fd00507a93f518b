package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/discovery"
	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

func fixtureProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"src/app.js":        "// TODO: wire router\nimport util from './util';\nexport function main() {\n  if (ready && ok) {}\n}\n",
		"src/util.js":       "export const helper = () => 1;\n",
		"server/api.py":     "import os\n\ndef handle():\n    pass\n",
		"src/style.css":     "body { margin: 0; }\n",
		"tests/app.spec.js": "main();\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// countingDiscover wraps real discovery with an invocation counter.
func countingDiscover(t *testing.T, calls *atomic.Int64, delay time.Duration) DiscoverFunc {
	t.Helper()
	real := discovery.New()
	return func(ctx context.Context, root string, cfg types.AnalysisConfig) ([]string, error) {
		calls.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return real.Discover(ctx, root, cfg)
	}
}

func TestAnalyze_FullPipeline(t *testing.T) {
	root := fixtureProject(t)
	pa := NewProjectAnalyzer()

	cfg := types.DefaultAnalysisConfig()
	cfg.Depth = types.DepthDeep

	analysis, err := pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, root, analysis.ProjectPath)
	assert.Len(t, analysis.Files, 4, "tests are excluded by default")
	assert.Equal(t, 4, analysis.Metrics.TotalFiles)
	assert.Equal(t, []string{"css", "js", "py"}, analysis.Metrics.Languages)

	// flattened annotations carry their file path
	require.Len(t, analysis.Todos, 1)
	assert.Equal(t, types.TodoTODO, analysis.Todos[0].Kind)
	assert.Equal(t, filepath.Join(root, "src", "app.js"), analysis.Todos[0].File)

	// the dependency graph carries raw specifiers
	var importTargets []string
	for _, edge := range analysis.Dependencies {
		if edge.Type == types.EdgeImport {
			importTargets = append(importTargets, edge.To)
		}
	}
	assert.Contains(t, importTargets, "./util")
	assert.Contains(t, importTargets, "os")
}

func TestAnalyze_CacheSkipsDiscovery(t *testing.T) {
	root := fixtureProject(t)

	var calls atomic.Int64
	pa := NewProjectAnalyzer(WithDiscoverFunc(countingDiscover(t, &calls, 0)))

	cfg := types.DefaultAnalysisConfig()

	first, err := pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)
	second, err := pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load(), "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestAnalyze_ConfigChangesBypassCache(t *testing.T) {
	root := fixtureProject(t)

	var calls atomic.Int64
	pa := NewProjectAnalyzer(WithDiscoverFunc(countingDiscover(t, &calls, 0)))

	cfg := types.DefaultAnalysisConfig()
	_, err := pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)

	cfg.IncludeTests = true
	_, err = pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestAnalyze_SingleFlight(t *testing.T) {
	root := fixtureProject(t)

	var calls atomic.Int64
	pa := NewProjectAnalyzer(WithDiscoverFunc(countingDiscover(t, &calls, 100*time.Millisecond)))

	cfg := types.DefaultAnalysisConfig()

	const concurrent = 8
	var wg sync.WaitGroup
	errs := make([]error, concurrent)

	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = pa.Analyze(context.Background(), root, cfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), calls.Load(), "identical concurrent requests share one execution")
}

func TestAnalyze_TTLExpiryForcesReanalysis(t *testing.T) {
	root := fixtureProject(t)

	var calls atomic.Int64
	pa := NewProjectAnalyzer(
		WithDiscoverFunc(countingDiscover(t, &calls, 0)),
		WithCache(cache.New(30*time.Millisecond, cache.DefaultMaxEntries)),
	)

	cfg := types.DefaultAnalysisConfig()
	_, err := pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = pa.Analyze(context.Background(), root, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClearCache_PerProject(t *testing.T) {
	rootA := fixtureProject(t)
	rootB := fixtureProject(t)

	var calls atomic.Int64
	pa := NewProjectAnalyzer(WithDiscoverFunc(countingDiscover(t, &calls, 0)))
	cfg := types.DefaultAnalysisConfig()

	_, err := pa.Analyze(context.Background(), rootA, cfg)
	require.NoError(t, err)
	_, err = pa.Analyze(context.Background(), rootB, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, pa.ClearCache(rootA))

	_, err = pa.Analyze(context.Background(), rootA, cfg)
	require.NoError(t, err)
	_, err = pa.Analyze(context.Background(), rootB, cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(3), calls.Load(), "only the cleared project re-runs")
}

func TestAnalyze_MissingRoot(t *testing.T) {
	pa := NewProjectAnalyzer()

	_, err := pa.Analyze(context.Background(), filepath.Join(t.TempDir(), "gone"), types.DefaultAnalysisConfig())
	require.Error(t, err)
	assert.True(t, scoperrors.IsPathNotFound(err))
}

func TestAnalyzeWithProgress_ReachesHundred(t *testing.T) {
	root := fixtureProject(t)
	pa := NewProjectAnalyzer()

	var mu sync.Mutex
	var percents []float64

	_, err := pa.AnalyzeWithProgress(context.Background(), root, types.DefaultAnalysisConfig(), func(percent float64, _ string) {
		mu.Lock()
		percents = append(percents, percent)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NotEmpty(t, percents)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.Equal(t, 100.0, percents[len(percents)-1])

	// a cached run still reports completion
	percents = nil
	_, err = pa.AnalyzeWithProgress(context.Background(), root, types.DefaultAnalysisConfig(), func(percent float64, _ string) {
		mu.Lock()
		percents = append(percents, percent)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{100}, percents)
}

func TestAnalyzeFile_SingleFile(t *testing.T) {
	root := fixtureProject(t)
	pa := NewProjectAnalyzer()

	record, err := pa.AnalyzeFile(context.Background(), filepath.Join(root, "src", "app.js"), types.DepthDeep)
	require.NoError(t, err)
	assert.Equal(t, "app.js", record.Name)
	assert.GreaterOrEqual(t, record.Complexity, 1)

	_, err = pa.AnalyzeFile(context.Background(), filepath.Join(root, "nope.js"), types.DepthDeep)
	require.Error(t, err)
	assert.True(t, scoperrors.IsPathNotFound(err))
}

func TestResolveImports(t *testing.T) {
	root := fixtureProject(t)
	pa := NewProjectAnalyzer()

	bindings, err := pa.ResolveImports(context.Background(), root, filepath.Join(root, "src", "app.js"))
	require.NoError(t, err)
	require.Len(t, bindings, 1)

	assert.Equal(t, "./util", bindings[0].Specifier)
	assert.Equal(t, filepath.Join(root, "src", "util.js"), bindings[0].Resolved)

	// bare python imports stay unresolved
	bindings, err = pa.ResolveImports(context.Background(), root, filepath.Join(root, "server", "api.py"))
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "os", bindings[0].Specifier)
	assert.Empty(t, bindings[0].Resolved)

	_, err = pa.ResolveImports(context.Background(), root, filepath.Join(root, "nope.js"))
	require.Error(t, err)
	assert.True(t, scoperrors.IsPathNotFound(err))
}

func TestQuickStats(t *testing.T) {
	root := fixtureProject(t)
	pa := NewProjectAnalyzer()

	stats, err := pa.QuickStats(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.FileCount)
	assert.Equal(t, []string{"css", "js", "py"}, stats.Languages)
	assert.Greater(t, stats.EstimatedSizeBytes, int64(0))
}

func TestAnalyze_Cancelled(t *testing.T) {
	root := fixtureProject(t)
	pa := NewProjectAnalyzer()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pa.Analyze(ctx, root, types.DefaultAnalysisConfig())
	require.Error(t, err)
	assert.True(t, scoperrors.IsCancelled(err))
}
