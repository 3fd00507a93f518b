package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codescope/codescope/internal/archdetect"
	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/debug"
	"github.com/codescope/codescope/internal/depgraph"
	"github.com/codescope/codescope/internal/discovery"
	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/metrics"
	"github.com/codescope/codescope/internal/resolver"
	"github.com/codescope/codescope/internal/types"
	"github.com/codescope/codescope/internal/watcher"
)

// DiscoverFunc lists the analyzable files under a root. Swappable for tests.
type DiscoverFunc func(ctx context.Context, root string, cfg types.AnalysisConfig) ([]string, error)

// inflight is a shared execution of one cache key. Followers wait on done
// and read result/err afterwards.
type inflight struct {
	done   chan struct{}
	result types.ProjectAnalysis
	err    error
}

// ProjectAnalyzer is the service facade. It validates the root, consults the
// cache, collapses concurrent identical requests into one execution, runs
// the pipeline, and assembles the ProjectAnalysis snapshot.
type ProjectAnalyzer struct {
	discover DiscoverFunc
	cache    *cache.AnalysisCache
	calc     *metrics.Calculator
	detector *archdetect.Detector
	graph    *depgraph.Builder

	inflightMu sync.Mutex
	inflights  map[string]*inflight

	watcherMu     sync.Mutex
	watchers      map[string]*watcher.Watcher
	watchDebounce time.Duration
}

// Option configures a ProjectAnalyzer.
type Option func(*ProjectAnalyzer)

// WithCache replaces the default cache (useful for TTL control in tests).
func WithCache(c *cache.AnalysisCache) Option {
	return func(p *ProjectAnalyzer) { p.cache = c }
}

// WithDiscoverFunc replaces the file discovery step.
func WithDiscoverFunc(fn DiscoverFunc) Option {
	return func(p *ProjectAnalyzer) { p.discover = fn }
}

// WithWatchDebounce sets the quiet period for watchers started by
// WatchInvalidate.
func WithWatchDebounce(d time.Duration) Option {
	return func(p *ProjectAnalyzer) { p.watchDebounce = d }
}

// NewProjectAnalyzer creates the facade with default collaborators.
func NewProjectAnalyzer(opts ...Option) *ProjectAnalyzer {
	disc := discovery.New()
	p := &ProjectAnalyzer{
		discover:      disc.Discover,
		cache:         cache.New(cache.DefaultTTL, cache.DefaultMaxEntries),
		calc:          metrics.NewCalculator(),
		detector:      archdetect.NewDetector(),
		graph:         depgraph.NewBuilder(),
		inflights:     make(map[string]*inflight),
		watchers:      make(map[string]*watcher.Watcher),
		watchDebounce: watcher.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Analyze runs (or reuses) a full project analysis. Concurrent calls with
// the same root and config share one execution; a fresh cached snapshot is
// returned without re-running discovery.
func (p *ProjectAnalyzer) Analyze(ctx context.Context, root string, cfg types.AnalysisConfig) (types.ProjectAnalysis, error) {
	cfg = cfg.Normalized()

	absRoot, err := p.validateRoot(root)
	if err != nil {
		return types.ProjectAnalysis{}, err
	}

	key := cache.Key(absRoot, cfg)
	if snapshot, ok := p.cache.Get(key); ok {
		debug.LogAnalysis("cache hit for %s\n", absRoot)
		return snapshot, nil
	}

	p.inflightMu.Lock()
	if flight, ok := p.inflights[key]; ok {
		p.inflightMu.Unlock()
		select {
		case <-flight.done:
			return flight.result, flight.err
		case <-ctx.Done():
			return types.ProjectAnalysis{}, scoperrors.NewCancelled("analyze", ctx.Err())
		}
	}

	flight := &inflight{done: make(chan struct{})}
	p.inflights[key] = flight
	p.inflightMu.Unlock()

	flight.result, flight.err = p.runPipeline(ctx, absRoot, cfg, nil)
	if flight.err == nil {
		p.cache.Put(key, flight.result)
	}

	p.inflightMu.Lock()
	delete(p.inflights, key)
	p.inflightMu.Unlock()
	close(flight.done)

	return flight.result, flight.err
}

// AnalyzeWithProgress is Analyze with a progress callback. The callback is
// specific to this caller, so the call never joins an in-flight execution;
// a cache hit still short-circuits, reporting completion immediately.
func (p *ProjectAnalyzer) AnalyzeWithProgress(ctx context.Context, root string, cfg types.AnalysisConfig, progress ProgressFunc) (types.ProjectAnalysis, error) {
	cfg = cfg.Normalized()

	absRoot, err := p.validateRoot(root)
	if err != nil {
		return types.ProjectAnalysis{}, err
	}

	key := cache.Key(absRoot, cfg)
	if snapshot, ok := p.cache.Get(key); ok {
		if progress != nil {
			progress(100, "")
		}
		return snapshot, nil
	}

	result, err := p.runPipeline(ctx, absRoot, cfg, progress)
	if err != nil {
		return types.ProjectAnalysis{}, err
	}
	p.cache.Put(key, result)
	return result, nil
}

// AnalyzeFile analyzes a single file at the given depth.
func (p *ProjectAnalyzer) AnalyzeFile(ctx context.Context, path string, depth types.AnalysisDepth) (types.FileAnalysis, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return types.FileAnalysis{}, scoperrors.NewPathNotFound(path, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return types.FileAnalysis{}, scoperrors.NewPathNotFound(absPath, err)
	}

	fa := NewFileAnalyzer(types.DefaultMaxFileSize)
	return fa.Analyze(ctx, absPath, types.ParseDepth(string(depth)))
}

// ResolveImports extracts the import specifiers of one file and maps each to
// a file under root on a best-effort basis. Unresolvable specifiers come back
// with an empty Resolved path.
func (p *ProjectAnalyzer) ResolveImports(ctx context.Context, root, file string) ([]resolver.Binding, error) {
	absRoot, err := p.validateRoot(root)
	if err != nil {
		return nil, err
	}

	absFile, err := filepath.Abs(file)
	if err != nil {
		return nil, scoperrors.NewPathNotFound(file, err)
	}

	record, err := p.AnalyzeFile(ctx, absFile, types.DepthMedium)
	if err != nil {
		return nil, err
	}

	return resolver.New(absRoot).ResolveAll(absFile, record.Imports), nil
}

// QuickStats samples the first discovered files and reports counts, the
// language set and an estimated size. Stat failures on sampled files are
// swallowed.
func (p *ProjectAnalyzer) QuickStats(ctx context.Context, root string) (types.QuickStats, error) {
	absRoot, err := p.validateRoot(root)
	if err != nil {
		return types.QuickStats{}, err
	}

	files, err := p.discover(ctx, absRoot, types.DefaultAnalysisConfig())
	if err != nil {
		return types.QuickStats{}, err
	}

	stats := types.QuickStats{FileCount: len(files), Languages: []string{}}

	sample := files
	if len(sample) > types.QuickStatsSampleSize {
		sample = sample[:types.QuickStatsSampleSize]
	}

	languages := make(map[string]bool)
	for _, path := range sample {
		languages[types.ExtensionOf(path)] = true
		if info, statErr := os.Stat(path); statErr == nil {
			stats.EstimatedSizeBytes += info.Size()
		}
	}
	if len(sample) > 0 && len(files) > len(sample) {
		// scale the sampled size up to the full file count
		stats.EstimatedSizeBytes = stats.EstimatedSizeBytes * int64(len(files)) / int64(len(sample))
	}

	for lang := range languages {
		stats.Languages = append(stats.Languages, lang)
	}
	sort.Strings(stats.Languages)

	return stats, nil
}

// ClearCache drops cached analyses. With a project path only that project's
// entries go; with an empty path the whole cache is emptied. Returns the
// number of entries removed.
func (p *ProjectAnalyzer) ClearCache(projectPath string) int {
	if projectPath == "" {
		return p.cache.InvalidateAll()
	}
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		abs = projectPath
	}
	return p.cache.Invalidate(abs)
}

// CacheStats exposes the cache counters.
func (p *ProjectAnalyzer) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// WatchInvalidate starts a debounced watcher on root that invalidates the
// project's cache entries whenever analyzable files change. Stop with
// StopWatching or StopAllWatchers.
func (p *ProjectAnalyzer) WatchInvalidate(root string) error {
	absRoot, err := p.validateRoot(root)
	if err != nil {
		return err
	}

	p.watcherMu.Lock()
	defer p.watcherMu.Unlock()

	if _, ok := p.watchers[absRoot]; ok {
		return nil
	}

	w, err := watcher.New(absRoot, p.watchDebounce, func(changed string) {
		removed := p.cache.Invalidate(changed)
		debug.LogWatcher("change under %s invalidated %d cached analyses\n", changed, removed)
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}

	p.watchers[absRoot] = w
	return nil
}

// StopWatching stops the watcher for root, if any.
func (p *ProjectAnalyzer) StopWatching(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}

	p.watcherMu.Lock()
	w, ok := p.watchers[absRoot]
	delete(p.watchers, absRoot)
	p.watcherMu.Unlock()

	if !ok {
		return nil
	}
	return w.Stop()
}

// StopAllWatchers stops every active watcher.
func (p *ProjectAnalyzer) StopAllWatchers() {
	p.watcherMu.Lock()
	watchers := p.watchers
	p.watchers = make(map[string]*watcher.Watcher)
	p.watcherMu.Unlock()

	for _, w := range watchers {
		_ = w.Stop()
	}
}

// runPipeline executes discovery, batched file analysis and parallel
// aggregation, then assembles the snapshot.
func (p *ProjectAnalyzer) runPipeline(ctx context.Context, absRoot string, cfg types.AnalysisConfig, progress ProgressFunc) (types.ProjectAnalysis, error) {
	started := time.Now()

	files, err := p.discover(ctx, absRoot, cfg)
	if err != nil {
		return types.ProjectAnalysis{}, err
	}

	runner := NewBatchRunner(NewFileAnalyzer(cfg.MaxFileSize))
	records, err := runner.Run(ctx, files, cfg.Depth, progress)
	if err != nil {
		return types.ProjectAnalysis{}, err
	}

	analysis := types.ProjectAnalysis{
		ProjectPath: absRoot,
		Files:       records,
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		analysis.Metrics = p.calc.Calculate(records)
		return nil
	})
	g.Go(func() error {
		analysis.ArchitecturePatterns = p.detector.Detect(absRoot, records)
		return nil
	})
	g.Go(func() error {
		analysis.Dependencies = p.graph.Build(records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.ProjectAnalysis{}, err
	}

	analysis.Todos = flattenTodos(records)

	if progress != nil {
		progress(100, "")
	}

	debug.LogAnalysis("analyzed %d files under %s in %s\n", len(records), absRoot, time.Since(started))
	return analysis, nil
}

// validateRoot resolves the root and requires it to be an existing
// directory.
func (p *ProjectAnalyzer) validateRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", scoperrors.NewPathNotFound(root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", scoperrors.NewPathNotFound(absRoot, err)
	}
	if !info.IsDir() {
		return "", scoperrors.NewPathNotFound(absRoot, os.ErrInvalid)
	}
	return absRoot, nil
}

// flattenTodos lifts per-file annotations to project level, stamping each
// with its file path.
func flattenTodos(files []types.FileAnalysis) []types.TodoComment {
	todos := []types.TodoComment{}
	for _, file := range files {
		for _, todo := range file.Todos {
			todo.File = file.Path
			todos = append(todos, todo)
		}
	}
	return todos
}
