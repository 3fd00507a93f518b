package analyzer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/codescope/codescope/internal/debug"
	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

const (
	// BatchSize is the number of files processed concurrently per batch.
	BatchSize = 10

	// interBatchPause yields between batches so a large run never
	// monopolizes I/O.
	interBatchPause = 10 * time.Millisecond
)

// ProgressFunc receives the running completion percentage and the file that
// just finished. Percentages are monotonically non-decreasing and reach
// exactly 100 when the run completes.
type ProgressFunc func(percentComplete float64, currentFile string)

// BatchRunner fans file analysis out in fixed-width sequential batches.
// Inside a batch all files run concurrently under a semaphore; per-file
// failures and panics are logged and the file is dropped from the result.
type BatchRunner struct {
	analyzer *FileAnalyzer
	sem      *semaphore.Weighted
}

// NewBatchRunner creates a runner over the given file analyzer.
func NewBatchRunner(fa *FileAnalyzer) *BatchRunner {
	return &BatchRunner{
		analyzer: fa,
		sem:      semaphore.NewWeighted(BatchSize),
	}
}

// Run analyzes every file at the given depth. Cancellation is checked
// between batches; a cancelled run returns a Cancelled error and no partial
// results. The progress callback may be nil.
func (r *BatchRunner) Run(ctx context.Context, files []string, depth types.AnalysisDepth, progress ProgressFunc) ([]types.FileAnalysis, error) {
	total := len(files)
	results := make([]*types.FileAnalysis, total)

	var mu sync.Mutex
	processed := 0

	// the callback runs under the lock so deliveries stay in percent order
	report := func(path string) {
		if progress == nil {
			return
		}
		mu.Lock()
		processed++
		percent := float64(processed) / float64(total) * 100
		progress(percent, path)
		mu.Unlock()
	}

	for start := 0; start < total; start += BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, scoperrors.NewCancelled("batch_run", err)
		}

		end := start + BatchSize
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			if err := r.sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return nil, scoperrors.NewCancelled("batch_run", err)
			}

			wg.Add(1)
			go func(idx int, path string) {
				defer wg.Done()
				defer r.sem.Release(1)
				defer func() {
					if rec := recover(); rec != nil {
						debug.LogAnalysis("panic analyzing %s: %v\n", path, rec)
						report(path)
					}
				}()

				record, err := r.analyzer.Analyze(ctx, path, depth)
				if err != nil {
					if scoperrors.IsCancelled(err) {
						return
					}
					debug.LogAnalysis("dropping %s: %v\n", path, err)
					report(path)
					return
				}

				results[idx] = &record
				report(path)
			}(i, files[i])
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return nil, scoperrors.NewCancelled("batch_run", err)
		}

		if end < total {
			time.Sleep(interBatchPause)
		}
	}

	out := make([]types.FileAnalysis, 0, total)
	for _, record := range results {
		if record != nil {
			out = append(out, *record)
		}
	}
	return out, nil
}
