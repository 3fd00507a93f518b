package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

func fixtureFiles(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	files := make([]string, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("file%02d.js", i))
		content := fmt.Sprintf("// file %d\nexport function fn%d() {}\n", i, i)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		files = append(files, path)
	}
	return files
}

func TestRun_AnalyzesAllFiles(t *testing.T) {
	files := fixtureFiles(t, 25)
	runner := NewBatchRunner(NewFileAnalyzer(types.DefaultMaxFileSize))

	records, err := runner.Run(context.Background(), files, types.DepthMedium, nil)
	require.NoError(t, err)
	assert.Len(t, records, 25)

	// per-slot results keep discovery order
	for i, record := range records {
		assert.Equal(t, files[i], record.Path)
	}
}

func TestRun_ProgressMonotonicAndComplete(t *testing.T) {
	files := fixtureFiles(t, 23)
	runner := NewBatchRunner(NewFileAnalyzer(types.DefaultMaxFileSize))

	var mu sync.Mutex
	var percents []float64

	_, err := runner.Run(context.Background(), files, types.DepthBasic, func(percent float64, currentFile string) {
		mu.Lock()
		percents = append(percents, percent)
		mu.Unlock()
		assert.NotEmpty(t, currentFile)
	})
	require.NoError(t, err)

	require.Len(t, percents, 23)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1], "progress must never decrease")
	}
	assert.InDelta(t, 100.0, percents[len(percents)-1], 0.001)
}

func TestRun_MissingFilesAreDroppedButCounted(t *testing.T) {
	files := fixtureFiles(t, 4)
	files = append(files, filepath.Join(t.TempDir(), "missing.js"))

	runner := NewBatchRunner(NewFileAnalyzer(types.DefaultMaxFileSize))

	var mu sync.Mutex
	last := 0.0
	records, err := runner.Run(context.Background(), files, types.DepthBasic, func(percent float64, _ string) {
		mu.Lock()
		last = percent
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Len(t, records, 4, "the unreadable file is dropped from results")
	assert.InDelta(t, 100.0, last, 0.001, "dropped files still count toward completion")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	files := fixtureFiles(t, 5)
	runner := NewBatchRunner(NewFileAnalyzer(types.DefaultMaxFileSize))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := runner.Run(ctx, files, types.DepthBasic, nil)
	require.Error(t, err)
	assert.True(t, scoperrors.IsCancelled(err))
	assert.Nil(t, records)
}

func TestRun_EmptyInput(t *testing.T) {
	runner := NewBatchRunner(NewFileAnalyzer(types.DefaultMaxFileSize))

	records, err := runner.Run(context.Background(), nil, types.DepthDeep, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
