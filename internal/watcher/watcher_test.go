package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_FiresOnceForBurst(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("let x;\n"), 0644))

	var fired atomic.Int64
	w, err := New(root, 100*time.Millisecond, func(changed string) {
		assert.Equal(t, root, changed)
		fired.Add(1)
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	// burst of writes inside one debounce window
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("let y;\n"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 1 }))
	// allow a stray second fire window to elapse
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, fired.Load(), int64(2), "a write burst must be debounced")
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()

	var fired atomic.Int64
	w, err := New(root, 50*time.Millisecond, func(string) { fired.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int64(0), fired.Load(), "unanalyzable files must not invalidate")
}

func TestWatcher_StopIsIdempotentSafe(t *testing.T) {
	root := t.TempDir()

	w, err := New(root, 50*time.Millisecond, func(string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Stop())
}
