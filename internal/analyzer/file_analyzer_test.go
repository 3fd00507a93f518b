package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const jsFixture = `// TODO: tighten validation
import helper from './helper';

export function validate(input) {
	if (input && input.length > 0) {
		return true;
	}
	return false;
}
`

func TestAnalyze_DeepFillsEverything(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "app.js", jsFixture)

	fa := NewFileAnalyzer(types.DefaultMaxFileSize)
	record, err := fa.Analyze(context.Background(), path, types.DepthDeep)
	require.NoError(t, err)

	assert.Equal(t, "app.js", record.Name)
	assert.Equal(t, "js", record.Type)
	assert.Equal(t, int64(len(jsFixture)), record.Size)
	assert.Equal(t, 8, record.LinesOfCode)
	assert.Equal(t, []string{"validate"}, record.Functions)
	assert.Equal(t, []string{"./helper"}, record.Imports)
	assert.Equal(t, []string{"validate"}, record.Exports)
	require.Len(t, record.Todos, 1)
	assert.Equal(t, types.TodoTODO, record.Todos[0].Kind)
	assert.Equal(t, "tighten validation", record.Todos[0].Content)
	assert.Equal(t, 1, record.Todos[0].Line)
	// if + && + base
	assert.Equal(t, 3, record.Complexity)
}

func TestAnalyze_DepthGating(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "app.js", jsFixture)
	fa := NewFileAnalyzer(types.DefaultMaxFileSize)

	basic, err := fa.Analyze(context.Background(), path, types.DepthBasic)
	require.NoError(t, err)
	assert.Equal(t, 8, basic.LinesOfCode)
	assert.Empty(t, basic.Functions)
	assert.Empty(t, basic.Todos)
	assert.Equal(t, 0, basic.Complexity)

	medium, err := fa.Analyze(context.Background(), path, types.DepthMedium)
	require.NoError(t, err)
	assert.NotEmpty(t, medium.Functions)
	assert.Equal(t, 0, medium.Complexity)
}

func TestAnalyze_ComplexityIsAtLeastOne(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "flat.js", "const x = 1;\n")
	fa := NewFileAnalyzer(types.DefaultMaxFileSize)

	record, err := fa.Analyze(context.Background(), path, types.DepthDeep)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Complexity)
}

func TestAnalyze_UnknownExtensionGetsZeroedRecord(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "notes.md", "# heading\n\nif (x && y) {}\n")
	fa := NewFileAnalyzer(types.DefaultMaxFileSize)

	record, err := fa.Analyze(context.Background(), path, types.DepthDeep)
	require.NoError(t, err)

	assert.Equal(t, "md", record.Type)
	assert.Greater(t, record.Size, int64(0))
	assert.Equal(t, 0, record.LinesOfCode)
	assert.Empty(t, record.Functions)
	assert.Equal(t, 0, record.Complexity)
}

func TestAnalyze_OversizeFileSkipsContent(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "big.js", jsFixture)

	fa := NewFileAnalyzer(8) // cap below the fixture size
	record, err := fa.Analyze(context.Background(), path, types.DepthDeep)
	require.NoError(t, err)

	assert.Equal(t, int64(len(jsFixture)), record.Size)
	assert.Equal(t, 0, record.LinesOfCode)
	assert.Empty(t, record.Functions)
	assert.Equal(t, 0, record.Complexity)
}

func TestAnalyze_NonBlankLineCount(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "gaps.py", "x = 1\n\n\ny = 2\n   \nz = 3\n")
	fa := NewFileAnalyzer(types.DefaultMaxFileSize)

	record, err := fa.Analyze(context.Background(), path, types.DepthBasic)
	require.NoError(t, err)
	assert.Equal(t, 3, record.LinesOfCode)
}

func TestAnalyze_MissingFile(t *testing.T) {
	fa := NewFileAnalyzer(types.DefaultMaxFileSize)

	record, err := fa.Analyze(context.Background(), filepath.Join(t.TempDir(), "gone.js"), types.DepthDeep)
	require.Error(t, err)

	var ae *scoperrors.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.True(t, ae.IsRecoverable())
	assert.Equal(t, "gone.js", record.Name)
}

func TestFileAnalyzerAnalyze_Cancelled(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "app.js", jsFixture)
	fa := NewFileAnalyzer(types.DefaultMaxFileSize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fa.Analyze(ctx, path, types.DepthDeep)
	require.Error(t, err)
	assert.True(t, scoperrors.IsCancelled(err))
}
