package patterns

import (
	"regexp"
	"strings"

	"github.com/codescope/codescope/internal/types"
)

// todoPattern matches a TODO-style marker after a comment leader. The marker
// is case-insensitive; an optional ':' or '-' separates it from the content.
var todoPattern = regexp.MustCompile(`(?i)(?://|#|/\*+|\*|<!--|--)\s*(TODO|FIXME|HACK|NOTE)\b\s*[:\-]?\s*(.*)`)

// ScanTodos finds TODO/FIXME/HACK/NOTE annotations in comment positions.
// Line numbers are 1-based; content is trimmed with any trailing comment
// terminator removed.
func ScanTodos(content string) []types.TodoComment {
	todos := []types.TodoComment{}

	for i, line := range strings.Split(content, "\n") {
		m := todoPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		text := strings.TrimSpace(m[2])
		text = strings.TrimSuffix(text, "*/")
		text = strings.TrimSuffix(text, "-->")
		text = strings.TrimSpace(text)

		todos = append(todos, types.TodoComment{
			Kind:    types.TodoKind(strings.ToUpper(m[1])),
			Content: text,
			Line:    i + 1,
		})
	}

	return todos
}
