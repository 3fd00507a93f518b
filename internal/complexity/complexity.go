// Package complexity implements an approximate cyclomatic complexity estimate
// over sanitized source text. The input is first stripped of comments and
// string literal bodies so that decision keywords appearing in prose or data
// never inflate the count.
package complexity

import (
	"regexp"
	"strings"
)

// Estimator computes complexity scores for source text.
type Estimator struct {
	keywordPattern *regexp.Regexp
}

// decision keywords counted with word boundaries after sanitization
var keywordPattern = regexp.MustCompile(`\b(if|while|for|switch|case|catch|elif|except)\b`)

// NewEstimator creates an Estimator.
func NewEstimator() *Estimator {
	return &Estimator{keywordPattern: keywordPattern}
}

// Estimate returns 1 plus the number of decision points found in content.
// The result is always >= 1.
func (e *Estimator) Estimate(content string) int {
	sanitized := Sanitize(content)

	count := len(e.keywordPattern.FindAllStringIndex(sanitized, -1))
	count += strings.Count(sanitized, "&&")
	count += strings.Count(sanitized, "||")
	count += countTernaries(sanitized)

	return 1 + count
}

// countTernaries counts '?' tokens that look like conditional operators,
// skipping optional chaining (?.) and nullish coalescing (??).
func countTernaries(s string) int {
	count := 0
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '?' {
			continue
		}
		if i > 0 && runes[i-1] == '?' {
			continue
		}
		if i+1 < len(runes) && (runes[i+1] == '?' || runes[i+1] == '.') {
			continue
		}
		count++
	}
	return count
}

// scanner modes
type mode int

const (
	modeCode mode = iota
	modeLineComment
	modeBlockComment
	modeSingle
	modeDouble
	modeTemplate
)

// Sanitize blanks out comments and string literal bodies, preserving newlines
// so that line-oriented consumers keep their offsets. Line comments start with
// `//` or `#`; block comments are `/* */`; literals use ', " or `. Template
// literals are blanked in full, including nested ${} interpolations, with
// brace depth tracked so the terminating backtick is found correctly.
func Sanitize(content string) string {
	out := make([]rune, 0, len(content))
	runes := []rune(content)

	m := modeCode
	templateDepth := 0

	emit := func(r rune) {
		if r == '\n' {
			out = append(out, '\n')
		} else {
			out = append(out, ' ')
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch m {
		case modeCode:
			switch {
			case r == '/' && next == '/':
				m = modeLineComment
				emit(r)
			case r == '#':
				m = modeLineComment
				emit(r)
			case r == '/' && next == '*':
				m = modeBlockComment
				emit(r)
				emit(next)
				i++
			case r == '\'':
				m = modeSingle
				emit(r)
			case r == '"':
				m = modeDouble
				emit(r)
			case r == '`':
				m = modeTemplate
				templateDepth = 0
				emit(r)
			default:
				out = append(out, r)
			}

		case modeLineComment:
			if r == '\n' {
				m = modeCode
			}
			emit(r)

		case modeBlockComment:
			if r == '*' && next == '/' {
				m = modeCode
				emit(r)
				emit(next)
				i++
			} else {
				emit(r)
			}

		case modeSingle:
			switch {
			case r == '\\':
				emit(r)
				if i+1 < len(runes) {
					emit(next)
					i++
				}
			case r == '\'' || r == '\n':
				// unterminated literals end at the newline
				m = modeCode
				emit(r)
			default:
				emit(r)
			}

		case modeDouble:
			switch {
			case r == '\\':
				emit(r)
				if i+1 < len(runes) {
					emit(next)
					i++
				}
			case r == '"' || r == '\n':
				m = modeCode
				emit(r)
			default:
				emit(r)
			}

		case modeTemplate:
			switch {
			case r == '\\':
				emit(r)
				if i+1 < len(runes) {
					emit(next)
					i++
				}
			case r == '$' && next == '{':
				templateDepth++
				emit(r)
				emit(next)
				i++
			case r == '}' && templateDepth > 0:
				templateDepth--
				emit(r)
			case r == '`' && templateDepth == 0:
				m = modeCode
				emit(r)
			default:
				emit(r)
			}
		}
	}

	return string(out)
}
