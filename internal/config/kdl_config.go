package config

import (
	"os"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	scoperrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/types"
)

// loadKDL applies a .codescope.kdl file over cfg. Layout:
//
//	analysis {
//	    include_tests true
//	    depth "deep"
//	    max_file_size "1MB"
//	    languages "python" "typescript"
//	    ignore "**/generated/**" "**/fixtures/**"
//	}
//	cache {
//	    ttl_minutes 30
//	    max_entries 64
//	}
//	watch {
//	    debounce_ms 500
//	}
func loadKDL(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return scoperrors.NewConfigError("file", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return scoperrors.NewConfigError("file", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "include_tests":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Analysis.IncludeTests = b
					}
				case "depth":
					if s, ok := firstStringArg(cn); ok {
						cfg.Analysis.Depth = types.AnalysisDepth(s)
					}
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.MaxFileSize = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if size, err := parseSize(s); err == nil {
							cfg.Analysis.MaxFileSize = size
						}
					}
				case "languages":
					cfg.Analysis.Languages = collectStringArgs(cn)
				case "ignore":
					cfg.Analysis.IgnorePatterns = collectStringArgs(cn)
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "ttl_minutes":
					if v, ok := firstIntArg(cn); ok {
						cfg.CacheTTLMinutes = v
					}
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.CacheMaxEntries = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.WatchDebounceMs = v
					}
				}
			}
		}
	}

	return nil
}

// Helpers over the kdl-go document model.

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// block format: the child node name is the string value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
