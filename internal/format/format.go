// Package format re-indents Kamailio routing configuration files.
//
// The formatter never parses the configuration. It classifies every trimmed
// line with an ordered table of patterns and reconstructs the block depth in
// a single pass, so it works on partial or broken files while the user is
// still typing. Malformed structure only degrades indentation; it is never
// reported. Use package validate for that.
package format

import (
	"fmt"
	"strings"
)

// Result holds the input of a format pass next to its output.
type Result struct {
	Original  string
	Formatted string
}

// Changed reports whether formatting altered the text.
func (r Result) Changed() bool {
	return r.Original != r.Formatted
}

// Formatter re-indents a whole document.
type Formatter interface {
	Format(content string) Result
}

// Strategy names accepted by ByName.
const (
	StrategyRules  = "rules"
	StrategyBraces = "braces"
)

// ByName returns the formatter registered under name. The empty name selects
// the rule engine.
func ByName(name string) (Formatter, error) {
	switch name {
	case "", StrategyRules:
		return Rules{}, nil
	case StrategyBraces:
		return Braces{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (valid: %s, %s)", name, StrategyRules, StrategyBraces)
	}
}

// Format formats content with the rule engine.
func Format(content string) Result {
	return Rules{}.Format(content)
}

func normalizeNewlines(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}

// documentLines trims the blank runs around the document and splits it into
// lines. A blank document has no lines.
func documentLines(content string) []string {
	trimmed := strings.TrimSpace(normalizeNewlines(content))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
