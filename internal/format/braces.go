package format

import (
	"regexp"
	"strings"
)

var (
	// ") \n {" and "] \n {" become ") {" and "] {".
	bracketThenBrace = regexp.MustCompile(`([)\]])[ \t]*\n[ \t]*\{`)
	// A lone closer followed by another closer on the next line.
	stackedClosers = regexp.MustCompile(`(?m)^[ \t]*\}[ \t]*\n[ \t]*\}`)
	// "}else" becomes "} else".
	closerThenToken = regexp.MustCompile(`\}([A-Za-z_(])`)
	// "){" at the end of a line becomes ") {". Kamailio transformations such as
	// $(hdr(From){uri.user}) keep their braces attached.
	parenThenBrace = regexp.MustCompile(`(?m)\)\{[ \t]*$`)

	multipleBlankLines        = regexp.MustCompile(`\n{3,}`)
	blankLineAfterOpenBrace   = regexp.MustCompile(`\{\n\s*\n`)
	blankLineBeforeCloseBrace = regexp.MustCompile(`\n\s*\n(\s*\})`)
)

// Braces is the structural fallback formatter. It joins split block headers
// and closers, then indents purely by counting braces. Comment lines never
// change the depth. It knows nothing about routes or preprocessor blocks.
type Braces struct{}

// Format implements Formatter.
func (Braces) Format(content string) Result {
	trimmed := strings.TrimSpace(normalizeNewlines(content))
	if trimmed == "" {
		return Result{Original: content}
	}

	joined := bracketThenBrace.ReplaceAllString(trimmed, "$1 {")
	joined = stackedClosers.ReplaceAllString(joined, "}}")
	joined = closerThenToken.ReplaceAllString(joined, "} $1")
	joined = parenThenBrace.ReplaceAllString(joined, ") {")

	var b strings.Builder
	depth := 0
	for i, raw := range strings.Split(joined, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if isComment(text) {
			b.WriteString(indent(depth))
			b.WriteString(text)
			continue
		}

		next := max(depth+strings.Count(text, "{")-strings.Count(text, "}"), 0)
		level := min(depth-leadingClosers(text), next)
		b.WriteString(indent(level))
		b.WriteString(text)
		depth = next
	}

	out := multipleBlankLines.ReplaceAllString(b.String(), "\n\n")
	out = blankLineAfterOpenBrace.ReplaceAllString(out, "{\n")
	out = blankLineBeforeCloseBrace.ReplaceAllString(out, "\n${1}")
	return Result{Original: content, Formatted: out + "\n"}
}

func isComment(text string) bool {
	return strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//")
}

func leadingClosers(text string) int {
	n := 0
	for n < len(text) && text[n] == '}' {
		n++
	}
	return n
}
