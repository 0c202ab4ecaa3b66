package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/kamfmt/internal/format"
)

// formatEdits formats content with f and returns a single edit replacing the
// whole document, or no edits when the document is already formatted.
//
// The formatter never fails, so this works on partial configs while the user
// is still typing.
func formatEdits(f format.Formatter, content string) []protocol.TextEdit {
	result := f.Format(content)
	if !result.Changed() {
		return []protocol.TextEdit{}
	}
	return []protocol.TextEdit{{
		Range:   documentRange(content),
		NewText: result.Formatted,
	}}
}

// documentRange spans content from its first to its last character.
func documentRange(content string) protocol.Range {
	lines := strings.Split(content, "\n")
	last := len(lines) - 1
	return protocol.Range{
		Start: position(0, 0),
		End:   position(last, utf16Len(lines[last])),
	}
}
