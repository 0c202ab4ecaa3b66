package lsp

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/kamfmt/internal/format"
)

// hover describes how the formatter sees the line under the cursor: its
// classification and the nesting level it is indented to. On a route
// reference it also names the declaration the reference resolves to.
// Returns nil for blank lines and positions past the end of the document.
func hover(result *AnalysisResult, content string, pos protocol.Position) *protocol.Hover {
	if result == nil || int(pos.Line) >= len(result.Annotations) {
		return nil
	}

	a := result.Annotations[pos.Line]
	if a.Line.Kind == format.KindEmpty {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** · level %d", a.Line.Kind, a.Level)
	if a.State.InPreprocessorBlock() || a.Line.Kind == format.KindEndif {
		b.WriteString(" · inside `#!ifdef`")
	}

	if ref, ok := result.ReferenceAt(pos); ok {
		if sym, found := result.Lookup(ref.Kind, ref.Name); found {
			fmt.Fprintf(&b, "\n\n`%s[%s]` declared on line %d", sym.Kind, sym.Name, sym.Range.Start.Line+1)
		} else {
			fmt.Fprintf(&b, "\n\n`%s[%s]` is not declared in this file", ref.Kind, ref.Name)
		}
	}

	lines := splitLines(content)
	if int(pos.Line) >= len(lines) {
		return nil
	}
	rng := lineRange(int(pos.Line), lines[pos.Line])

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &rng,
	}
}

// textDocumentHover handles textDocument/hover requests.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := string(params.TextDocument.URI)

	result := s.getResult(uri)
	if result == nil {
		return nil, nil
	}

	content, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	return hover(result, content, params.Position), nil
}
