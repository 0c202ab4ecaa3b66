package lsp

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/kamfmt/internal/format"
)

var (
	// partialCall matches a route-referencing call still being typed.
	partialCall = regexp.MustCompile(`\b(route|t_on_failure|t_on_reply|t_on_branch)\(\s*"?[A-Za-z0-9_:.\-]*$`)

	// partialHeader matches a route declaration whose name is being typed.
	partialHeader = regexp.MustCompile(`^\s*(route|failure_route|onreply_route|branch_route)\s*\[\s*"?[A-Za-z0-9_:.\-]*$`)

	// bareWord matches a line holding nothing but the start of an identifier.
	bareWord = regexp.MustCompile(`^\s*[A-Za-z_#!]*$`)
)

// routingFunctions are offered inside route bodies. Each name starts with one
// of format.CallPrefixes or is a core statement.
var routingFunctions = []struct {
	name, signature string
}{
	{"append_hf", "append_hf(header)"},
	{"ds_is_from_list", "ds_is_from_list([group])"},
	{"ds_next_dst", "ds_next_dst()"},
	{"ds_select_dst", "ds_select_dst(set, alg)"},
	{"is_method", "is_method(methods)"},
	{"record_route", "record_route()"},
	{"remove_hf", "remove_hf(name)"},
	{"rtpengine_answer", "rtpengine_answer([flags])"},
	{"rtpengine_delete", "rtpengine_delete([flags])"},
	{"rtpengine_manage", "rtpengine_manage([flags])"},
	{"rtpengine_offer", "rtpengine_offer([flags])"},
	{"sl_reply_error", "sl_reply_error()"},
	{"sl_send_reply", "sl_send_reply(code, reason)"},
	{"t_check_trans", "t_check_trans()"},
	{"t_newtran", "t_newtran()"},
	{"t_on_branch", "t_on_branch(route)"},
	{"t_on_failure", "t_on_failure(route)"},
	{"t_on_reply", "t_on_reply(route)"},
	{"t_relay", "t_relay()"},
	{"t_reply", "t_reply(code, reason)"},
	{"xlog", "xlog([level,] message)"},
}

var statementKeywords = []string{"if", "else", "switch", "while", "return", "exit", "drop", "break"}

// topLevelSnippets are offered outside any block.
var topLevelSnippets = []struct {
	label, snippet string
}{
	{"request_route", "request_route {\n  $0\n}"},
	{"route", "route[${1:NAME}] {\n  $0\n}"},
	{"failure_route", "failure_route[${1:NAME}] {\n  $0\n}"},
	{"onreply_route", "onreply_route[${1:NAME}] {\n  $0\n}"},
	{"branch_route", "branch_route[${1:NAME}] {\n  $0\n}"},
	{"event_route", "event_route[${1:module:event}] {\n  $0\n}"},
	{"reply_route", "reply_route {\n  $0\n}"},
	{"onsend_route", "onsend_route {\n  $0\n}"},
	{"loadmodule", "loadmodule \"${1:module}.so\""},
	{"modparam", "modparam(\"${1:module}\", \"${2:param}\", ${3:value})"},
}

// complete produces completion items given an analysis result, document content,
// and cursor position. This is the core logic, decoupled from the LSP protocol
// handler for testability.
func complete(result *AnalysisResult, content string, pos protocol.Position) []protocol.CompletionItem {
	lines := splitLines(content)
	if result == nil || int(pos.Line) >= len(lines) {
		return nil
	}

	line := lines[pos.Line]
	textBeforeCursor := line[:byteOffset(line, pos.Character)]

	if m := partialCall.FindStringSubmatch(textBeforeCursor); m != nil {
		return routeNameCompletions(result.RouteNames(callTargets[m[1]]))
	}
	if m := partialHeader.FindStringSubmatch(textBeforeCursor); m != nil {
		return routeNameCompletions(undeclared(result, m[1]))
	}
	if !bareWord.MatchString(textBeforeCursor) {
		return nil
	}

	if depthBefore(result.Annotations, int(pos.Line)) == 0 {
		return topLevelCompletions()
	}
	return statementCompletions()
}

// depthBefore is the nesting depth in effect at the start of line idx.
func depthBefore(annotations []format.Annotation, idx int) int {
	if idx <= 0 || idx > len(annotations) {
		return 0
	}
	s := annotations[idx-1].State
	return s.Depth + s.Hang
}

// undeclared returns referenced route names of kind that have no declaration.
func undeclared(result *AnalysisResult, kind string) []string {
	var names []string
	for _, ref := range result.References {
		if ref.Kind != kind || slices.Contains(names, ref.Name) {
			continue
		}
		if _, ok := result.Lookup(kind, ref.Name); !ok {
			names = append(names, ref.Name)
		}
	}
	slices.Sort(names)
	return names
}

func routeNameCompletions(names []string) []protocol.CompletionItem {
	kind := protocol.CompletionItemKindReference

	items := make([]protocol.CompletionItem, 0, len(names))
	for _, name := range names {
		items = append(items, protocol.CompletionItem{
			Label: name,
			Kind:  &kind,
		})
	}
	return items
}

// statementCompletions returns routing functions and statement keywords.
func statementCompletions() []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(routingFunctions)+len(statementKeywords))

	for _, fn := range routingFunctions {
		items = append(items, protocol.CompletionItem{
			Label:  fn.name,
			Kind:   completionKindPtr(protocol.CompletionItemKindFunction),
			Detail: strPtr(fn.signature),
		})
	}
	for _, kw := range statementKeywords {
		items = append(items, protocol.CompletionItem{
			Label: kw,
			Kind:  completionKindPtr(protocol.CompletionItemKindKeyword),
		})
	}
	return items
}

// topLevelCompletions returns snippets for route blocks and module directives.
func topLevelCompletions() []protocol.CompletionItem {
	snippetFormat := protocol.InsertTextFormatSnippet
	kind := protocol.CompletionItemKindSnippet

	items := make([]protocol.CompletionItem, 0, len(topLevelSnippets))
	for _, s := range topLevelSnippets {
		snippet := s.snippet
		items = append(items, protocol.CompletionItem{
			Label:            s.label,
			Kind:             &kind,
			InsertText:       &snippet,
			InsertTextFormat: &snippetFormat,
		})
	}
	return items
}

// isCallName reports whether name would be classified as a routing call.
func isCallName(name string) bool {
	for _, p := range format.CallPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// completionKindPtr returns a pointer to a CompletionItemKind.
func completionKindPtr(k protocol.CompletionItemKind) *protocol.CompletionItemKind {
	return &k
}

// textDocumentCompletion is the LSP handler for textDocument/completion requests.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := string(params.TextDocument.URI)

	content, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	result := s.getResult(uri)
	if result == nil {
		return nil, nil
	}

	return complete(result, content, params.Position), nil
}
