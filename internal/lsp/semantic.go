package lsp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/kamfmt/internal/format"
)

// Semantic token types we'll use (indices 0-4)
var semanticTokenTypes = []string{
	"comment",  // 0: comments and section banners
	"macro",    // 1: #! preprocessor directives
	"keyword",  // 2: route block keywords, if/else, loadmodule/modparam
	"function", // 3: routing functions and route names
	"variable", // 4: pseudo-variables and #!define names
}

// Semantic token modifiers (bit flags)
var semanticTokenModifiers = []string{
	"declaration", // bit 0: defining a new symbol
}

const (
	tokenComment uint32 = iota
	tokenMacro
	tokenKeyword
	tokenFunction
	tokenVariable
)

const modDeclaration uint32 = 1

var (
	leadingWord   = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)`)
	directiveName = regexp.MustCompile(`^\s*(#![A-Za-z_]+)(?:\s+([A-Za-z_][A-Za-z0-9_]*))?`)
	callName      = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	pseudoVar     = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*(?:\([^()]*\))?`)
)

// SemanticToken represents a single token with its metadata
type SemanticToken struct {
	Line      uint32 // 0-based line number
	StartChar uint32 // 0-based character offset
	Length    uint32
	Type      uint32 // index into semanticTokenTypes
	Modifiers uint32 // bit flags
}

// encodeTokens converts tokens to LSP format (5 integers per token)
// Uses delta encoding for line numbers and character positions
func encodeTokens(tokens []SemanticToken) []uint32 {
	if len(tokens) == 0 {
		return []uint32{}
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Line != tokens[j].Line {
			return tokens[i].Line < tokens[j].Line
		}
		return tokens[i].StartChar < tokens[j].StartChar
	})

	data := make([]uint32, 0, len(tokens)*5)

	var prevLine uint32 = 0
	var prevChar uint32 = 0

	for _, tok := range tokens {
		deltaLine := tok.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = tok.StartChar - prevChar
		} else {
			deltaStart = tok.StartChar
		}

		data = append(data,
			deltaLine,
			deltaStart,
			tok.Length,
			tok.Type,
			tok.Modifiers,
		)

		prevLine = tok.Line
		prevChar = tok.StartChar
	}

	return data
}

// semanticTokensFull generates semantic tokens for the entire document content
func semanticTokensFull(result *AnalysisResult, content string) []uint32 {
	if result == nil {
		return []uint32{}
	}

	lines := splitLines(content)
	var tokens []SemanticToken
	for _, a := range result.Annotations {
		if a.Index >= len(lines) {
			continue
		}
		tokens = lineTokens(tokens, a, lines[a.Index])
	}
	for _, ref := range result.References {
		tokens = append(tokens, rangeToken(ref.Range, tokenFunction, 0))
	}
	for _, sym := range result.Symbols {
		tokens = append(tokens, rangeToken(sym.Range, tokenFunction, modDeclaration))
	}

	return encodeTokens(tokens)
}

// lineTokens appends the tokens of one classified line. Route names are
// added separately from the analysis result.
func lineTokens(tokens []SemanticToken, a format.Annotation, line string) []SemanticToken {
	add := func(start, end int, typ, mods uint32) {
		tokens = append(tokens, SemanticToken{
			Line:      toUInteger(a.Index),
			StartChar: toUInteger(utf16Len(line[:start])),
			Length:    toUInteger(utf16Len(line[start:end])),
			Type:      typ,
			Modifiers: mods,
		})
	}

	kind := a.Line.Kind
	switch {
	case kind == format.KindEmpty:
		return tokens

	case kind == format.KindComment || kind == format.KindBanner:
		start := len(line) - len(strings.TrimLeft(line, " \t"))
		add(start, len(strings.TrimRight(line, " \t")), tokenComment, 0)
		return tokens

	case kind.Preprocessor():
		if m := directiveName.FindStringSubmatchIndex(line); m != nil {
			add(m[2], m[3], tokenMacro, 0)
			if m[4] >= 0 {
				add(m[4], m[5], tokenVariable, declarationFor(line[m[2]:m[3]]))
			}
		}
		return tokens

	case kind == format.KindRoute, kind == format.KindModule, kind == format.KindConditional:
		if m := leadingWord.FindStringSubmatchIndex(line); m != nil {
			add(m[2], m[3], tokenKeyword, 0)
		}
	}

	for _, m := range callName.FindAllStringSubmatchIndex(line, -1) {
		if isCallName(line[m[2]:m[3]]) {
			add(m[2], m[3], tokenFunction, 0)
		}
	}
	for _, m := range pseudoVar.FindAllStringIndex(line, -1) {
		add(m[0], m[1], tokenVariable, 0)
	}
	return tokens
}

// declarationFor returns the declaration modifier for directives that
// introduce a name.
func declarationFor(directive string) uint32 {
	switch directive {
	case "#!define", "#!trydef", "#!redefine", "#!substdef":
		return modDeclaration
	}
	return 0
}

func rangeToken(r protocol.Range, typ, mods uint32) SemanticToken {
	return SemanticToken{
		Line:      r.Start.Line,
		StartChar: r.Start.Character,
		Length:    r.End.Character - r.Start.Character,
		Type:      typ,
		Modifiers: mods,
	}
}

// textDocumentSemanticTokensFull handles textDocument/semanticTokens/full requests.
func (s *Server) textDocumentSemanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := string(params.TextDocument.URI)

	content, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	return &protocol.SemanticTokens{
		Data: semanticTokensFull(s.getResult(uri), content),
	}, nil
}
