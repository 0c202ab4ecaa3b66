package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// definition returns the declaration of the route referenced at pos, for
// example route[AUTH] for the cursor on AUTH in route(AUTH). Returns nil if
// the cursor is not on a reference or the route is declared elsewhere.
func definition(result *AnalysisResult, uri string, pos protocol.Position) *protocol.Location {
	if result == nil {
		return nil
	}

	ref, ok := result.ReferenceAt(pos)
	if !ok {
		return nil
	}

	sym, ok := result.Lookup(ref.Kind, ref.Name)
	if !ok {
		return nil
	}

	return &protocol.Location{
		URI:   protocol.DocumentUri(uri),
		Range: sym.Range,
	}
}

// references lists every use of the route declared or referenced at pos.
func references(result *AnalysisResult, uri string, pos protocol.Position, includeDeclaration bool) []protocol.Location {
	if result == nil {
		return nil
	}

	kind, name, ok := routeAt(result, pos)
	if !ok {
		return nil
	}

	var locs []protocol.Location
	if sym, found := result.Lookup(kind, name); found && includeDeclaration {
		locs = append(locs, protocol.Location{URI: protocol.DocumentUri(uri), Range: sym.Range})
	}
	for _, ref := range result.References {
		if ref.Kind == kind && ref.Name == name {
			locs = append(locs, protocol.Location{URI: protocol.DocumentUri(uri), Range: ref.Range})
		}
	}
	return locs
}

// routeAt identifies the route named under pos, either at a reference or at
// the name in a declaration.
func routeAt(result *AnalysisResult, pos protocol.Position) (kind, name string, ok bool) {
	if ref, found := result.ReferenceAt(pos); found {
		return ref.Kind, ref.Name, true
	}
	for _, sym := range result.Symbols {
		if posInRange(pos, sym.Range) {
			return sym.Kind, sym.Name, true
		}
	}
	return "", "", false
}

// textDocumentDefinition handles textDocument/definition requests.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := string(params.TextDocument.URI)

	result := s.getResult(uri)
	if result == nil {
		return nil, nil
	}

	return definition(result, uri, params.Position), nil
}

// textDocumentReferences handles textDocument/references requests.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := string(params.TextDocument.URI)

	result := s.getResult(uri)
	if result == nil {
		return nil, nil
	}

	return references(result, uri, params.Position, params.Context.IncludeDeclaration), nil
}
