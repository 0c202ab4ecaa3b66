// Package lsp implements a language server for Kamailio configuration files.
package lsp

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jsvensson/kamfmt/internal/config"
	"github.com/jsvensson/kamfmt/internal/format"
)

const serverName = "kamailio-lsp"

var log = commonlog.GetLogger("kamfmt.lsp")

type Server struct {
	handler   protocol.Handler
	docs      *DocumentStore
	version   string
	formatter format.Formatter
	validate  bool

	mu      sync.RWMutex
	results map[string]*AnalysisResult
}

// NewServer creates a server formatting with the strategy selected by cfg.
func NewServer(version string, cfg *config.Config) (*Server, error) {
	f, err := cfg.Formatter()
	if err != nil {
		return nil, err
	}

	s := &Server{
		docs:      NewDocumentStore(),
		version:   version,
		formatter: f,
		validate:  cfg.LSP.Diagnostics,
		results:   make(map[string]*AnalysisResult),
	}

	s.handler = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.textDocumentDidOpen,
		TextDocumentDidChange:          s.textDocumentDidChange,
		TextDocumentDidClose:           s.textDocumentDidClose,
		TextDocumentFormatting:         s.textDocumentFormatting,
		TextDocumentHover:              s.textDocumentHover,
		TextDocumentDefinition:         s.textDocumentDefinition,
		TextDocumentReferences:         s.textDocumentReferences,
		TextDocumentCompletion:         s.textDocumentCompletion,
		TextDocumentSemanticTokensFull: s.textDocumentSemanticTokensFull,
	}

	return s, nil
}

// Run serves the protocol over stdio until the client disconnects.
func (s *Server) Run(verbosity int) error {
	commonlog.Configure(verbosity, nil)
	srv := server.NewServer(&s.handler, serverName, false)
	return srv.RunStdio()
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"(", "[", "\""},
	}
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     semanticTokenTypes,
			TokenModifiers: semanticTokenModifiers,
		},
		Full: true,
	}

	if params.ClientInfo != nil {
		log.Infof("initializing for %s", params.ClientInfo.Name)
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.docs.Open(uri, params.TextDocument.Version, params.TextDocument.Text)
	s.refresh(ctx, uri, params.TextDocument.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	for _, change := range params.ContentChanges {
		if c, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.docs.Update(uri, params.TextDocument.Version, c.Text)
		}
	}
	if content, ok := s.docs.Get(uri); ok {
		s.refresh(ctx, uri, content)
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	s.docs.Close(uri)

	s.mu.Lock()
	delete(s.results, uri)
	s.mu.Unlock()

	publishDiagnostics(ctx, uri, nil, nil)
	return nil
}

func (s *Server) textDocumentFormatting(_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	content, ok := s.docs.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	return formatEdits(s.formatter, content), nil
}

// refresh re-analyzes a document and publishes its diagnostics.
func (s *Server) refresh(ctx *glsp.Context, uri, content string) {
	result := Analyze(content, s.validate)

	s.mu.Lock()
	s.results[uri] = result
	s.mu.Unlock()

	log.Debugf("%s: %d diagnostics", uri, len(result.Diagnostics))

	var version *protocol.UInteger
	if v, ok := s.docs.Version(uri); ok && v >= 0 {
		u := toUInteger(int(v))
		version = &u
	}
	publishDiagnostics(ctx, uri, version, result.Diagnostics)
}

// getResult returns the latest analysis of an open document.
func (s *Server) getResult(uri string) *AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results[uri]
}

func publishDiagnostics(ctx *glsp.Context, uri string, version *protocol.UInteger, diags []protocol.Diagnostic) {
	if ctx == nil {
		return
	}
	if diags == nil {
		// Clients treat a missing array differently from an empty one.
		diags = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Version:     version,
		Diagnostics: diags,
	})
}
