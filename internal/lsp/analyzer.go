package lsp

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jsvensson/kamfmt/internal/format"
	"github.com/jsvensson/kamfmt/internal/validate"
)

var (
	DiagError   = protocol.DiagnosticSeverityError
	DiagWarning = protocol.DiagnosticSeverityWarning
	DiagInfo    = protocol.DiagnosticSeverityInformation
)

const diagnosticSource = "kamailio"

var (
	// routeHeader captures the kind and name of a named route declaration.
	routeHeader = regexp.MustCompile(
		`^\s*(route|failure_route|onreply_route|branch_route|event_route)\s*\[\s*"?([^\]"\s]+)"?\s*\]`)

	// routeCall captures calls that refer to a route by name.
	routeCall = regexp.MustCompile(
		`\b(route|t_on_failure|t_on_reply|t_on_branch)\(\s*"?([A-Za-z0-9_:.\-]+)"?\s*\)`)
)

// callTargets maps a referencing function to the route kind it names.
var callTargets = map[string]string{
	"route":        "route",
	"t_on_failure": "failure_route",
	"t_on_reply":   "onreply_route",
	"t_on_branch":  "branch_route",
}

// Symbol is a named route declaration.
type Symbol struct {
	Kind  string // route, failure_route, ...
	Name  string
	Range protocol.Range // covers the name
}

// Reference is a use of a route name, such as route(NAME) or
// t_on_failure("NAME").
type Reference struct {
	Kind  string // kind of route the call resolves to
	Name  string
	Range protocol.Range // covers the name
}

// AnalysisResult holds everything derived from one version of a document.
type AnalysisResult struct {
	Diagnostics []protocol.Diagnostic
	Symbols     map[string]Symbol // keyed by symbolKey
	References  []Reference
	Annotations []format.Annotation
}

func symbolKey(kind, name string) string {
	return kind + ":" + name
}

// Lookup returns the declaration of the named route.
func (r *AnalysisResult) Lookup(kind, name string) (Symbol, bool) {
	sym, ok := r.Symbols[symbolKey(kind, name)]
	return sym, ok
}

// RouteNames returns the sorted names of all declared routes of kind.
func (r *AnalysisResult) RouteNames(kind string) []string {
	var names []string
	for _, sym := range r.Symbols {
		if sym.Kind == kind {
			names = append(names, sym.Name)
		}
	}
	slices.Sort(names)
	return names
}

// ReferenceAt returns the reference under pos.
func (r *AnalysisResult) ReferenceAt(pos protocol.Position) (Reference, bool) {
	for _, ref := range r.References {
		if posInRange(pos, ref.Range) {
			return ref, true
		}
	}
	return Reference{}, false
}

// Analyze collects route declarations and references from content. When
// checkStructure is set, the first structural error reported by the
// validator becomes an error diagnostic. Analysis never fails.
func Analyze(content string, checkStructure bool) *AnalysisResult {
	result := &AnalysisResult{
		Symbols:     make(map[string]Symbol),
		Annotations: format.Annotate(content),
	}
	lines := splitLines(content)

	for _, a := range result.Annotations {
		if a.Index >= len(lines) || !hasCode(a.Line.Kind) {
			continue
		}
		line := lines[a.Index]

		if a.Line.Kind == format.KindRoute {
			result.addDeclaration(a.Index, line)
		}
		for _, m := range routeCall.FindAllStringSubmatchIndex(line, -1) {
			result.References = append(result.References, Reference{
				Kind:  callTargets[line[m[2]:m[3]]],
				Name:  line[m[4]:m[5]],
				Range: spanRange(a.Index, line, m[4], m[5]),
			})
		}
	}

	for _, ref := range result.References {
		if _, ok := result.Lookup(ref.Kind, ref.Name); !ok {
			result.addDiagnostic(ref.Range, DiagInfo,
				fmt.Sprintf("%s %q is not declared in this file", ref.Kind, ref.Name))
		}
	}

	if checkStructure {
		result.addStructureError(content, lines)
	}
	return result
}

// hasCode reports whether lines of kind can hold route names.
func hasCode(kind format.Kind) bool {
	switch kind {
	case format.KindEmpty, format.KindComment, format.KindBanner:
		return false
	}
	return !kind.Preprocessor()
}

func (r *AnalysisResult) addDeclaration(idx int, line string) {
	m := routeHeader.FindStringSubmatchIndex(line)
	if m == nil {
		// request_route, reply_route and friends have no name.
		return
	}

	sym := Symbol{
		Kind:  line[m[2]:m[3]],
		Name:  line[m[4]:m[5]],
		Range: spanRange(idx, line, m[4], m[5]),
	}
	key := symbolKey(sym.Kind, sym.Name)
	if prev, ok := r.Symbols[key]; ok {
		r.addDiagnostic(sym.Range, DiagWarning,
			fmt.Sprintf("%s %q is already declared on line %d", sym.Kind, sym.Name, prev.Range.Start.Line+1))
		return
	}
	r.Symbols[key] = sym
}

func (r *AnalysisResult) addStructureError(content string, lines []string) {
	var verr *validate.Error
	if err := validate.Validate(content); !errors.As(err, &verr) {
		return
	}

	idx := verr.Line - 1
	if verr.Line <= 0 {
		// Unclosed structure is reported on the last line with text.
		idx = lastTextLine(lines)
	}
	if idx >= len(lines) {
		idx = len(lines) - 1
	}
	r.addDiagnostic(lineRange(idx, lines[idx]), DiagError, verr.Msg)
}

func lastTextLine(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return 0
}

func (r *AnalysisResult) addDiagnostic(rng protocol.Range, severity protocol.DiagnosticSeverity, msg string) {
	r.Diagnostics = append(r.Diagnostics, protocol.Diagnostic{
		Range:    rng,
		Severity: &severity,
		Source:   strPtr(diagnosticSource),
		Message:  msg,
	})
}

func strPtr(s string) *string {
	return &s
}
