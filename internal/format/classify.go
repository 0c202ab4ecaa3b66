package format

import (
	"regexp"
	"strings"
)

// Kind is the syntactic category of a single configuration line.
type Kind int

const (
	KindEmpty       Kind = iota
	KindDialect          // #!KAMAILIO and friends
	KindDirective        // #!define, #!subst, ... (no structural effect)
	KindIfdef            // #!ifdef, #!ifndef
	KindElse             // #!else
	KindEndif            // #!endif
	KindBanner           // ##### section ####
	KindComment          // # or // comment
	KindListen           // listen=...
	KindRoute            // route[...], request_route, ...
	KindReopen           // } else {
	KindOpen             // more '{' than '}'
	KindClose            // more '}' than '{'
	KindModule           // loadmodule, modparam
	KindAssignment       // name = value
	KindCall             // known routing function call
	KindConditional      // if / else
	KindStatement        // anything else
)

var kindNames = [...]string{
	KindEmpty:       "empty line",
	KindDialect:     "dialect marker",
	KindDirective:   "preprocessor directive",
	KindIfdef:       "preprocessor conditional",
	KindElse:        "preprocessor else",
	KindEndif:       "preprocessor endif",
	KindBanner:      "section banner",
	KindComment:     "comment",
	KindListen:      "listen directive",
	KindRoute:       "route declaration",
	KindReopen:      "block reopen",
	KindOpen:        "block opener",
	KindClose:       "block closer",
	KindModule:      "module directive",
	KindAssignment:  "assignment",
	KindCall:        "function call",
	KindConditional: "conditional",
	KindStatement:   "statement",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Preprocessor reports whether k is one of the #! directive kinds.
func (k Kind) Preprocessor() bool {
	switch k {
	case KindDialect, KindDirective, KindIfdef, KindElse, KindEndif:
		return true
	}
	return false
}

// Line is a trimmed input line together with its classification.
type Line struct {
	Kind   Kind
	Text   string
	Opens  int // number of '{' in Text
	Closes int // number of '}' in Text
}

// Net is the brace balance of the line.
func (l Line) Net() int {
	return l.Opens - l.Closes
}

// dialects are the markers that open a config file and select its dialect.
var dialects = []string{"#!KAMAILIO", "#!SER", "#!OPENSER", "#!MAXCOMPAT", "#!ALL"}

// CallPrefixes are the routing-function name prefixes recognised as calls.
var CallPrefixes = []string{
	"t_", "sl_", "xlog", "rtpengine_", "ds_",
	"append_hf", "remove_hf", "is_method", "record_route",
}

var (
	listenDirective = regexp.MustCompile(`^listen\s*=`)
	moduleDirective = regexp.MustCompile(`^(?:loadmodule|modparam)\b`)
	conditional     = regexp.MustCompile(`^(?:if|else)(?:[\s({]|$)`)

	// RouteDeclaration matches the header of a route block. Calls such as
	// route(NAME) do not match.
	RouteDeclaration = regexp.MustCompile(
		`^(?:(?:route|failure_route|onreply_route|branch_route|event_route)\s*\[|(?:request_route|onsend_route|reply_route|route)\s*(?:\{|$))`)
)

// rule is one row of the classification table.
type rule struct {
	kind  Kind
	match func(l Line) bool
}

// rules is evaluated top to bottom; the first match wins.
var rules = []rule{
	{KindEmpty, func(l Line) bool { return l.Text == "" }},
	{KindDialect, func(l Line) bool { return hasAnyPrefix(l.Text, dialects) }},
	{KindIfdef, func(l Line) bool {
		return strings.HasPrefix(l.Text, "#!ifdef") || strings.HasPrefix(l.Text, "#!ifndef")
	}},
	{KindElse, func(l Line) bool { return strings.HasPrefix(l.Text, "#!else") }},
	{KindEndif, func(l Line) bool { return strings.HasPrefix(l.Text, "#!endif") }},
	{KindDirective, func(l Line) bool { return strings.HasPrefix(l.Text, "#!") }},
	{KindBanner, func(l Line) bool { return strings.HasPrefix(l.Text, "#####") }},
	{KindComment, func(l Line) bool {
		return strings.HasPrefix(l.Text, "#") || strings.HasPrefix(l.Text, "//")
	}},
	{KindListen, func(l Line) bool { return listenDirective.MatchString(l.Text) }},
	{KindRoute, func(l Line) bool { return RouteDeclaration.MatchString(l.Text) }},
	{KindReopen, func(l Line) bool {
		return strings.HasPrefix(l.Text, "}") && strings.HasSuffix(l.Text, "{")
	}},
	{KindOpen, func(l Line) bool { return l.Opens > l.Closes }},
	{KindClose, func(l Line) bool { return l.Closes > l.Opens }},
	{KindModule, func(l Line) bool { return moduleDirective.MatchString(l.Text) }},
	{KindAssignment, func(l Line) bool {
		return strings.Contains(l.Text, "=") &&
			!strings.Contains(l.Text, "==") &&
			!conditional.MatchString(l.Text)
	}},
	{KindCall, func(l Line) bool { return hasAnyPrefix(l.Text, CallPrefixes) }},
	{KindConditional, func(l Line) bool { return conditional.MatchString(l.Text) }},
}

// Classify trims raw and assigns it the first matching Kind.
func Classify(raw string) Line {
	text := strings.TrimSpace(raw)
	l := Line{
		Kind:   KindStatement,
		Text:   text,
		Opens:  strings.Count(text, "{"),
		Closes: strings.Count(text, "}"),
	}
	for _, r := range rules {
		if r.match(l) {
			l.Kind = r.kind
			break
		}
	}
	return l
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
