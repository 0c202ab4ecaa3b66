package format

import "strings"

// indentUnit is the indentation emitted per nesting level.
const indentUnit = "  "

// State is the formatter state threaded through a single pass.
type State struct {
	Depth        int // current block nesting, never negative
	Preprocessor int // open #!ifdef/#!ifndef blocks
	Hang         int // extra levels owed to the body of a braceless conditional
}

// InPreprocessorBlock reports whether the pass is between #!ifdef and its #!endif.
func (s State) InPreprocessorBlock() bool {
	return s.Preprocessor > 0
}

// Emit is what a single classified line contributes to the output.
type Emit struct {
	BlankBefore bool
	Level       int
	Text        string
	BlankAfter  bool
}

// Blank reports whether the emission is just an empty line.
func (e Emit) Blank() bool {
	return e.Text == ""
}

// Step is the transition function of the rule engine. It is pure: the
// returned State replaces s and the Emit describes the output for l.
func Step(s State, l Line) (State, Emit) {
	e := Emit{Text: l.Text}

	switch l.Kind {
	case KindEmpty:
		return s, e

	case KindDialect:
		e.BlankAfter = true
		s.Hang = 0

	case KindDirective, KindListen, KindBanner:
		e.BlankBefore = l.Kind == KindBanner
		e.BlankAfter = l.Kind == KindBanner
		s.Hang = 0

	case KindIfdef:
		e.BlankBefore = true
		e.Level = s.Depth
		s.Depth++
		s.Preprocessor++
		s.Hang = 0

	case KindElse:
		s.Depth = max(s.Depth-1, 0)
		e.Level = s.Depth
		s.Depth++
		s.Hang = 0

	case KindEndif:
		s.Depth = max(s.Depth-1, 0)
		e.Level = s.Depth
		e.BlankAfter = true
		s.Preprocessor = max(s.Preprocessor-1, 0)
		s.Hang = 0

	case KindComment:
		if s.InPreprocessorBlock() || s.Depth > 0 {
			e.Level = s.Depth + s.Hang
		}

	case KindRoute:
		e.BlankBefore = true
		e.Level = s.Depth
		s.Hang = 0
		if l.Net() > 0 {
			s.Depth += l.Net()
		}

	case KindReopen:
		e.Level = max(s.Depth-1, 0)
		s.Hang = 0
		s.Depth = max(s.Depth+l.Net(), 0)

	case KindOpen:
		e.Level = s.Depth + s.Hang
		if strings.HasPrefix(l.Text, "{") {
			// A brace on its own line lines up with the statement it belongs to.
			e.Level = s.Depth
		}
		s.Hang = 0
		s.Depth += l.Net()

	case KindClose:
		s.Depth = max(s.Depth+l.Net(), 0)
		s.Hang = 0
		e.Level = s.Depth

	case KindConditional:
		e.Level = s.Depth + s.Hang
		if opensBracelessBody(l.Text) {
			s.Hang++
		} else {
			s.Hang = 0
		}

	default:
		e.Level = s.Depth + s.Hang
		s.Hang = 0
	}

	return s, e
}

// opensBracelessBody reports whether a conditional leaves its body for the
// following line without a brace.
func opensBracelessBody(text string) bool {
	return !strings.HasSuffix(text, "{") &&
		!strings.HasSuffix(text, "}") &&
		!strings.HasSuffix(text, ";")
}

// writer accumulates output lines and never writes two blank lines in a row.
type writer struct {
	lines []string
}

func (w *writer) blank() {
	if n := len(w.lines); n > 0 && w.lines[n-1] == "" {
		return
	}
	w.lines = append(w.lines, "")
}

func (w *writer) emit(e Emit) {
	if e.BlankBefore {
		w.blank()
	}
	if e.Blank() {
		w.blank()
	} else {
		w.lines = append(w.lines, indent(e.Level)+e.Text)
	}
	if e.BlankAfter {
		w.blank()
	}
}

func (w *writer) String() string {
	if len(w.lines) == 0 {
		return ""
	}
	return strings.Join(w.lines, "\n") + "\n"
}

func indent(level int) string {
	return strings.Repeat(indentUnit, max(level, 0))
}

// Rules is the canonical formatter: it classifies every line and folds the
// classified lines through Step.
type Rules struct{}

// Format implements Formatter.
func (Rules) Format(content string) Result {
	lines := documentLines(content)

	var w writer
	var s State
	for _, raw := range lines {
		var e Emit
		s, e = Step(s, Classify(raw))
		w.emit(e)
	}

	return Result{Original: content, Formatted: w.String()}
}

// Annotation records how the rule engine treats one line of the original
// document.
type Annotation struct {
	Index int // 0-based line index in the original content
	Line  Line
	Level int   // indentation level the line is emitted at
	State State // state after the line
}

// Annotate runs the rule engine over content without trimming the document,
// so that every annotation maps onto a line of the original text.
func Annotate(content string) []Annotation {
	lines := strings.Split(normalizeNewlines(content), "\n")
	out := make([]Annotation, 0, len(lines))

	var s State
	for i, raw := range lines {
		l := Classify(raw)
		var e Emit
		s, e = Step(s, l)
		out = append(out, Annotation{Index: i, Line: l, Level: e.Level, State: s})
	}
	return out
}
