// Package validate checks that a Kamailio configuration is structurally
// balanced: every '{' has a '}' and every #!ifdef/#!ifndef has an #!endif.
// It is independent of formatting and stops at the first problem.
package validate

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a structural failure.
type Kind int

const (
	KindUnexpectedEndif Kind = iota + 1
	KindUnexpectedClosingBracket
	KindUnmatchedStructure
)

func (k Kind) String() string {
	switch k {
	case KindUnexpectedEndif:
		return "UnexpectedEndif"
	case KindUnexpectedClosingBracket:
		return "UnexpectedClosingBracket"
	case KindUnmatchedStructure:
		return "UnmatchedStructure"
	default:
		return "Unknown"
	}
}

// Structure names what was left open at the end of the document.
type Structure int

const (
	StructureNone Structure = iota
	StructureBrackets
	StructurePreprocessor
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrUnexpectedEndif          = errors.New("unexpected #!endif")
	ErrUnexpectedClosingBracket = errors.New("unexpected closing bracket")
	ErrUnmatchedStructure       = errors.New("unmatched structure")
)

// Error describes the first structural problem found in a document.
type Error struct {
	Kind      Kind
	Line      int // 1-based; 0 when the problem is only visible at the end
	Structure Structure
	Msg       string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindUnexpectedEndif:
		return target == ErrUnexpectedEndif
	case KindUnexpectedClosingBracket:
		return target == ErrUnexpectedClosingBracket
	case KindUnmatchedStructure:
		return target == ErrUnmatchedStructure
	}
	return false
}

// Validate scans content once and returns nil when braces and preprocessor
// conditionals balance, or an *Error for the first imbalance.
func Validate(content string) error {
	blocks := 0
	preprocessor := 0

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		lineNum := i + 1

		switch {
		case strings.HasPrefix(line, "#!ifdef"), strings.HasPrefix(line, "#!ifndef"):
			preprocessor++
		case line == "#!endif":
			preprocessor--
			if preprocessor < 0 {
				return &Error{
					Kind: KindUnexpectedEndif,
					Line: lineNum,
					Msg:  "unexpected #!endif",
				}
			}
		}

		for _, r := range line {
			switch r {
			case '{':
				blocks++
			case '}':
				blocks--
			}
			if blocks < 0 {
				return &Error{
					Kind: KindUnexpectedClosingBracket,
					Line: lineNum,
					Msg:  "unexpected closing bracket",
				}
			}
		}
	}

	if blocks != 0 {
		return &Error{
			Kind:      KindUnmatchedStructure,
			Structure: StructureBrackets,
			Msg:       "unmatched brackets",
		}
	}
	if preprocessor != 0 {
		return &Error{
			Kind:      KindUnmatchedStructure,
			Structure: StructurePreprocessor,
			Msg:       "unmatched preprocessor directives",
		}
	}
	return nil
}
