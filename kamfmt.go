// Package kamfmt formats and validates Kamailio configuration files.
//
// Format never fails: broken structure only degrades indentation. Validate
// reports the first unbalanced brace or preprocessor conditional.
package kamfmt

import (
	"fmt"
	"os"

	"github.com/jsvensson/kamfmt/internal/format"
	"github.com/jsvensson/kamfmt/internal/validate"
)

// Result holds the original text next to its formatted form.
type Result = format.Result

// ValidationError describes a structural problem found by Validate.
type ValidationError = validate.Error

// Errors matched by a *ValidationError through errors.Is.
var (
	ErrUnexpectedEndif          = validate.ErrUnexpectedEndif
	ErrUnexpectedClosingBracket = validate.ErrUnexpectedClosingBracket
	ErrUnmatchedStructure       = validate.ErrUnmatchedStructure
)

// Format re-indents content with the rule engine.
func Format(content string) Result {
	return format.Format(content)
}

// FormatWith re-indents content with the named strategy ("rules" or "braces").
func FormatWith(strategy, content string) (Result, error) {
	f, err := format.ByName(strategy)
	if err != nil {
		return Result{}, err
	}
	return f.Format(content), nil
}

// Validate returns nil when braces and #!ifdef conditionals balance, or a
// *ValidationError for the first imbalance.
func Validate(content string) error {
	return validate.Validate(content)
}

// FormatFile reads and formats a file without writing it back.
func FormatFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading config: %w", err)
	}
	return Format(string(data)), nil
}
