package rules

import (
	"errors"
	"fmt"

	"github.com/dshills/zparse/internal/ast"
)

// Errors returned by rule set operations.
var (
	// ErrInvalidRule indicates a malformed rule set.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrUnknownLanguage indicates no preset exists for a language name.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrUnknownFormat indicates a rule file with an unsupported extension.
	ErrUnknownFormat = errors.New("unknown rule file format")
)

// ConfigError describes a malformed rule. It is reported by Compile and is
// fatal to the rule set.
type ConfigError struct {
	Table  string
	Index  int
	Tag    ast.Tag
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("%s[%d] %s: %s", e.Table, e.Index, e.Tag, e.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", e.Table, e.Index, e.Reason)
}

// Is reports ErrInvalidRule so callers can match any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidRule
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
