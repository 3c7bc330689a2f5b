package parser

import (
	"errors"
	"fmt"

	"github.com/dshills/zparse/internal/ast"
)

// Errors returned by the parser.
var (
	// ErrNoRules indicates Parse was called without a compiled rule set.
	ErrNoRules = errors.New("no rule set")

	// ErrSeekBackward indicates a line lookup behind the line cache.
	ErrSeekBackward = errors.New("line lookup moved backward")
)

// SeekDirectionError reports a line lookup for an offset before the start of
// the cached line. Line resolution only moves forward within one parse.
type SeekDirectionError struct {
	Offset    int
	LineStart int
}

func (e *SeekDirectionError) Error() string {
	return fmt.Sprintf("offset %d is before cached line start %d", e.Offset, e.LineStart)
}

func (e *SeekDirectionError) Unwrap() error {
	return ErrSeekBackward
}

// RegionKind tells which construct was left open.
type RegionKind uint8

const (
	// KindNonSplittable is an opaque region such as a string literal.
	KindNonSplittable RegionKind = iota

	// KindLevel is a nested level-delimiter scope.
	KindLevel
)

// String returns the kind name.
func (k RegionKind) String() string {
	if k == KindLevel {
		return "level scope"
	}
	return "non-splittable region"
}

// UnterminatedRegionWarning reports a region or scope without its closing
// delimiter. The parse still succeeds: the construct runs to end of input.
type UnterminatedRegionWarning struct {
	Kind   RegionKind
	Tag    ast.Tag
	Offset int
	Line   int
}

func (w UnterminatedRegionWarning) Error() string {
	return fmt.Sprintf("unterminated %s %s opened at line %d, offset %d", w.Kind, w.Tag, w.Line, w.Offset)
}
