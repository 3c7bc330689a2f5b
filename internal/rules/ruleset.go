// Package rules defines the declarative rule tables that drive the parser.
//
// A RuleSet holds four independently priority-ordered rule lists. Earlier
// entries in a list win over later ones; between lists the precedence is
// fixed: position-relevant, non-splittable, keywords, level delimiters.
// A RuleSet is plain data; Compile validates it and returns the immutable
// matcher the parser consumes.
package rules

import (
	"github.com/dshills/zparse/internal/ast"
)

// PatternKind distinguishes literal from regular-expression patterns.
type PatternKind uint8

const (
	// PatternLiteral matches an exact substring.
	PatternLiteral PatternKind = iota

	// PatternRegex matches a regular expression with exactly one capture group.
	PatternRegex
)

// String returns the kind name used in rule files.
func (k PatternKind) String() string {
	switch k {
	case PatternLiteral:
		return "literal"
	case PatternRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// Pattern is either Literal(s) or Regex(s).
type Pattern struct {
	Kind   PatternKind
	Source string
}

// Literal returns a pattern matching s exactly.
func Literal(s string) Pattern {
	return Pattern{Kind: PatternLiteral, Source: s}
}

// Regex returns a pattern matching the single capture group of expr.
func Regex(expr string) Pattern {
	return Pattern{Kind: PatternRegex, Source: expr}
}

// PositionRule recognizes a token by where it sits on its line. Pattern must
// have exactly one capture group; the token is the group, and it is accepted
// only when the group starts at the scanner's column.
type PositionRule struct {
	Tag     ast.Tag
	Pattern string
}

// DelimiterRule is a start/end pair. It is used both for non-splittable
// regions and for level delimiters.
type DelimiterRule struct {
	Tag   ast.Tag
	Start string
	End   string
}

// KeywordRule forces a token boundary wherever Pattern matches.
type KeywordRule struct {
	Tag     ast.Tag
	Pattern Pattern
}

// RuleSet is the per-language configuration of the parser.
type RuleSet struct {
	// Language names the rule set (e.g. "hlasm").
	Language string

	// Extensions lists file extensions, with leading dot, the rule set applies to.
	Extensions []string

	// PositionRelevant rules have the highest precedence. Leave empty for
	// context-free languages.
	PositionRelevant []PositionRule

	// NonSplittable regions become one opaque leaf each.
	NonSplittable []DelimiterRule

	// Keywords split words even without surrounding whitespace.
	Keywords []KeywordRule

	// LevelDelimiters open nested subtrees.
	LevelDelimiters []DelimiterRule
}

// MustCompile is like Compile but panics on error. It is meant for rule sets
// defined in code.
func (rs *RuleSet) MustCompile() *Compiled {
	c, err := rs.Compile()
	if err != nil {
		panic(err)
	}
	return c
}
