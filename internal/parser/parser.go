// Package parser turns source text into an ast tree using a compiled rule set.
//
// Parsing is a deterministic function of (source, rules). At each position
// the scanner tries, in order: position-relevant rules, non-splittable
// regions, keywords, whitespace, the closing delimiter of the current level,
// a level-delimiter opening, and finally a generic word. Unterminated regions
// and scopes run to end of input and are reported as warnings, so a broken
// buffer still yields a usable tree.
package parser

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/rules"
)

// Result is the output of a parse.
type Result struct {
	// Root is the ROOT subtree. Root.Render() equals the source.
	Root *ast.SubTree

	// Lines indexes every emitted leaf by the line its token starts on.
	Lines LineIndex

	// Warnings lists regions and scopes left open at end of input.
	Warnings []UnterminatedRegionWarning
}

// Option configures a parse.
type Option func(*Parser)

// WithLogger sets the logger used for debug tracing and warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) {
		p.log = l
	}
}

// Parser holds the state of one scan. It is not reusable; use Parse.
type Parser struct {
	src   string
	rules *rules.Compiled
	log   zerolog.Logger

	cursor  int
	lastEnd int
	lines   *lineCache
	index   LineIndex

	warnings []UnterminatedRegionWarning
}

// Parse scans src with rs and returns the tree and line index.
func Parse(src string, rs *rules.Compiled, opts ...Option) (*Result, error) {
	if rs == nil {
		return nil, ErrNoRules
	}

	p := &Parser{
		src:   src,
		rules: rs,
		log:   zerolog.Nop(),
		lines: newLineCache(src),
		index: make(LineIndex),
	}
	for _, opt := range opts {
		opt(p)
	}

	start := time.Now()
	root := ast.NewSubTree(ast.TagRoot)
	if err := p.scanScope(root, nil); err != nil {
		return nil, err
	}

	// Trailing whitespace belongs to no token; keep it so Render round-trips.
	if p.lastEnd < len(src) {
		root.Append(ast.NewLeafWithGap(ast.TagEOF, "", src[p.lastEnd:]))
	}

	p.log.Debug().
		Str("language", rs.Language()).
		Int("bytes", len(src)).
		Int("lines", p.lines.num+1).
		Int("warnings", len(p.warnings)).
		Dur("elapsed", time.Since(start)).
		Msg("parsed")

	return &Result{Root: root, Lines: p.index, Warnings: p.warnings}, nil
}

// scanScope parses one nesting level into node. level is nil for the root;
// otherwise the scope's opening delimiter sits at the cursor and is emitted
// first, and the scope ends after its closing delimiter.
func (p *Parser) scanScope(node *ast.SubTree, level *rules.DelimiterRule) error {
	opened := p.cursor
	if level != nil {
		if err := p.emit(node, level.Tag, p.cursor+len(level.Start)); err != nil {
			return err
		}
	}

	for p.cursor < len(p.src) {
		rest := p.src[p.cursor:]

		m, ok, err := p.matchPosition(p.cursor)
		if err != nil {
			return err
		}
		if ok {
			if err := p.emit(node, m.Tag, p.cursor+m.Len); err != nil {
				return err
			}
			continue
		}

		if r, ok := p.rules.MatchRegion(rest); ok {
			if err := p.emitRegion(node, r); err != nil {
				return err
			}
			continue
		}

		if m, ok := p.rules.MatchKeyword(rest); ok {
			if err := p.emit(node, m.Tag, p.cursor+m.Len); err != nil {
				return err
			}
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		if unicode.IsSpace(r) {
			p.cursor += size
			continue
		}

		if level != nil && strings.HasPrefix(rest, level.End) {
			return p.emit(node, level.Tag, p.cursor+len(level.End))
		}

		if lv, ok := p.rules.MatchLevel(rest); ok {
			child := ast.NewSubTree(lv.Tag)
			node.Append(child)
			if err := p.scanScope(child, &lv); err != nil {
				return err
			}
			continue
		}

		end, err := p.wordEnd(level)
		if err != nil {
			return err
		}
		if err := p.emit(node, ast.TagItem, end); err != nil {
			return err
		}
	}

	if level != nil {
		p.warn(KindLevel, level.Tag, opened)
	}
	return nil
}

// emitRegion emits a non-splittable region starting at the cursor. The end
// delimiter is searched strictly after the start delimiter; without one the
// region takes the rest of the input.
func (p *Parser) emitRegion(node *ast.SubTree, r rules.DelimiterRule) error {
	from := p.cursor + len(r.Start)
	end := len(p.src)
	if i := strings.Index(p.src[from:], r.End); i >= 0 {
		end = from + i + len(r.End)
	} else {
		p.warn(KindNonSplittable, r.Tag, p.cursor)
	}
	return p.emit(node, r.Tag, end)
}

// wordEnd returns the end of the generic word at the cursor: the longest run
// of non-space characters before any position where another rule, the
// scope's closing delimiter, or a level opening begins. The word is at least
// one character long.
func (p *Parser) wordEnd(level *rules.DelimiterRule) (int, error) {
	_, size := utf8.DecodeRuneInString(p.src[p.cursor:])
	end := p.cursor + size
	for end < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[end:])
		if unicode.IsSpace(r) {
			break
		}
		stop, err := p.boundaryAt(end, level)
		if err != nil {
			return 0, err
		}
		if stop {
			break
		}
		end += size
	}
	return end, nil
}

func (p *Parser) boundaryAt(pos int, level *rules.DelimiterRule) (bool, error) {
	rest := p.src[pos:]
	if level != nil && strings.HasPrefix(rest, level.End) {
		return true, nil
	}
	if _, ok, err := p.matchPosition(pos); err != nil || ok {
		return ok, err
	}
	if _, ok := p.rules.MatchRegion(rest); ok {
		return true, nil
	}
	if _, ok := p.rules.MatchKeyword(rest); ok {
		return true, nil
	}
	_, ok := p.rules.MatchLevel(rest)
	return ok, nil
}

func (p *Parser) matchPosition(pos int) (rules.Match, bool, error) {
	if !p.rules.HasPositionRules() {
		return rules.Match{}, false, nil
	}
	if err := p.lines.seek(pos); err != nil {
		return rules.Match{}, false, err
	}
	m, ok := p.lines.position(p.rules, pos)
	return m, ok, nil
}

// emit appends a leaf spanning [cursor, end) to node, with the text since
// the previous token as its gap, and records it in the line index.
func (p *Parser) emit(node *ast.SubTree, tag ast.Tag, end int) error {
	start := p.cursor
	if err := p.lines.seek(start); err != nil {
		return err
	}

	leaf := ast.NewLeafWithGap(tag, p.src[start:end], p.src[p.lastEnd:start])
	node.Append(leaf)
	p.index[p.lines.num] = append(p.index[p.lines.num], leaf)

	p.cursor = end
	p.lastEnd = end
	return nil
}

func (p *Parser) warn(kind RegionKind, tag ast.Tag, offset int) {
	w := UnterminatedRegionWarning{
		Kind:   kind,
		Tag:    tag,
		Offset: offset,
		Line:   strings.Count(p.src[:offset], "\n"),
	}
	p.warnings = append(p.warnings, w)
	p.log.Warn().
		Str("kind", kind.String()).
		Str("tag", string(tag)).
		Int("line", w.Line).
		Int("offset", offset).
		Msg("unterminated region")
}
