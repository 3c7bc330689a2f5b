package parser

import (
	"strings"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/rules"
)

// LineIndex maps a 0-based line number to the leaves that start on it, in
// document order.
type LineIndex map[int][]ast.Node

// At returns the nodes on a line.
func (li LineIndex) At(line int) ([]ast.Node, bool) {
	nodes, ok := li[line]
	return nodes, ok
}

// lineCache tracks the line holding the scanner's cursor. It only moves
// forward; asking for an earlier offset fails with SeekDirectionError.
type lineCache struct {
	src   string
	num   int
	start int
	end   int // index of the terminating '\n', or len(src)

	// Position-relevant matches for the current line, keyed by column.
	positions map[int]rules.Match
	scanned   bool
}

func newLineCache(src string) *lineCache {
	c := &lineCache{src: src}
	c.end = c.lineEnd(0)
	return c
}

func (c *lineCache) lineEnd(from int) int {
	if i := strings.IndexByte(c.src[from:], '\n'); i >= 0 {
		return from + i
	}
	return len(c.src)
}

// seek advances the cache to the line containing offset. A newline belongs
// to the line it terminates.
func (c *lineCache) seek(offset int) error {
	if offset < c.start {
		return &SeekDirectionError{Offset: offset, LineStart: c.start}
	}
	for offset > c.end && c.end < len(c.src) {
		c.start = c.end + 1
		c.end = c.lineEnd(c.start)
		c.num++
		c.positions = nil
		c.scanned = false
	}
	return nil
}

// text returns the current line without its newline.
func (c *lineCache) text() string {
	return c.src[c.start:c.end]
}

// position returns the position-relevant match starting at offset, which
// must be on the current line.
func (c *lineCache) position(rs *rules.Compiled, offset int) (rules.Match, bool) {
	if !c.scanned {
		c.positions = rs.PositionMatches(c.text())
		c.scanned = true
	}
	m, ok := c.positions[offset-c.start]
	return m, ok
}
