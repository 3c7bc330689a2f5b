package ast

import (
	"strconv"
	"strings"
)

// Tag identifies the lexical class of a node. Tags are defined by the rule
// set in use; the parser reserves the ones below.
type Tag string

// Reserved tags.
const (
	// TagRoot tags the root subtree of a parse.
	TagRoot Tag = "ROOT"

	// TagItem tags a generic word that no rule claimed.
	TagItem Tag = "ITEM"

	// TagEOF tags the synthetic leaf holding whitespace after the last token.
	TagEOF Tag = "EOF"
)

// IsReserved reports whether the tag is reserved by the parser.
func (t Tag) IsReserved() bool {
	return t == TagRoot || t == TagItem || t == TagEOF
}

// Path addresses a node from a subtree down. All elements but the last are
// child indices; the last is a character offset into the leaf's text and may
// be negative to point into the gap before it.
type Path []int

// String returns the path as "[i j k]".
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	c := make(Path, len(p))
	copy(c, p)
	return c
}

// InGap reports whether the path ends inside the whitespace before a token.
func (p Path) InGap() bool {
	return len(p) > 0 && p[len(p)-1] < 0
}

// Node is implemented by *Leaf and *SubTree.
type Node interface {
	// Tag returns the node's tag.
	Tag() Tag

	// Len returns the number of source characters the node spans,
	// including every leading gap.
	Len() int

	// Render reconstructs the source text the node spans.
	Render() string

	// OffsetToPath converts an offset relative to the node's start to a path.
	OffsetToPath(rel int) (Path, error)

	// PathToOffset converts a path to an offset relative to the node's start.
	PathToOffset(p Path) (int, error)

	// Lookup returns the node a path addresses.
	Lookup(p Path) (Node, error)
}

// Leaf is an atomic token. It is immutable after creation.
type Leaf struct {
	tag     Tag
	text    string
	gap     int
	gapText string
}

// NewLeaf creates a leaf preceded by gap characters of whitespace.
// The gap renders as spaces.
func NewLeaf(tag Tag, text string, gap int) *Leaf {
	if gap < 0 {
		gap = 0
	}
	return &Leaf{tag: tag, text: text, gap: gap}
}

// NewLeafWithGap creates a leaf that keeps the literal text of its gap so
// that Render reproduces the source exactly.
func NewLeafWithGap(tag Tag, text, gapText string) *Leaf {
	return &Leaf{tag: tag, text: text, gap: len(gapText), gapText: gapText}
}

// Tag returns the leaf's tag.
func (l *Leaf) Tag() Tag { return l.tag }

// Text returns the token text.
func (l *Leaf) Text() string { return l.text }

// Gap returns the number of characters between the previous token and this one.
func (l *Leaf) Gap() int { return l.gap }

// Len returns Gap() + len(Text()).
func (l *Leaf) Len() int { return l.gap + len(l.text) }

// Render returns the gap followed by the token text.
func (l *Leaf) Render() string {
	if l.gap == 0 {
		return l.text
	}
	if len(l.gapText) == l.gap {
		return l.gapText + l.text
	}
	return strings.Repeat(" ", l.gap) + l.text
}

// OffsetToPath returns [rel - Gap()]. The result is negative when rel falls
// in the gap.
func (l *Leaf) OffsetToPath(rel int) (Path, error) {
	if rel < 0 || rel > l.Len() {
		return nil, &OutOfRangeError{Op: "leaf offset", Value: rel, Min: 0, Max: l.Len()}
	}
	return Path{rel - l.gap}, nil
}

// PathToOffset returns Gap() + p[0]. An empty path addresses the start of
// the leaf, before its gap.
func (l *Leaf) PathToOffset(p Path) (int, error) {
	switch len(p) {
	case 0:
		return 0, nil
	case 1:
	default:
		return 0, ErrPathDepth
	}
	if err := l.check(p[0]); err != nil {
		return 0, err
	}
	return l.gap + p[0], nil
}

// Lookup returns the leaf itself when the path's offset is within bounds.
func (l *Leaf) Lookup(p Path) (Node, error) {
	switch len(p) {
	case 0:
		return l, nil
	case 1:
	default:
		return nil, ErrPathDepth
	}
	if err := l.check(p[0]); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Leaf) check(v int) error {
	if v < -l.gap || v > len(l.text) {
		return &OutOfRangeError{Op: "leaf path", Value: v, Min: -l.gap, Max: len(l.text)}
	}
	return nil
}

// String returns a debug representation of the leaf.
func (l *Leaf) String() string {
	return string(l.tag) + "(" + strconv.Quote(l.text) + ")"
}
