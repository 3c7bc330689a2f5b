package ast

import (
	"fmt"
	"strings"
)

// SubTree is an ordered, tagged sequence of child nodes in document order.
type SubTree struct {
	tag      Tag
	children []Node
}

// NewSubTree creates a subtree with the given children.
func NewSubTree(tag Tag, children ...Node) *SubTree {
	return &SubTree{tag: tag, children: children}
}

// Tag returns the subtree's tag.
func (t *SubTree) Tag() Tag { return t.tag }

// Children returns the child slice. The slice is owned by the subtree and
// must not be modified.
func (t *SubTree) Children() []Node { return t.children }

// ChildCount returns the number of children.
func (t *SubTree) ChildCount() int { return len(t.children) }

// Child returns the child at index i, or nil when i is out of range.
func (t *SubTree) Child(i int) Node {
	if i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

// Len returns the sum of the children's lengths.
func (t *SubTree) Len() int {
	n := 0
	for _, c := range t.children {
		n += c.Len()
	}
	return n
}

// Render concatenates the children's renders.
func (t *SubTree) Render() string {
	var sb strings.Builder
	t.render(&sb)
	return sb.String()
}

func (t *SubTree) render(sb *strings.Builder) {
	for _, c := range t.children {
		if st, ok := c.(*SubTree); ok {
			st.render(sb)
			continue
		}
		sb.WriteString(c.Render())
	}
}

// OffsetToPath finds the child whose span [start, start+len) holds rel and
// recurses into it. An offset equal to Len() resolves to the end of the last
// child.
func (t *SubTree) OffsetToPath(rel int) (Path, error) {
	total := t.Len()
	if rel < 0 || rel > total {
		return nil, &OutOfRangeError{Op: "subtree offset", Value: rel, Min: 0, Max: total}
	}

	acc := 0
	for i, c := range t.children {
		n := c.Len()
		if rel < acc+n {
			sub, err := c.OffsetToPath(rel - acc)
			if err != nil {
				return nil, err
			}
			return append(Path{i}, sub...), nil
		}
		acc += n
	}

	if len(t.children) == 0 {
		return Path{}, nil
	}
	last := len(t.children) - 1
	sub, err := t.children[last].OffsetToPath(t.children[last].Len())
	if err != nil {
		return nil, err
	}
	return append(Path{last}, sub...), nil
}

// PathToOffset sums the lengths of the children before p[0] and adds the
// indexed child's offset for p[1:].
func (t *SubTree) PathToOffset(p Path) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	i := p[0]
	if i < 0 || i >= len(t.children) {
		return 0, &IndexOutOfRangeError{Op: "path to offset", Index: i, Len: len(t.children)}
	}

	acc := 0
	for _, c := range t.children[:i] {
		acc += c.Len()
	}
	sub, err := t.children[i].PathToOffset(p[1:])
	if err != nil {
		return 0, err
	}
	return acc + sub, nil
}

// Lookup returns the node p addresses. An index of -1 selects the last child.
func (t *SubTree) Lookup(p Path) (Node, error) {
	if len(p) == 0 {
		return t, nil
	}
	i := p[0]
	if i < -1 || i >= len(t.children) || (i == -1 && len(t.children) == 0) {
		return nil, &IndexOutOfRangeError{Op: "lookup", Index: i, Len: len(t.children)}
	}
	if i == -1 {
		i = len(t.children) - 1
	}
	if len(p) == 1 {
		return t.children[i], nil
	}
	return t.children[i].Lookup(p[1:])
}

// Append adds nodes after the last child.
func (t *SubTree) Append(nodes ...Node) {
	t.children = append(t.children, nodes...)
}

// Extend appends every child of other, in order.
func (t *SubTree) Extend(other *SubTree) {
	t.children = append(t.children, other.children...)
}

// Insert places n before the child at index i. i == ChildCount() appends.
func (t *SubTree) Insert(i int, n Node) error {
	if i < 0 || i > len(t.children) {
		return &IndexOutOfRangeError{Op: "insert", Index: i, Len: len(t.children)}
	}
	t.children = append(t.children, nil)
	copy(t.children[i+1:], t.children[i:])
	t.children[i] = n
	return nil
}

// Remove deletes and returns the child at index i.
func (t *SubTree) Remove(i int) (Node, error) {
	if i < 0 || i >= len(t.children) {
		return nil, &IndexOutOfRangeError{Op: "remove", Index: i, Len: len(t.children)}
	}
	n := t.children[i]
	t.children = append(t.children[:i], t.children[i+1:]...)
	return n, nil
}

// Pop removes and returns the last child.
func (t *SubTree) Pop() (Node, bool) {
	if len(t.children) == 0 {
		return nil, false
	}
	last := len(t.children) - 1
	n := t.children[last]
	t.children[last] = nil
	t.children = t.children[:last]
	return n, true
}

// Flatten returns every leaf in pre-order.
func (t *SubTree) Flatten() []*Leaf {
	var leaves []*Leaf
	t.Walk(func(_ Path, n Node) bool {
		if l, ok := n.(*Leaf); ok {
			leaves = append(leaves, l)
		}
		return true
	})
	return leaves
}

// FlattenText returns the text of every leaf in pre-order.
func (t *SubTree) FlattenText() []string {
	leaves := t.Flatten()
	texts := make([]string, len(leaves))
	for i, l := range leaves {
		texts[i] = l.text
	}
	return texts
}

// Contains reports whether any leaf's text equals text.
func (t *SubTree) Contains(text string) bool {
	for _, s := range t.FlattenText() {
		if s == text {
			return true
		}
	}
	return false
}

// Count returns the number of leaves whose text equals text.
func (t *SubTree) Count(text string) int {
	n := 0
	for _, s := range t.FlattenText() {
		if s == text {
			n++
		}
	}
	return n
}

// Walk visits every descendant in pre-order with its child-index path.
// Returning false from fn skips the node's children.
func (t *SubTree) Walk(fn func(p Path, n Node) bool) {
	t.walk(nil, fn)
}

func (t *SubTree) walk(prefix Path, fn func(Path, Node) bool) {
	for i, c := range t.children {
		p := append(prefix.Clone(), i)
		if !fn(p, c) {
			continue
		}
		if st, ok := c.(*SubTree); ok {
			st.walk(p, fn)
		}
	}
}

// LeafAt returns the leaf that owns the offset rel along with its path.
func (t *SubTree) LeafAt(rel int) (*Leaf, Path, error) {
	p, err := t.OffsetToPath(rel)
	if err != nil {
		return nil, nil, err
	}
	n, err := t.Lookup(p)
	if err != nil {
		return nil, nil, err
	}
	l, ok := n.(*Leaf)
	if !ok {
		return nil, nil, fmt.Errorf("offset %d: %w", rel, ErrOutOfRange)
	}
	return l, p, nil
}

// String returns a debug representation of the subtree.
func (t *SubTree) String() string {
	return fmt.Sprintf("%s{%d}", t.tag, len(t.children))
}
