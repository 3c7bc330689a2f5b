package document

import (
	"github.com/dshills/zparse/internal/ast"
)

// OffsetToPath converts an absolute offset to a tree path.
func (d *Document) OffsetToPath(pos int) (ast.Path, error) {
	root, err := d.Root()
	if err != nil {
		return nil, err
	}
	return root.OffsetToPath(pos)
}

// PathToOffset converts a tree path to an absolute offset.
func (d *Document) PathToOffset(p ast.Path) (int, error) {
	root, err := d.Root()
	if err != nil {
		return 0, err
	}
	return root.PathToOffset(p)
}

// Lookup returns the node a path addresses.
func (d *Document) Lookup(p ast.Path) (ast.Node, error) {
	root, err := d.Root()
	if err != nil {
		return nil, err
	}
	return root.Lookup(p)
}

// GetWord returns the token text under pos, or "" when pos is in whitespace.
// With connectBack, preceding tokens that touch the word with no gap are
// joined to it, so A.B.C reads as one word when "." is a keyword.
func (d *Document) GetWord(pos int, connectBack bool) (string, error) {
	start, end, err := d.GetWordBounds(pos, connectBack)
	if err != nil {
		return "", err
	}
	return d.text[start:end], nil
}

// GetWordBounds returns the absolute [start, end) of the word GetWord would
// return. In whitespace both bounds equal pos.
func (d *Document) GetWordBounds(pos int, connectBack bool) (int, int, error) {
	root, err := d.Root()
	if err != nil {
		return 0, 0, err
	}

	leaf, p, err := root.LeafAt(pos)
	if err != nil {
		return 0, 0, err
	}
	if p.InGap() {
		return pos, pos, nil
	}

	start := pos - p[len(p)-1]
	end := start + len(leaf.Text())
	if !connectBack {
		return start, end, nil
	}

	parentNode, err := root.Lookup(p[:len(p)-2])
	if err != nil {
		return 0, 0, err
	}
	parent, ok := parentNode.(*ast.SubTree)
	if !ok {
		return start, end, nil
	}

	cur := leaf
	for i := p[len(p)-2]; i > 0 && cur.Gap() == 0; i-- {
		prev, ok := parent.Child(i - 1).(*ast.Leaf)
		if !ok || prev.Text() == "" {
			break
		}
		start -= len(prev.Text())
		cur = prev
	}
	return start, end, nil
}

// GetNodesAt returns the leaves that start on a 0-based line.
func (d *Document) GetNodesAt(line int) ([]ast.Node, bool) {
	if d.result == nil {
		return nil, false
	}
	return d.result.Lines.At(line)
}

// Contains reports whether any token's text equals text.
func (d *Document) Contains(text string) bool {
	if d.result == nil {
		return false
	}
	return d.result.Root.Contains(text)
}

// Count returns how many tokens have exactly the given text.
func (d *Document) Count(text string) int {
	if d.result == nil {
		return 0
	}
	return d.result.Root.Count(text)
}
