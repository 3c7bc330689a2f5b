// Package ast provides the offset-addressable syntax tree built by the parser.
//
// The tree has two node kinds. A Leaf is an atomic token holding its tag, its
// literal text and the gap of unaccounted characters that precede it. A
// SubTree is an ordered, tagged sequence of child nodes representing one
// nesting level (the root, or a parenthesised scope).
//
// # Addressing
//
// Every node answers the same length/offset contract. An absolute character
// offset converts to a Path of child indices whose last element is an offset
// into the owning leaf's text:
//
//	root := ast.NewSubTree(ast.TagRoot,
//	    ast.NewLeaf(ast.TagItem, "foo", 0),
//	    ast.NewLeaf(ast.TagItem, "bar", 1),
//	)
//
//	p, _ := root.OffsetToPath(5) // [1 1]: the "a" of "bar"
//	p, _ = root.OffsetToPath(3)  // [1 -1]: the space before "bar"
//	off, _ := root.PathToOffset(ast.Path{1, 1}) // 5
//
// A negative final element means the position falls in the gap before the
// token. OffsetToPath and PathToOffset are inverses for every offset in
// [0, Len()].
//
// # Ownership
//
// A SubTree exclusively owns its children and the tree is acyclic. Nothing is
// synchronized: mutating a subtree invalidates every path computed from it,
// and callers that share a tree across goroutines must provide their own
// locking. The parser rebuilds the whole tree on every re-parse.
package ast
