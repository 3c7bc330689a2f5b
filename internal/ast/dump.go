package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of n to w, one node per line.
func Dump(w io.Writer, n Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *Leaf:
		_, err := fmt.Fprintf(w, "%s%s %q gap=%d\n", indent, v.tag, v.text, v.gap)
		return err
	case *SubTree:
		if _, err := fmt.Fprintf(w, "%s%s len=%d\n", indent, v.tag, v.Len()); err != nil {
			return err
		}
		for _, c := range v.children {
			if err := dump(w, c, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
