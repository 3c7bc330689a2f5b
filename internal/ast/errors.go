package ast

import (
	"errors"
	"fmt"
)

// Errors returned by addressing operations.
var (
	// ErrOutOfRange indicates an offset or path element outside a node's span.
	ErrOutOfRange = errors.New("out of range")

	// ErrIndexOutOfRange indicates a child index outside a subtree's children.
	ErrIndexOutOfRange = errors.New("child index out of range")

	// ErrPathDepth indicates a path that continues past a leaf.
	ErrPathDepth = errors.New("path continues past a leaf")
)

// OutOfRangeError reports an offset or leaf path element outside [Min, Max].
type OutOfRangeError struct {
	Op    string
	Value int
	Min   int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: %d not in [%d, %d]", e.Op, e.Value, e.Min, e.Max)
}

func (e *OutOfRangeError) Unwrap() error {
	return ErrOutOfRange
}

// IndexOutOfRangeError reports a child index a subtree does not have.
type IndexOutOfRangeError struct {
	Op    string
	Index int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range for %d children", e.Op, e.Index, e.Len)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}
