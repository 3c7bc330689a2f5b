// Package document is the editor-facing view of a parsed buffer.
//
// A Document keeps the buffer text, its compiled rule set and the latest
// parse. Every Update re-parses the whole text; paths obtained before an
// Update are invalid afterwards, which Revision makes detectable. A Document
// is not safe for concurrent use.
package document

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/parser"
	"github.com/dshills/zparse/internal/rules"
)

// Errors returned by document operations.
var (
	// ErrNotTokenized indicates the last parse failed; only the text is available.
	ErrNotTokenized = errors.New("buffer is not tokenized")

	// ErrOffsetOutOfRange indicates a change offset outside the text.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrChangeMismatch indicates a delete whose content differs from the text.
	ErrChangeMismatch = errors.New("deleted content does not match text")

	// ErrUnknownAction indicates a change with an unsupported action.
	ErrUnknownAction = errors.New("unknown change action")
)

// Action is the kind of a Change.
type Action uint8

const (
	// Insert places Content at Offset.
	Insert Action = iota

	// Delete removes Content, which must be found at Offset.
	Delete
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Change is one edit applied by Update.
type Change struct {
	Content string
	Offset  int
	Action  Action
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger passed to the parser.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Document) {
		d.log = l
	}
}

// Document is a buffer with its syntax tree.
type Document struct {
	text     string
	rules    *rules.Compiled
	log      zerolog.Logger
	result   *parser.Result
	err      error
	revision string
}

// New parses text with rs.
func New(text string, rs *rules.Compiled, opts ...Option) (*Document, error) {
	d := &Document{
		text:  text,
		rules: rs,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.reparse(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) reparse() error {
	d.revision = uuid.NewString()
	res, err := parser.Parse(d.text, d.rules, parser.WithLogger(d.log))
	if err != nil {
		d.result, d.err = nil, err
		d.log.Error().Err(err).Str("revision", d.revision).Msg("cannot tokenize buffer")
		return fmt.Errorf("parsing buffer: %w", err)
	}
	d.result, d.err = res, nil
	return nil
}

// Update applies a change to the text and re-parses it.
func (d *Document) Update(c Change) error {
	if c.Offset < 0 || c.Offset > len(d.text) {
		return fmt.Errorf("%s at %d: %w", c.Action, c.Offset, ErrOffsetOutOfRange)
	}

	switch c.Action {
	case Insert:
		d.text = d.text[:c.Offset] + c.Content + d.text[c.Offset:]
	case Delete:
		end := c.Offset + len(c.Content)
		if end > len(d.text) {
			return fmt.Errorf("delete %d..%d: %w", c.Offset, end, ErrOffsetOutOfRange)
		}
		if d.text[c.Offset:end] != c.Content {
			return fmt.Errorf("delete at %d: %w", c.Offset, ErrChangeMismatch)
		}
		d.text = d.text[:c.Offset] + d.text[end:]
	default:
		return fmt.Errorf("%d: %w", c.Action, ErrUnknownAction)
	}

	d.log.Debug().
		Str("action", c.Action.String()).
		Int("offset", c.Offset).
		Int("len", len(c.Content)).
		Msg("update")
	return d.reparse()
}

// Reload replaces the whole text and re-parses it.
func (d *Document) Reload(text string) error {
	d.text = text
	return d.reparse()
}

// Text returns the current buffer text.
func (d *Document) Text() string { return d.text }

// Rules returns the compiled rule set.
func (d *Document) Rules() *rules.Compiled { return d.rules }

// Revision identifies the current parse. It changes on every re-parse.
func (d *Document) Revision() string { return d.revision }

// Err returns the error of the last parse, if it failed.
func (d *Document) Err() error { return d.err }

// Root returns the root of the syntax tree.
func (d *Document) Root() (*ast.SubTree, error) {
	if d.result == nil {
		return nil, ErrNotTokenized
	}
	return d.result.Root, nil
}

// Render reconstructs the text from the tree. When the buffer could not be
// tokenized it returns the text verbatim.
func (d *Document) Render() string {
	if d.result == nil {
		return d.text
	}
	return d.result.Root.Render()
}

// Warnings returns the unterminated regions of the last parse.
func (d *Document) Warnings() []parser.UnterminatedRegionWarning {
	if d.result == nil {
		return nil
	}
	return d.result.Warnings
}
