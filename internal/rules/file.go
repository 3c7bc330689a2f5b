package rules

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/config/loader"
)

// Format is a rule file encoding.
type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFor picks the format from a file name's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// fileRule is the on-disk shape shared by all four tables. Arrays keep
// their order, which is the rule priority.
type fileRule struct {
	Tag     string `toml:"tag" yaml:"tag"`
	Pattern string `toml:"pattern,omitempty" yaml:"pattern,omitempty"`
	Literal bool   `toml:"literal,omitempty" yaml:"literal,omitempty"`
	Start   string `toml:"start,omitempty" yaml:"start,omitempty"`
	End     string `toml:"end,omitempty" yaml:"end,omitempty"`
}

type fileSpec struct {
	Language         string     `toml:"language" yaml:"language"`
	Extensions       []string   `toml:"extensions" yaml:"extensions"`
	PositionRelevant []fileRule `toml:"position_relevant" yaml:"position_relevant"`
	NonSplittable    []fileRule `toml:"non_splittable" yaml:"non_splittable"`
	Keywords         []fileRule `toml:"keywords" yaml:"keywords"`
	LevelDelimiters  []fileRule `toml:"level_delimiters" yaml:"level_delimiters"`
}

// Decode parses a rule file. The result is not validated; call Compile.
func Decode(format Format, data []byte) (*RuleSet, error) {
	var spec fileSpec
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decoding toml rules: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decoding yaml rules: %w", err)
		}
	default:
		return nil, ErrUnknownFormat
	}
	return spec.ruleSet(), nil
}

func (s *fileSpec) ruleSet() *RuleSet {
	rs := &RuleSet{
		Language:   s.Language,
		Extensions: s.Extensions,
	}
	for _, r := range s.PositionRelevant {
		rs.PositionRelevant = append(rs.PositionRelevant, PositionRule{Tag: ast.Tag(r.Tag), Pattern: r.Pattern})
	}
	for _, r := range s.NonSplittable {
		rs.NonSplittable = append(rs.NonSplittable, DelimiterRule{Tag: ast.Tag(r.Tag), Start: r.Start, End: r.End})
	}
	for _, r := range s.Keywords {
		p := Regex(r.Pattern)
		if r.Literal {
			p = Literal(r.Pattern)
		}
		rs.Keywords = append(rs.Keywords, KeywordRule{Tag: ast.Tag(r.Tag), Pattern: p})
	}
	for _, r := range s.LevelDelimiters {
		rs.LevelDelimiters = append(rs.LevelDelimiters, DelimiterRule{Tag: ast.Tag(r.Tag), Start: r.Start, End: r.End})
	}
	return rs
}

// Encode writes the rule set in the given format.
func Encode(format Format, rs *RuleSet) ([]byte, error) {
	spec := fileSpec{Language: rs.Language, Extensions: rs.Extensions}
	for _, r := range rs.PositionRelevant {
		spec.PositionRelevant = append(spec.PositionRelevant, fileRule{Tag: string(r.Tag), Pattern: r.Pattern})
	}
	for _, r := range rs.NonSplittable {
		spec.NonSplittable = append(spec.NonSplittable, fileRule{Tag: string(r.Tag), Start: r.Start, End: r.End})
	}
	for _, r := range rs.Keywords {
		spec.Keywords = append(spec.Keywords, fileRule{
			Tag:     string(r.Tag),
			Pattern: r.Pattern.Source,
			Literal: r.Pattern.Kind == PatternLiteral,
		})
	}
	for _, r := range rs.LevelDelimiters {
		spec.LevelDelimiters = append(spec.LevelDelimiters, fileRule{Tag: string(r.Tag), Start: r.Start, End: r.End})
	}

	switch format {
	case FormatTOML:
		return toml.Marshal(spec)
	case FormatYAML:
		return yaml.Marshal(spec)
	default:
		return nil, ErrUnknownFormat
	}
}

// LoadFile reads and compiles a rule file from fsys.
func LoadFile(fsys loader.FileSystem, path string) (*Compiled, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	rs, err := Decode(format, data)
	if err != nil {
		return nil, &loader.ParseError{Path: path, Message: err.Error(), Err: err}
	}
	if rs.Language == "" {
		rs.Language = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	c, err := rs.Compile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
