package rules

import (
	"regexp"
	"strings"

	"github.com/dshills/zparse/internal/ast"
)

// Table names used in ConfigError.
const (
	TablePositionRelevant = "position_relevant"
	TableNonSplittable    = "non_splittable"
	TableKeywords         = "keywords"
	TableLevelDelimiters  = "level_delimiters"
)

// Match is a rule hit: the tag to emit and the token length.
type Match struct {
	Tag ast.Tag
	Len int
}

type positionMatcher struct {
	tag ast.Tag
	re  *regexp.Regexp
}

type keywordMatcher struct {
	tag     ast.Tag
	literal string
	re      *regexp.Regexp
}

// Compiled is a validated, immutable rule set. It is safe for concurrent use.
type Compiled struct {
	language   string
	extensions []string
	position   []positionMatcher
	regions    []DelimiterRule
	keywords   []keywordMatcher
	levels     []DelimiterRule
	levelByTag map[ast.Tag]DelimiterRule
}

// Compile validates the rule set. Every regular expression must compile and
// have exactly one capture group; every tag must be non-empty, unreserved and
// unique within its table; delimiters and literals must be non-empty.
func (rs *RuleSet) Compile() (*Compiled, error) {
	c := &Compiled{
		language:   rs.Language,
		extensions: append([]string(nil), rs.Extensions...),
		regions:    append([]DelimiterRule(nil), rs.NonSplittable...),
		levels:     append([]DelimiterRule(nil), rs.LevelDelimiters...),
		levelByTag: make(map[ast.Tag]DelimiterRule, len(rs.LevelDelimiters)),
	}

	seen := make(map[ast.Tag]bool)
	for i, r := range rs.PositionRelevant {
		if err := checkTag(TablePositionRelevant, i, r.Tag, seen); err != nil {
			return nil, err
		}
		re, err := compileGroup(TablePositionRelevant, i, r.Tag, r.Pattern)
		if err != nil {
			return nil, err
		}
		c.position = append(c.position, positionMatcher{tag: r.Tag, re: re})
	}

	seen = make(map[ast.Tag]bool)
	for i, r := range rs.NonSplittable {
		if err := checkDelimiter(TableNonSplittable, i, r, seen); err != nil {
			return nil, err
		}
	}

	seen = make(map[ast.Tag]bool)
	for i, r := range rs.Keywords {
		if err := checkTag(TableKeywords, i, r.Tag, seen); err != nil {
			return nil, err
		}
		m := keywordMatcher{tag: r.Tag}
		switch r.Pattern.Kind {
		case PatternLiteral:
			if r.Pattern.Source == "" {
				return nil, &ConfigError{Table: TableKeywords, Index: i, Tag: r.Tag, Reason: "empty literal"}
			}
			m.literal = r.Pattern.Source
		case PatternRegex:
			if _, err := compileGroup(TableKeywords, i, r.Tag, r.Pattern.Source); err != nil {
				return nil, err
			}
			// Anchor at the cursor; the wrapper group is non-capturing so
			// the rule's own group stays group 1.
			m.re = regexp.MustCompile(`^(?:` + r.Pattern.Source + `)`)
		default:
			return nil, &ConfigError{Table: TableKeywords, Index: i, Tag: r.Tag, Reason: "unknown pattern kind"}
		}
		c.keywords = append(c.keywords, m)
	}

	seen = make(map[ast.Tag]bool)
	for i, r := range rs.LevelDelimiters {
		if err := checkDelimiter(TableLevelDelimiters, i, r, seen); err != nil {
			return nil, err
		}
		c.levelByTag[r.Tag] = r
	}

	return c, nil
}

func checkTag(table string, i int, tag ast.Tag, seen map[ast.Tag]bool) error {
	switch {
	case tag == "":
		return &ConfigError{Table: table, Index: i, Reason: "empty tag"}
	case tag.IsReserved():
		return &ConfigError{Table: table, Index: i, Tag: tag, Reason: "reserved tag"}
	case seen[tag]:
		return &ConfigError{Table: table, Index: i, Tag: tag, Reason: "duplicate tag"}
	}
	seen[tag] = true
	return nil
}

func checkDelimiter(table string, i int, r DelimiterRule, seen map[ast.Tag]bool) error {
	if err := checkTag(table, i, r.Tag, seen); err != nil {
		return err
	}
	if r.Start == "" || r.End == "" {
		return &ConfigError{Table: table, Index: i, Tag: r.Tag, Reason: "empty delimiter"}
	}
	return nil
}

func compileGroup(table string, i int, tag ast.Tag, expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &ConfigError{Table: table, Index: i, Tag: tag, Reason: "bad regular expression", Err: err}
	}
	if re.NumSubexp() != 1 {
		return nil, &ConfigError{Table: table, Index: i, Tag: tag, Reason: "pattern must have exactly one capture group"}
	}
	return re, nil
}

// Language returns the rule set's language name.
func (c *Compiled) Language() string { return c.language }

// Extensions returns the file extensions the rule set applies to.
func (c *Compiled) Extensions() []string { return c.extensions }

// HasPositionRules reports whether any position-relevant rule is configured.
func (c *Compiled) HasPositionRules() bool { return len(c.position) > 0 }

// PositionMatches runs the position-relevant rules over one line of text
// (without its newline) and returns the accepted tokens keyed by the column
// their capture group starts at. At a shared column the earlier rule wins.
func (c *Compiled) PositionMatches(line string) map[int]Match {
	if len(c.position) == 0 {
		return nil
	}
	out := make(map[int]Match)
	for _, pm := range c.position {
		for _, m := range pm.re.FindAllStringSubmatchIndex(line, -1) {
			start, end := m[2], m[3]
			if start < 0 || end <= start {
				continue
			}
			if _, taken := out[start]; !taken {
				out[start] = Match{Tag: pm.tag, Len: end - start}
			}
		}
	}
	return out
}

// MatchRegion returns the first non-splittable rule whose start delimiter
// begins s.
func (c *Compiled) MatchRegion(s string) (DelimiterRule, bool) {
	for _, r := range c.regions {
		if strings.HasPrefix(s, r.Start) {
			return r, true
		}
	}
	return DelimiterRule{}, false
}

// MatchKeyword returns the first keyword rule matching at the start of s.
// Regex keywords match only when their capture group starts at s[0] and is
// non-empty.
func (c *Compiled) MatchKeyword(s string) (Match, bool) {
	for _, k := range c.keywords {
		if k.re == nil {
			if strings.HasPrefix(s, k.literal) {
				return Match{Tag: k.tag, Len: len(k.literal)}, true
			}
			continue
		}
		m := k.re.FindStringSubmatchIndex(s)
		if m == nil || m[2] != 0 || m[3] <= 0 {
			continue
		}
		return Match{Tag: k.tag, Len: m[3]}, true
	}
	return Match{}, false
}

// MatchLevel returns the first level-delimiter rule whose start delimiter
// begins s.
func (c *Compiled) MatchLevel(s string) (DelimiterRule, bool) {
	for _, r := range c.levels {
		if strings.HasPrefix(s, r.Start) {
			return r, true
		}
	}
	return DelimiterRule{}, false
}

// Level returns the level-delimiter rule for a subtree tag.
func (c *Compiled) Level(tag ast.Tag) (DelimiterRule, bool) {
	r, ok := c.levelByTag[tag]
	return r, ok
}
