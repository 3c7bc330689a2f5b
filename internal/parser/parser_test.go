package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/rules"
)

func compile(t *testing.T, rs rules.RuleSet) *rules.Compiled {
	t.Helper()
	c, err := rs.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	return c
}

func parse(t *testing.T, src string, rs *rules.Compiled) *Result {
	t.Helper()
	res, err := Parse(src, rs)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return res
}

// leaves renders the leaves of a tree as "TAG:text" for comparison.
func leaves(root *ast.SubTree) []string {
	var out []string
	for _, l := range root.Flatten() {
		out = append(out, string(l.Tag())+":"+l.Text())
	}
	return out
}

func assertLeaves(t *testing.T, root *ast.SubTree, want ...string) {
	t.Helper()
	got := leaves(root)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("leaves = %v\nwant     %v", got, want)
	}
}

func mixedRules(t *testing.T) *rules.Compiled {
	return compile(t, rules.RuleSet{
		Language:        "mixed",
		NonSplittable:   []rules.DelimiterRule{{Tag: "STR", Start: `"`, End: `"`}},
		Keywords:        []rules.KeywordRule{{Tag: "COMMA", Pattern: rules.Literal(",")}, {Tag: "EQ", Pattern: rules.Literal("=")}},
		LevelDelimiters: []rules.DelimiterRule{{Tag: "PAREN", Start: "(", End: ")"}},
	})
}

func TestParseNonSplittableOpacity(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		NonSplittable: []rules.DelimiterRule{{Tag: "STR", Start: `"`, End: `"`}},
	})

	res := parse(t, `x "a b" y`, rs)

	assertLeaves(t, res.Root, "ITEM:x", `STR:"a b"`, "ITEM:y")
	if res.Root.ChildCount() != 3 {
		t.Errorf("ChildCount() = %d, want 3", res.Root.ChildCount())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestParseLevelNesting(t *testing.T) {
	src := "F(A,B(C))"
	res := parse(t, src, mixedRules(t))
	root := res.Root

	if root.Len() != len(src) {
		t.Errorf("Len() = %d, want %d", root.Len(), len(src))
	}
	if root.ChildCount() != 2 {
		t.Fatalf("root children = %d, want 2", root.ChildCount())
	}
	if l, ok := root.Child(0).(*ast.Leaf); !ok || l.Tag() != ast.TagItem || l.Text() != "F" {
		t.Errorf("child 0 = %v, want ITEM(F)", root.Child(0))
	}

	outer, ok := root.Child(1).(*ast.SubTree)
	if !ok || outer.Tag() != "PAREN" {
		t.Fatalf("child 1 = %v, want PAREN subtree", root.Child(1))
	}
	var shape []string
	for _, c := range outer.Children() {
		switch n := c.(type) {
		case *ast.Leaf:
			shape = append(shape, n.Text())
		case *ast.SubTree:
			shape = append(shape, string(n.Tag())+"{"+strings.Join(n.FlattenText(), "")+"}")
		}
	}
	want := "( A , B PAREN{(C)} )"
	if strings.Join(shape, " ") != want {
		t.Errorf("outer shape = %q, want %q", strings.Join(shape, " "), want)
	}
}

func TestParseKeywordSplitsWord(t *testing.T) {
	res := parse(t, "A=B", mixedRules(t))
	assertLeaves(t, res.Root, "ITEM:A", "EQ:=", "ITEM:B")
}

func TestParseRegexKeyword(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		Keywords: []rules.KeywordRule{{Tag: "NUM", Pattern: rules.Regex(`([0-9]+)`)}},
	})

	res := parse(t, "AB12CD 7", rs)
	assertLeaves(t, res.Root, "ITEM:AB", "NUM:12", "ITEM:CD", "NUM:7")
}

func TestParseRegexKeywordGroupMustStartAtCursor(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		Keywords: []rules.KeywordRule{{Tag: "PERIOD", Pattern: rules.Regex(`(\.)(?:\s|$)`)}},
	})

	res := parse(t, "A.B END.", rs)
	assertLeaves(t, res.Root, "ITEM:A.B", "ITEM:END", "PERIOD:.")
}

func TestParsePrecedence(t *testing.T) {
	t.Run("region beats keyword", func(t *testing.T) {
		rs := compile(t, rules.RuleSet{
			NonSplittable: []rules.DelimiterRule{{Tag: "STR", Start: `"`, End: `"`}},
			Keywords:      []rules.KeywordRule{{Tag: "QUOTE", Pattern: rules.Literal(`"`)}},
		})
		res := parse(t, `"a,b"`, rs)
		assertLeaves(t, res.Root, `STR:"a,b"`)
	})

	t.Run("position beats keyword", func(t *testing.T) {
		rs := compile(t, rules.RuleSet{
			PositionRelevant: []rules.PositionRule{{Tag: "LABEL", Pattern: `^(\S+)`}},
			Keywords:         []rules.KeywordRule{{Tag: "EQ", Pattern: rules.Literal("=")}},
		})
		res := parse(t, "A=B C=D", rs)
		assertLeaves(t, res.Root, "LABEL:A=B", "ITEM:C", "EQ:=", "ITEM:D")
	})

	t.Run("keyword beats level opening", func(t *testing.T) {
		rs := compile(t, rules.RuleSet{
			Keywords:        []rules.KeywordRule{{Tag: "LP", Pattern: rules.Literal("(")}},
			LevelDelimiters: []rules.DelimiterRule{{Tag: "PAREN", Start: "(", End: ")"}},
		})
		res := parse(t, "F(A)", rs)
		assertLeaves(t, res.Root, "ITEM:F", "LP:(", "ITEM:A)")
		if res.Root.ChildCount() != 3 {
			t.Errorf("no subtree expected, got %d children", res.Root.ChildCount())
		}
	})

	t.Run("earlier rule in a table wins", func(t *testing.T) {
		rs := compile(t, rules.RuleSet{
			Keywords: []rules.KeywordRule{
				{Tag: "ARROW", Pattern: rules.Literal("=>")},
				{Tag: "EQ", Pattern: rules.Literal("=")},
			},
		})
		res := parse(t, "a=>b=c", rs)
		assertLeaves(t, res.Root, "ITEM:a", "ARROW:=>", "ITEM:b", "EQ:=", "ITEM:c")
	})
}

func TestParseUnterminatedRegion(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		NonSplittable: []rules.DelimiterRule{{Tag: "STR", Start: `"`, End: `"`}},
	})

	res := parse(t, `"abc`, rs)
	assertLeaves(t, res.Root, `STR:"abc`)

	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Kind != KindNonSplittable || w.Tag != "STR" || w.Offset != 0 {
		t.Errorf("warning = %+v", w)
	}
}

func TestParseRegionEndSearchStartsAfterStart(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		NonSplittable: []rules.DelimiterRule{{Tag: "STR", Start: "'", End: "'"}},
	})

	res := parse(t, "C'X' ''", rs)
	assertLeaves(t, res.Root, "ITEM:C", "STR:'X'", "STR:''")
}

func TestParseUnterminatedScope(t *testing.T) {
	src := "F(A (B"
	res := parse(t, src, mixedRules(t))

	if res.Root.Render() != src {
		t.Errorf("Render() = %q, want %q", res.Root.Render(), src)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", res.Warnings)
	}
	for _, w := range res.Warnings {
		if w.Kind != KindLevel {
			t.Errorf("warning kind = %v, want level scope", w.Kind)
		}
	}
	// Inner scope closes first.
	if res.Warnings[0].Offset != 4 || res.Warnings[1].Offset != 1 {
		t.Errorf("warning offsets = %d, %d; want 4, 1", res.Warnings[0].Offset, res.Warnings[1].Offset)
	}
}

func TestParseStrayCloserAtRoot(t *testing.T) {
	res := parse(t, "A) B", mixedRules(t))
	assertLeaves(t, res.Root, "ITEM:A)", "ITEM:B")
}

func TestParseRoundTrip(t *testing.T) {
	rs := mixedRules(t)
	sources := []string{
		"",
		"   ",
		"foo bar",
		"  lead\ttab\n\nblank lines  \n",
		"F(A, B( C ) )  ",
		`MSG="a (b) c", X=(1,2)`,
		"unclosed ( \"string\n spans",
		"ünïcödé (ß) = ☃",
		"A\r\nB\r\n",
	}

	for _, src := range sources {
		res := parse(t, src, rs)
		if got := res.Root.Render(); got != src {
			t.Errorf("Render() = %q, want %q", got, src)
		}
		if res.Root.Len() != len(src) {
			t.Errorf("Len() = %d, want %d for %q", res.Root.Len(), len(src), src)
		}
	}
}

func TestParseOffsetPathInverse(t *testing.T) {
	src := "LBL  MVC (A,B(C)) ,\"q q\"\n  =X  "
	res := parse(t, src, mixedRules(t))

	for off := 0; off <= len(src); off++ {
		p, err := res.Root.OffsetToPath(off)
		if err != nil {
			t.Fatalf("OffsetToPath(%d) failed: %v", off, err)
		}
		got, err := res.Root.PathToOffset(p)
		if err != nil {
			t.Fatalf("PathToOffset(%s) failed: %v", p, err)
		}
		if got != off {
			t.Errorf("PathToOffset(OffsetToPath(%d)) = %d via %s", off, got, p)
		}
	}
}

func TestParseLengthAdditivity(t *testing.T) {
	res := parse(t, "A(B(C D) E) (F)", mixedRules(t))

	res.Root.Walk(func(p ast.Path, n ast.Node) bool {
		st, ok := n.(*ast.SubTree)
		if !ok {
			return true
		}
		sum := 0
		for _, c := range st.Children() {
			sum += c.Len()
		}
		if sum != st.Len() {
			t.Errorf("subtree %s: Len() = %d, children sum %d", p, st.Len(), sum)
		}
		return true
	})
}

func TestParseLevelScopeShape(t *testing.T) {
	res := parse(t, "(A)", mixedRules(t))

	st, ok := res.Root.Child(0).(*ast.SubTree)
	if !ok {
		t.Fatalf("child 0 = %v, want subtree", res.Root.Child(0))
	}
	first := st.Child(0).(*ast.Leaf)
	last := st.Child(st.ChildCount() - 1).(*ast.Leaf)
	if first.Text() != "(" || last.Text() != ")" {
		t.Errorf("scope delimited by %q..%q, want (..)", first.Text(), last.Text())
	}
	if first.Tag() != "PAREN" || last.Tag() != "PAREN" {
		t.Errorf("delimiter tags = %s, %s; want PAREN", first.Tag(), last.Tag())
	}
}

func TestParseTrailingWhitespace(t *testing.T) {
	res := parse(t, "A  \n", mixedRules(t))

	last, ok := res.Root.Child(res.Root.ChildCount() - 1).(*ast.Leaf)
	if !ok || last.Tag() != ast.TagEOF {
		t.Fatalf("last child = %v, want EOF leaf", res.Root.Child(res.Root.ChildCount()-1))
	}
	if last.Text() != "" || last.Gap() != 3 {
		t.Errorf("EOF leaf text=%q gap=%d, want empty text and gap 3", last.Text(), last.Gap())
	}

	res = parse(t, "A", mixedRules(t))
	if res.Root.ChildCount() != 1 {
		t.Errorf("no EOF leaf expected without trailing whitespace, got %d children", res.Root.ChildCount())
	}

	res = parse(t, "", mixedRules(t))
	if res.Root.ChildCount() != 0 || len(res.Lines) != 0 {
		t.Errorf("empty source should give an empty tree and index")
	}
}

func TestParseLineIndex(t *testing.T) {
	src := "A B\n\n  C(D\nE)\n"
	res := parse(t, src, mixedRules(t))

	texts := func(line int) string {
		nodes, ok := res.Lines.At(line)
		if !ok {
			return "<none>"
		}
		var parts []string
		for _, n := range nodes {
			parts = append(parts, n.(*ast.Leaf).Text())
		}
		return strings.Join(parts, " ")
	}

	tests := []struct {
		line int
		want string
	}{
		{0, "A B"},
		{1, "<none>"},
		{2, "C ( D"},
		{3, "E )"},
		{4, "<none>"},
	}
	for _, tt := range tests {
		if got := texts(tt.line); got != tt.want {
			t.Errorf("line %d = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseMultiLineRegionIndexedAtStart(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		NonSplittable: []rules.DelimiterRule{{Tag: "BLOCK", Start: "/*", End: "*/"}},
	})

	res := parse(t, "a /* x\ny */ b", rs)
	if got := len(res.Lines[0]); got != 2 {
		t.Errorf("line 0 has %d nodes, want 2", got)
	}
	nodes, _ := res.Lines.At(1)
	if len(nodes) != 1 || nodes[0].(*ast.Leaf).Text() != "b" {
		t.Errorf("line 1 = %v, want [b]", nodes)
	}
}

func TestParsePositionRules(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		PositionRelevant: []rules.PositionRule{
			{Tag: "LABEL", Pattern: `^([A-Z]+)`},
			{Tag: "CONT", Pattern: `^.{10}(\S)`},
		},
	})

	src := "LOOP  B   X\n  LOOP    Y\n"
	res := parse(t, src, rs)

	assertLeaves(t, res.Root, "LABEL:LOOP", "ITEM:B", "CONT:X", "ITEM:LOOP", "CONT:Y")
}

func TestParsePositionRuleSplitsWord(t *testing.T) {
	rs := compile(t, rules.RuleSet{
		PositionRelevant: []rules.PositionRule{{Tag: "CONT", Pattern: `^.{5}(\S)`}},
	})

	res := parse(t, "ABCDEFGH", rs)
	assertLeaves(t, res.Root, "ITEM:ABCDE", "CONT:F", "ITEM:GH")
}

func TestParseNoRules(t *testing.T) {
	if _, err := Parse("x", nil); !errors.Is(err, ErrNoRules) {
		t.Errorf("Parse with nil rules error = %v, want ErrNoRules", err)
	}
}

func TestParseLogsWarnings(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	rs := compile(t, rules.RuleSet{
		NonSplittable: []rules.DelimiterRule{{Tag: "STR", Start: `"`, End: `"`}},
	})
	if _, err := Parse(`a "b`, rs, WithLogger(logger)); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"message":"unterminated region"`) {
		t.Errorf("log output missing warning: %s", out)
	}
	if !strings.Contains(out, `"tag":"STR"`) {
		t.Errorf("log output missing tag: %s", out)
	}
}

func TestLineCacheForwardOnly(t *testing.T) {
	c := newLineCache("ab\ncd\nef")

	if err := c.seek(4); err != nil {
		t.Fatalf("seek(4) failed: %v", err)
	}
	if c.num != 1 || c.text() != "cd" {
		t.Errorf("line = %d %q, want 1 \"cd\"", c.num, c.text())
	}

	if err := c.seek(5); err != nil || c.num != 1 {
		t.Errorf("seek(5) on newline = line %d, %v; want line 1", c.num, err)
	}

	err := c.seek(1)
	var sde *SeekDirectionError
	if !errors.As(err, &sde) {
		t.Fatalf("seek(1) error = %v, want SeekDirectionError", err)
	}
	if !errors.Is(err, ErrSeekBackward) {
		t.Error("SeekDirectionError should match ErrSeekBackward")
	}
	if sde.Offset != 1 || sde.LineStart != 3 {
		t.Errorf("error = %+v", sde)
	}

	if err := c.seek(8); err != nil || c.num != 2 || c.text() != "ef" {
		t.Errorf("seek(8) = line %d %q, %v", c.num, c.text(), err)
	}
}
