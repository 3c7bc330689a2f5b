package parser

import (
	"strings"
	"testing"

	"github.com/dshills/zparse/internal/ast"
	"github.com/dshills/zparse/internal/rules"
)

func lineLeaves(t *testing.T, res *Result, line int) string {
	t.Helper()
	nodes, ok := res.Lines.At(line)
	if !ok {
		return ""
	}
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		l := n.(*ast.Leaf)
		parts[i] = string(l.Tag()) + ":" + l.Text()
	}
	return strings.Join(parts, " ")
}

func TestParseHLASM(t *testing.T) {
	rs, err := rules.Preset("hlasm")
	if err != nil {
		t.Fatalf("Preset failed: %v", err)
	}

	cont := "         MVC   FIELD,=C'A B'"
	cont += strings.Repeat(" ", 71-len(cont)) + "X"
	src := strings.Join([]string{
		"* SAMPLE PROGRAM",
		"LOOP     LA    R1,0(R2)",
		cont,
		"               OTHER",
		"         BR    R14",
		"",
	}, "\n")

	res, err := Parse(src, rs)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if res.Root.Render() != src {
		t.Fatal("Render() does not reproduce the source")
	}

	tests := []struct {
		line int
		want string
	}{
		{0, "COMMENT:* SAMPLE PROGRAM"},
		{1, "LABEL:LOOP ITEM:LA ITEM:R1 COMMA:, ITEM:0 PAREN:( ITEM:R2 PAREN:)"},
		{2, "ITEM:MVC ITEM:FIELD COMMA:, EQUALS:= ITEM:C STRING:'A B' CONTINUATION:X"},
		{3, "ITEM:OTHER"},
		{4, "ITEM:BR ITEM:R14"},
	}
	for _, tt := range tests {
		if got := lineLeaves(t, res, tt.line); got != tt.want {
			t.Errorf("line %d:\n got  %s\n want %s", tt.line, got, tt.want)
		}
	}
}

func TestParseCOBOL(t *testing.T) {
	rs, err := rules.Preset("cobol")
	if err != nil {
		t.Fatalf("Preset failed: %v", err)
	}

	src := strings.Join([]string{
		"000100 IDENTIFICATION DIVISION.",
		"000200* A COMMENT, WITH PUNCTUATION.",
		`000300     DISPLAY "HELLO, WORLD" WS-A(1).`,
		"000400     MOVE 3.14 TO X.",
	}, "\n")

	res, err := Parse(src, rs)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if res.Root.Render() != src {
		t.Fatal("Render() does not reproduce the source")
	}

	tests := []struct {
		line int
		want string
	}{
		{0, "SEQUENCE:000100 ITEM:IDENTIFICATION ITEM:DIVISION PERIOD:."},
		{1, "SEQUENCE:000200 COMMENT:* A COMMENT, WITH PUNCTUATION."},
		{2, `SEQUENCE:000300 ITEM:DISPLAY STRING:"HELLO, WORLD" ITEM:WS-A PAREN:( ITEM:1 PAREN:) PERIOD:.`},
		{3, "SEQUENCE:000400 ITEM:MOVE ITEM:3.14 ITEM:TO ITEM:X PERIOD:."},
	}
	for _, tt := range tests {
		if got := lineLeaves(t, res, tt.line); got != tt.want {
			t.Errorf("line %d:\n got  %s\n want %s", tt.line, got, tt.want)
		}
	}
}
