package lexer

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vpp/internal/token"
)

// describe flattens tokens to "kind text" for compact test tables.
func describe(toks []token.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return out
}

func TestLexSignificant(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"empty",
			"",
			[]string{},
		},
		{
			"plain tokens",
			"module foo; endmodule",
			[]string{`identifier "module"`, `identifier "foo"`, `symbol ";"`, `identifier "endmodule"`},
		},
		{
			"comments dropped",
			"a // line\nb /* block */ c",
			[]string{`identifier "a"`, `identifier "b"`, `identifier "c"`},
		},
		{
			"string kept whole",
			`x = "a // not a comment";`,
			[]string{`identifier "x"`, `symbol "="`, `string "\"a // not a comment\""`, `symbol ";"`},
		},
		{
			"sized number",
			"assign w = 4'b0101;",
			[]string{`identifier "assign"`, `identifier "w"`, `symbol "="`, `number "4'b0101"`, `symbol ";"`},
		},
		{
			"object define",
			"`define A 1",
			[]string{"`define \"`define\"", `pp-identifier "A"`, `define-body "1"`},
		},
		{
			"define without body",
			"`define A\nfoo",
			[]string{"`define \"`define\"", `pp-identifier "A"`, `define-body ""`, `identifier "foo"`},
		},
		{
			"callable define",
			"`define ADD(x, y) x+y",
			[]string{
				"`define \"`define\"", `pp-identifier "ADD"`,
				`symbol "("`, `identifier "x"`, `symbol ","`, `identifier "y"`, `symbol ")"`,
				`define-body "x+y"`,
			},
		},
		{
			"continued define body",
			"`define A one \\\ntwo\nafter",
			[]string{"`define \"`define\"", `pp-identifier "A"`, "define-body \"one \\ntwo\"", `identifier "after"`},
		},
		{
			"conditional directives",
			"`ifdef FOO\na\n`elsif BAR\nb\n`else\nc\n`endif",
			[]string{
				"`ifdef \"`ifdef\"", `pp-identifier "FOO"`, `identifier "a"`,
				"`elsif \"`elsif\"", `pp-identifier "BAR"`, `identifier "b"`,
				"`else \"`else\"", `identifier "c"`,
				"`endif \"`endif\"",
			},
		},
		{
			"undef",
			"`undef FOO",
			[]string{"`undef \"`undef\"", `pp-identifier "FOO"`},
		},
		{
			"macro call",
			"`MAX(a, b)",
			[]string{
				"macro-call \"`MAX\"",
				`symbol "("`, `identifier "a"`, `symbol ","`, `identifier "b"`, `symbol ")"`,
			},
		},
		{
			"bare backtick",
			"` x",
			[]string{"symbol \"`\"", `identifier "x"`},
		},
		{
			"directive operand does not cross lines",
			"`ifdef\nfoo",
			[]string{"`ifdef \"`ifdef\"", `identifier "foo"`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(Significant(Lex(tt.input)))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexOffsets(t *testing.T) {
	input := "ab  cd\nef"
	want := []token.Token{
		{Kind: token.Identifier, Text: "ab", Offset: 0},
		{Kind: token.Space, Text: "  ", Offset: 2},
		{Kind: token.Identifier, Text: "cd", Offset: 4},
		{Kind: token.Newline, Text: "\n", Offset: 6},
		{Kind: token.Identifier, Text: "ef", Offset: 7},
		{Kind: token.EOF, Offset: 9},
	}
	if diff := cmp.Diff(want, Lex(input)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestLexEndsWithEOF(t *testing.T) {
	toks := Lex("foo")
	last := toks[len(toks)-1]
	if !last.IsEOF() {
		t.Fatalf("expected EOF sentinel, got %v", last)
	}
	if last.Offset != 3 {
		t.Errorf("EOF offset = %d, want 3", last.Offset)
	}
}
