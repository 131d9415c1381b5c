package preprocessor

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"vpp/internal/lexer"
	"vpp/internal/token"
)

func lines(a ...string) string {
	return strings.Join(a, "\n") + "\n"
}

func scan(t *testing.T, source string, config Config, external ...Macro) Data {
	t.Helper()
	pp := New(config)
	for _, m := range external {
		pp.SetExternalDefine(m.Name, m.Body)
	}
	return pp.Scan(lexer.Significant(lexer.Lex(source)))
}

func texts(toks []token.Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out
}

type scanTest struct {
	name     string
	input    string
	config   Config
	external []Macro
	want     []string
	errors   []string // expected error message substrings, in order
	warnings int
}

var scanTests = []scanTest{
	{
		name: "taken ifdef with else",
		input: lines(
			"`define A 1",
			"`ifdef A",
			"foo",
			"`else",
			"bar",
			"`endif",
		),
		config: Config{FilterBranches: true},
		want:   []string{"foo"},
	},
	{
		name: "not taken ifdef with else",
		input: lines(
			"`ifdef A",
			"foo",
			"`else",
			"bar",
			"`endif",
		),
		config: Config{FilterBranches: true},
		want:   []string{"bar"},
	},
	{
		name: "ifndef",
		input: lines(
			"`ifndef A",
			"foo",
			"`endif",
		),
		config: Config{FilterBranches: true},
		want:   []string{"foo"},
	},
	{
		name: "elsif first match wins",
		input: lines(
			"`define B 1",
			"`define C 1",
			"`ifdef A",
			"a",
			"`elsif B",
			"b",
			"`elsif C",
			"c",
			"`else",
			"d",
			"`endif",
		),
		config: Config{FilterBranches: true},
		want:   []string{"b"},
	},
	{
		name: "nested inactive suppresses taken inner",
		input: lines(
			"`define B 1",
			"`ifdef A",
			"`ifdef B",
			"inner",
			"`endif",
			"outer",
			"`endif",
			"tail",
		),
		config: Config{FilterBranches: true},
		want:   []string{"tail"},
	},
	{
		name: "define in inactive branch not registered",
		input: lines(
			"`ifdef NOPE",
			"`define X 1",
			"`endif",
			"`ifdef X",
			"foo",
			"`endif",
			"bar",
		),
		config: Config{FilterBranches: true},
		want:   []string{"bar"},
	},
	{
		name: "undef wins over external define",
		input: lines(
			"`undef FOO",
			"`ifdef FOO",
			"a",
			"`endif",
			"b",
		),
		config:   Config{FilterBranches: true},
		external: []Macro{{Name: "FOO", Body: "1"}},
		want:     []string{"b"},
	},
	{
		name: "external define taken",
		input: lines(
			"`ifdef FOO",
			"a",
			"`endif",
		),
		config:   Config{FilterBranches: true},
		external: []Macro{{Name: "FOO", Body: "1"}},
		want:     []string{"a"},
	},
	{
		name:   "unterminated conditional keeps partial output",
		input:  "head\n`ifdef X\na\n",
		config: Config{FilterBranches: true},
		want:   []string{"head"},
		errors: []string{"unterminated conditional"},
	},
	{
		name:   "unmatched endif recovers",
		input:  "foo\n`endif\nbar\n",
		config: Config{FilterBranches: true},
		want:   []string{"foo", "bar"},
		errors: []string{"unmatched `endif"},
	},
	{
		name: "unmatched else recovers",
		input: lines(
			"`else",
			"foo",
		),
		config: Config{FilterBranches: true},
		want:   []string{"foo"},
		errors: []string{"unmatched `else"},
	},
	{
		name: "duplicate else",
		input: lines(
			"`ifdef A",
			"a",
			"`else",
			"b",
			"`else",
			"c",
			"`endif",
		),
		config: Config{FilterBranches: true},
		want:   []string{"b", "c"},
		errors: []string{"duplicate `else"},
	},
	{
		name: "elsif after else",
		input: lines(
			"`ifdef A",
			"a",
			"`else",
			"b",
			"`elsif C",
			"c",
			"`endif",
		),
		config: Config{FilterBranches: true},
		want:   []string{"b", "c"},
		errors: []string{"`elsif after `else"},
	},
	{
		name: "pass-through keeps directives",
		input: lines(
			"`ifdef A",
			"foo",
			"`endif",
		),
		config: Config{},
		want:   []string{"`ifdef", "A", "foo", "`endif"},
	},
	{
		name: "pass-through forwards define tokens",
		input: lines(
			"`define X 1",
			"`X",
		),
		config: Config{},
		want:   []string{"`define", "X", "1", "`X"},
	},
	{
		name: "macro call literal without expansion",
		input: lines(
			"`define A 1",
			"`A",
		),
		config: Config{FilterBranches: true},
		want:   []string{"`A"},
	},
	{
		name: "object macro expansion",
		input: lines(
			"`define A 1",
			"`A",
		),
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{"1"},
	},
	{
		name: "callable macro expansion",
		input: lines(
			"`define ADD(x, y) x+y",
			"`ADD(1, 2)",
		),
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{"1", "+", "2"},
	},
	{
		name: "parenthesized macro argument",
		input: lines(
			"`define ADD(x, y) x+y",
			"`ADD((1), 2)",
		),
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{"(", "1", ")", "+", "2"},
	},
	{
		name: "nested macro expansion",
		input: lines(
			"`define B 5",
			"`define A `B",
			"`A",
		),
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{"5"},
	},
	{
		name: "missing trailing argument binds empty",
		input: lines(
			"`define PAIR(x, y) x,y",
			"`PAIR(1)",
		),
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{"1", ","},
	},
	{
		name: "recursive macro diagnosed",
		input: lines(
			"`define A `A",
			"`A",
		),
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{},
		errors: []string{"recursive expansion of macro A"},
	},
	{
		name:   "undefined macro call forwarded",
		input:  "`X\n",
		config: Config{FilterBranches: true, ExpandMacros: true},
		want:   []string{"`X"},
		errors: []string{"undefined macro X"},
	},
	{
		name: "redefinition warns and overwrites",
		input: lines(
			"`define X 1",
			"`X",
			"`define X 2",
			"`X",
		),
		config:   Config{FilterBranches: true, ExpandMacros: true},
		want:     []string{"1", "2"},
		warnings: 1,
	},
	{
		name: "in-stream define overrides external",
		input: lines(
			"`define FOO 2",
			"`FOO",
		),
		config:   Config{FilterBranches: true, ExpandMacros: true},
		external: []Macro{{Name: "FOO", Body: "1"}},
		want:     []string{"2"},
		warnings: 1,
	},
	{
		name:   "missing macro name after define",
		input:  "`define\nfoo\n",
		config: Config{FilterBranches: true},
		want:   []string{"foo"},
		errors: []string{"expected identifier for macro name after `define"},
	},
	{
		name:   "missing macro name after ifdef skips block",
		input:  "`ifdef\nfoo\n`endif\nbar\n",
		config: Config{FilterBranches: true},
		want:   []string{"bar"},
		errors: []string{"expected macro name after `ifdef"},
	},
}

func TestScan(t *testing.T) {
	for _, tt := range scanTests {
		t.Run(tt.name, func(t *testing.T) {
			data := scan(t, tt.input, tt.config, tt.external...)
			if diff := cmp.Diff(tt.want, texts(data.Tokens)); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
			if len(data.Errors) != len(tt.errors) {
				t.Fatalf("got %d errors %v, want %d", len(data.Errors), data.Errors, len(tt.errors))
			}
			for i, want := range tt.errors {
				if !strings.Contains(data.Errors[i].Message, want) {
					t.Errorf("error %d = %q, want substring %q", i, data.Errors[i].Message, want)
				}
			}
			if len(data.Warnings) != tt.warnings {
				t.Errorf("got %d warnings %v, want %d", len(data.Warnings), data.Warnings, tt.warnings)
			}
		})
	}
}

// Re-scanning the output of a directive-free scan is a no-op.
func TestScanIdempotent(t *testing.T) {
	toks := lexer.Significant(lexer.Lex("module m; assign a = b; endmodule\n"))
	first := New(Config{FilterBranches: true}).Scan(toks)
	if len(first.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", first.Errors)
	}
	second := New(Config{FilterBranches: true}).Scan(first.Tokens)
	if diff := cmp.Diff(first.Tokens, second.Tokens); diff != "" {
		t.Errorf("second scan differs (-first +second):\n%s", diff)
	}
}

func TestDefineTable(t *testing.T) {
	d := NewDefineTable()
	if d.Contains("A") {
		t.Fatal("empty table contains A")
	}
	d.Set(Macro{Name: "A", Body: "1"})
	d.Set(Macro{Name: "A", Body: "2"})
	m, ok := d.Get("A")
	if !ok || m.Body != "2" {
		t.Errorf("Get(A) = %+v, %v; want last write", m, ok)
	}
	d.Unset("A")
	if d.Contains("A") {
		t.Error("A still defined after Unset")
	}
}

func TestDiagnosticOffsets(t *testing.T) {
	input := "foo\n`endif\n"
	data := scan(t, input, Config{FilterBranches: true})
	if len(data.Errors) != 1 {
		t.Fatalf("expected one error, got %v", data.Errors)
	}
	if want := strings.Index(input, "`endif"); data.Errors[0].Offset != want {
		t.Errorf("offset = %d, want %d", data.Errors[0].Offset, want)
	}
}
