package token

import "fmt"

// Kind is the lexical category of a token, decided once at lex time.
type Kind int

const (
	EOF Kind = iota
	Illegal

	// Preprocessing directives.
	Define // `define
	Undef  // `undef
	Ifdef  // `ifdef
	Ifndef // `ifndef
	Elsif  // `elsif
	Else   // `else
	Endif  // `endif

	PPIdentifier // macro name operand of a directive
	DefineBody   // raw body text of a `define, continuations merged
	MacroCall    // `NAME invocation

	// Ordinary content.
	Identifier
	Number
	String
	Symbol

	// Insignificant.
	Space
	Newline
	Comment
)

var kindNames = map[Kind]string{
	EOF:          "EOF",
	Illegal:      "illegal",
	Define:       "`define",
	Undef:        "`undef",
	Ifdef:        "`ifdef",
	Ifndef:       "`ifndef",
	Elsif:        "`elsif",
	Else:         "`else",
	Endif:        "`endif",
	PPIdentifier: "pp-identifier",
	DefineBody:   "define-body",
	MacroCall:    "macro-call",
	Identifier:   "identifier",
	Number:       "number",
	String:       "string",
	Symbol:       "symbol",
	Space:        "space",
	Newline:      "newline",
	Comment:      "comment",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsConditional reports whether k opens, continues or closes a
// conditional block.
func (k Kind) IsConditional() bool {
	switch k {
	case Ifdef, Ifndef, Elsif, Else, Endif:
		return true
	}
	return false
}

// IsDirective reports whether k is any preprocessing directive keyword.
func (k Kind) IsDirective() bool {
	switch k {
	case Define, Undef, Ifdef, Ifndef, Elsif, Else, Endif:
		return true
	}
	return false
}

// Token is an immutable lexed token. Offset is the byte position of the
// token's first character in the originating source.
type Token struct {
	Kind   Kind
	Text   string
	Offset int
}

// EOFToken returns the end-of-stream sentinel positioned at offset.
func EOFToken(offset int) Token {
	return Token{Kind: EOF, Offset: offset}
}

func (t Token) IsEOF() bool { return t.Kind == EOF }

// Significant reports whether t carries structural meaning. Whitespace
// and comments are filtered out before preprocessing.
func (t Token) Significant() bool {
	switch t.Kind {
	case Space, Newline, Comment, EOF:
		return false
	}
	return true
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q @%d", t.Kind, t.Text, t.Offset)
}
