package lexer

import (
	"strings"

	"vpp/internal/token"
)

// directiveKinds maps the backtick keyword (without the backtick) to its
// token kind. Any other backtick-prefixed identifier is a macro call.
var directiveKinds = map[string]token.Kind{
	"define": token.Define,
	"undef":  token.Undef,
	"ifdef":  token.Ifdef,
	"ifndef": token.Ifndef,
	"elsif":  token.Elsif,
	"else":   token.Else,
	"endif":  token.Endif,
}

// Lex scans source into the full token sequence, insignificant tokens
// included, terminated by an EOF sentinel.
func Lex(source string) []token.Token {
	l := &lexer{src: source}
	for l.pos < len(l.src) {
		l.scan()
	}
	l.emit(token.EOFToken(len(l.src)))
	return l.out
}

// Significant filters toks down to the structural subset retained for
// preprocessing, dropping whitespace, comments and the EOF sentinel.
func Significant(toks []token.Token) []token.Token {
	kept := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Significant() {
			kept = append(kept, t)
		}
	}
	return kept
}

type lexer struct {
	src string
	pos int
	out []token.Token

	// wantName is set after a directive that takes a macro name operand,
	// so the next identifier lexes as a PPIdentifier.
	wantName bool
}

func (l *lexer) emit(t token.Token) { l.out = append(l.out, t) }

func (l *lexer) peek() byte {
	if l.pos < len(l.src) {
		return l.src[l.pos]
	}
	return 0
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) scan() {
	start := l.pos
	ch := l.src[l.pos]
	switch {
	case ch == '\n':
		l.pos++
		l.wantName = false // a name operand cannot cross a line boundary
		l.emit(token.Token{Kind: token.Newline, Text: "\n", Offset: start})

	case ch == ' ' || ch == '\t' || ch == '\r':
		for l.pos < len(l.src) && (l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\r') {
			l.pos++
		}
		l.emit(token.Token{Kind: token.Space, Text: l.src[start:l.pos], Offset: start})

	case ch == '/' && l.peekAt(1) == '/':
		for l.pos < len(l.src) && l.peek() != '\n' {
			l.pos++
		}
		l.emit(token.Token{Kind: token.Comment, Text: l.src[start:l.pos], Offset: start})

	case ch == '/' && l.peekAt(1) == '*':
		l.pos += 2
		for l.pos < len(l.src) {
			if l.peek() == '*' && l.peekAt(1) == '/' {
				l.pos += 2
				break
			}
			l.pos++
		}
		l.emit(token.Token{Kind: token.Comment, Text: l.src[start:l.pos], Offset: start})

	case ch == '"':
		l.pos++
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			l.pos++
			if c == '\\' && l.pos < len(l.src) {
				l.pos++
				continue
			}
			if c == '"' {
				break
			}
		}
		l.emit(token.Token{Kind: token.String, Text: l.src[start:l.pos], Offset: start})

	case ch >= '0' && ch <= '9':
		l.scanNumber(start)

	case isIdentStart(ch):
		name := l.readIdent()
		kind := token.Identifier
		if l.wantName {
			kind = token.PPIdentifier
			l.wantName = false
		}
		l.emit(token.Token{Kind: kind, Text: name, Offset: start})

	case ch == '`':
		l.scanDirective(start)

	default:
		l.pos++
		l.emit(token.Token{Kind: token.Symbol, Text: string(ch), Offset: start})
	}
}

// scanNumber covers decimal literals and the Verilog sized forms
// (e.g. 4'b0101). Precision beyond "one token" is not needed here.
func (l *lexer) scanNumber(start int) {
	for l.pos < len(l.src) && isNumberPart(l.peek()) {
		l.pos++
	}
	if l.peek() == '\'' && isBaseChar(l.peekAt(1)) {
		l.pos += 2
		for l.pos < len(l.src) && isNumberPart(l.peek()) {
			l.pos++
		}
	}
	l.emit(token.Token{Kind: token.Number, Text: l.src[start:l.pos], Offset: start})
}

func (l *lexer) scanDirective(start int) {
	l.pos++ // consume '`'
	if !isIdentStart(l.peek()) {
		l.emit(token.Token{Kind: token.Symbol, Text: "`", Offset: start})
		return
	}
	name := l.readIdent()
	kind, ok := directiveKinds[name]
	if !ok {
		l.emit(token.Token{Kind: token.MacroCall, Text: "`" + name, Offset: start})
		return
	}
	l.emit(token.Token{Kind: kind, Text: "`" + name, Offset: start})
	switch kind {
	case token.Define:
		l.scanDefineTail()
	case token.Undef, token.Ifdef, token.Ifndef, token.Elsif:
		l.wantName = true
	}
}

// scanDefineTail lexes the remainder of a `define: the macro name, an
// optional formal parameter list when '(' immediately follows the name,
// and the raw body up to the end of the (possibly \-continued) line as a
// single DefineBody token.
func (l *lexer) scanDefineTail() {
	l.skipBlanks()
	if !isIdentStart(l.peek()) {
		return // missing name, diagnosed downstream
	}
	start := l.pos
	name := l.readIdent()
	l.emit(token.Token{Kind: token.PPIdentifier, Text: name, Offset: start})

	if l.peek() == '(' {
		depth := 0
		for l.pos < len(l.src) {
			c := l.peek()
			if c == '\n' {
				break
			}
			pos := l.pos
			l.pos++
			switch {
			case c == '(':
				depth++
				l.emit(token.Token{Kind: token.Symbol, Text: "(", Offset: pos})
			case c == ')':
				depth--
				l.emit(token.Token{Kind: token.Symbol, Text: ")", Offset: pos})
			case c == ',':
				l.emit(token.Token{Kind: token.Symbol, Text: ",", Offset: pos})
			case c == ' ' || c == '\t':
				// not preserved inside a parameter header
				continue
			case isIdentStart(c):
				l.pos = pos
				ident := l.readIdent()
				l.emit(token.Token{Kind: token.Identifier, Text: ident, Offset: pos})
			default:
				l.emit(token.Token{Kind: token.Symbol, Text: string(c), Offset: pos})
			}
			if depth == 0 {
				break
			}
		}
	}

	l.skipBlanks()
	start = l.pos
	var body strings.Builder
	for l.pos < len(l.src) {
		c := l.peek()
		if c == '\\' && l.peekAt(1) == '\n' {
			body.WriteByte('\n')
			l.pos += 2
			continue
		}
		if c == '\\' && l.peekAt(1) == '\r' && l.peekAt(2) == '\n' {
			body.WriteByte('\n')
			l.pos += 3
			continue
		}
		if c == '\n' {
			break
		}
		body.WriteByte(c)
		l.pos++
	}
	l.emit(token.Token{Kind: token.DefineBody, Text: body.String(), Offset: start})
}

func (l *lexer) skipBlanks() {
	start := l.pos
	for l.pos < len(l.src) && (l.peek() == ' ' || l.peek() == '\t') {
		l.pos++
	}
	if l.pos > start {
		l.emit(token.Token{Kind: token.Space, Text: l.src[start:l.pos], Offset: start})
	}
}

func (l *lexer) readIdent() string {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isNumberPart(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') ||
		b == 'x' || b == 'X' || b == 'z' || b == 'Z'
}

func isBaseChar(b byte) bool {
	switch b {
	case 'b', 'B', 'o', 'O', 'd', 'D', 'h', 'H':
		return true
	}
	return false
}
