package preprocessor

import (
	"fmt"
	"strings"

	"vpp/internal/lexer"
	"vpp/internal/token"
)

// maxExpansions bounds nested macro expansion per `NAME call site, to
// catch mutually recursive definitions.
const maxExpansions = 100

// Config selects what a Scan does. It is passed per instance so that
// scans with different settings cannot interfere.
type Config struct {
	// FilterBranches drops tokens of untaken conditional branches and
	// consumes the directives themselves. When false, every token
	// passes through unfiltered (directives included), which is useful
	// for diagnostics-only or pass-through runs.
	FilterBranches bool

	// ExpandMacros substitutes macro bodies at `NAME call sites. When
	// false, call tokens are forwarded literally.
	ExpandMacros bool
}

// Diagnostic is one accumulated message with the byte offset of the
// token it refers to. The scan continues past recoverable problems.
type Diagnostic struct {
	Message string
	Offset  int
}

// Data is the result of one Scan: the preprocessed token stream plus
// errors and warnings, in the order they were found.
type Data struct {
	Tokens   []token.Token
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Preprocessor resolves directives over a single token stream. One
// instance owns one DefineTable and must not be shared across
// concurrent scans.
type Preprocessor struct {
	config   Config
	defines  *DefineTable
	branches branchStack
	data     Data
}

func New(config Config) *Preprocessor {
	return &Preprocessor{
		config:  config,
		defines: NewDefineTable(),
	}
}

// SetExternalDefine registers a macro supplied from outside the source
// text (e.g. +define+NAME=VALUE), before scanning begins. A later
// in-stream `define of the same name overrides it.
func (p *Preprocessor) SetExternalDefine(name, value string) {
	if p.defines.Contains(name) {
		p.warnf(0, "macro %s redefined", name)
	}
	p.defines.Set(Macro{Name: name, Body: value})
}

// Defines exposes the table for inspection after a scan.
func (p *Preprocessor) Defines() *DefineTable { return p.defines }

// Scan consumes a significant-token stream and produces the
// preprocessed stream plus diagnostics. Single deterministic pass;
// output order is input order restricted to kept tokens.
func (p *Preprocessor) Scan(toks []token.Token) Data {
	p.data.Tokens = make([]token.Token, 0, len(toks))
	c := &cursor{toks: toks}
	for {
		t := c.next()
		if t.IsEOF() {
			break
		}
		p.handleToken(c, t)
	}
	if p.branches.depth() > 0 {
		p.errorf(p.branches.openOffset(), "unterminated conditional, never completed at end of file")
	}
	return p.data
}

func (p *Preprocessor) handleToken(c *cursor, t token.Token) {
	switch t.Kind {
	case token.Define:
		p.handleDefine(c, t)
	case token.Undef:
		p.handleUndef(c, t)
	case token.Ifdef, token.Ifndef:
		p.handleIf(c, t)
	case token.Elsif:
		p.handleElsif(c, t)
	case token.Else:
		p.handleElse(t)
	case token.Endif:
		p.handleEndif(t)
	case token.MacroCall:
		if p.config.ExpandMacros && p.branches.active() {
			budget := maxExpansions
			p.expandCall(c, t, &budget)
			return
		}
		p.forward(t)
	default:
		p.forward(t)
	}
}

// forward appends t to the output if the current branch allows it.
func (p *Preprocessor) forward(t token.Token) {
	if !p.config.FilterBranches || p.branches.active() {
		p.data.Tokens = append(p.data.Tokens, t)
	}
}

func (p *Preprocessor) handleDefine(c *cursor, def token.Token) {
	consumed := []token.Token{def}

	name := c.next()
	if name.Kind != token.PPIdentifier {
		p.errorf(def.Offset, "expected identifier for macro name after `define")
		c.backup(name)
		return
	}
	consumed = append(consumed, name)

	macro := Macro{Name: name.Text}
	if t := c.peek(); t.Kind == token.Symbol && t.Text == "(" {
		macro.Callable = true
		macro.Params = []string{}
		consumed = append(consumed, c.next()) // '('
		for {
			t := c.next()
			consumed = append(consumed, t)
			if t.Kind == token.Identifier {
				macro.Params = append(macro.Params, t.Text)
				continue
			}
			if t.Kind == token.Symbol && t.Text == "," {
				continue
			}
			if t.Kind == token.Symbol && t.Text == ")" {
				break
			}
			p.errorf(t.Offset, "malformed macro parameter list for %s", macro.Name)
			return
		}
	}

	body := c.next()
	if body.Kind != token.DefineBody {
		p.errorf(name.Offset, "expected macro definition body for %s", macro.Name)
		c.backup(body)
		return
	}
	consumed = append(consumed, body)
	macro.Body = body.Text

	// Syntactically fine; only touch the table in an active branch.
	if p.branches.active() {
		if p.defines.Contains(macro.Name) {
			p.warnf(name.Offset, "macro %s redefined", macro.Name)
		}
		p.defines.Set(macro)
	}
	if !p.config.FilterBranches {
		p.data.Tokens = append(p.data.Tokens, consumed...)
	}
}

func (p *Preprocessor) handleUndef(c *cursor, undef token.Token) {
	name := c.next()
	if name.Kind != token.PPIdentifier {
		p.errorf(undef.Offset, "expected identifier for macro name after `undef")
		c.backup(name)
		return
	}
	if p.branches.active() {
		p.defines.Unset(name.Text)
	}
	if !p.config.FilterBranches {
		p.data.Tokens = append(p.data.Tokens, undef, name)
	}
}

func (p *Preprocessor) handleIf(c *cursor, ifpos token.Token) {
	if !p.config.FilterBranches {
		p.data.Tokens = append(p.data.Tokens, ifpos)
		return
	}
	cond, ok := p.evalCondition(c, ifpos)
	if !ok {
		cond = false // keep nesting consistent, skip the block
	}
	p.branches.push(cond, ifpos.Offset)
}

func (p *Preprocessor) handleElsif(c *cursor, elsif token.Token) {
	if !p.config.FilterBranches {
		p.data.Tokens = append(p.data.Tokens, elsif)
		return
	}
	cond, _ := p.evalCondition(c, elsif)
	if p.branches.depth() == 0 {
		p.errorf(elsif.Offset, "unmatched `elsif")
		return
	}
	if !p.branches.elsif(cond) {
		p.errorf(elsif.Offset, "`elsif after `else")
	}
}

func (p *Preprocessor) handleElse(t token.Token) {
	if !p.config.FilterBranches {
		p.data.Tokens = append(p.data.Tokens, t)
		return
	}
	if p.branches.depth() == 0 {
		p.errorf(t.Offset, "unmatched `else")
		return
	}
	if !p.branches.startElse() {
		p.errorf(t.Offset, "duplicate `else")
	}
}

func (p *Preprocessor) handleEndif(t token.Token) {
	if !p.config.FilterBranches {
		p.data.Tokens = append(p.data.Tokens, t)
		return
	}
	if !p.branches.pop() {
		p.errorf(t.Offset, "unmatched `endif")
	}
}

// evalCondition consumes the macro-name operand of an `ifdef, `ifndef
// or `elsif and evaluates it against the define table.
func (p *Preprocessor) evalCondition(c *cursor, directive token.Token) (cond, ok bool) {
	name := c.next()
	if name.Kind != token.PPIdentifier {
		p.errorf(directive.Offset, "expected macro name after %s", directive.Text)
		c.backup(name)
		return false, false
	}
	defined := p.defines.Contains(name.Text)
	if directive.Kind == token.Ifndef {
		return !defined, true
	}
	return defined, true
}

// expandCall substitutes the macro body at a `NAME call site. Bodies
// are re-lexed and nested calls expanded until the budget runs out.
func (p *Preprocessor) expandCall(c *cursor, call token.Token, budget *int) {
	name := strings.TrimPrefix(call.Text, "`")
	macro, found := p.defines.Get(name)
	if !found {
		p.errorf(call.Offset, "undefined macro %s", name)
		p.data.Tokens = append(p.data.Tokens, call)
		return
	}

	subs := map[string][]token.Token{}
	if macro.Callable {
		args, ok := p.consumeArgs(c, call, nil)
		if !ok {
			return
		}
		bindParams(subs, macro, args)
	}

	p.data.Tokens = append(p.data.Tokens, p.expandBody(macro, subs, call, budget)...)
}

// expandBody lexes the stored body text, splices actual arguments for
// formal parameters, and recursively expands nested macro calls.
// Body-derived tokens inherit the call-site offset.
func (p *Preprocessor) expandBody(macro Macro, subs map[string][]token.Token, call token.Token, budget *int) []token.Token {
	*budget--
	if *budget < 0 {
		p.errorf(call.Offset, "recursive expansion of macro %s", macro.Name)
		return nil
	}

	bc := &cursor{toks: lexer.Significant(lexer.Lex(macro.Body))}
	var out []token.Token
	for {
		t := bc.next()
		if t.IsEOF() {
			break
		}
		if t.Kind == token.Identifier {
			if actual, isParam := subs[t.Text]; isParam {
				out = append(out, actual...)
				continue
			}
		}
		if t.Kind == token.MacroCall {
			inner := strings.TrimPrefix(t.Text, "`")
			m, found := p.defines.Get(inner)
			if !found {
				p.errorf(call.Offset, "undefined macro %s", inner)
				out = append(out, token.Token{Kind: t.Kind, Text: t.Text, Offset: call.Offset})
				continue
			}
			innerSubs := map[string][]token.Token{}
			if m.Callable {
				args, ok := p.consumeArgs(bc, call, subs)
				if !ok {
					continue
				}
				bindParams(innerSubs, m, args)
			}
			out = append(out, p.expandBody(m, innerSubs, call, budget)...)
			continue
		}
		out = append(out, token.Token{Kind: t.Kind, Text: t.Text, Offset: call.Offset})
	}
	return out
}

// consumeArgs reads `(arg, arg, ...)` from the stream, splitting
// positional arguments at top-level commas. When subs is non-nil (the
// list appears inside a macro body), formal parameters occurring in
// the arguments are substituted as they are read.
func (p *Preprocessor) consumeArgs(c *cursor, call token.Token, subs map[string][]token.Token) ([][]token.Token, bool) {
	open := c.peek()
	if open.Kind != token.Symbol || open.Text != "(" {
		p.errorf(call.Offset, "macro %s takes arguments, expected '('", strings.TrimPrefix(call.Text, "`"))
		return nil, false
	}
	c.next() // '('
	var args [][]token.Token
	var cur []token.Token
	depth := 1
	for {
		t := c.next()
		if t.IsEOF() {
			p.errorf(call.Offset, "unterminated macro call argument list")
			return nil, false
		}
		if t.Kind == token.Symbol {
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
				if depth == 0 {
					args = append(args, cur)
					return args, true
				}
			case ",":
				if depth == 1 {
					args = append(args, cur)
					cur = nil
					continue
				}
			}
		}
		if subs != nil && t.Kind == token.Identifier {
			if actual, isParam := subs[t.Text]; isParam {
				cur = append(cur, actual...)
				continue
			}
		}
		cur = append(cur, t)
	}
}

// bindParams maps formal parameters to the actual argument tokens;
// missing trailing arguments bind to nothing.
func bindParams(subs map[string][]token.Token, m Macro, args [][]token.Token) {
	for i, param := range m.Params {
		if i < len(args) {
			subs[param] = args[i]
		} else {
			subs[param] = nil
		}
	}
}

func (p *Preprocessor) errorf(offset int, format string, args ...any) {
	p.data.Errors = append(p.data.Errors, Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

func (p *Preprocessor) warnf(offset int, format string, args ...any) {
	p.data.Warnings = append(p.data.Warnings, Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

// cursor walks a token slice, yielding an EOF sentinel past the end.
type cursor struct {
	toks   []token.Token
	i      int
	pushed []token.Token
}

func (c *cursor) next() token.Token {
	if n := len(c.pushed); n > 0 {
		t := c.pushed[n-1]
		c.pushed = c.pushed[:n-1]
		return t
	}
	if c.i >= len(c.toks) {
		return token.EOFToken(c.endOffset())
	}
	t := c.toks[c.i]
	c.i++
	return t
}

func (c *cursor) peek() token.Token {
	t := c.next()
	c.backup(t)
	return t
}

func (c *cursor) backup(t token.Token) {
	if t.IsEOF() {
		return
	}
	c.pushed = append(c.pushed, t)
}

func (c *cursor) endOffset() int {
	if len(c.toks) == 0 {
		return 0
	}
	last := c.toks[len(c.toks)-1]
	return last.Offset + len(last.Text)
}

// branchStack tracks whether tokens are currently eligible for output.
// One frame per open conditional; the empty stack is always active.
type branchStack struct {
	frames []branchFrame
}

type branchFrame struct {
	parentActive bool
	taken        bool
	active       bool
	elseSeen     bool
	offset       int
}

func (b *branchStack) depth() int { return len(b.frames) }

func (b *branchStack) active() bool {
	if len(b.frames) == 0 {
		return true
	}
	return b.frames[len(b.frames)-1].active
}

func (b *branchStack) push(cond bool, offset int) {
	parent := b.active()
	active := parent && cond
	b.frames = append(b.frames, branchFrame{
		parentActive: parent,
		taken:        active,
		active:       active,
		offset:       offset,
	})
}

// elsif moves the open conditional to its next alternative. Returns
// false when an `else was already seen.
func (b *branchStack) elsif(cond bool) bool {
	top := &b.frames[len(b.frames)-1]
	if top.elseSeen {
		return false
	}
	if !top.parentActive || top.taken {
		top.active = false
		return true
	}
	top.active = cond
	if cond {
		top.taken = true
	}
	return true
}

// startElse activates the trailing branch iff nothing matched yet.
// Returns false on a duplicate `else.
func (b *branchStack) startElse() bool {
	top := &b.frames[len(b.frames)-1]
	if top.elseSeen {
		return false
	}
	top.elseSeen = true
	top.active = top.parentActive && !top.taken
	top.taken = true
	return true
}

func (b *branchStack) pop() bool {
	if len(b.frames) == 0 {
		return false
	}
	b.frames = b.frames[:len(b.frames)-1]
	return true
}

func (b *branchStack) openOffset() int {
	return b.frames[len(b.frames)-1].offset
}
