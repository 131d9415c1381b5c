package flowtree

import (
	"fmt"

	"vpp/internal/token"
)

// Tree is the conditional flow structure of one unfiltered token
// stream: a flat arena of conditional nodes referenced by index, with
// the top-level element list in root. Ownership is strictly
// hierarchical; parent links are non-owning indices.
type Tree struct {
	root  []element
	nodes []condNode
}

// element is either a plain run of tokens or a nested conditional,
// never both. node is an arena index, -1 for runs.
type element struct {
	run  []token.Token
	node int
}

// condNode is one `ifdef/`ifndef together with its `elsif chain and
// optional trailing `else. Exactly one branch (or none, when there is
// no `else) is active under a single truth assignment.
type condNode struct {
	branches []branch
	hasElse  bool
	parent   int // arena index of the enclosing node, -1 at top level
}

// branch is one alternative body of a conditional.
type branch struct {
	name    string // tested macro name, empty for `else
	negated bool   // `ifndef
	isElse  bool
	offset  int // byte offset of the opening directive
	elems   []element
}

// Build constructs the flow tree in a single linear pass over the
// significant-token sequence with directives retained. Malformed
// nesting aborts the build; no tree is returned.
func Build(toks []token.Token) (*Tree, error) {
	b := &builder{tree: &Tree{}}
	if err := b.run(toks); err != nil {
		return nil, err
	}
	return b.tree, nil
}

type builder struct {
	tree   *Tree
	open   []int // stack of open node indices
	toks   []token.Token
	i      int
	runAcc []token.Token
}

func (b *builder) run(toks []token.Token) error {
	b.toks = toks
	for b.i < len(b.toks) {
		t := b.toks[b.i]
		b.i++
		if t.IsEOF() {
			break
		}
		if err := b.handle(t); err != nil {
			return err
		}
	}
	b.flushRun()
	if len(b.open) > 0 {
		// Report the outermost unclosed conditional.
		idx := b.open[len(b.open)-1]
		for b.tree.nodes[idx].parent >= 0 {
			idx = b.tree.nodes[idx].parent
		}
		return fmt.Errorf("offset %d: unterminated conditional at end of file", b.tree.nodes[idx].branches[0].offset)
	}
	return nil
}

func (b *builder) handle(t token.Token) error {
	switch t.Kind {
	case token.Ifdef, token.Ifndef:
		name, err := b.macroName(t)
		if err != nil {
			return err
		}
		b.flushRun()
		parent := -1
		if len(b.open) > 0 {
			parent = b.open[len(b.open)-1]
		}
		idx := len(b.tree.nodes)
		b.tree.nodes = append(b.tree.nodes, condNode{
			parent: parent,
			branches: []branch{{
				name:    name,
				negated: t.Kind == token.Ifndef,
				offset:  t.Offset,
			}},
		})
		elems := b.currentElems()
		*elems = append(*elems, element{node: idx})
		b.open = append(b.open, idx)

	case token.Elsif:
		name, err := b.macroName(t)
		if err != nil {
			return err
		}
		if len(b.open) == 0 {
			return fmt.Errorf("offset %d: unmatched `elsif", t.Offset)
		}
		nd := &b.tree.nodes[b.open[len(b.open)-1]]
		if nd.hasElse {
			return fmt.Errorf("offset %d: `elsif after `else", t.Offset)
		}
		b.flushRun()
		nd.branches = append(nd.branches, branch{name: name, offset: t.Offset})

	case token.Else:
		if len(b.open) == 0 {
			return fmt.Errorf("offset %d: unmatched `else", t.Offset)
		}
		nd := &b.tree.nodes[b.open[len(b.open)-1]]
		if nd.hasElse {
			return fmt.Errorf("offset %d: duplicate `else", t.Offset)
		}
		b.flushRun()
		nd.hasElse = true
		nd.branches = append(nd.branches, branch{isElse: true, offset: t.Offset})

	case token.Endif:
		if len(b.open) == 0 {
			return fmt.Errorf("offset %d: unmatched `endif", t.Offset)
		}
		b.flushRun()
		b.open = b.open[:len(b.open)-1]

	case token.Define:
		b.skipDefine()

	case token.Undef:
		if b.i < len(b.toks) && b.toks[b.i].Kind == token.PPIdentifier {
			b.i++
		}

	case token.PPIdentifier, token.DefineBody:
		// stray directive operand, never part of a run

	default:
		b.runAcc = append(b.runAcc, t)
	}
	return nil
}

// macroName consumes the identifier operand of a conditional directive.
func (b *builder) macroName(directive token.Token) (string, error) {
	if b.i >= len(b.toks) || b.toks[b.i].Kind != token.PPIdentifier {
		return "", fmt.Errorf("offset %d: expected macro name after %s", directive.Offset, directive.Text)
	}
	name := b.toks[b.i].Text
	b.i++
	return name, nil
}

// skipDefine drops a whole definition (name, parameter header, body)
// so that no preprocessing construct lands in a run. The lexer
// guarantees the name/params/body token shape.
func (b *builder) skipDefine() {
	if b.i >= len(b.toks) || b.toks[b.i].Kind != token.PPIdentifier {
		return
	}
	b.i++
	if b.i < len(b.toks) && b.toks[b.i].Kind == token.Symbol && b.toks[b.i].Text == "(" {
		for b.i < len(b.toks) {
			t := b.toks[b.i]
			b.i++
			if t.Kind == token.Symbol && t.Text == ")" {
				break
			}
		}
	}
	if b.i < len(b.toks) && b.toks[b.i].Kind == token.DefineBody {
		b.i++
	}
}

// currentElems returns the element list under construction: the
// innermost open branch, or the root.
func (b *builder) currentElems() *[]element {
	if len(b.open) == 0 {
		return &b.tree.root
	}
	nd := &b.tree.nodes[b.open[len(b.open)-1]]
	return &nd.branches[len(nd.branches)-1].elems
}

func (b *builder) flushRun() {
	if len(b.runAcc) == 0 {
		return
	}
	elems := b.currentElems()
	*elems = append(*elems, element{node: -1, run: b.runAcc})
	b.runAcc = nil
}

// NodeCount reports the number of conditional nodes in the tree.
func (t *Tree) NodeCount() int { return len(t.nodes) }
