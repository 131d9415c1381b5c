package flowtree

import "vpp/internal/token"

// Variant is one concrete resolution of every reached conditional to a
// single branch choice. Variants are materialized one at a time; the
// consumer must not retain Tokens across iterator advances it wants to
// compare, copying instead.
type Variant struct {
	Tokens []token.Token
}

// Options configures variant enumeration.
type Options struct {
	// UnifyConditionals treats every test of the same macro name as one
	// shared truth assignment, skipping self-contradictory variants.
	// The default enumerates each conditional as an independent choice.
	UnifyConditionals bool
}

// VariantReceiver observes one variant and reports whether enumeration
// should continue. Returning false stops enumeration immediately; this
// is the only bound on the combinatorial search space.
type VariantReceiver func(Variant) bool

// GenerateVariants enumerates all variants in deterministic order
// (branches in source order, nodes in pre-order), invoking receive per
// variant until exhaustion or cancellation.
func (t *Tree) GenerateVariants(opts Options, receive VariantReceiver) error {
	it := t.Variants(opts)
	for {
		v, ok := it.Next()
		if !ok {
			return nil
		}
		if !receive(v) {
			return nil
		}
	}
}

// Variants returns a pausable iterator over the tree's variants. Each
// Next call materializes exactly one variant; abandoning the iterator
// costs nothing beyond the in-flight walk.
func (t *Tree) Variants(opts Options) *VariantIterator {
	return &VariantIterator{tree: t, opts: opts}
}

// VariantIterator drives a depth-first enumeration with an explicit
// decision odometer instead of recursion threading a stop flag. A
// decision exists only for nodes actually reached under the current
// choice prefix, so suppressed nodes never multiply the count.
type VariantIterator struct {
	tree    *Tree
	opts    Options
	choices []int // branch choice per decision, in encounter order
	arity   []int // alternatives available at each decision
	started bool
	done    bool
}

// Next yields the next variant in deterministic order. ok is false
// once enumeration is exhausted.
func (it *VariantIterator) Next() (Variant, bool) {
	if it.done {
		return Variant{}, false
	}
	if !it.started {
		it.started = true
		v, ok := it.walk()
		if ok {
			return v, true
		}
		// A fresh walk only fails on an empty tree with contradictory
		// state, which cannot happen; treat as exhausted.
		it.done = true
		return Variant{}, false
	}
	for len(it.choices) > 0 {
		k := len(it.choices) - 1
		it.choices[k]++
		if it.choices[k] >= it.arity[k] {
			it.choices = it.choices[:k]
			it.arity = it.arity[:k]
			continue
		}
		// Re-derive the walk under the adjusted prefix; deeper
		// decisions are re-made greedily. The walk can only reject the
		// just-incremented choice (unified mode), in which case the
		// odometer simply advances again.
		if v, ok := it.walk(); ok {
			return v, true
		}
	}
	it.done = true
	return Variant{}, false
}

// walk replays the depth-first traversal under the current choice
// prefix, extending the prefix with the first consistent choice at
// every newly reached node, and returns the materialized variant.
func (it *VariantIterator) walk() (Variant, bool) {
	w := &walker{
		tree:    it.tree,
		opts:    it.opts,
		choices: it.choices,
		arity:   it.arity,
	}
	if w.opts.UnifyConditionals {
		w.assign = map[string]bool{}
	}
	ok := w.elems(it.tree.root)
	it.choices = w.choices
	it.arity = w.arity
	if !ok {
		return Variant{}, false
	}
	return Variant{Tokens: w.buf}, true
}

type walker struct {
	tree    *Tree
	opts    Options
	choices []int
	arity   []int
	k       int // next decision index
	buf     []token.Token
	assign  map[string]bool // nil unless unifying
}

func (w *walker) elems(list []element) bool {
	for _, e := range list {
		if e.node < 0 {
			w.buf = append(w.buf, e.run...)
			continue
		}
		if !w.node(&w.tree.nodes[e.node]) {
			return false
		}
	}
	return true
}

func (w *walker) node(nd *condNode) bool {
	arity := len(nd.branches)
	if !nd.hasElse {
		arity++ // the implicit no-branch-taken outcome
	}

	var choice int
	if w.k < len(w.choices) {
		choice = w.choices[w.k]
		if !w.bindChoice(nd, choice) {
			return false
		}
	} else {
		choice = -1
		for c := 0; c < arity; c++ {
			if w.bindChoice(nd, c) {
				choice = c
				break
			}
		}
		if choice < 0 {
			// The branch conditions partition the assignment space, so
			// some choice is always consistent.
			return false
		}
		w.choices = append(w.choices, choice)
		w.arity = append(w.arity, arity)
	}
	w.k++

	if choice < len(nd.branches) {
		return w.elems(nd.branches[choice].elems)
	}
	return true // no branch taken
}

// bindChoice checks that taking the given branch is consistent with
// the truth assignment so far and records the implied assignments.
// Without unification every choice is consistent.
func (w *walker) bindChoice(nd *condNode, choice int) bool {
	if w.assign == nil {
		return true
	}
	// Taking branch i requires tests 0..i-1 false and test i true.
	// The else branch and the implicit none-taken outcome require all
	// tests false.
	for i, br := range nd.branches {
		if br.isElse {
			break
		}
		// test true means: defined(name) != negated
		want := br.negated // test outcome false
		if i == choice {
			want = !br.negated // test outcome true
		}
		if have, bound := w.assign[br.name]; bound {
			if have != want {
				return false
			}
			continue
		}
		w.assign[br.name] = want
		if i == choice {
			break // later tests are not evaluated
		}
	}
	return true
}
