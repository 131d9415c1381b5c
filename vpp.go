/*
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package vpp is a Verilog/SystemVerilog preprocessing front end. It
// resolves `define/`undef macros and `ifdef conditional directives into
// a concrete token stream, or enumerates every token stream that
// preprocessing could produce when the conditional outcomes are open.
package vpp

import (
	"vpp/internal/flowtree"
	"vpp/internal/lexer"
	"vpp/internal/preprocessor"
	"vpp/internal/token"
)

// Define is an externally injected macro definition, applied before
// any directive in the source is scanned.
type Define struct {
	Name  string
	Value string
}

// Options configures a single Preprocess call.
type Options struct {
	// FilterBranches omits tokens of untaken conditional branches.
	// When false the scan is pass-through: directives and all branch
	// contents survive into the output.
	FilterBranches bool

	// ExpandMacros substitutes macro bodies at `NAME call sites.
	ExpandMacros bool

	// Defines are applied in order before scanning; in-stream `define
	// directives of the same name override them.
	Defines []Define
}

// Diagnostic is one message produced during preprocessing, with the
// byte offset of the token it refers to.
type Diagnostic struct {
	Message string
	Offset  int
}

// Result is the outcome of one Preprocess call. Partial output is
// still populated when errors were found.
type Result struct {
	Tokens   []string
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Preprocess scans source once and resolves its directives concretely.
func Preprocess(source string, opts Options) Result {
	pp := preprocessor.New(preprocessor.Config{
		FilterBranches: opts.FilterBranches,
		ExpandMacros:   opts.ExpandMacros,
	})
	for _, d := range opts.Defines {
		pp.SetExternalDefine(d.Name, d.Value)
	}
	data := pp.Scan(lexer.Significant(lexer.Lex(source)))
	return Result{
		Tokens:   tokenTexts(data.Tokens),
		Errors:   diagnostics(data.Errors),
		Warnings: diagnostics(data.Warnings),
	}
}

// Variants enumerates the distinct token streams preprocessing could
// produce under all truth assignments of the conditionals in source,
// stopping after limit variants (limit <= 0 means no bound; the search
// space is exponential in nesting depth, so callers should bound it).
func Variants(source string, limit int) ([][]string, error) {
	tree, err := flowtree.Build(lexer.Significant(lexer.Lex(source)))
	if err != nil {
		return nil, err
	}
	var out [][]string
	err = tree.GenerateVariants(flowtree.Options{}, func(v flowtree.Variant) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		out = append(out, tokenTexts(v.Tokens))
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func tokenTexts(toks []token.Token) []string {
	texts := make([]string, len(toks))
	for i, t := range toks {
		texts[i] = t.Text
	}
	return texts
}

func diagnostics(ds []preprocessor.Diagnostic) []Diagnostic {
	if len(ds) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(ds))
	for i, d := range ds {
		out[i] = Diagnostic{Message: d.Message, Offset: d.Offset}
	}
	return out
}
