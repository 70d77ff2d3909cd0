package metalang

import (
	"github.com/aethergen/aether/apperr"
	"github.com/aethergen/aether/grammar"
)

// Compile is the full §4.7→§4.8 pipeline in one call: parse Aether grammar
// source, lower its AST to a grammar.Spec, and build the immutable
// grammar.IR. Session callers (package session) use this directly; Parse
// and Lower are exposed separately for tests and tooling that want the
// intermediate AST. Any failure at any of the three stages is reported as
// a *apperr.GrammarLoadError, the one error kind §7 assigns to grammar
// loading, so callers can errors.As into it uniformly regardless of which
// stage actually failed.
func Compile(src []byte) (*grammar.IR, *grammar.SlotTable, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, nil, &apperr.GrammarLoadError{Cause: err}
	}
	spec, err := Lower(root)
	if err != nil {
		return nil, nil, &apperr.GrammarLoadError{Cause: err}
	}
	ir, slots, err := grammar.Build(spec)
	if err != nil {
		return nil, nil, &apperr.GrammarLoadError{Cause: err}
	}
	return ir, slots, nil
}
