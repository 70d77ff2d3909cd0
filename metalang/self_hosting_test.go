package metalang

import (
	"context"
	"os"
	"testing"

	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/grammar"
	"github.com/aethergen/aether/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSelfHostingGrammarCompiles proves metalang's front end can read a
// grammar describing Aether's own surface syntax -- testdata/aether.aether
// -- the same way it reads any other .aether file.
func TestSelfHostingGrammarCompiles(t *testing.T) {
	src, err := os.ReadFile("testdata/aether.aether")
	require.NoError(t, err)

	ir, slots, err := Compile(src)
	require.NoError(t, err)
	require.NotNil(t, slots)

	start, ok := ir.NonTerminalByName("grammar_file")
	require.True(t, ok)
	assert.True(t, start.IsStart)

	ident, ok := ir.TerminalByName("ident")
	require.True(t, ok)
	kwFragment, ok := ir.TerminalByName("kw_fragment")
	require.True(t, ok)
	assert.True(t, ir.Loses(ident.ID, kwFragment.ID), "ident must lose to kw_fragment on a full keyword match")

	guardOr, ok := ir.NonTerminalByName("guard_or")
	require.True(t, ok)
	var sawSelfReference bool
	for _, alt := range guardOr.Alternatives {
		for _, sym := range alt.Symbols {
			if sym.Kind == grammar.SymbolNonTerminal && sym.NonTerminal == guardOr.ID {
				sawSelfReference = true
			}
		}
	}
	assert.True(t, sawSelfReference, "guard_or should be left-recursive in its own right, not desugared iteration")
}

// TestSelfHostingGrammarParsesASample feeds one small, valid grammar
// snippet through a session built on the self-hosting grammar's own IR --
// the meta-grammar parsing an instance of its own language, the closed
// loop a self-hosting front end is meant to demonstrate.
func TestSelfHostingGrammarParsesASample(t *testing.T) {
	metaSrc, err := os.ReadFile("testdata/aether.aether")
	require.NoError(t, err)
	ir, slots, err := Compile(metaSrc)
	require.NoError(t, err)

	σ, err := condition.NewAssignment(ir.Conditions, nil)
	require.NoError(t, err)

	sample := []byte(`digit: "[0-9]+" ;`)
	s, err := session.Open(ir, slots, sample, σ)
	require.NoError(t, err)
	defer s.Close()

	result, err := s.Parse(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.AST)
	assert.True(t, s.BSR().HasSpanningRoot(ir.Start, len(sample)))
}
