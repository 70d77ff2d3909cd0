package epn

import (
	"context"
	"testing"

	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/grammar"
	"github.com/aethergen/aether/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, spec *grammar.Spec, src string, values map[string]bool) (*Driver, error) {
	t.Helper()
	ir, slots, err := grammar.Build(spec)
	require.NoError(t, err)
	σ, err := condition.NewAssignment(ir.Conditions, values)
	require.NoError(t, err)
	lx := lexer.New(ir, []byte(src))
	d := New(ir, slots, lx, σ)
	err = d.Run(context.Background(), len(src))
	return d, err
}

func digitGrammar() *grammar.Spec {
	return &grammar.Spec{
		Terminals: []grammar.TerminalSpec{
			{Name: "digit", Pattern: "[0-9]+"},
		},
		NonTerminals: []grammar.NonTerminalSpec{
			{
				Name:    "expr",
				IsStart: true,
				Alternatives: []grammar.AlternativeSpec{
					{Symbols: []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "digit"}}},
				},
			},
		},
	}
}

func TestParseSingleTerminalProducesSpanningRoot(t *testing.T) {
	d, err := run(t, digitGrammar(), "42", nil)
	require.NoError(t, err)
	ir, _, _ := grammar.Build(digitGrammar())
	expr, _ := ir.NonTerminalByName("expr")
	assert.True(t, d.BSR().HasSpanningRoot(expr.ID, 2))
}

func TestParseFailureReportsFarthestExpected(t *testing.T) {
	_, err := run(t, digitGrammar(), "ab", nil)
	require.Error(t, err)
	synErr, ok := err.(interface{ Error() string })
	require.True(t, ok)
	assert.Contains(t, synErr.Error(), "digit")
}

// leftRecursiveGrammar models `expr: expr "+" digit | digit ;`, the
// canonical case a naive recursive-descent parser cannot handle directly.
func leftRecursiveGrammar() *grammar.Spec {
	return &grammar.Spec{
		Terminals: []grammar.TerminalSpec{
			{Name: "digit", Pattern: "[0-9]+"},
			{Name: "plus", Pattern: `\+`},
		},
		NonTerminals: []grammar.NonTerminalSpec{
			{
				Name:    "expr",
				IsStart: true,
				Alternatives: []grammar.AlternativeSpec{
					{Symbols: []grammar.SymbolSpec{
						{Kind: grammar.SymbolNonTerminal, Name: "expr"},
						{Kind: grammar.SymbolTerminal, Name: "plus"},
						{Kind: grammar.SymbolTerminal, Name: "digit"},
					}},
					{Symbols: []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "digit"}}},
				},
			},
		},
	}
}

func TestParseLeftRecursiveGrammarTerminates(t *testing.T) {
	d, err := run(t, leftRecursiveGrammar(), "1+2+3", nil)
	require.NoError(t, err)
	ir, _, _ := grammar.Build(leftRecursiveGrammar())
	expr, _ := ir.NonTerminalByName("expr")
	assert.True(t, d.BSR().HasSpanningRoot(expr.ID, 5))
}

func ambiguousGrammar() *grammar.Spec {
	// expr: expr "+" expr | digit ; -- classically ambiguous on 1+2+3.
	return &grammar.Spec{
		Terminals: []grammar.TerminalSpec{
			{Name: "digit", Pattern: "[0-9]+"},
			{Name: "plus", Pattern: `\+`},
		},
		NonTerminals: []grammar.NonTerminalSpec{
			{
				Name:    "expr",
				IsStart: true,
				Alternatives: []grammar.AlternativeSpec{
					{Symbols: []grammar.SymbolSpec{
						{Kind: grammar.SymbolNonTerminal, Name: "expr"},
						{Kind: grammar.SymbolTerminal, Name: "plus"},
						{Kind: grammar.SymbolNonTerminal, Name: "expr"},
					}},
					{Symbols: []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "digit"}}},
				},
			},
		},
	}
}

func TestParseAmbiguousGrammarRecordsMultipleRoots(t *testing.T) {
	d, err := run(t, ambiguousGrammar(), "1+2+3", nil)
	require.NoError(t, err)
	ir, _, _ := grammar.Build(ambiguousGrammar())
	expr, _ := ir.NonTerminalByName("expr")
	roots := d.BSR().Roots(expr.ID, 0, 5)
	assert.GreaterOrEqual(t, len(roots), 2, "both left- and right-associative groupings should be recorded")
}

func conditionalGrammar() *grammar.Spec {
	return &grammar.Spec{
		Terminals: []grammar.TerminalSpec{
			{Name: "ws", Pattern: "[ ]+", Ignorable: true},
			{Name: "legacy_kw", Pattern: "old", Guard: "legacy"},
			{Name: "id", Pattern: "[a-z]+"},
		},
		NonTerminals: []grammar.NonTerminalSpec{
			{
				Name:    "stmt",
				IsStart: true,
				Alternatives: []grammar.AlternativeSpec{
					{Symbols: []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "legacy_kw"}}},
					{Symbols: []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "id"}}},
				},
			},
		},
	}
}

func TestParseHonoursConditionAssignment(t *testing.T) {
	_, err := run(t, conditionalGrammar(), "old", map[string]bool{"legacy": true})
	require.NoError(t, err)

	_, err = run(t, conditionalGrammar(), "old", map[string]bool{"legacy": false})
	require.NoError(t, err) // "old" still matches "id"
}

func TestParseCancellation(t *testing.T) {
	ir, slots, err := grammar.Build(leftRecursiveGrammar())
	require.NoError(t, err)
	σ, err := condition.NewAssignment(ir.Conditions, nil)
	require.NoError(t, err)
	lx := lexer.New(ir, []byte("1+2+3+4+5"))
	d := New(ir, slots, lx, σ)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = d.Run(ctx, 9)
	require.Error(t, err)
}
