package forest

import (
	"context"
	"strings"
	"testing"

	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/epn"
	"github.com/aethergen/aether/grammar"
	"github.com/aethergen/aether/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, spec *grammar.Spec, src string) (*grammar.IR, *grammar.SlotTable, *epn.Driver) {
	t.Helper()
	ir, slots, err := grammar.Build(spec)
	require.NoError(t, err)
	σ, err := condition.NewAssignment(ir.Conditions, nil)
	require.NoError(t, err)
	lx := lexer.New(ir, []byte(src))
	d := epn.New(ir, slots, lx, σ)
	require.NoError(t, d.Run(context.Background(), len(src)))
	return ir, slots, d
}

func sumGrammar() *grammar.Spec {
	// sum: sum "+" digit | digit ; left-recursive, single unambiguous parse.
	return &grammar.Spec{
		Terminals: []grammar.TerminalSpec{
			{Name: "digit", Pattern: "[0-9]+"},
			{Name: "plus", Pattern: `\+`},
		},
		NonTerminals: []grammar.NonTerminalSpec{
			{
				Name:    "sum",
				IsStart: true,
				Alternatives: []grammar.AlternativeSpec{
					{Symbols: []grammar.SymbolSpec{
						{Kind: grammar.SymbolNonTerminal, Name: "sum"},
						{Kind: grammar.SymbolTerminal, Name: "plus", Elide: true},
						{Kind: grammar.SymbolTerminal, Name: "digit"},
					}},
					{Symbols: []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "digit"}}},
				},
			},
		},
	}
}

func TestCSTBuildsLeftRecursiveChain(t *testing.T) {
	ir, slots, d := parse(t, sumGrammar(), "1+2+3")
	b := NewBuilder(ir, slots, d.BSR(), []byte("1+2+3"))
	cst, err := b.CST()
	require.NoError(t, err)
	assert.Equal(t, "sum", cst.KindName)
	assert.Equal(t, [2]int{0, 5}, cst.Span)
	// sum -> sum "+" digit: all three children survive in the CST (plus is kept).
	require.Len(t, cst.Children, 3)
	assert.Equal(t, "plus", cst.Children[1].KindName)
}

func TestASTElidesPunctuationAndCollapsesChains(t *testing.T) {
	ir, slots, d := parse(t, sumGrammar(), "1+2+3")
	b := NewBuilder(ir, slots, d.BSR(), []byte("1+2+3"))
	ast, err := b.AST()
	require.NoError(t, err)
	assert.Equal(t, "sum", ast.KindName)
	// the "+" terminal is elided, leaving two children: the recursive sum
	// and the trailing digit.
	require.Len(t, ast.Children, 2)
	assert.Equal(t, "digit", ast.Children[1].KindName)
	assert.Equal(t, "3", ast.Children[1].Text)
}

func iterationGrammar() *grammar.Spec {
	// digits: the seed/step shape metalang/lower.go gives `{/digit}`, except
	// that the seed here is one digit where lower.go's seed is empty.
	return &grammar.Spec{
		Terminals: []grammar.TerminalSpec{
			{Name: "digit", Pattern: "[0-9]"},
		},
		NonTerminals: []grammar.NonTerminalSpec{
			{
				Name:    "digits",
				IsStart: true,
				Alternatives: []grammar.AlternativeSpec{
					{
						Symbols:    []grammar.SymbolSpec{{Kind: grammar.SymbolNonTerminal, Name: "digits"}, {Kind: grammar.SymbolTerminal, Name: "digit"}},
						LeftFold:   true,
						Provenance: grammar.ProvenanceIterationStep,
					},
					{
						Symbols:    []grammar.SymbolSpec{{Kind: grammar.SymbolTerminal, Name: "digit"}},
						Provenance: grammar.ProvenanceIterationSeed,
					},
				},
			},
		},
	}
}

func TestCSTResolvesLeftFoldIterationGreedily(t *testing.T) {
	ir, slots, d := parse(t, iterationGrammar(), "123")
	b := NewBuilder(ir, slots, d.BSR(), []byte("123"))
	cst, err := b.CST()
	require.NoError(t, err)
	assert.False(t, cst.Ambiguous)

	var leaves []string
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Text != "" {
			leaves = append(leaves, n.Text)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(cst)
	assert.Equal(t, "123", strings.Join(leaves, ""))
}

func ambiguousSumGrammar() *grammar.Spec {
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

func TestCSTMarksGenuineAmbiguity(t *testing.T) {
	ir, slots, d := parse(t, ambiguousSumGrammar(), "1+2+3")
	b := NewBuilder(ir, slots, d.BSR(), []byte("1+2+3"))
	cst, err := b.CST()
	require.NoError(t, err)
	assert.True(t, cst.Ambiguous)
}
