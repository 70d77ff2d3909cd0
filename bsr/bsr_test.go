package bsr

import (
	"testing"

	"github.com/aethergen/aether/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIR(t *testing.T) (*grammar.IR, *grammar.SlotTable) {
	t.Helper()
	ir, slots, err := grammar.Build(&grammar.Spec{
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
	})
	require.NoError(t, err)
	return ir, slots
}

func TestAddDeduplicatesExactRepeat(t *testing.T) {
	ir, slots := testIR(t)
	expr, _ := ir.NonTerminalByName("expr")
	slot := slots.Intern(expr.ID, 0, 1)

	set := NewSet(ir, slots)
	set.Add(Element{Slot: slot, I: 0, K: 0, J: 1})
	set.Add(Element{Slot: slot, I: 0, K: 0, J: 1})
	assert.Equal(t, 1, set.Len())
}

func TestRootsIndexesCompletedAlternatives(t *testing.T) {
	ir, slots := testIR(t)
	expr, _ := ir.NonTerminalByName("expr")
	completed := slots.Intern(expr.ID, 0, 1) // dot at end (1 symbol)

	set := NewSet(ir, slots)
	set.Add(Element{Slot: completed, I: 0, K: 0, J: 1})

	roots := set.Roots(expr.ID, 0, 1)
	require.Len(t, roots, 1)
	assert.True(t, set.HasSpanningRoot(expr.ID, 1))
}

func TestSplitsIndexesBySlotSpan(t *testing.T) {
	ir, slots := testIR(t)
	expr, _ := ir.NonTerminalByName("expr")
	mid := slots.Intern(expr.ID, 0, 0) // dot before the only symbol

	set := NewSet(ir, slots)
	set.Add(Element{Slot: mid, I: 0, K: 0, J: 0})

	splits := set.Splits(mid, 0, 0)
	require.Len(t, splits, 1)
}

func TestNoSpanningRootWhenNothingRecorded(t *testing.T) {
	ir, slots := testIR(t)
	expr, _ := ir.NonTerminalByName("expr")
	set := NewSet(ir, slots)
	assert.False(t, set.HasSpanningRoot(expr.ID, 5))
}
