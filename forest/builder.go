package forest

import (
	"fmt"

	"github.com/aethergen/aether/bsr"
	"github.com/aethergen/aether/grammar"
)

// Builder reconstructs CST/AST trees from one parse's BSR set. It holds no
// mutable state beyond what a single build pass needs, so one Builder can
// serve repeated CST()/AST() calls against the same finished parse.
type Builder struct {
	ir    *grammar.IR
	slots *grammar.SlotTable
	y     *bsr.Set
	src   []byte
}

// NewBuilder constructs a Builder over a finished BSR set y for grammar ir
// and source buffer src.
func NewBuilder(ir *grammar.IR, slots *grammar.SlotTable, y *bsr.Set, src []byte) *Builder {
	return &Builder{ir: ir, slots: slots, y: y, src: src}
}

// CST builds the concrete syntax tree spanning the whole input, rooted at
// the grammar's start non-terminal. It fails only if the BSR set has no
// root spanning [0, len(src)) -- callers should check that via
// bsr.Set.HasSpanningRoot (or a successful epn.Driver.Run) first.
func (b *Builder) CST() (*Node, error) {
	return b.buildNonTerminalSpan(b.ir.Start, 0, len(b.src))
}

// AST builds the abstract syntax tree: the CST with purely-syntactic
// terminals (Symbol.Elide) dropped and single-child non-terminal chains
// collapsed to their one child.
func (b *Builder) AST() (*Node, error) {
	cst, err := b.CST()
	if err != nil {
		return nil, err
	}
	return collapse(cst), nil
}

func (b *Builder) buildNonTerminalSpan(nt grammar.NonTerminalID, i, j int) (*Node, error) {
	ntDef := b.ir.NonTerminals[nt]
	roots := b.y.Roots(nt, i, j)
	if len(roots) == 0 {
		return nil, fmt.Errorf("forest: no BSR root for %s over [%d:%d)", ntDef.Name, i, j)
	}

	slot, ambiguousAlt := b.selectRoot(ntDef, roots)
	alt := ntDef.Alternatives[b.slots.Alt(slot)]

	children, ambiguousSplit, err := b.unwind(ntDef, alt, len(alt.Symbols), i, j)
	if err != nil {
		return nil, err
	}
	return &Node{
		KindName:  ntDef.Name,
		Span:      [2]int{i, j},
		Ambiguous: ambiguousAlt || ambiguousSplit,
		Children:  children,
	}, nil
}

// selectRoot applies rule 1 (§4.5): group the candidate roots by which
// alternative completed the span, and for an ordered-choice non-terminal
// keep only the earliest-listed alternative with any root. For an
// ambiguous (`|`-joined) non-terminal with roots from more than one
// alternative, a sugar-introduced production (every alternative born from
// iteration/optional desugaring) still collapses deterministically -- that
// ambiguity is an artifact of expansion, not of the source grammar -- while
// a genuine multi-alternative tie is reported via the returned bool.
func (b *Builder) selectRoot(nt *grammar.NonTerminal, roots []bsr.Element) (grammar.Slot, bool) {
	byAlt := map[int]grammar.Slot{}
	for _, r := range roots {
		byAlt[b.slots.Alt(r.Slot)] = r.Slot
	}
	earliest := -1
	for idx := range byAlt {
		if earliest == -1 || idx < earliest {
			earliest = idx
		}
	}
	if nt.Separator == grammar.SeparatorOrdered || len(byAlt) == 1 || allSugar(nt) {
		return byAlt[earliest], false
	}
	return byAlt[earliest], true
}

func allSugar(nt *grammar.NonTerminal) bool {
	for _, alt := range nt.Alternatives {
		if alt.Provenance == grammar.ProvenancePlain {
			return false
		}
	}
	return true
}

// unwind reconstructs the children for alt's first `dot` symbols, given the
// alternative's derivation over [i, j), recursing from the end backward
// through Splits.
func (b *Builder) unwind(nt *grammar.NonTerminal, alt *grammar.Alternative, dot, i, j int) ([]*Node, bool, error) {
	if dot == 0 {
		return nil, false, nil
	}

	slot := b.slots.Intern(nt.ID, alt.Index, dot)
	splits := b.y.Splits(slot, i, j)
	if len(splits) == 0 {
		return nil, false, fmt.Errorf("forest: no BSR split for %s alt %d dot %d over [%d:%d)", nt.Name, alt.Index, dot, i, j)
	}

	split, ambiguous := selectSplit(alt, splits)

	left, leftAmbiguous, err := b.unwind(nt, alt, dot-1, i, split.K)
	if err != nil {
		return nil, false, err
	}
	right, rightAmbiguous, err := b.buildSymbol(alt.Symbols[dot-1], split)
	if err != nil {
		return nil, false, err
	}
	return append(left, right), ambiguous || leftAmbiguous || rightAmbiguous, nil
}

// selectSplit applies rule 2 (§4.5): when more than one split point is
// recorded for the same (slot, i, j), a left-folding iteration alternative
// (`{/X}`) greedily prefers the split that consumes the most input into its
// recursive (left) part -- the longest-match reading. A non-left-folding
// alternative with more than one split is a genuine structural ambiguity
// (e.g. "a+a+a" admits more than one bracketing); the earliest split is
// kept deterministically and the ambiguity is reported to the caller.
func selectSplit(alt *grammar.Alternative, splits []bsr.Element) (bsr.Element, bool) {
	if len(splits) == 1 {
		return splits[0], false
	}
	if alt.LeftFold {
		best := splits[0]
		for _, s := range splits[1:] {
			if s.K > best.K {
				best = s
			}
		}
		return best, false
	}
	return splits[0], true
}

// buildSymbol materializes the single symbol that split.K/split.J (the
// alternative's own split-point boundaries) identify as occupying
// [split.K, split.J). A terminal instead renders its Text/Span from
// split.TermStart: the matched token's real start once any ignorable run
// between it and the previous symbol is skipped, so e.g. the spaces before
// a token are never folded into that token's own text (§4.3 step 1 runs
// before a terminal is matched, not after the previous symbol ends).
func (b *Builder) buildSymbol(sym grammar.Symbol, split bsr.Element) (*Node, bool, error) {
	switch sym.Kind {
	case grammar.SymbolTerminal:
		t := b.ir.Terminals[sym.Terminal]
		i, j := split.TermStart, split.J
		return &Node{KindName: t.Name, Text: string(b.src[i:j]), Span: [2]int{i, j}, Terminal: true, elide: sym.Elide}, false, nil
	case grammar.SymbolNonTerminal:
		n, err := b.buildNonTerminalSpan(sym.NonTerminal, split.K, split.J)
		if err != nil {
			return nil, false, err
		}
		n.elide = sym.Elide
		return n, n.Ambiguous, nil
	default:
		return nil, false, fmt.Errorf("forest: unknown symbol kind %v", sym.Kind)
	}
}

// collapse turns a CST into an AST in place: children built from an elided
// symbol (Symbol.Elide -- purely-syntactic punctuation) are dropped, then
// chains of single-child non-terminal nodes collapse to their one child.
// The single remaining child must itself be a non-terminal (Node.Terminal
// false) to collapse -- a single terminal child, even one matching a
// zero-width pattern and so carrying Text == "", is a real leaf and must
// stay wrapped in its producing non-terminal.
func collapse(n *Node) *Node {
	if n == nil {
		return nil
	}
	kept := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.elide {
			continue
		}
		kept = append(kept, collapse(c))
	}
	n.Children = kept
	if len(n.Children) == 1 && !n.Children[0].Terminal {
		child := n.Children[0]
		child.Ambiguous = child.Ambiguous || n.Ambiguous
		return child
	}
	return n
}
