// Package bsr implements the Binary Subtree Representation set Y (§3, §4.4,
// §4.5): the canonical output of one parse, read afterwards as a
// binary-branching grammar over spans rather than mutated further.
package bsr

import "github.com/aethergen/aether/grammar"

// Element is one BSR quadruple (slot, i, k, j): the driver has just crossed
// one symbol of its alternative (the slot has the dot right after that
// symbol), having started the alternative at i; k is the boundary the
// symbols before it reached, where the crossed symbol begins, and j is the
// position after it. For an alternative with N symbols, the BSR with the
// dot at the end (dot == N) is the "this alternative completed over
// [i, j)" record that non-terminal lookups key on.
type Element struct {
	Slot grammar.Slot
	I    int
	K    int
	J    int
	// TermStart is, for an element recording a terminal step, the matched
	// token's own start position after any ignorable run was skipped. K
	// stays the boundary the preceding symbol actually ended at (so
	// unwind's split-point lookups keep connecting to the BSR elements
	// that recorded that boundary); TermStart is only consulted when
	// rendering that terminal's own leaf span, so skipped whitespace
	// between two symbols isn't attributed to either one's matched text.
	// Equal to K for a non-terminal step, where there is no skip to track.
	TermStart int
}

// Set is the append-only table Y accumulates into during one parse. It
// supports the span queries §4.5's disambiguator and forest builder need:
// every completed alternative over a span, and every split point for one.
type Set struct {
	slots *grammar.SlotTable
	ir    *grammar.IR
	// byCompletedSpan indexes elements whose slot is the final slot of some
	// alternative (dot == len(symbols)), keyed by (non-terminal, i, j): the
	// root choices available for that span.
	byCompletedSpan map[spanKey][]Element
	// bySlotSpan indexes every element by (slot, i, j) regardless of
	// whether the slot is final, the split-point lookup the forest builder
	// walks recursively.
	bySlotSpan map[slotSpanKey][]Element
}

type spanKey struct {
	nt   grammar.NonTerminalID
	i, j int
}

type slotSpanKey struct {
	slot grammar.Slot
	i, j int
}

// NewSet constructs an empty BSR set for one parse session.
func NewSet(ir *grammar.IR, slots *grammar.SlotTable) *Set {
	return &Set{
		ir:              ir,
		slots:           slots,
		byCompletedSpan: map[spanKey][]Element{},
		bySlotSpan:      map[slotSpanKey][]Element{},
	}
}

// Add records one BSR quadruple, deduplicating exact repeats: the driver
// can rediscover the same (slot, i, k, j) via more than one continuation
// path, and Y must stay a set, not a multiset (§4.4 "U is finite because
// every (slot, start) can be enqueued at most once").
func (s *Set) Add(e Element) {
	ssk := slotSpanKey{slot: e.Slot, i: e.I, j: e.J}
	for _, existing := range s.bySlotSpan[ssk] {
		if existing.K == e.K {
			return
		}
	}
	s.bySlotSpan[ssk] = append(s.bySlotSpan[ssk], e)

	if s.slots.AtEnd(s.ir, e.Slot) {
		nt := s.slots.NonTerminal(e.Slot)
		sk := spanKey{nt: nt, i: e.I, j: e.J}
		s.byCompletedSpan[sk] = append(s.byCompletedSpan[sk], e)
	}
}

// Roots returns every completed-alternative BSR for non-terminal nt over
// [i, j): the candidate roots the disambiguator chooses among for that
// span (§4.5).
func (s *Set) Roots(nt grammar.NonTerminalID, i, j int) []Element {
	return s.byCompletedSpan[spanKey{nt: nt, i: i, j: j}]
}

// Splits returns every BSR recorded for slot over [i, j), i.e. every split
// point k at which the dot reached slot's position having started at i and
// standing at j. The forest builder recurses on (slot with dot moved back
// one symbol, i, k) and (the symbol just before the dot, k, j).
func (s *Set) Splits(slot grammar.Slot, i, j int) []Element {
	return s.bySlotSpan[slotSpanKey{slot: slot, i: i, j: j}]
}

// HasSpanningRoot reports whether the BSR set contains a completed
// alternative for nt spanning the entire input [0, n): the success
// condition for a whole parse (§4.4 "a parse fails overall iff no BSR
// element with (start_slot, 0, n) is in Y").
func (s *Set) HasSpanningRoot(nt grammar.NonTerminalID, n int) bool {
	return len(s.Roots(nt, 0, n)) > 0
}

// Len reports the total number of distinct elements recorded, for tests
// and diagnostics.
func (s *Set) Len() int {
	n := 0
	for _, v := range s.bySlotSpan {
		n += len(v)
	}
	return n
}

// All returns every recorded element, for tests and tooling that want to
// inspect the raw BSR set directly (Session.BSR(), §4.9).
func (s *Set) All() []Element {
	var out []Element
	for _, v := range s.bySlotSpan {
		out = append(out, v...)
	}
	return out
}
