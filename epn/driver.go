// Package epn implements the §4.4 EPN driver: a generalized recursive
// descent parser, in the Scott/Johnstone GLL family, that produces a BSR
// forest for arbitrarily ambiguous, possibly left-recursive grammars in
// worst-case O(n^3).
//
// The three tables §4.4 calls U, P and Y are present here under more
// descriptive names, matching the teacher's preference for readable field
// names over terse algebraic ones: `queue` is U (pending work, represented
// as closures rather than raw tuples so a resumed descent carries its own
// continuation), `popped`/`started`/`waiters` together are P (a
// non-terminal's discovered (start, end) pairs, whether its exploration has
// begun, and who is waiting to hear about new ends), and `y` is the BSR set
// Y from package bsr.
package epn

import (
	"context"
	"sort"

	"github.com/aethergen/aether/apperr"
	"github.com/aethergen/aether/bsr"
	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/grammar"
	"github.com/aethergen/aether/lexer"
)

type continuation func(end int)

type ntStart struct {
	nt    grammar.NonTerminalID
	start int
}

// Driver runs one parse session's worth of EPN exploration over an
// immutable grammar.IR and a fixed source buffer. It is not safe for
// concurrent use; one Driver belongs to one session (§5).
type Driver struct {
	ir    *grammar.IR
	slots *grammar.SlotTable
	lx    *lexer.Lexer
	σ     condition.Assignment
	eval  *condition.Evaluator

	y *bsr.Set

	popped  map[ntStart]map[int]bool
	started map[ntStart]bool
	waiters map[ntStart][]continuation

	queue []func()

	farthestPos      int
	farthestExpected map[string]bool
}

// New constructs a Driver ready to run over src under the grammar ir and
// condition assignment σ.
func New(ir *grammar.IR, slots *grammar.SlotTable, lx *lexer.Lexer, σ condition.Assignment) *Driver {
	return &Driver{
		ir:               ir,
		slots:            slots,
		lx:               lx,
		σ:                σ,
		eval:             condition.NewEvaluator(),
		y:                bsr.NewSet(ir, slots),
		popped:           map[ntStart]map[int]bool{},
		started:          map[ntStart]bool{},
		waiters:          map[ntStart][]continuation{},
		farthestExpected: map[string]bool{},
	}
}

// BSR returns the set accumulated so far, regardless of whether Run
// succeeded, failed, or was cancelled (§4.9 Session.BSR()).
func (d *Driver) BSR() *bsr.Set { return d.y }

// Run drains the work queue starting from the grammar's start non-terminal
// at position 0, checking ctx at every pop -- the single cooperative
// cancellation point (§5). length is the length of the source buffer, used
// as the success span.
func (d *Driver) Run(ctx context.Context, length int) error {
	d.callNonTerminal(d.ir.Start, 0, func(int) {})

	for len(d.queue) > 0 {
		select {
		case <-ctx.Done():
			return &apperr.Cancelled{Pos: d.lx.PositionOf(d.farthestPos)}
		default:
		}
		next := d.queue[0]
		d.queue = d.queue[1:]
		next()
	}

	if d.y.HasSpanningRoot(d.ir.Start, length) {
		return nil
	}
	return &apperr.SyntacticError{
		Pos:      d.lx.PositionOf(d.farthestPos),
		Expected: sortedKeys(d.farthestExpected),
	}
}

func (d *Driver) enqueue(f func()) {
	d.queue = append(d.queue, f)
}

// callNonTerminal is the EPN driver's non-terminal call: on a P cache hit
// (start already discovered, possibly with ends already known) it fans out
// to every recorded end immediately; it also always registers k to hear
// about ends discovered later, and starts a fresh descent if this
// (nt, start) has never been attempted.
func (d *Driver) callNonTerminal(nt grammar.NonTerminalID, start int, k continuation) {
	key := ntStart{nt: nt, start: start}
	d.waiters[key] = append(d.waiters[key], k)
	for end := range d.popped[key] {
		end := end
		d.enqueue(func() { k(end) })
	}
	if d.started[key] {
		return
	}
	d.started[key] = true
	d.enqueue(func() { d.exploreNonTerminal(nt, start) })
}

func (d *Driver) exploreNonTerminal(nt grammar.NonTerminalID, start int) {
	ntDef := d.ir.NonTerminals[nt]
	if !d.eval.Evaluate(ntDef.Guard, d.σ) {
		return
	}
	for _, alt := range ntDef.Alternatives {
		if !d.eval.Evaluate(alt.Guard, d.σ) {
			continue
		}
		if !subConditionHolds(d.ir, alt.SubCondition, d.σ) {
			continue
		}
		d.tryAlternative(ntDef, alt, start)
	}
}

func (d *Driver) tryAlternative(nt *grammar.NonTerminal, alt *grammar.Alternative, start int) {
	if len(alt.Symbols) == 0 {
		// An epsilon alternative completes immediately; its slot is both
		// the initial and the final dot position, so it is its own root.
		slot := d.slots.Intern(nt.ID, alt.Index, 0)
		d.y.Add(bsr.Element{Slot: slot, I: start, K: start, J: start})
		d.succeed(nt.ID, start, start)
		return
	}
	d.stepAlternative(nt, alt, start, 0, start)
}

func (d *Driver) stepAlternative(nt *grammar.NonTerminal, alt *grammar.Alternative, start, dot, pos int) {
	sym := alt.Symbols[dot]
	switch sym.Kind {
	case grammar.SymbolTerminal:
		d.stepTerminal(nt, alt, start, dot, pos, sym)
	case grammar.SymbolNonTerminal:
		d.callNonTerminal(sym.NonTerminal, pos, func(end int) {
			d.advance(nt, alt, start, dot, pos, pos, end)
		})
	}
}

func (d *Driver) stepTerminal(nt *grammar.NonTerminal, alt *grammar.Alternative, start, dot, pos int, sym grammar.Symbol) {
	toks, err := d.lx.Lex(pos, d.σ)
	if err != nil {
		return
	}
	matched := false
	for _, tok := range toks {
		if tok.Terminal != sym.Terminal {
			continue
		}
		matched = true
		d.advance(nt, alt, start, dot, pos, tok.Start, tok.End)
	}
	if !matched {
		term := d.ir.Terminals[sym.Terminal]
		d.recordFarthest(pos, term.Name)
	}
}

// advance records the BSR element for having just crossed symbol dot (the
// slot with the dot moved one past it), then either completes the
// alternative or schedules the next symbol's step. pos is the boundary the
// previous symbol actually ended at -- kept as K so the next unwind's
// split-point lookup keeps finding the BSR element that recorded that same
// boundary -- while termStart is the current symbol's own match start
// (post-ignorable-skip for a terminal, equal to pos for a non-terminal,
// which has no skip to track) carried through only for forest's leaf
// rendering.
func (d *Driver) advance(nt *grammar.NonTerminal, alt *grammar.Alternative, start, dot, pos, termStart, newPos int) {
	nextDot := dot + 1
	slot := d.slots.Intern(nt.ID, alt.Index, nextDot)
	d.y.Add(bsr.Element{Slot: slot, I: start, K: pos, J: newPos, TermStart: termStart})
	if nextDot == len(alt.Symbols) {
		d.succeed(nt.ID, start, newPos)
		return
	}
	d.enqueue(func() { d.stepAlternative(nt, alt, start, nextDot, newPos) })
}

// succeed records a new (nt, start) -> end success in P and reschedules
// every waiting continuation, if end was not already known -- P is
// cumulative, so a later alternative extending a left-recursive derivation
// to a new end still fires every waiter again for that new end only.
func (d *Driver) succeed(nt grammar.NonTerminalID, start, end int) {
	key := ntStart{nt: nt, start: start}
	if d.popped[key] == nil {
		d.popped[key] = map[int]bool{}
	}
	if d.popped[key][end] {
		return
	}
	d.popped[key][end] = true
	for _, w := range d.waiters[key] {
		w := w
		e := end
		d.enqueue(func() { w(e) })
	}
}

func (d *Driver) recordFarthest(pos int, terminalName string) {
	if pos > d.farthestPos {
		d.farthestPos = pos
		d.farthestExpected = map[string]bool{terminalName: true}
		return
	}
	if pos == d.farthestPos {
		d.farthestExpected[terminalName] = true
	}
}

// subConditionHolds resolves an alternative's @lexical/@syntactic gate
// against σ. These are ordinary condition names in the universe; a grammar
// that never declares "lexical"/"syntactic" as condition names at all (no
// dialect distinction in use) treats every sub-condition as satisfied,
// since there is nothing to gate against.
func subConditionHolds(ir *grammar.IR, sc grammar.SubCondition, σ condition.Assignment) bool {
	switch sc {
	case grammar.SubConditionLexical:
		return conditionOrDefault(ir, σ, "lexical", true)
	case grammar.SubConditionSyntactic:
		return conditionOrDefault(ir, σ, "syntactic", true)
	default:
		return true
	}
}

func conditionOrDefault(ir *grammar.IR, σ condition.Assignment, name string, def bool) bool {
	if _, ok := ir.Conditions.Lookup(name); !ok {
		return def
	}
	return σ.Value(name)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
