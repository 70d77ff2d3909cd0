// Package lexer implements the §4.3 on-demand lexer: given a position and a
// condition assignment, it returns the *set* of tokens admitted there,
// after skipping ignorable runs, filtering to the longest match, and
// pruning by the grammar's precedence closure. Results are memoized by
// (position, condition mask), mirroring the teacher's Token shape
// (driver/lexer/lexer.go's ModeID/KindID/Row/Col/Lexeme fields) but
// position-addressed rather than cursor-addressed, since the EPN driver
// needs to ask for tokens at arbitrary positions, not just "the next one".
package lexer

import (
	"github.com/aethergen/aether/apperr"
	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/grammar"
	"github.com/aethergen/aether/regex"
)

// Token is one admitted terminal match: which terminal, and the byte span
// [Start, End) it covers.
type Token struct {
	Terminal grammar.TerminalID
	Start    int
	End      int
}

type memoKey struct {
	pos  int
	mask condition.Mask
}

// Lexer answers Lex queries against one immutable grammar.IR and one
// immutable source buffer. It is not safe for concurrent use: the memo maps
// are not synchronized, so a Lexer belongs to a single session (§5's
// single-goroutine-per-session model).
type Lexer struct {
	ir   *grammar.IR
	src  []byte
	memo map[memoKey][]Token
	// skipMemo caches the position reached after skipping ignorables from a
	// given (pos, mask), since step 1 of Lex is otherwise redone on every
	// call that starts at the same pre-skip position.
	skipMemo map[memoKey]int
}

// New constructs a Lexer over src for the grammar ir.
func New(ir *grammar.IR, src []byte) *Lexer {
	return &Lexer{
		ir:       ir,
		src:      src,
		memo:     map[memoKey][]Token{},
		skipMemo: map[memoKey]int{},
	}
}

// Lex realizes §4.3's lex(position, σ) operation. An empty, non-error
// result at position < len(src) signals a lexical error at that position;
// per §7, the engine does not report it eagerly -- the caller (the EPN
// driver) folds such a position into its farthest-failure
// apperr.SyntacticError only if no parse path gets past it.
func (l *Lexer) Lex(pos int, σ condition.Assignment) ([]Token, error) {
	skipped := l.skipIgnorables(pos, σ)
	key := memoKey{pos: skipped, mask: σ.Mask()}
	if toks, ok := l.memo[key]; ok {
		return toks, nil
	}

	toks, err := l.candidatesAt(skipped, σ)
	if err != nil {
		return nil, err
	}
	l.memo[key] = toks
	return toks, nil
}

// skipIgnorables implements §4.3 step 1: repeatedly run every admitted
// ignorable terminal's NFA at the current position, advancing past the
// longest ignorable match, until no ignorable advances further.
func (l *Lexer) skipIgnorables(pos int, σ condition.Assignment) int {
	key := memoKey{pos: pos, mask: σ.Mask()}
	if end, ok := l.skipMemo[key]; ok {
		return end
	}

	eval := condition.NewEvaluator()
	cur := pos
	for {
		best := -1
		for _, t := range l.ir.Terminals {
			if !t.Ignorable || t.Fragment {
				continue
			}
			if !eval.Evaluate(t.Guard, σ) {
				continue
			}
			matched, end := regex.Run(t.NFA, l.src, cur)
			if matched && end > cur && end > best {
				best = end
			}
		}
		if best < 0 {
			break
		}
		cur = best
	}
	l.skipMemo[key] = cur
	return cur
}

// candidatesAt realizes §4.3 steps 2-5 at an already-ignorable-skipped
// position.
func (l *Lexer) candidatesAt(pos int, σ condition.Assignment) ([]Token, error) {
	eval := condition.NewEvaluator()

	type candidate struct {
		id  grammar.TerminalID
		end int
	}
	var all []candidate
	maxEnd := -1
	for _, t := range l.ir.Terminals {
		if t.Ignorable || t.Fragment {
			continue
		}
		if !eval.Evaluate(t.Guard, σ) {
			continue
		}
		matched, end := regex.Run(t.NFA, l.src, pos)
		if !matched {
			continue
		}
		all = append(all, candidate{id: t.ID, end: end})
		if end > maxEnd {
			maxEnd = end
		}
	}

	// Step 3: longest-match filter.
	var longest []candidate
	for _, c := range all {
		if c.end == maxEnd {
			longest = append(longest, c)
		}
	}

	// Step 4: precedence prune -- drop any survivor that loses to another
	// survivor under the grammar's precedence closure.
	var survivors []Token
	for _, c := range longest {
		loses := false
		for _, other := range longest {
			if other.id == c.id {
				continue
			}
			if l.ir.Loses(c.id, other.id) {
				loses = true
				break
			}
		}
		if !loses {
			survivors = append(survivors, Token{Terminal: c.id, Start: pos, End: c.end})
		}
	}
	return survivors, nil
}

// ErrorAt builds the apperr.LexicalError for a position where no admitted
// terminal matched, translating a byte offset to a row/col via src.
func (l *Lexer) ErrorAt(pos int) *apperr.LexicalError {
	return &apperr.LexicalError{Pos: l.PositionOf(pos)}
}

// PositionOf translates a byte offset into src into a row/col position, for
// callers (the EPN driver, session error reporting) that need to attach a
// human-readable location to a farthest-error or cancellation report.
func (l *Lexer) PositionOf(offset int) apperr.Position {
	row, col := 1, 1
	for i := 0; i < offset && i < len(l.src); i++ {
		if l.src[i] == '\n' {
			row++
			col = 1
		} else {
			col++
		}
	}
	return apperr.Position{Offset: offset, Row: row, Col: col}
}
