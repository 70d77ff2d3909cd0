// Package session implements the §4.9/§5 Session API: the single entry
// point that wires a shared, immutable grammar.IR together with one
// source buffer and one condition assignment into a lexer, an EPN driver
// and their BSR output, then on request disambiguates into a CST/AST.
//
// A Session is not re-entrant -- one goroutine drives it at a time -- but
// many Sessions may run concurrently against the same *grammar.IR, since
// the IR is read-only and each Session owns its own lexer memo and P/Y/U
// tables (§5 "parallelism across sessions is permitted because they share
// only read-only state").
package session

import (
	"context"

	"github.com/aethergen/aether/apperr"
	"github.com/aethergen/aether/bsr"
	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/epn"
	"github.com/aethergen/aether/forest"
	"github.com/aethergen/aether/grammar"
	"github.com/aethergen/aether/lexer"
	"github.com/google/uuid"
)

// Session is one parse's worth of mutable state, anchored to an immutable
// grammar.IR. Open constructs one; Close makes it unusable. id gives each
// session an identity a caller can correlate across diagnostics when
// several Sessions run concurrently against the same IR (§5).
type Session struct {
	id     uuid.UUID
	ir     *grammar.IR
	slots  *grammar.SlotTable
	src    []byte
	σ      condition.Assignment
	lexer  *lexer.Lexer
	driver *epn.Driver
	closed bool
}

// Open constructs a Session over grammar ir, its slot table slots, source
// src, and condition assignment σ (§4.9).
// ir is expected to have come from a successful grammar.Build; it is never
// mutated by a Session.
func Open(ir *grammar.IR, slots *grammar.SlotTable, src []byte, σ condition.Assignment) (*Session, error) {
	lx := lexer.New(ir, src)
	return &Session{
		id:     uuid.New(),
		ir:     ir,
		slots:  slots,
		src:    src,
		σ:      σ,
		lexer:  lx,
		driver: epn.New(ir, slots, lx, σ),
	}, nil
}

// Result bundles the disambiguated trees a successful Parse produces. The
// raw BSR set remains available via Session.BSR() regardless of outcome.
type Result struct {
	CST *forest.Node
	AST *forest.Node
}

// Parse runs the EPN driver to completion or cancellation, the single
// cooperative cancellation point (§5: checked once per work-list pop), then
// disambiguates the resulting BSR set into a CST and AST. It returns a nil
// Result alongside a *apperr.SyntacticError if no root spans the whole
// input, or a *apperr.Cancelled if ctx was done first; the session's BSR
// set is populated either way and remains readable via BSR().
func (s *Session) Parse(ctx context.Context) (*Result, error) {
	if s.closed {
		return nil, &apperr.Internal{Detail: "session: Parse called after Close"}
	}
	if err := s.driver.Run(ctx, len(s.src)); err != nil {
		return nil, err
	}

	b := forest.NewBuilder(s.ir, s.slots, s.BSR(), s.src)
	cst, err := b.CST()
	if err != nil {
		return nil, &apperr.Internal{Detail: err.Error()}
	}
	ast, err := b.AST()
	if err != nil {
		return nil, &apperr.Internal{Detail: err.Error()}
	}
	return &Result{CST: cst, AST: ast}, nil
}

// BSR exposes the raw BSR set accumulated so far, regardless of whether
// Parse succeeded, failed, or was cancelled (§4.9).
func (s *Session) BSR() *bsr.Set {
	return s.driver.BSR()
}

// ID returns the session's correlation identity, for a caller that logs
// several concurrent Sessions against the same grammar.IR and needs to tell
// their diagnostics apart.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Close releases the session's tables. Per §4.9 this is a no-op beyond
// making the session unusable -- there is no external resource (file
// handle, connection) to release, since a Session owns only in-process
// memory that the garbage collector reclaims once dropped.
func (s *Session) Close() error {
	s.closed = true
	return nil
}
