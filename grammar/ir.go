// Package grammar builds and represents the Grammar IR (§3, §6): the
// immutable terminal table, non-terminal table, and condition universe that
// every session's lexer and EPN driver consult read-only. An IR is built
// once, from the meta-language AST (see package metalang), by Build, and may
// then back arbitrarily many concurrent sessions (§5).
package grammar

import (
	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/regex"
)

// TerminalID identifies a terminal symbol within one IR: its index in
// IR.Terminals, starting at 0, so the zero value is a valid terminal id.
type TerminalID int

// NonTerminalID identifies a non-terminal symbol within one IR.
type NonTerminalID int

// Terminal is the §3 terminal record: name, compiled NFA, static condition
// guard, ignorable flag, and the raw include/exclude name lists the
// precedence closure (§4.3/§4.8) is computed from.
type Terminal struct {
	ID         TerminalID
	Name       string
	Pattern    string
	NFA        *regex.NFA
	Guard      condition.Expr
	Ignorable  bool
	Includes   []string // +Name: this terminal specializes Name, wins on tie
	Excludes   []string // -Name: this terminal generalizes Name, loses on tie
	Fragment   bool     // fragments are never matched directly; for validation only
}

// Symbol is either a terminal-ref or a non-terminal-ref within an
// alternative's symbol sequence (§3 Non-terminal).
type SymbolKind int

const (
	SymbolTerminal SymbolKind = iota
	SymbolNonTerminal
)

type Symbol struct {
	Kind          SymbolKind
	Terminal      TerminalID
	NonTerminal   NonTerminalID
	Label         string // optional AST label, "" if the symbol keeps its default name
	Elide         bool   // purely-syntactic punctuation terminal; elided from the AST (§4.5)
}

// SubCondition is the §4.6 dialect guard attached to a fragment of a
// production: none, @lexical, or @syntactic.
type SubCondition int

const (
	SubConditionNone SubCondition = iota
	SubConditionLexical
	SubConditionSyntactic
)

// Separator distinguishes `/` (ordered choice) from `|` (ambiguous choice)
// alternative lists (§4.5).
type Separator int

const (
	SeparatorAmbiguous Separator = iota // `|`
	SeparatorOrdered                    // `/`
)

// Provenance records which surface construct produced a desugared
// alternative, so the AST builder knows how to fold/elide it (§4.8 step 6).
type Provenance int

const (
	ProvenancePlain Provenance = iota
	ProvenanceIterationSeed      // {X} / {/X}: the zero-or-more base case
	ProvenanceIterationStep      // {X} / {/X}: the recursive case
	ProvenanceOptionalPresent    // [X] / [/X]: the alternative with X
	ProvenanceOptionalAbsent     // [X] / [/X]: the alternative without X
)

// Alternative is one ordered sequence of symbols within a non-terminal's
// body, with its own guard and sub-condition gates (§3, §4.6).
type Alternative struct {
	Index        int
	Symbols      []Symbol
	Guard        condition.Expr
	SubCondition SubCondition
	LeftFold     bool // `/` variant of an iteration: fold left-associatively
	Provenance   Provenance
}

// NonTerminal is the §3 non-terminal record.
type NonTerminal struct {
	ID            NonTerminalID
	Name          string
	IsStart       bool
	Guard         condition.Expr
	Alternatives  []*Alternative
	Separator     Separator
}

// IR is the immutable grammar intermediate representation (§3, §6): built
// once by Build, shared read-only across sessions (§5). Nothing in IR is
// ever mutated after Build returns.
type IR struct {
	Terminals     []*Terminal
	NonTerminals  []*NonTerminal
	Conditions    *condition.Universe
	Start         NonTerminalID
	termByName    map[string]TerminalID
	nonTermByName map[string]NonTerminalID
	// excludesClosure[T] is the transitive closure of terminals T loses to
	// on a longest-match tie (§4.3 step 4), computed once at load time.
	excludesClosure map[TerminalID]map[TerminalID]bool
}

// TerminalByName resolves a terminal by name, for diagnostics and tests.
func (ir *IR) TerminalByName(name string) (*Terminal, bool) {
	id, ok := ir.termByName[name]
	if !ok {
		return nil, false
	}
	return ir.Terminals[id], true
}

// NonTerminalByName resolves a non-terminal by name.
func (ir *IR) NonTerminalByName(name string) (*NonTerminal, bool) {
	id, ok := ir.nonTermByName[name]
	if !ok {
		return nil, false
	}
	return ir.NonTerminals[id], true
}

// Loses reports whether terminal loser must be dropped in favor of winner
// when both survive the longest-match filter at the same end position
// (§4.3 step 4): loser loses iff winner is in loser's excludes closure.
func (ir *IR) Loses(loser, winner TerminalID) bool {
	return ir.excludesClosure[loser][winner]
}
