package grammar

import (
	"fmt"

	"github.com/aethergen/aether/condition"
	"github.com/aethergen/aether/regex"
)

// TerminalSpec and NonTerminalSpec are the builder-facing input shape: the
// meta-language front end (package metalang) walks its parsed Grammar AST
// and produces a Spec, which Build then turns into an immutable IR. This
// split keeps the grammar package ignorant of meta-language surface syntax
// (§4.8 step 1 is metalang's job; steps 2-6 are this package's).
type TerminalSpec struct {
	Name      string
	Pattern   string
	Guard     string // raw condition expression text, "" means True
	Ignorable bool
	Fragment  bool
	Includes  []string
	Excludes  []string
}

type SymbolSpec struct {
	Kind        SymbolKind
	Name        string // resolved against terminals first, then non-terminals
	Label       string
	Elide       bool
}

type AlternativeSpec struct {
	Symbols      []SymbolSpec
	Guard        string
	SubCondition SubCondition
	LeftFold     bool
	Provenance   Provenance
}

type NonTerminalSpec struct {
	Name         string
	IsStart      bool
	Guard        string
	Separator    Separator
	Alternatives []AlternativeSpec
}

// Spec is the fully-parsed, not-yet-resolved grammar: everything metalang
// extracted from the surface syntax, in declaration order.
type Spec struct {
	Terminals    []TerminalSpec
	NonTerminals []NonTerminalSpec
}

// Build realizes the §4.8 Grammar IR builder pipeline:
//  1. (done by metalang) parse surface syntax into a Spec
//  2. intern every condition name into one Universe and parse guard exprs
//  3. intern terminal and non-terminal names into dense IDs
//  4. compute the precedence closure over +Name/-Name and reject cycles
//  5. compile every terminal's pattern to an NFA
//  6. resolve every alternative's symbol references
func Build(spec *Spec) (*IR, *SlotTable, error) {
	uni := condition.NewUniverse()

	ir := &IR{
		Conditions:    uni,
		termByName:    map[string]TerminalID{},
		nonTermByName: map[string]NonTerminalID{},
	}

	for i, ts := range spec.Terminals {
		if _, dup := ir.termByName[ts.Name]; dup {
			return nil, nil, fmt.Errorf("duplicate terminal %q", ts.Name)
		}
		ir.termByName[ts.Name] = TerminalID(i)
	}
	for i, ns := range spec.NonTerminals {
		if _, dup := ir.nonTermByName[ns.Name]; dup {
			return nil, nil, fmt.Errorf("duplicate non-terminal %q", ns.Name)
		}
		ir.nonTermByName[ns.Name] = NonTerminalID(i)
	}

	var startCount int
	for i, ts := range spec.Terminals {
		guard, err := parseGuard(ts.Guard, uni)
		if err != nil {
			return nil, nil, fmt.Errorf("terminal %q: %w", ts.Name, err)
		}
		nfa, err := regex.CompilePattern(ts.Pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("terminal %q: %w", ts.Name, err)
		}
		ir.Terminals = append(ir.Terminals, &Terminal{
			ID:        TerminalID(i),
			Name:      ts.Name,
			Pattern:   ts.Pattern,
			NFA:       nfa,
			Guard:     guard,
			Ignorable: ts.Ignorable,
			Fragment:  ts.Fragment,
			Includes:  ts.Includes,
			Excludes:  ts.Excludes,
		})
	}

	closure, err := closePrecedence(ir.Terminals, ir.termByName)
	if err != nil {
		return nil, nil, err
	}
	ir.excludesClosure = closure

	for i, ns := range spec.NonTerminals {
		guard, err := parseGuard(ns.Guard, uni)
		if err != nil {
			return nil, nil, fmt.Errorf("non-terminal %q: %w", ns.Name, err)
		}
		if ns.IsStart {
			startCount++
			ir.Start = NonTerminalID(i)
		}
		nt := &NonTerminal{
			ID:        NonTerminalID(i),
			Name:      ns.Name,
			IsStart:   ns.IsStart,
			Guard:     guard,
			Separator: ns.Separator,
		}
		for altIdx, as := range ns.Alternatives {
			altGuard, err := parseGuard(as.Guard, uni)
			if err != nil {
				return nil, nil, fmt.Errorf("non-terminal %q alt %d: %w", ns.Name, altIdx, err)
			}
			alt := &Alternative{
				Index:        altIdx,
				Guard:        altGuard,
				SubCondition: as.SubCondition,
				LeftFold:     as.LeftFold,
				Provenance:   as.Provenance,
			}
			for _, ss := range as.Symbols {
				sym, err := resolveSymbol(ir, ss)
				if err != nil {
					return nil, nil, fmt.Errorf("non-terminal %q alt %d: %w", ns.Name, altIdx, err)
				}
				alt.Symbols = append(alt.Symbols, sym)
			}
			nt.Alternatives = append(nt.Alternatives, alt)
		}
		ir.NonTerminals = append(ir.NonTerminals, nt)
	}

	// A terminal-only Spec (no non-terminals at all) has no notion of a
	// start symbol -- package lexer's own tests build IRs this way to
	// exercise lexing in isolation -- so the one-start-symbol rule only
	// applies once a grammar actually declares non-terminals.
	if len(spec.NonTerminals) > 0 && startCount != 1 {
		return nil, nil, fmt.Errorf("grammar must have exactly one start non-terminal, found %d", startCount)
	}

	slots := newSlotTable(ir)
	return ir, slots, nil
}

func parseGuard(raw string, uni *condition.Universe) (condition.Expr, error) {
	if raw == "" {
		return condition.True, nil
	}
	return condition.ParseExpr(raw, uni)
}

// resolveSymbol looks a reference up by name, trying the terminal table
// first and falling back to non-terminals: the meta-language front end
// does not know which table a bare identifier belongs to until both tables
// exist, so SymbolSpec.Kind is advisory only and this is the single place
// that actually decides it.
func resolveSymbol(ir *IR, ss SymbolSpec) (Symbol, error) {
	if id, ok := ir.termByName[ss.Name]; ok {
		return Symbol{Kind: SymbolTerminal, Terminal: id, Label: ss.Label, Elide: ss.Elide}, nil
	}
	if id, ok := ir.nonTermByName[ss.Name]; ok {
		return Symbol{Kind: SymbolNonTerminal, NonTerminal: id, Label: ss.Label, Elide: ss.Elide}, nil
	}
	return Symbol{}, fmt.Errorf("undefined symbol %q", ss.Name)
}
