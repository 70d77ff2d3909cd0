package metalang

import (
	"fmt"
	"strings"

	"github.com/aethergen/aether/grammar"
)

// Lower realizes §4.8 steps 2 and 6 (step 1's condition-name collection,
// step 3's reference resolution and step 4's precedence closure happen
// inside grammar.Build, which Lower feeds): it partitions productions into
// terminals/non-terminals, expands fragment references, and desugars
// iteration/optional sugar into left-recursive iteration helpers and
// present/absent optional helpers.
func Lower(root *RootNode) (*grammar.Spec, error) {
	fragments := map[string]string{}
	for _, f := range root.Fragments {
		if _, dup := fragments[f.Name]; dup {
			return nil, fmt.Errorf("metalang: %d:%d: duplicate fragment %q", f.Pos.Row, f.Pos.Col, f.Name)
		}
		fragments[f.Name] = f.Pattern
	}
	expanded, err := expandFragments(fragments)
	if err != nil {
		return nil, err
	}

	spec := &grammar.Spec{}
	gen := &helperNamer{}
	for _, p := range root.Productions {
		if p.isLexical() {
			term, err := lowerTerminal(p, expanded)
			if err != nil {
				return nil, err
			}
			spec.Terminals = append(spec.Terminals, term)
			continue
		}
		nt, helpers, err := lowerNonTerminal(p, gen)
		if err != nil {
			return nil, err
		}
		spec.NonTerminals = append(spec.NonTerminals, nt)
		spec.NonTerminals = append(spec.NonTerminals, helpers...)
	}
	return spec, nil
}

// helperNamer mints fresh, collision-free non-terminal names for synthesized
// iteration/optional helpers. "#" can never appear in a user-written
// identifier (it starts a comment in the meta-language lexer), so any name
// built around it is guaranteed not to collide with a declared production.
type helperNamer struct {
	n int
}

func (g *helperNamer) next(ntName, kind string) string {
	g.n++
	return fmt.Sprintf("%s#%s%d", ntName, kind, g.n)
}

// expandFragments resolves `\p{Name}` references within fragment patterns
// themselves (fragments may build on other fragments) to a fixed point,
// erroring on a cyclic definition instead of looping forever.
func expandFragments(fragments map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fragments))
	var resolve func(name string, seen map[string]bool) (string, error)
	resolve = func(name string, seen map[string]bool) (string, error) {
		if v, ok := out[name]; ok {
			return v, nil
		}
		pattern, ok := fragments[name]
		if !ok {
			return "", fmt.Errorf("metalang: undefined fragment %q", name)
		}
		if seen[name] {
			return "", fmt.Errorf("metalang: fragment %q is defined cyclically", name)
		}
		seen[name] = true
		v, err := substituteFragments(pattern, func(ref string) (string, error) {
			return resolve(ref, seen)
		})
		if err != nil {
			return "", err
		}
		out[name] = v
		return v, nil
	}
	for name := range fragments {
		if _, err := resolve(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// substituteFragments replaces every `\p{Name}` occurrence in pattern with
// `(` + resolve(Name) + `)`, the parenthesization keeping the expansion's
// internal alternation/concatenation from leaking into the surrounding
// pattern's precedence.
func substituteFragments(pattern string, resolve func(string) (string, error)) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(pattern) {
		if strings.HasPrefix(pattern[i:], `\p{`) {
			end := strings.IndexByte(pattern[i+3:], '}')
			if end < 0 {
				return "", fmt.Errorf("metalang: unterminated fragment reference in pattern %q", pattern)
			}
			name := pattern[i+3 : i+3+end]
			resolved, err := resolve(name)
			if err != nil {
				return "", err
			}
			sb.WriteByte('(')
			sb.WriteString(resolved)
			sb.WriteByte(')')
			i += 3 + end + 1
			continue
		}
		sb.WriteByte(pattern[i])
		i++
	}
	return sb.String(), nil
}

func lowerTerminal(p *ProductionNode, fragments map[string]string) (grammar.TerminalSpec, error) {
	elem := p.Alternatives[0].Elements[0]
	pattern, err := substituteFragments(elem.Pattern, func(name string) (string, error) {
		v, ok := fragments[name]
		if !ok {
			return "", fmt.Errorf("metalang: undefined fragment %q", name)
		}
		return v, nil
	})
	if err != nil {
		return grammar.TerminalSpec{}, err
	}

	ts := grammar.TerminalSpec{Name: p.Name, Pattern: pattern, Guard: p.Guard}
	// A @lexical/@syntactic tag gates the terminal on the condition of that
	// name, ANDed onto any explicit guard.
	tag := map[grammar.SubCondition]string{grammar.SubConditionLexical: "lexical", grammar.SubConditionSyntactic: "syntactic"}[p.SubCondition]
	if tag != "" && ts.Guard == "" {
		ts.Guard = tag
	} else if tag != "" {
		ts.Guard = "(" + ts.Guard + ") && " + tag
	}
	for _, s := range p.Specifiers {
		switch s.Kind {
		case SpecIgnore:
			ts.Ignorable = true
		case SpecInclude:
			ts.Includes = append(ts.Includes, s.Name)
		case SpecExclude:
			ts.Excludes = append(ts.Excludes, s.Name)
		case SpecStart:
			return grammar.TerminalSpec{}, fmt.Errorf("metalang: terminal %q cannot be the start symbol", p.Name)
		}
	}
	return ts, nil
}

func lowerNonTerminal(p *ProductionNode, gen *helperNamer) (grammar.NonTerminalSpec, []grammar.NonTerminalSpec, error) {
	ns := grammar.NonTerminalSpec{Name: p.Name, Guard: p.Guard}
	for _, s := range p.Specifiers {
		switch s.Kind {
		case SpecStart:
			ns.IsStart = true
		case SpecIgnore, SpecInclude, SpecExclude:
			return grammar.NonTerminalSpec{}, nil, fmt.Errorf(
				"metalang: non-terminal %q cannot carry a precedence/ignore specifier", p.Name)
		}
	}

	var desugared []grammar.AlternativeSpec
	var helpers []grammar.NonTerminalSpec
	for altIdx, alt := range p.Alternatives {
		as, altHelpers, err := lowerAlternative(p.Name, altIdx, alt, p.SubCondition, gen)
		if err != nil {
			return grammar.NonTerminalSpec{}, nil, err
		}
		desugared = append(desugared, as)
		helpers = append(helpers, altHelpers...)
	}
	ns.Alternatives = desugared

	if len(p.Alternatives) > 0 {
		// Separator is a property of the production's whole alternative
		// list, not one element; the parser records Ordered if any `/`
		// joined two alternatives (Ambiguous otherwise, including for a
		// single-alternative body).
		ns.Separator = alternativeSeparatorOf(p)
	}
	return ns, helpers, nil
}

// lowerAlternative desugars every iteration/optional element of alt in
// place. Each such element is replaced, at its original position in the
// symbol sequence, by a reference to a freshly-synthesized helper
// non-terminal carrying the actual seed/step or present/absent pair. Unlike
// folding the desugared pair into the enclosing production directly, this
// keeps working when the sugar element sits alongside other elements:
// neither a leading prefix nor a trailing suffix is lost, and a prefix
// symbol is never duplicated into the repeated step.
func lowerAlternative(ntName string, altIdx int, alt *AlternativeNode, sub grammar.SubCondition, gen *helperNamer) (
	grammar.AlternativeSpec, []grammar.NonTerminalSpec, error,
) {
	base := grammar.AlternativeSpec{SubCondition: sub, Provenance: grammar.ProvenancePlain}
	var helpers []grammar.NonTerminalSpec

	for _, el := range alt.Elements {
		switch el.Kind {
		case ElemPlain:
			base.Symbols = append(base.Symbols, SymbolSpecOf(el))
		case ElemOptional, ElemOptionalFold:
			name := gen.next(ntName, "opt")
			helpers = append(helpers, optionalHelper(name, el, sub))
			base.Symbols = append(base.Symbols, grammar.SymbolSpec{Name: name, Label: el.Label})
		case ElemIteration, ElemIterationFold:
			name := gen.next(ntName, "iter")
			helpers = append(helpers, iterationHelper(name, el, sub))
			base.Symbols = append(base.Symbols, grammar.SymbolSpec{Name: name, Label: el.Label})
		}
	}
	return base, helpers, nil
}

// optionalHelper builds the fresh non-terminal a [X]/[/X] element desugars
// to: one alternative with X (present), one without (absent).
func optionalHelper(name string, el *ElementNode, sub grammar.SubCondition) grammar.NonTerminalSpec {
	present := grammar.AlternativeSpec{
		Symbols:      []grammar.SymbolSpec{SymbolSpecOf(el)},
		SubCondition: sub,
		Provenance:   grammar.ProvenanceOptionalPresent,
	}
	absent := grammar.AlternativeSpec{SubCondition: sub, Provenance: grammar.ProvenanceOptionalAbsent}
	return grammar.NonTerminalSpec{Name: name, Alternatives: []grammar.AlternativeSpec{present, absent}}
}

// iterationHelper builds the fresh left-recursive non-terminal a {X}/{/X}
// element desugars to: `name: | name X ;`, zero-or-more X. The step recurses
// on its left; no right-recursive form is generated. The step
// alternative's LeftFold flag carries the `/` greedy-fold variant through to
// the forest builder's split selection.
func iterationHelper(name string, el *ElementNode, sub grammar.SubCondition) grammar.NonTerminalSpec {
	seed := grammar.AlternativeSpec{SubCondition: sub, Provenance: grammar.ProvenanceIterationSeed}
	step := grammar.AlternativeSpec{
		Symbols:      []grammar.SymbolSpec{{Kind: grammar.SymbolNonTerminal, Name: name}, SymbolSpecOf(el)},
		SubCondition: sub,
		Provenance:   grammar.ProvenanceIterationStep,
		LeftFold:     el.Kind == ElemIterationFold,
	}
	return grammar.NonTerminalSpec{Name: name, Alternatives: []grammar.AlternativeSpec{seed, step}}
}

// SymbolSpecOf converts one element to a SymbolSpec. Kind is left at its
// zero value: grammar.Build's resolveSymbol looks the name up against both
// the terminal and non-terminal tables, since the meta-language front end
// cannot know which table a bare identifier belongs to until both exist.
// An inline pattern/string literal element is not supported here by
// design: Aether requires every terminal to be named by a lexical
// production, matching the teacher's own RHS element model where inline
// patterns are only legal inside a lexical (single-pattern) production's
// own body.
func SymbolSpecOf(el *ElementNode) grammar.SymbolSpec {
	elide := strings.HasPrefix(el.ID, "_")
	return grammar.SymbolSpec{
		Name:  el.ID,
		Label: el.Label,
		Elide: elide,
	}
}

func alternativeSeparatorOf(p *ProductionNode) grammar.Separator {
	if p.separatorIsOrdered {
		return grammar.SeparatorOrdered
	}
	return grammar.SeparatorAmbiguous
}
