package metalang

import "github.com/aethergen/aether/grammar"

// RootNode is the top of the Grammar AST (§3 NEW): every production and
// fragment declared in one Aether grammar source file, in declaration
// order. It is immutable once parsed and consumed exactly once by Lower.
type RootNode struct {
	Productions []*ProductionNode
	Fragments   []*FragmentNode
}

// ProductionNode mirrors the surface syntax closely: a name, its
// parenthesized specifiers, an optional condition guard, an optional
// @lexical/@syntactic sub-condition, and its alternatives.
type ProductionNode struct {
	Name         string
	Specifiers   []SpecifierNode
	Guard        string // raw condition expression text, "" if absent
	SubCondition grammar.SubCondition
	Alternatives []*AlternativeNode
	// separatorIsOrdered records which operator (`/` or `|`) joined the
	// production's alternatives: true for `/` (ordered choice), false for
	// `|` (ambiguous). A single-alternative body defaults to false, which
	// is inert since there is nothing to disambiguate between.
	separatorIsOrdered bool
	Pos                Position
}

// isLexical mirrors the teacher's ProductionNode.isLexical(): a production
// with exactly one alternative holding exactly one pattern element is a
// terminal definition rather than a non-terminal.
func (n *ProductionNode) isLexical() bool {
	return len(n.Alternatives) == 1 &&
		len(n.Alternatives[0].Elements) == 1 &&
		n.Alternatives[0].Elements[0].Pattern != ""
}

// SpecifierKind enumerates the parenthesized production specifiers:
// `start`, `ignore`, `+Name`, `-Name`.
type SpecifierKind int

const (
	SpecStart SpecifierKind = iota
	SpecIgnore
	SpecInclude
	SpecExclude
)

type SpecifierNode struct {
	Kind SpecifierKind
	Name string // terminal name for Include/Exclude, "" otherwise
	Pos  Position
}

// AlternativeNode is one `|`- or `/`-separated body sequence.
type AlternativeNode struct {
	Elements []*ElementNode
	Pos      Position
}

// ElementKind enumerates the quantifier sugar applied to one alternative
// element: a plain reference, `{X}`/`{/X}` iteration, `[X]`/`[/X]`
// optionality.
type ElementKind int

const (
	ElemPlain ElementKind = iota
	ElemIteration
	ElemIterationFold
	ElemOptional
	ElemOptionalFold
)

// ElementNode is either a named reference (to a terminal or non-terminal)
// or an inline pattern literal, optionally labelled and optionally wrapped
// in iteration/optional sugar.
type ElementNode struct {
	Kind    ElementKind
	ID      string // set when the element references a symbol by name
	Pattern string // set when the element is an inline pattern/string literal
	Label   string // "" if unlabelled
	Pos     Position
}

// FragmentNode is a named pattern fragment usable only inside other
// patterns, referenced there as `\p{Name}` and substituted in at the
// metalang lowering stage; it never appears directly in the grammar IR's
// terminal table.
type FragmentNode struct {
	Name    string
	Pattern string
	Pos     Position
}
