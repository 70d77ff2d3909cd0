package metalang

import (
	"fmt"
	"strings"

	"github.com/aethergen/aether/grammar"
)

// Parse turns Aether grammar source text into a Grammar AST (§4.7 step 2):
// a hand-written recursive descent parser, not the engine's own GLL driver
// -- the front end that reads grammars cannot depend on having already read
// one. Internally it may panic/recover for early exit within one production
// (mirroring the teacher's spec/grammar/parser/parser.go), but no panic
// ever escapes Parse.
func Parse(src []byte) (root *RootNode, retErr error) {
	p := &parser{src: src, lex: newLexer(src)}
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	p.tok = tok
	return p.parseRoot()
}

type parseError struct {
	pos Position
	msg string
}

func (e *parseError) Error() string {
	return fmt.Sprintf("metalang: %d:%d: %s", e.pos.Row, e.pos.Col, e.msg)
}

type parser struct {
	src []byte
	lex *lexer
	tok *token // current lookahead token
}

func (p *parser) fail(format string, args ...any) {
	panic(&parseError{pos: p.tok.pos, msg: fmt.Sprintf(format, args...)})
}

func (p *parser) advance() {
	tok, err := p.lex.next()
	if err != nil {
		panic(&parseError{pos: p.tok.pos, msg: err.Error()})
	}
	p.tok = tok
}

func (p *parser) at(k tokenKind) bool { return p.tok.kind == k }

func (p *parser) accept(k tokenKind) (*token, bool) {
	if p.tok.kind != k {
		return nil, false
	}
	tok := p.tok
	p.advance()
	return tok, true
}

func (p *parser) expect(k tokenKind) *token {
	tok, ok := p.accept(k)
	if !ok {
		p.fail("expected %s, found %s", k, p.tok.kind)
	}
	return tok
}

func (p *parser) parseRoot() (root *RootNode, retErr error) {
	root = &RootNode{}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*parseError)
			if !ok {
				panic(r)
			}
			retErr = pe
			root = nil
		}
	}()

	for !p.at(tokEOF) {
		if p.at(tokKwFragment) {
			root.Fragments = append(root.Fragments, p.parseFragment())
			continue
		}
		root.Productions = append(root.Productions, p.parseProduction())
	}
	return root, nil
}

func (p *parser) parseFragment() *FragmentNode {
	pos := p.tok.pos
	p.expect(tokKwFragment)
	name := p.expect(tokIdent).text
	p.expect(tokColon)
	patTok := p.expect(tokPattern)
	p.expect(tokSemicolon)
	return &FragmentNode{Name: name, Pattern: patTok.text, Pos: pos}
}

func (p *parser) parseProduction() *ProductionNode {
	pos := p.tok.pos
	name := p.expect(tokIdent).text

	prod := &ProductionNode{Name: name, Pos: pos}

	if _, ok := p.accept(tokLParen); ok {
		prod.Specifiers = p.parseSpecifiers()
		p.expect(tokRParen)
	}

	if _, ok := p.accept(tokSlash); ok {
		prod.Guard = p.parseGuardText()
	}

	if _, ok := p.accept(tokAt); ok {
		id := p.expect(tokIdent)
		switch id.text {
		case "lexical":
			prod.SubCondition = grammar.SubConditionLexical
		case "syntactic":
			prod.SubCondition = grammar.SubConditionSyntactic
		default:
			p.fail("unknown sub-condition tag %q, expected lexical or syntactic", id.text)
		}
	}

	p.expect(tokColon)

	first := p.parseAlternative()
	prod.Alternatives = []*AlternativeNode{first}
	for {
		if _, ok := p.accept(tokBar); ok {
			prod.Alternatives = append(prod.Alternatives, p.parseAlternative())
			continue
		}
		if _, ok := p.accept(tokSlash); ok {
			prod.separatorIsOrdered = true
			prod.Alternatives = append(prod.Alternatives, p.parseAlternative())
			continue
		}
		break
	}

	p.expect(tokSemicolon)
	return prod
}

func (p *parser) parseSpecifiers() []SpecifierNode {
	var specs []SpecifierNode
	for {
		pos := p.tok.pos
		switch {
		case p.at(tokIdent):
			name := p.expect(tokIdent).text
			switch name {
			case "start":
				specs = append(specs, SpecifierNode{Kind: SpecStart, Pos: pos})
			case "ignore":
				specs = append(specs, SpecifierNode{Kind: SpecIgnore, Pos: pos})
			default:
				p.fail("unknown specifier %q", name)
			}
		case p.at(tokPlus):
			p.advance()
			name := p.expect(tokIdent).text
			specs = append(specs, SpecifierNode{Kind: SpecInclude, Name: name, Pos: pos})
		case p.at(tokMinus):
			p.advance()
			name := p.expect(tokIdent).text
			specs = append(specs, SpecifierNode{Kind: SpecExclude, Name: name, Pos: pos})
		default:
			p.fail("expected a specifier, found %s", p.tok.kind)
		}
		if _, ok := p.accept(tokComma); !ok {
			break
		}
	}
	return specs
}

// parseGuardText consumes a condition expression's tokens (tracking paren
// depth so an embedded `(...)` group doesn't confuse the terminator search)
// and returns the raw source slice they span, which condition.ParseExpr
// re-lexes on its own terms -- the two parsers deliberately don't share a
// token stream, since the guard grammar is also a standalone public surface
// (§4.1 NEW) usable outside grammar files.
func (p *parser) parseGuardText() string {
	start := p.tok.pos.Offset
	depth := 0
	end := start
	for {
		switch {
		case p.at(tokLParen):
			depth++
		case p.at(tokRParen):
			if depth == 0 {
				return strings.TrimSpace(string(p.src[start:end]))
			}
			depth--
		case p.at(tokAt), p.at(tokColon):
			if depth == 0 {
				return strings.TrimSpace(string(p.src[start:end]))
			}
		case p.at(tokEOF):
			p.fail("unterminated condition guard")
		}
		end = p.tok.pos.Offset + len(tokenText(p.tok))
		p.advance()
	}
}

func tokenText(t *token) string {
	if t.text != "" {
		return t.text
	}
	return t.kind.String()
}

func (p *parser) parseAlternative() *AlternativeNode {
	pos := p.tok.pos
	alt := &AlternativeNode{Pos: pos}
	for {
		el := p.tryParseElement()
		if el == nil {
			break
		}
		alt.Elements = append(alt.Elements, el)
	}
	return alt
}

func (p *parser) tryParseElement() *ElementNode {
	pos := p.tok.pos
	var el *ElementNode
	switch {
	case p.at(tokIdent):
		el = &ElementNode{Kind: ElemPlain, ID: p.expect(tokIdent).text, Pos: pos}
	case p.at(tokPattern):
		el = &ElementNode{Kind: ElemPlain, Pattern: p.expect(tokPattern).text, Pos: pos}
	case p.at(tokStringLit):
		lit := p.expect(tokStringLit).text
		el = &ElementNode{Kind: ElemPlain, Pattern: escapeLiteral(lit), Pos: pos}
	case p.at(tokLBrace):
		p.advance()
		fold := false
		if _, ok := p.accept(tokSlash); ok {
			fold = true
		}
		inner := p.tryParseElement()
		if inner == nil {
			p.fail("expected an element inside {...}")
		}
		p.expect(tokRBrace)
		inner.Kind = ElemIteration
		if fold {
			inner.Kind = ElemIterationFold
		}
		el = inner
	case p.at(tokLBracket):
		p.advance()
		fold := false
		if _, ok := p.accept(tokSlash); ok {
			fold = true
		}
		inner := p.tryParseElement()
		if inner == nil {
			p.fail("expected an element inside [...]")
		}
		p.expect(tokRBracket)
		inner.Kind = ElemOptional
		if fold {
			inner.Kind = ElemOptionalFold
		}
		el = inner
	default:
		return nil
	}
	if _, ok := p.accept(tokDollar); ok {
		el.Label = p.expect(tokIdent).text
	}
	return el
}

// escapeLiteral turns a literally-matched string into an equivalent regex
// pattern by escaping every ERE metacharacter, mirroring the teacher's
// mlspec.EscapePattern used for the same purpose on string-literal RHS
// elements.
func escapeLiteral(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '\\', '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '|', '^', '$', '/', '#':
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
	return sb.String()
}
