package metalang

import (
	"fmt"
	"strings"
)

// lexer is a small hand-rolled scanner over Aether grammar source text: the
// meta-language's own tokens are simple enough for direct character-class
// dispatch, the same shortcut the teacher takes in its own grammar-DSL
// lexer (spec/lexer.go) rather than routing its own bootstrap syntax through
// the engine it is about to build.
type lexer struct {
	src  []byte
	pos  int
	row  int
	col  int
	buf  *token
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, row: 1, col: 1}
}

func (l *lexer) here() Position {
	return Position{Row: l.row, Col: l.col, Offset: l.pos}
}

func (l *lexer) peekByte() (byte, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	return l.src[l.pos], true
}

func (l *lexer) advance() (byte, bool) {
	b, ok := l.peekByte()
	if !ok {
		return 0, false
	}
	l.pos++
	if b == '\n' {
		l.row++
		l.col = 1
	} else {
		l.col++
	}
	return b, true
}

func (l *lexer) next() (*token, error) {
	if l.buf != nil {
		t := l.buf
		l.buf = nil
		return t, nil
	}
	return l.scan()
}

func (l *lexer) scan() (*token, error) {
	for {
		b, ok := l.peekByte()
		if !ok {
			return &token{kind: tokEOF, pos: l.here()}, nil
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			l.advance()
			continue
		case b == '#':
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
			continue
		}
		break
	}

	pos := l.here()
	b, _ := l.peekByte()

	switch {
	case isIdentStart(b):
		return l.scanIdent(pos)
	case b == '"':
		return l.scanDelimited(pos, '"', tokPattern)
	case b == '\'':
		return l.scanDelimited(pos, '\'', tokStringLit)
	}

	single := map[byte]tokenKind{
		':': tokColon, ';': tokSemicolon, '|': tokBar, ',': tokComma,
		'(': tokLParen, ')': tokRParen, '[': tokLBracket, ']': tokRBracket,
		'{': tokLBrace, '}': tokRBrace, '+': tokPlus, '-': tokMinus,
		'@': tokAt, '$': tokDollar,
	}

	switch b {
	case '/':
		l.advance()
		return &token{kind: tokSlash, text: "/", pos: pos}, nil
	case '!':
		l.advance()
		return &token{kind: tokBang, text: "!", pos: pos}, nil
	case '&':
		l.advance()
		if nb, ok := l.peekByte(); ok && nb == '&' {
			l.advance()
			return &token{kind: tokAndAnd, text: "&&", pos: pos}, nil
		}
		return nil, fmt.Errorf("metalang: %d:%d: unexpected character '&'", pos.Row, pos.Col)
	}
	if nb, ok := l.peekByte(); ok && nb == '|' {
		l.advance()
		if next, ok := l.peekByte(); ok && next == '|' {
			l.advance()
			return &token{kind: tokOrOr, text: "||", pos: pos}, nil
		}
		return &token{kind: tokBar, text: "|", pos: pos}, nil
	}
	if kind, ok := single[b]; ok {
		l.advance()
		return &token{kind: kind, text: string(b), pos: pos}, nil
	}

	l.advance()
	return &token{kind: tokInvalid, text: string(b), pos: pos}, nil
}

func (l *lexer) scanIdent(pos Position) (*token, error) {
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentByte(b) {
			break
		}
		sb.WriteByte(b)
		l.advance()
	}
	text := sb.String()
	if text == "fragment" {
		return &token{kind: tokKwFragment, text: text, pos: pos}, nil
	}
	return &token{kind: tokIdent, text: text, pos: pos}, nil
}

// scanDelimited scans a quoted literal, handling backslash escapes of the
// delimiter and backslash itself, leaving any other escape sequence
// untouched so that pattern literals can use the regex package's own
// escape grammar (e.g. `\n`, `\uXXXX`) verbatim.
func (l *lexer) scanDelimited(pos Position, delim byte, kind tokenKind) (*token, error) {
	l.advance() // opening delimiter
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok {
			return nil, fmt.Errorf("metalang: %d:%d: unterminated literal", pos.Row, pos.Col)
		}
		if b == '\\' {
			l.advance()
			nb, ok := l.peekByte()
			if !ok {
				return nil, fmt.Errorf("metalang: %d:%d: unterminated escape sequence", pos.Row, pos.Col)
			}
			if nb == delim || nb == '\\' {
				sb.WriteByte(nb)
				l.advance()
				continue
			}
			sb.WriteByte('\\')
			sb.WriteByte(nb)
			l.advance()
			continue
		}
		if b == delim {
			l.advance()
			break
		}
		if b == '\n' {
			return nil, fmt.Errorf("metalang: %d:%d: literal cannot span lines", pos.Row, pos.Col)
		}
		sb.WriteByte(b)
		l.advance()
	}
	return &token{kind: kind, text: sb.String(), pos: pos}, nil
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
