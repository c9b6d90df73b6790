package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParseError reports a syntax fault in an expression string. Pos is a
// byte offset into the normalized input.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// Parse converts expression text into an AST.
//
// Grammar (loosest to tightest): addition and subtraction, then
// multiplication and division, then unary minus, then exponentiation
// (right-associative, written ^ or **), then literals, x, the constants
// pi and e, parenthesized groups, and unary function calls.
//
// Input is NFC-normalized first so visually identical identifiers compare
// equal regardless of how the terminal encoded them.
func Parse(input string) (Expr, error) {
	src := norm.NFC.String(input)

	p := &parser{src: src}
	p.next()
	if p.tok.kind == tokEOF && p.err == nil {
		return nil, &ParseError{Pos: p.tok.pos, Msg: "empty expression"}
	}

	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, &ParseError{Pos: p.tok.pos, Msg: fmt.Sprintf("unexpected %q", p.tok.text)}
	}
	return e, nil
}

// MustParse is a test and example helper; it panics on invalid input.
func MustParse(input string) Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret // ^ or **
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
	val  float64 // for tokNumber
}

type parser struct {
	src string
	off int
	tok token
	err *ParseError
}

// next scans the following token into p.tok. Scan errors latch into
// p.err and surface as tokEOF so the parser unwinds cleanly.
func (p *parser) next() {
	if p.err != nil {
		p.tok = token{kind: tokEOF, pos: p.off}
		return
	}

	for p.off < len(p.src) && isSpace(p.src[p.off]) {
		p.off++
	}
	start := p.off
	if p.off >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.src[p.off]
	switch {
	case c >= '0' && c <= '9', c == '.':
		p.scanNumber(start)
	case isIdentStart(rune(c)):
		end := p.off
		for end < len(p.src) && isIdentPart(rune(p.src[end])) {
			end++
		}
		p.tok = token{kind: tokIdent, text: p.src[start:end], pos: start}
		p.off = end
	case c == '+':
		p.opTok(tokPlus, "+")
	case c == '-':
		p.opTok(tokMinus, "-")
	case c == '*':
		if p.off+1 < len(p.src) && p.src[p.off+1] == '*' {
			p.tok = token{kind: tokCaret, text: "**", pos: start}
			p.off += 2
			return
		}
		p.opTok(tokStar, "*")
	case c == '/':
		p.opTok(tokSlash, "/")
	case c == '^':
		p.opTok(tokCaret, "^")
	case c == '(':
		p.opTok(tokLParen, "(")
	case c == ')':
		p.opTok(tokRParen, ")")
	default:
		p.fail(start, fmt.Sprintf("invalid character %q", rune(c)))
	}
}

func (p *parser) opTok(kind tokenKind, text string) {
	p.tok = token{kind: kind, text: text, pos: p.off}
	p.off++
}

func (p *parser) scanNumber(start int) {
	end := p.off
	seenDot := false
	for end < len(p.src) {
		c := p.src[end]
		if c >= '0' && c <= '9' {
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		if (c == 'e' || c == 'E') && end+1 < len(p.src) {
			rest := p.src[end+1:]
			if len(rest) > 0 && (rest[0] == '+' || rest[0] == '-') {
				rest = rest[1:]
			}
			if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
				end++ // e
				if p.src[end] == '+' || p.src[end] == '-' {
					end++
				}
				for end < len(p.src) && p.src[end] >= '0' && p.src[end] <= '9' {
					end++
				}
			}
		}
		break
	}

	text := p.src[start:end]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.fail(start, fmt.Sprintf("malformed number %q", text))
		return
	}
	p.tok = token{kind: tokNumber, text: text, pos: start, val: v}
	p.off = end
}

func (p *parser) fail(pos int, msg string) {
	if p.err == nil {
		p.err = &ParseError{Pos: pos, Msg: msg}
	}
	p.tok = token{kind: tokEOF, pos: pos}
}

// parseSum handles + and - (left-associative).
func (p *parser) parseSum() (Expr, error) {
	e, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tokPlus:
			p.next()
			r, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			e = NewAdd(e, r)
		case tokMinus:
			p.next()
			r, err := p.parseProduct()
			if err != nil {
				return nil, err
			}
			e = NewSub(e, r)
		default:
			return e, p.scanErr()
		}
	}
}

// parseProduct handles * and / (left-associative).
func (p *parser) parseProduct() (Expr, error) {
	e, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.kind {
		case tokStar:
			p.next()
			r, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			e = NewMul(e, r)
		case tokSlash:
			p.next()
			r, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			e = NewDiv(e, r)
		default:
			return e, p.scanErr()
		}
	}
}

// parseUnary handles prefix minus and plus.
func (p *parser) parseUnary() (Expr, error) {
	switch p.tok.kind {
	case tokMinus:
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewNeg(e), nil
	case tokPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower handles ^ (right-associative; -x^2 parses as -(x^2), but an
// exponent may itself carry a unary minus: x^-2).
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokCaret {
		return base, p.scanErr()
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return NewPow(base, exp), nil
}

func (p *parser) parseAtom() (Expr, error) {
	if err := p.scanErr(); err != nil {
		return nil, err
	}

	switch p.tok.kind {
	case tokNumber:
		v := p.tok.val
		p.next()
		return Num{Val: v}, nil

	case tokLParen:
		p.next()
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, &ParseError{Pos: p.tok.pos, Msg: "missing closing parenthesis"}
		}
		p.next()
		return e, nil

	case tokIdent:
		name := p.tok.text
		pos := p.tok.pos
		p.next()

		if p.tok.kind == tokLParen {
			if _, ok := functions[name]; !ok {
				return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unknown function %q", name)}
			}
			p.next()
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tokRParen {
				return nil, &ParseError{Pos: p.tok.pos, Msg: "missing closing parenthesis"}
			}
			p.next()
			return NewCall(name, arg), nil
		}

		switch strings.ToLower(name) {
		case "x":
			return Var{}, nil
		case "pi":
			return Num{Val: piVal}, nil
		case "e":
			return Num{Val: eVal}, nil
		}
		return nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unknown identifier %q", name)}

	case tokEOF:
		if err := p.scanErr(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Pos: p.tok.pos, Msg: "unexpected end of expression"}

	default:
		return nil, &ParseError{Pos: p.tok.pos, Msg: fmt.Sprintf("unexpected %q", p.tok.text)}
	}
}

func (p *parser) scanErr() error {
	if p.err != nil {
		return p.err
	}
	return nil
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
