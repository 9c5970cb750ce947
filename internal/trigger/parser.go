package trigger

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/juju/errors"
)

// Condition grammar. Only whitelisted signal names, numeric/string/bool
// literals, comparisons, and/or/not and parentheses are accepted,
// anything else is a parse error:
//
//	expr   = or
//	or     = and { "or" and }
//	and    = unary { "and" unary }
//	unary  = "not" unary | cmp
//	cmp    = operand [ ("<"|"<="|">"|">="|"=="|"!=") operand ]
//	operand = "(" expr ")" | number | string | "true" | "false" | signal

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp     // < <= > >= == !=
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	src string
	pos int
}

func (self *lexer) next() (token, error) {
	for self.pos < len(self.src) && (self.src[self.pos] == ' ' || self.src[self.pos] == '\t') {
		self.pos++
	}
	if self.pos >= len(self.src) {
		return token{kind: tokEOF, pos: self.pos}, nil
	}
	start := self.pos
	c := self.src[self.pos]
	switch {
	case c == '(':
		self.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case c == ')':
		self.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case c == '<' || c == '>':
		self.pos++
		if self.pos < len(self.src) && self.src[self.pos] == '=' {
			self.pos++
		}
		return token{kind: tokOp, text: self.src[start:self.pos], pos: start}, nil
	case c == '=' || c == '!':
		self.pos++
		if self.pos >= len(self.src) || self.src[self.pos] != '=' {
			return token{}, errors.Errorf("pos %d: expected %c=", start, c)
		}
		self.pos++
		return token{kind: tokOp, text: self.src[start:self.pos], pos: start}, nil
	case c == '"' || c == '\'':
		quote := c
		self.pos++
		for self.pos < len(self.src) && self.src[self.pos] != quote {
			self.pos++
		}
		if self.pos >= len(self.src) {
			return token{}, errors.Errorf("pos %d: unterminated string", start)
		}
		text := self.src[start+1 : self.pos]
		self.pos++
		return token{kind: tokString, text: text, pos: start}, nil
	case c >= '0' && c <= '9' || c == '.':
		for self.pos < len(self.src) &&
			(self.src[self.pos] >= '0' && self.src[self.pos] <= '9' || self.src[self.pos] == '.') {
			self.pos++
		}
		return token{kind: tokNumber, text: self.src[start:self.pos], pos: start}, nil
	case unicode.IsLetter(rune(c)) || c == '_':
		for self.pos < len(self.src) && (isIdentChar(self.src[self.pos])) {
			self.pos++
		}
		return token{kind: tokIdent, text: self.src[start:self.pos], pos: start}, nil
	}
	return token{}, errors.Errorf("pos %d: unexpected character %q", start, string(c))
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

type parser struct {
	lex lexer
	tok token
}

// Parse compiles a condition string into an expression tree. Unknown
// signal names are rejected here, not at evaluation time, so a config
// typo surfaces on the first use of the trigger.
func Parse(condition string) (Expr, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return nil, errors.Errorf("empty condition")
	}
	p := &parser{lex: lexer{src: condition}}
	if err := p.advance(); err != nil {
		return nil, errors.Trace(err)
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if p.tok.kind != tokEOF {
		return nil, errors.Errorf("pos %d: unexpected %q", p.tok.pos, p.tok.text)
	}
	return e, nil
}

func (self *parser) advance() error {
	t, err := self.lex.next()
	if err != nil {
		return err
	}
	self.tok = t
	return nil
}

func (self *parser) keyword(word string) bool {
	return self.tok.kind == tokIdent && strings.EqualFold(self.tok.text, word)
}

func (self *parser) parseOr() (Expr, error) {
	left, err := self.parseAnd()
	if err != nil {
		return nil, err
	}
	for self.keyword("or") {
		if err = self.advance(); err != nil {
			return nil, err
		}
		right, err := self.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left: left, right: right}
	}
	return left, nil
}

func (self *parser) parseAnd() (Expr, error) {
	left, err := self.parseUnary()
	if err != nil {
		return nil, err
	}
	for self.keyword("and") {
		if err = self.advance(); err != nil {
			return nil, err
		}
		right, err := self.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left: left, right: right}
	}
	return left, nil
}

func (self *parser) parseUnary() (Expr, error) {
	if self.keyword("not") {
		if err := self.advance(); err != nil {
			return nil, err
		}
		inner, err := self.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner: inner}, nil
	}
	return self.parseCmp()
}

func (self *parser) parseCmp() (Expr, error) {
	// parenthesized subexpression is a full expr, not a comparison operand
	if self.tok.kind == tokLParen {
		if err := self.advance(); err != nil {
			return nil, err
		}
		e, err := self.parseOr()
		if err != nil {
			return nil, err
		}
		if self.tok.kind != tokRParen {
			return nil, errors.Errorf("pos %d: expected )", self.tok.pos)
		}
		return e, self.advance()
	}

	left, err := self.parseTerm()
	if err != nil {
		return nil, err
	}
	if self.tok.kind != tokOp {
		return &termExpr{t: left}, nil
	}
	op, err := parseOp(self.tok.text, self.tok.pos)
	if err != nil {
		return nil, err
	}
	if err = self.advance(); err != nil {
		return nil, err
	}
	right, err := self.parseTerm()
	if err != nil {
		return nil, err
	}
	return &cmpExpr{op: op, left: left, right: right}, nil
}

func (self *parser) parseTerm() (term, error) {
	t := self.tok
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errors.Errorf("pos %d: bad number %q", t.pos, t.text)
		}
		return numTerm(v), self.advance()
	case tokString:
		return strTerm(t.text), self.advance()
	case tokIdent:
		if strings.EqualFold(t.text, "true") {
			return boolTerm(true), self.advance()
		}
		if strings.EqualFold(t.text, "false") {
			return boolTerm(false), self.advance()
		}
		name := strings.ToLower(t.text)
		if !KnownSignal(name) {
			return nil, errors.Errorf("pos %d: unknown signal %q", t.pos, t.text)
		}
		return signalTerm(name), self.advance()
	}
	return nil, errors.Errorf("pos %d: unexpected %q", t.pos, t.text)
}

func parseOp(text string, pos int) (cmpOp, error) {
	switch text {
	case "<":
		return opLT, nil
	case "<=":
		return opLE, nil
	case ">":
		return opGT, nil
	case ">=":
		return opGE, nil
	case "==":
		return opEQ, nil
	case "!=":
		return opNE, nil
	}
	return 0, errors.Errorf("pos %d: bad operator %q", pos, text)
}
