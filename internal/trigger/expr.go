package trigger

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"
)

type kind uint8

const (
	kindNum kind = iota
	kindStr
	kindBool
)

func (k kind) String() string {
	switch k {
	case kindNum:
		return "number"
	case kindStr:
		return "string"
	case kindBool:
		return "bool"
	}
	return "?"
}

type value struct {
	kind kind
	num  float64
	str  string
	b    bool
}

func numValue(v float64) value { return value{kind: kindNum, num: v} }
func strValue(v string) value  { return value{kind: kindStr, str: v} }
func boolValue(v bool) value   { return value{kind: kindBool, b: v} }

// Expr is a parsed condition. Eval never panics; a type error or an
// unknown signal yields an error and the caller treats the condition
// as false.
type Expr interface {
	Eval(snap *Snapshot) (bool, error)
	String() string
}

type andExpr struct{ left, right Expr }
type orExpr struct{ left, right Expr }
type notExpr struct{ inner Expr }

func (self *andExpr) Eval(snap *Snapshot) (bool, error) {
	l, err := self.left.Eval(snap)
	if err != nil {
		return false, err
	}
	if !l {
		return false, nil
	}
	return self.right.Eval(snap)
}

func (self *orExpr) Eval(snap *Snapshot) (bool, error) {
	l, err := self.left.Eval(snap)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return self.right.Eval(snap)
}

func (self *notExpr) Eval(snap *Snapshot) (bool, error) {
	v, err := self.inner.Eval(snap)
	return !v, err
}

func (self *andExpr) String() string { return fmt.Sprintf("(%s and %s)", self.left, self.right) }
func (self *orExpr) String() string  { return fmt.Sprintf("(%s or %s)", self.left, self.right) }
func (self *notExpr) String() string { return fmt.Sprintf("(not %s)", self.inner) }

type cmpOp uint8

const (
	opLT cmpOp = iota
	opLE
	opGT
	opGE
	opEQ
	opNE
)

func (op cmpOp) String() string {
	switch op {
	case opLT:
		return "<"
	case opLE:
		return "<="
	case opGT:
		return ">"
	case opGE:
		return ">="
	case opEQ:
		return "=="
	case opNE:
		return "!="
	}
	return "?"
}

type cmpExpr struct {
	op          cmpOp
	left, right term
}

func (self *cmpExpr) Eval(snap *Snapshot) (bool, error) {
	lv, err := self.left.value(snap)
	if err != nil {
		return false, err
	}
	rv, err := self.right.value(snap)
	if err != nil {
		return false, err
	}
	if lv.kind != rv.kind {
		return false, errors.Errorf("compare %s %s %s: mismatched types %s/%s",
			self.left, self.op, self.right, lv.kind, rv.kind)
	}
	switch lv.kind {
	case kindNum:
		switch self.op {
		case opLT:
			return lv.num < rv.num, nil
		case opLE:
			return lv.num <= rv.num, nil
		case opGT:
			return lv.num > rv.num, nil
		case opGE:
			return lv.num >= rv.num, nil
		case opEQ:
			return lv.num == rv.num, nil
		case opNE:
			return lv.num != rv.num, nil
		}
	case kindStr:
		switch self.op {
		case opEQ:
			return lv.str == rv.str, nil
		case opNE:
			return lv.str != rv.str, nil
		}
		return false, errors.Errorf("compare %s %s %s: strings support only == and !=",
			self.left, self.op, self.right)
	case kindBool:
		switch self.op {
		case opEQ:
			return lv.b == rv.b, nil
		case opNE:
			return lv.b != rv.b, nil
		}
		return false, errors.Errorf("compare %s %s %s: bools support only == and !=",
			self.left, self.op, self.right)
	}
	return false, errors.Errorf("compare %s: bad operator", self.op)
}

func (self *cmpExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", self.left, self.op, self.right)
}

// term is a comparison operand or a bare boolean signal.
type term interface {
	value(snap *Snapshot) (value, error)
	String() string
}

type numTerm float64
type strTerm string
type boolTerm bool
type signalTerm string

func (self numTerm) value(*Snapshot) (value, error) { return numValue(float64(self)), nil }
func (self strTerm) value(*Snapshot) (value, error) { return strValue(string(self)), nil }
func (self boolTerm) value(*Snapshot) (value, error) { return boolValue(bool(self)), nil }

func (self signalTerm) value(snap *Snapshot) (value, error) {
	v, ok := snap.signal(string(self))
	if !ok {
		return value{}, errors.Errorf("unknown signal %q", string(self))
	}
	return v, nil
}

func (self numTerm) String() string    { return strconv.FormatFloat(float64(self), 'g', -1, 64) }
func (self strTerm) String() string    { return strconv.Quote(string(self)) }
func (self boolTerm) String() string   { return strconv.FormatBool(bool(self)) }
func (self signalTerm) String() string { return string(self) }

// termExpr lifts a bare term into boolean position. Only bool valued
// terms are allowed there, anything else is a type error.
type termExpr struct{ t term }

func (self *termExpr) Eval(snap *Snapshot) (bool, error) {
	v, err := self.t.value(snap)
	if err != nil {
		return false, err
	}
	if v.kind != kindBool {
		return false, errors.Errorf("%s is %s, expected bool", self.t, v.kind)
	}
	return v.b, nil
}

func (self *termExpr) String() string { return self.t.String() }
