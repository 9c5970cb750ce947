// Package trigger evaluates layout trigger conditions against a
// per-iteration signal snapshot. Conditions are parsed once into an
// expression tree and cached; any parse or evaluation error makes the
// condition false so a broken trigger can never force a layout.
package trigger

import (
	"github.com/juju/errors"

	"epaperd/log2"
)

type compiled struct {
	expr Expr
	err  error
}

type Evaluator struct {
	Log   *log2.Log
	cache map[string]compiled
}

func NewEvaluator(log *log2.Log) *Evaluator {
	return &Evaluator{
		Log:   log,
		cache: make(map[string]compiled),
	}
}

// Evaluate returns the condition result, false on any error.
func (self *Evaluator) Evaluate(condition string, snap *Snapshot) bool {
	c, ok := self.cache[condition]
	if !ok {
		c.expr, c.err = Parse(condition)
		self.cache[condition] = c
		if c.err != nil {
			self.Log.Error(errors.Annotatef(c.err, "condition %q", condition))
		}
	}
	if c.err != nil {
		return false
	}
	result, err := c.expr.Eval(snap)
	if err != nil {
		self.Log.Error(errors.Annotatef(err, "condition %q", condition))
		return false
	}
	return result
}

// Check parses without evaluating, for config validation at startup.
func (self *Evaluator) Check(condition string) error {
	c, ok := self.cache[condition]
	if !ok {
		c.expr, c.err = Parse(condition)
		self.cache[condition] = c
	}
	return c.err
}
