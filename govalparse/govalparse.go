// Package govalparse compiles expressions for neocalc engines using
// github.com/Knetic/govaluate.
//
// The grammar is govaluate's rather than neocalc's native one. Notably, ** is
// exponentiation and juxtaposition is not multiplication. govaluate's bitwise
// operators, including ^, are rejected with an *OperatorError, since they
// truncate their operands to integers. Functions from the environment are callable by name;
// constants and variables are read from the environment on each evaluation.
package govalparse

import (
	"fmt"
	"strconv"

	"github.com/Knetic/govaluate"

	"github.com/neoconsole/neocalc"
)

// Parser implements neocalc.Parser using govaluate.
type Parser struct{}

// New creates a govaluate-backed parser.
func New() *Parser {
	return &Parser{}
}

// Parse compiles text with the environment's functions. Every variable the
// expression uses must be a constant or variable in env.
func (*Parser) Parse(text string, env *neocalc.Env) (neocalc.Evaluable, error) {
	fns := make(map[string]govaluate.ExpressionFunction)
	for _, name := range env.Names() {
		if env.Func(name) != nil {
			fns[name] = wrap(name, env)
		}
	}
	ex, err := govaluate.NewEvaluableExpressionWithFunctions(text, fns)
	if err != nil {
		return nil, err
	}
	for _, tok := range ex.Tokens() {
		if tok.Kind != govaluate.MODIFIER && tok.Kind != govaluate.PREFIX {
			continue
		}
		if op, ok := tok.Value.(string); ok && bitwise[op] {
			return nil, &OperatorError{Operator: op}
		}
	}
	for _, name := range ex.Vars() {
		if _, ok := env.Lookup(name); !ok {
			return nil, &neocalc.NameError{Name: name}
		}
	}
	return &expr{ex: ex, env: env}, nil
}

// bitwise is the set of govaluate operators that work on truncated integers.
var bitwise = map[string]bool{
	"^":  true,
	"&":  true,
	"|":  true,
	"<<": true,
	">>": true,
	"~":  true,
}

// wrap adapts the function named name in env to govaluate. The function is
// looked up on each call, so redefinitions are observed. govaluate does not
// know function arities, so they are checked on each call as well.
func wrap(name string, env *neocalc.Env) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		fn := env.Func(name)
		if fn == nil {
			return nil, &neocalc.NameError{Name: name}
		}
		if !fn.CanCall(len(args)) {
			return nil, &neocalc.CallError{Func: name, Len: len(args)}
		}
		invoc := make([]float64, len(args))
		for i, a := range args {
			x, ok := a.(float64)
			if !ok {
				return nil, &ArgumentError{Func: name, Arg: i + 1, Value: a}
			}
			invoc[i] = x
		}
		return fn.Call(invoc)
	}
}

// expr is a govaluate expression bound to an environment.
type expr struct {
	ex  *govaluate.EvaluableExpression
	env *neocalc.Env
}

func (e *expr) Eval() (float64, error) {
	r, err := e.ex.Eval(params{e.env})
	if err != nil {
		return 0, err
	}
	switch r := r.(type) {
	case float64:
		return r, nil
	case bool:
		if r {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &ResultError{Value: r}
	}
}

// params exposes an environment's constants and variables as govaluate
// parameters.
type params struct {
	env *neocalc.Env
}

func (p params) Get(name string) (interface{}, error) {
	v, ok := p.env.Lookup(name)
	if !ok {
		return nil, &neocalc.NameError{Name: name}
	}
	return v, nil
}

// ArgumentError is an error indicating a non-numeric function argument, e.g.
// a string literal.
type ArgumentError struct {
	// Func is the function name.
	Func string
	// Arg is the 1-based index of the argument.
	Arg int
	// Value is the argument's value.
	Value interface{}
}

func (err *ArgumentError) Error() string {
	return "argument " + strconv.Itoa(err.Arg) + " to " + err.Func + " is not a number: " + fmt.Sprint(err.Value)
}

// Pos returns 0, because govaluate does not report positions.
func (err *ArgumentError) Pos() int {
	return 0
}

// OperatorError is an error indicating one of govaluate's bitwise operators.
type OperatorError struct {
	// Operator is the rejected operator.
	Operator string
}

func (err *OperatorError) Error() string {
	msg := "bitwise operator " + strconv.Quote(err.Operator) + " is not supported"
	if err.Operator == "^" {
		msg += "; use ** for powers"
	}
	return msg
}

// Pos returns 0, because govaluate does not report positions.
func (err *OperatorError) Pos() int {
	return 0
}

// ResultError is an error indicating an expression whose result is not a
// number.
type ResultError struct {
	Value interface{}
}

func (err *ResultError) Error() string {
	return fmt.Sprintf("result is %T, not a number", err.Value)
}

// Pos returns 0, because govaluate does not report positions.
func (err *ResultError) Pos() int {
	return 0
}

var (
	_ neocalc.InputError = (*ArgumentError)(nil)
	_ neocalc.InputError = (*OperatorError)(nil)
	_ neocalc.InputError = (*ResultError)(nil)
	_ neocalc.Parser     = (*Parser)(nil)
)
