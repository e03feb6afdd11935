package neocalc

import (
	"math"
	"strconv"
)

// Evaluable is a compiled expression bound to a symbol environment.
type Evaluable interface {
	// Eval evaluates the expression using the current values of the
	// environment's variables.
	Eval() (float64, error)
}

// Bound is an Expr bound to an environment. It implements Evaluable. It is not
// safe to evaluate a Bound concurrently.
type Bound struct {
	ex    *Expr
	env   *Env
	stack []float64
}

var (
	_ Evaluable = (*Bound)(nil)
	_ Parser    = (*NativeParser)(nil)
)

// Bind binds an expression to an environment.
func (e *Expr) Bind(env *Env) *Bound {
	return &Bound{ex: e, env: env}
}

// Expr returns the bound expression.
func (b *Bound) Expr() *Expr {
	return b.ex
}

// Eval evaluates the expression. Names are looked up in the environment on
// every evaluation, so updated and live-bound variables and redefined
// functions are observed. If a name has been removed from the environment
// since parsing, the result is a *NameError. If a function has been replaced
// by one that cannot take the parsed arguments, the result is a *CallError.
func (b *Bound) Eval() (float64, error) {
	if len(b.stack) != 0 {
		panic("neocalc: Eval during Eval")
	}
	// A panicking Func must not leave the expression unusable.
	defer func() { b.stack = b.stack[:0] }()
	if err := b.ex.n.eval(b); err != nil {
		return 0, err
	}
	if len(b.stack) != 1 {
		panic("neocalc: inconsistent stack: " + strconv.Itoa(len(b.stack)) + " items (bad AST?)")
	}
	return b.stack[0], nil
}

func (b *Bound) push(x float64) {
	b.stack = append(b.stack, x)
}

// pop removes the top from the stack and returns it.
func (b *Bound) pop() float64 {
	r := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return r
}

// top is a shortcut to get the top element of the stack.
func (b *Bound) top() *float64 {
	return &b.stack[len(b.stack)-1]
}

// binary evaluates both operands of n, leaving the left on top of the stack
// and returning the right.
func (n *node) binary(b *Bound) (*float64, float64, error) {
	if err := n.left.eval(b); err != nil {
		return nil, 0, err
	}
	if err := n.right.eval(b); err != nil {
		return nil, 0, err
	}
	r := b.pop()
	return b.top(), r, nil
}

// eval pushes the node's value to the stack.
func (n *node) eval(b *Bound) error {
	switch n.kind {
	case nodeNum:
		b.push(n.num)
	case nodeName:
		v, ok := b.env.Lookup(n.name)
		if !ok {
			return &NameError{Name: n.name}
		}
		b.push(v)
	case nodeCall:
		k := len(b.stack)
		for l := n.right; l != nil; l = l.right {
			if err := l.left.eval(b); err != nil {
				return err
			}
		}
		invoc := b.stack[k:len(b.stack):len(b.stack)]
		fn := b.env.Func(n.name)
		if fn == nil {
			if n.envfn {
				return &NameError{Name: n.name}
			}
			fn = n.fn
		}
		if !fn.CanCall(len(invoc)) {
			return &CallError{Func: n.name, Len: len(invoc)}
		}
		r, err := fn.Call(invoc)
		if err != nil {
			return err
		}
		b.stack = append(b.stack[:k], r)
	case nodeArg:
		panic("neocalc: eval on nodeArg")
	case nodeNeg:
		if err := n.left.eval(b); err != nil {
			return err
		}
		v := b.top()
		*v = -*v
	case nodeAdd:
		l, r, err := n.binary(b)
		if err != nil {
			return err
		}
		*l += r
	case nodeSub:
		l, r, err := n.binary(b)
		if err != nil {
			return err
		}
		*l -= r
	case nodeMul:
		l, r, err := n.binary(b)
		if err != nil {
			return err
		}
		*l *= r
	case nodeDiv:
		l, r, err := n.binary(b)
		if err != nil {
			return err
		}
		*l /= r
	case nodePow:
		l, r, err := n.binary(b)
		if err != nil {
			return err
		}
		*l = math.Pow(*l, r)
	case nodeNop:
		if err := n.left.eval(b); err != nil {
			return err
		}
	default:
		panic("neocalc: invalid AST node " + n.kind.String())
	}
	return nil
}

// Eval is a shortcut to parse an expression with the native parser and
// evaluate it in a new initialized environment.
func Eval(src string) (float64, error) {
	env := NewEnv()
	if err := env.Initialize(); err != nil {
		return 0, err
	}
	ev, err := NewParser().Parse(src, env)
	if err != nil {
		return 0, err
	}
	return ev.Eval()
}

// NameError is an error from a lookup of a name that is not defined in the
// environment, or that is no longer a function where a call was parsed.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined name: " + strconv.Quote(err.Name)
}
