package neocalc

import (
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// SymbolKind identifies what a name in an Env refers to.
type SymbolKind int8

const (
	// Constant is an immutable value.
	Constant SymbolKind = iota + 1
	// Variable is a value that can be updated, either held by the Env or
	// read through a live binding.
	Variable
	// Function is a Func callable from expressions.
	Function
)

func (k SymbolKind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Variable:
		return "variable"
	case Function:
		return "function"
	default:
		return "SymbolKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// symbol is a tagged entry in an Env.
type symbol struct {
	kind SymbolKind
	// val holds constants and copied variables.
	val float64
	// ref is the caller's storage for a live-bound variable.
	ref *float64
	fn  Func
}

func (s *symbol) value() float64 {
	if s.ref != nil {
		return *s.ref
	}
	return s.val
}

// Env is a symbol environment mapping names to constants, variables, and
// functions. Each name has exactly one kind until it is deleted or the Env is
// cleared. Constants cannot be redefined. Variables and functions can be
// redefined freely, but a name cannot change kind.
//
// An Env is not safe for concurrent use.
type Env struct {
	syms map[string]*symbol
}

// NewEnv creates an empty environment. Call Initialize to add the built-in
// constants and functions.
func NewEnv() *Env {
	return &Env{syms: make(map[string]*symbol)}
}

// constprec is the precision to which built-in constants are computed before
// rounding to float64.
const constprec = 128

// builtins holds the built-in constants, rounded to float64.
var builtins = func() map[string]float64 {
	var pi, e, gr, one big.Float
	pi.SetPrec(constprec)
	bigfloat.Pi(&pi)
	one.SetPrec(constprec).SetInt64(1)
	e.SetPrec(constprec)
	bigfloat.Exp(&e, &one)
	// gr = (1 + sqrt(5)) / 2
	gr.SetPrec(constprec).SetInt64(5)
	gr.Sqrt(&gr)
	gr.Add(&gr, &one)
	gr.Quo(&gr, big.NewFloat(2))
	m := make(map[string]float64, 3)
	m["pi"], _ = pi.Float64()
	m["e"], _ = e.Float64()
	m["gr"], _ = gr.Float64()
	return m
}()

// Builtin returns the value of a built-in constant: pi, e, or gr (the golden
// ratio). The second result is false for any other name.
func Builtin(name string) (float64, bool) {
	v, ok := builtins[name]
	return v, ok
}

// Initialize registers the built-in constants pi, gr, and e, and the function
// root. It fails with a *RedefinitionError if any of them is already defined,
// so it is idempotent only following Clear.
func (env *Env) Initialize() error {
	for _, name := range [...]string{"pi", "gr", "e"} {
		if err := env.DefineConstant(name, builtins[name]); err != nil {
			return err
		}
	}
	return env.AddFunc("root", rootfn{})
}

// define adds or replaces a symbol, enforcing the redefinition rules.
func (env *Env) define(name string, s *symbol) error {
	if !IsName(name) {
		return &SymbolNameError{Name: name}
	}
	if old := env.syms[name]; old != nil {
		if old.kind == Constant || old.kind != s.kind {
			return &RedefinitionError{Name: name, Have: old.kind, Want: s.kind}
		}
	}
	if env.syms == nil {
		env.syms = make(map[string]*symbol)
	}
	env.syms[name] = s
	return nil
}

// DefineConstant defines an immutable constant.
func (env *Env) DefineConstant(name string, value float64) error {
	return env.define(name, &symbol{kind: Constant, val: value})
}

// DefineVariable defines or redefines a variable holding a copy of value.
// Later changes go through SetVariable or another DefineVariable.
func (env *Env) DefineVariable(name string, value float64) error {
	return env.define(name, &symbol{kind: Variable, val: value})
}

// BindVariable defines or redefines a variable bound to the caller's storage.
// Evaluations read *ref at the time they run, so changing *ref changes future
// results without re-registering. ref must not be nil.
func (env *Env) BindVariable(name string, ref *float64) error {
	if ref == nil {
		panic("neocalc: BindVariable with nil reference")
	}
	return env.define(name, &symbol{kind: Variable, ref: ref})
}

// SetVariable updates an existing variable. For a live-bound variable, the
// value is written through to the bound storage. If name is not a variable,
// the result is a *NameError.
func (env *Env) SetVariable(name string, value float64) error {
	s := env.syms[name]
	if s == nil || s.kind != Variable {
		return &NameError{Name: name}
	}
	if s.ref != nil {
		*s.ref = value
		return nil
	}
	s.val = value
	return nil
}

// AddFunction registers a two-argument function callable from expressions as
// name(a, b). fn should be pure.
func (env *Env) AddFunction(name string, fn func(a, b float64) float64) error {
	if fn == nil {
		panic("neocalc: AddFunction with nil function")
	}
	return env.AddFunc(name, Dyadic(fn))
}

// AddFunc registers a function with any arity.
func (env *Env) AddFunc(name string, fn Func) error {
	if fn == nil {
		panic("neocalc: AddFunc with nil Func")
	}
	return env.define(name, &symbol{kind: Function, fn: fn})
}

// Delete removes a name of any kind. It returns false if there was no such
// name.
func (env *Env) Delete(name string) bool {
	if _, ok := env.syms[name]; !ok {
		return false
	}
	delete(env.syms, name)
	return true
}

// Clear removes all constants, variables, and functions.
func (env *Env) Clear() {
	env.syms = make(map[string]*symbol)
}

// Lookup returns the value of a constant or variable. The second result is
// false if name is not defined or is a function.
func (env *Env) Lookup(name string) (float64, bool) {
	s := env.syms[name]
	if s == nil || s.kind == Function {
		return 0, false
	}
	return s.value(), true
}

// Func returns the function registered as name, or nil if there is none.
func (env *Env) Func(name string) Func {
	s := env.syms[name]
	if s == nil {
		return nil
	}
	return s.fn
}

// Kind returns the kind of a name. The second result is false if name is not
// defined.
func (env *Env) Kind(name string) (SymbolKind, bool) {
	s := env.syms[name]
	if s == nil {
		return 0, false
	}
	return s.kind, true
}

// Names returns all defined names in sorted order.
func (env *Env) Names() []string {
	r := make([]string, 0, len(env.syms))
	for k := range env.syms {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

// Len returns the number of defined names.
func (env *Env) Len() int {
	return len(env.syms)
}

// Clone creates a copy of env. Copied variables are independent of the
// original; live-bound variables remain bound to the same storage.
func (env *Env) Clone() *Env {
	n := Env{syms: make(map[string]*symbol, len(env.syms))}
	for k, s := range env.syms {
		c := *s
		n.syms[k] = &c
	}
	return &n
}

// RedefinitionError is an error indicating an attempt to redefine a constant
// or to change the kind of a name.
type RedefinitionError struct {
	// Name is the name being redefined.
	Name string
	// Have is the kind the name already has.
	Have SymbolKind
	// Want is the kind the redefinition tried to give it.
	Want SymbolKind
}

func (err *RedefinitionError) Error() string {
	if err.Have == err.Want {
		return "cannot redefine " + err.Have.String() + " " + strconv.Quote(err.Name)
	}
	return "cannot redefine " + err.Have.String() + " " + strconv.Quote(err.Name) + " as " + err.Want.String()
}

// SymbolNameError is an error indicating a name that cannot appear in an
// expression as an identifier.
type SymbolNameError struct {
	Name string
}

func (err *SymbolNameError) Error() string {
	return "invalid symbol name " + strconv.Quote(err.Name)
}
