package neocalc

import (
	"math"
	"strconv"
)

// Func is a function from reals to reals. Functions should be pure; the
// evaluator may call them any number of times.
type Func interface {
	// Call evaluates the function on the arguments in invoc, which has a
	// length for which CanCall returned true. Call may modify the elements
	// of invoc. A NaN result is not an error; Call returns an error only
	// when it rejects its arguments outright, e.g. with a *DomainError.
	Call(invoc []float64) (float64, error)

	// CanCall returns whether the function can be called with n arguments.
	// This controls how the expression parser handles instances of this
	// function:
	//
	// 	1.	If a bracketed list of n > 0 expressions follows a function, the
	//		parser treats it as an argument list if CanCall(n). (If n is 1 and
	//		!CanCall(1) and CanCall(0), then the list is a multiplication;
	//		otherwise, it is rejected.)
	//
	// 	2.	If a bare term follows a function and CanCall(1), then the parser
	//		treats the term as an argument to the function. E.g., "exp x" is
	//		parsed as "exp(x)". (If !CanCall(1), then it is a multiplication.)
	CanCall(n int) bool
}

// globalfuncs are the functions the native parser knows by default.
var globalfuncs = map[string]Func{
	"exp":  Monadic(math.Exp),
	"ln":   Monadic(math.Log),
	"log":  logfn{},
	"sqrt": Monadic(math.Sqrt),
	"abs":  Monadic(math.Abs),

	"cos":   Monadic(math.Cos),
	"sin":   Monadic(math.Sin),
	"tan":   Monadic(math.Tan),
	"acos":  Monadic(math.Acos),
	"asin":  Monadic(math.Asin),
	"atan":  Monadic(math.Atan),
	"cosh":  Monadic(math.Cosh),
	"sinh":  Monadic(math.Sinh),
	"tanh":  Monadic(math.Tanh),
	"acosh": Monadic(math.Acosh),
	"asinh": Monadic(math.Asinh),
	"atanh": Monadic(math.Atanh),
}

// DefaultFuncs returns the names of the native parser's default functions.
func DefaultFuncs() []string {
	r := make([]string, 0, len(globalfuncs))
	for k := range globalfuncs {
		r = append(r, k)
	}
	sortstrs(r)
	return r
}

type niladic func() float64

func (f niladic) Call(invoc []float64) (float64, error) {
	return f(), nil
}

func (niladic) CanCall(n int) bool {
	return n == 0
}

// Niladic wraps a function of zero variables, generally one which computes a
// constant, into a Func.
func Niladic(f func() float64) Func {
	return niladic(f)
}

type monadic func(float64) float64

func (f monadic) Call(invoc []float64) (float64, error) {
	return f(invoc[0]), nil
}

func (monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func.
func Monadic(f func(float64) float64) Func {
	return monadic(f)
}

type dyadic func(a, b float64) float64

func (f dyadic) Call(invoc []float64) (float64, error) {
	return f(invoc[0], invoc[1]), nil
}

func (dyadic) CanCall(n int) bool {
	return n == 2
}

// Dyadic wraps a function of two variables into a Func.
func Dyadic(f func(a, b float64) float64) Func {
	return dyadic(f)
}

// logfn is log(x) in base 10 or log(x, b) in base b.
type logfn struct{}

func (logfn) Call(invoc []float64) (float64, error) {
	if len(invoc) == 1 {
		return math.Log10(invoc[0]), nil
	}
	return math.Log(invoc[0]) / math.Log(invoc[1]), nil
}

func (logfn) CanCall(n int) bool {
	return n == 1 || n == 2
}

// DomainError is an error returned when a function rejects arguments outside
// its domain rather than producing NaN.
type DomainError struct {
	// X is the out-of-domain argument.
	X float64
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := strconv.FormatFloat(err.X, 'g', -1, 64) + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
