// Package neocalc implements an embeddable calculator for real-valued
// arithmetic expressions.
//
// An Engine owns a symbol environment holding constants, variables, and
// functions. Each call to Compile parses an expression against the current
// environment and evaluates it immediately:
//
//	eng := neocalc.New()
//	eng.DefineVariable("x", 5)
//	r, err := eng.Compile("2 x + root(27, 3)") // 13
//
// The native grammar is intended to look like math in your notes. "2 x y" is a
// multiplication of three terms, and so is "{2}[x](y)". "-2^2^n" is the same
// as "-(2^(2^n))". Arithmetic follows IEEE-754, so results may be NaN or
// infinite; only malformed input and a few function domain violations are
// errors.
//
// The parser is pluggable through the Parser interface. Package govalparse
// provides one backed by github.com/Knetic/govaluate.
package neocalc
