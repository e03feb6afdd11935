package neocalc

import "math"

// Root computes the real degree'th root of value.
//
// A zero degree is rejected with a *DomainError. Otherwise the result is
// value^(1/degree), so fractional degrees are allowed: Root(16, 0.5) is 256.
// A negative value has a real root only for odd integer degrees, in which case
// the root is negative; for even or non-integer degrees the result is NaN. A
// zero value gives zero for every nonzero degree, and NaN in either argument
// gives NaN.
func Root(value, degree float64) (float64, error) {
	switch {
	case degree == 0:
		return math.NaN(), &DomainError{X: degree, Arg: 2, Func: "root"}
	case math.IsNaN(value), math.IsNaN(degree):
		return math.NaN(), nil
	case value == 0:
		return 0, nil
	case value > 0:
		return math.Pow(value, 1/degree), nil
	}
	if math.IsInf(degree, 0) || math.Trunc(degree) != degree {
		return math.NaN(), nil
	}
	if math.Mod(degree, 2) == 0 {
		return math.NaN(), nil
	}
	return -math.Pow(-value, 1/degree), nil
}

// rootfn exposes Root to expressions as root(value, degree).
type rootfn struct{}

func (rootfn) Call(invoc []float64) (float64, error) {
	return Root(invoc[0], invoc[1])
}

func (rootfn) CanCall(n int) bool {
	return n == 2
}
