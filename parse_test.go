package neocalc

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// diff finds the first in-order node of n that differs from m, or nil, nil if
// the two ASTs are equal. If any node is nodeNone, it is returned.
func (n *node) diff(m *node) (*node, *node) {
	if n == nil {
		if m != nil {
			return n, m
		}
		return nil, nil
	}
	if m == nil {
		return n, m
	}
	if n.kind == nodeNone || m.kind == nodeNone {
		return n, m
	}
	if n.kind != m.kind {
		return n, m
	}
	switch n.kind {
	case nodeNum, nodeName:
		if n.name != m.name {
			return n, m
		}
	case nodeCall:
		if n.name != m.name {
			return n, m
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeArg, nodeNeg, nodeAdd, nodeSub, nodeMul, nodeDiv, nodePow:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
		if d, e := n.right.diff(m.right); d != nil || e != nil {
			return d, e
		}
	case nodeNop:
		if d, e := n.left.diff(m.left); d != nil || e != nil {
			return d, e
		}
	default:
		panic(fmt.Errorf("invalid node kind: n=%+v m=%+v", n, m))
	}
	return nil, nil
}

// haskind checks whether a parse tree contains a node of the given type.
func (n *node) haskind(k nodeKind) bool {
	if n == nil {
		return false
	}
	if n.kind == k {
		return true
	}
	if n.left.haskind(k) {
		return true
	}
	return n.right.haskind(k)
}

type mockfn struct {
	can []int
}

func mockFunc(n ...int) Func {
	return mockfn{can: n}
}

func (f mockfn) Call(invoc []float64) (float64, error) {
	return 0, nil
}

func (f mockfn) CanCall(n int) bool {
	for _, v := range f.can {
		if v == n {
			return true
		}
	}
	return false
}

var testfns = map[string]Func{
	"zero":    mockFunc(0),
	"one":     mockFunc(1),
	"zeroone": mockFunc(0, 1),
	"five":    mockFunc(5),
}

// testParser parses with only the mock functions.
var testParser = NewParser(DisableDefaultFuncs(), ParseFuncs(testfns))

func TestOpPrecsExist(t *testing.T) {
	for _, r := range Operators {
		b := binop(string(r))
		u := unop(string(r))
		if b.op == nodeNone && u.op == nodeNone {
			t.Errorf("no operator for %c", r)
		}
	}
}

func TestTermPrecMatchesMultiplication(t *testing.T) {
	if p := binop("*").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but * has prec %d", termprec.prec, p)
	}
	if p := binop("×").prec; p != termprec.prec {
		t.Errorf("terms have prec %d but × has prec %d", termprec.prec, p)
	}
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		a, b string
	}{
		{"paren", "(x)", "x"},
		{"square", "[x]", "x"},
		{"curly", "{x}", "x"},
		{"multi", "([{{[((x))]}}])", "x"},

		{"plus", "+x", "(+(x))"},
		{"neg", "-x", "(-(x))"},
		{"negnum", "-1", "(-(1))"},
		{"add", "x+y", "((x)+(y))"},
		{"sub", "x-y", "((x)-(y))"},
		{"mul", "x*y", "((x)*(y))"},
		{"div", "x/y", "((x)/(y))"},
		{"pow", "x^y", "((x)^(y))"},
		{"altmul", "x×y", "x*y"},
		{"altdiv", "x÷y", "x/y"},
		{"terms", "x y", "x*y"},
		{"parenterms", "x(y)", "x*y"},
		{"numterms", "2 x", "2*x"},
		{"parenpow", "x(y)^2", "x*(y^2)"},

		{"call0", "zero()", "zero"},
		{"call0-terms", "zero x", "zero()*x"},
		{"call0-paren", "zero(x)", "zero()*x"},
		{"call0-up", "zero^x(y)", "([zero()]^x)*y"},
		{"call0-callup", "zero^zero(x)^y", "(zero^zero)*(x^y)"},
		{"call1-bare", "one x", "one(x)"},
		{"call1-terms", "one a b c * d", "one(a b c) * d"},
		{"call1-plus", "one + x", "one(+x)"},
		{"call1-add", "one x + y", "one(x) + y"},
		{"call1-exp", "one x^y", "one(x^y)"},
		{"call1-up", "one ^ x ^ y z", "[one(z)]^(x^y)"},
		{"call5", "five(a, b, c, d, e)", "five[a, b, c, d, e]"},
		{"callpowneg", "one^-x(y)", "[one(y)]^(-x)"},

		{"add4", "w+x+y+z", "((w+x)+y)+z"},
		{"sub4", "w-x-y-z", "((w-x)-y)-z"},
		{"mul4", "w*x*y*z", "((w*x)*y)*z"},
		{"div4", "w/x/y/z", "((w/x)/y)/z"},
		{"pow4", "w^x^y^z", "w^(x^(y^z))"},
		{"terms4", "w x y z", "w*(x*(y*z))"},

		{"negpow", "-1^n", "-(1^n)"},
		{"desc", "w^x*y+z", "((w^x)*y)+z"},
		{"asc", "w+x*y^z", "w+(x*(y^z))"},
		{"descasc", "w^x*y+z+a*b^c", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c", "w+((x*(y^(z^a)))*b)+c"},
		{"negneg", "--x", "-(-x)"},
		{"negsub", "-x-x", "(-x)-x"},
		{"powparen", "x^y(z)", "(x^y)*z"},
		{"powneg", "x^-1", "x^(-1)"},
		{"powterms", "x y^z", "x*(y^z)"},
		{"pownegpow", "x^-y^-z", "x^(-(y^(-z)))"},
		{"pownegneg", "x^--y", "x^(-(-y))"},

		{"call0-mul", "zero(x)*y", "(zero*x)*y"},
		{"call0-add", "zero(x)+y", "zero*x+y"},
		{"call0-powcall0", "zero(y^zero(x))", "zero*((y^zero)*x)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := testParser.ParseExpr(c.a, nil)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.a, err)
			}
			b, err := testParser.ParseExpr(c.b, nil)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", c.b, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.a, a.n, d, c.b, b.n, e)
			}
		})
	}
}

func TestParseExact(t *testing.T) {
	cases := []struct {
		name string
		src  string
		n    *node
	}{
		{
			name: "call01-paren",
			src:  "zeroone(x)",
			n: &node{
				kind: nodeCall,
				name: "zeroone",
				right: &node{
					kind: nodeArg,
					left: &node{kind: nodeName, name: "x"},
				},
			},
		},
		{
			name: "call1-paren",
			src:  "one(x)",
			n: &node{
				kind: nodeCall,
				name: "one",
				right: &node{
					kind: nodeArg,
					left: &node{kind: nodeName, name: "x"},
				},
			},
		},
		{
			name: "call5",
			src:  "five(a, b, c, d, e)",
			n: &node{
				kind: nodeCall,
				name: "five",
				right: &node{
					kind: nodeArg,
					left: &node{kind: nodeName, name: "a"},
					right: &node{
						kind: nodeArg,
						left: &node{kind: nodeName, name: "b"},
						right: &node{
							kind: nodeArg,
							left: &node{kind: nodeName, name: "c"},
							right: &node{
								kind: nodeArg,
								left: &node{kind: nodeName, name: "d"},
								right: &node{
									kind: nodeArg,
									left: &node{kind: nodeName, name: "e"},
								},
							},
						},
					},
				},
			},
		},
		{
			name: "inf1",
			src:  "inf",
			n:    &node{kind: nodeNum, name: "inf"},
		},
		{
			name: "inf2",
			src:  "Inf",
			n:    &node{kind: nodeNum, name: "Inf"},
		},
		{
			name: "inf3",
			src:  "∞",
			n:    &node{kind: nodeNum, name: "∞"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := testParser.ParseExpr(c.src, nil)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			d, e := a.n.diff(c.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\twant %v which has %v\n\tgot  %v which has %v from %q", c.n, e, a.n, d, c.src)
			}
		})
	}
}

func TestParseNums(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"12", 12},
		{"1.5", 1.5},
		{".25", 0.25},
		{"1e3", 1000},
		{"2.5e-1", 0.25},
		{"1e400", math.Inf(1)},
		{"1e-400", 0},
	}
	for _, c := range cases {
		a, err := testParser.ParseExpr(c.src, nil)
		if err != nil {
			t.Errorf("%q failed to parse: %v", c.src, err)
			continue
		}
		if a.n.kind != nodeNum || a.n.num != c.want {
			t.Errorf("%q: want number %g, got %v with value %g", c.src, c.want, a.n, a.n.num)
		}
	}
}

func TestExprString(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"paren", "(x)"},
		{"square", "[x]"},
		{"curly", "{x}"},
		{"multi", "([{{[((x))]}}])"},

		{"plus", "+x"},
		{"neg", "-x"},
		{"negnum", "-1"},
		{"add", "x+y"},
		{"sub", "x-y"},
		{"mul", "x*y"},
		{"div", "x/y"},
		{"pow", "x^y"},
		{"altmul", "x×y"},
		{"altdiv", "x÷y"},
		{"terms", "x y"},
		{"parenterms", "x(y)"},

		{"call0", "zero()"},
		{"call0-terms", "zero x"},
		{"call1-bare", "one x"},
		{"call1-terms", "one a b c * d"},
		{"call1-plus", "one + x"},
		{"call1-add", "one x + y"},
		{"call1-exp", "one x^y"},
		{"call5", "five(a, b, c, d, e)"},

		{"add4", "w+x+y+z"},
		{"sub4", "w-x-y-z"},
		{"mul4", "w*x*y*z"},
		{"div4", "w/x/y/z"},
		{"pow4", "w^x^y^z"},
		{"terms4", "w x y z"},

		{"negpow", "-1^n"},
		{"desc", "w^x*y+z"},
		{"asc", "w+x*y^z"},
		{"descasc", "w^x*y+z+a*b^c"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"negneg", "--x"},
		{"negsub", "-x-x"},
		{"powparen", "x^y(z)"},
		{"powneg", "x^-1"},
		{"powterms", "x y^z"},
		{"pownegpow", "x^-y^-z"},
		{"pownegneg", "x^--y"},

		{"parentermsplus", "x(y+z)"},
		{"mulparenterms", "x*y(z*w)"},
		{"doubleexp", "zero^zero(0)^0"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := testParser.ParseExpr(c.src, nil)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			s := a.String()
			b, err := testParser.ParseExpr(s, nil)
			if err != nil {
				t.Fatalf("%q -> %q failed to parse: %v", c.src, s, err)
			}
			d, e := a.n.diff(b.n)
			if d != nil || e != nil {
				t.Errorf("mismatched AST:\n\t%q parses %v has %v\n\t%q parses %v has %v", c.src, a.n, d, s, b.n, e)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		err  InputError
		res  []string
		excl []string
	}{
		{"empty", "", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, []string{`(?i)\bend\b`}},
		{"blank", "   ", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`}, nil},
		{"emptyparen", "()", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyterm", "x()", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"emptyoperand", "x*", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"emptyunary", "x*-", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `(?i)\bend\b`}, nil},
		{"trailingop", "2 +", new(EmptyExpressionError), []string{`(?i)\bend\b`}, nil},
		{"left", "(x", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"right", "x)", new(BracketError), []string{`(?i)\bbracket\b`, `\)`}, nil},
		{"mismatch", "(x]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-mul", "x*(y]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"mismatch-terms", "x(y]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"nonunary", "*x", new(OperatorError), []string{`(?i)\bunary\b`, `(?i)\bop`, `\*`}, nil},
		{"nonunary-rhs", "x*/y", new(OperatorError), []string{`(?i)\bunary\b`, `/`}, nil},
		{"sep", "x, y", new(SeparatorError), []string{`","`}, nil},
		{"sepbrackets", "(x, y)", new(SeparatorError), []string{`","`}, nil},
		{"call0-mismatch", "zero(x]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"call1-0", "one()", new(CallError), []string{`(?i)\bcall\b`, `\bone\b`, `\b((?i)0|zero)\b`}, nil},
		{"call1-eof", "one", new(CallError), []string{`(?i)\bcall\b`, `\bone\b`, `\b((?i)0|zero)\b`}, nil},
		{"call1-pareneof", "one(", new(BracketError), []string{`(?i)\bbracket\b`, `\(`}, nil},
		{"call1-mismatch", "one(x]", new(BracketError), []string{`(?i)\bbracket\b`, `\(`, `]`}, nil},
		{"call1-2", "one(x, y)", new(CallError), []string{`(?i)\bcall\b`, `\bone\b`, `\b2\b`}, nil},
		{"call1-empty", "one(, x)", new(SeparatorError), []string{`","`}, nil},
		{"call1-empty2", "one(x,)", new(EmptyExpressionError), []string{`(?i)\b(no|empty)\b.*\bexpression\b`, `\)`}, nil},
		{"call1-up0", "one^zero(x)", new(CallError), []string{`\bone\b`}, nil},
		{"call5-4", "five(a, b, c, d)", new(CallError), []string{`(?i)\bcall\b`, `\bfive\b`, `\b4\b`}, nil},
		{"call5-bare", "five x", new(CallError), []string{`(?i)\bcall\b`, `\bfive\b`, `\b((?i)1|one)\b`}, nil},
		{"call5-empty", "five(a,,,,b)", new(SeparatorError), []string{`","`}, nil},
		{"lexer", "2^exp(-$)", new(LexError), []string{`\$`}, nil},
		{"semicolon", "x; y", new(LexError), []string{`;`}, nil},
		{"badnum", "1.2.3", new(LexError), []string{`(?i)\bnumber\b`, `1\.2\.3`}, nil},

		{"op-paren", "(b*)", new(EmptyExpressionError), []string{`\)`}, nil},
		{"haskell", "(+)", new(EmptyExpressionError), []string{`\)`}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := testParser.ParseExpr(c.src, nil)
			if a != nil {
				t.Errorf("%q parsed non-nil to %v", c.src, a.n)
			}
			if reflect.TypeOf(err) != reflect.TypeOf(c.err) {
				t.Errorf("wrong error type from %q: want %T, got %T", c.src, c.err, err)
			}
			if err == nil {
				return
			}
			msg := err.Error()
			for _, re := range c.res {
				if !regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q does not match %s", msg, re)
				}
			}
			for _, re := range c.excl {
				if regexp.MustCompile(re).MatchString(msg) {
					t.Errorf("error message %q matches %s", msg, re)
				}
			}
		})
	}
}

func TestParseErrorPos(t *testing.T) {
	cases := []struct {
		src string
		pos int
	}{
		{"", 1},
		{"x*", 3},
		{"(x", 3},
		{"x)", 2},
		{"*x", 1},
		{"x, y", 2},
		{"one(x, y)", 4},
		{"2 + $", 5},
	}
	for _, c := range cases {
		_, err := testParser.ParseExpr(c.src, nil)
		ie, ok := err.(InputError)
		if !ok {
			t.Errorf("%q: want InputError, got %#v", c.src, err)
			continue
		}
		if ie.Pos() != c.pos {
			t.Errorf("%q: want error at %d, got %d (%v)", c.src, c.pos, ie.Pos(), err)
		}
	}
}

func TestDisableDefaultFuncs(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"exp", "exp(x)"},
		{"ln", "ln(x)"},
		{"log", "log(x)"},
		{"sqrt", "sqrt(x)"},
		{"abs", "abs(x)"},
		{"cos", "cos(x)"},
		{"sin", "sin(x)"},
		{"tan", "tan(x)"},
		{"acos", "acos(x)"},
		{"asin", "asin(x)"},
		{"atan", "atan(x)"},
		{"cosh", "cosh(x)"},
		{"sinh", "sinh(x)"},
		{"tanh", "tanh(x)"},
		{"acosh", "acosh(x)"},
		{"asinh", "asinh(x)"},
		{"atanh", "atanh(x)"},
	}
	// Check that we cover every case.
	check := func(n string) bool {
		for _, c := range cases {
			if c.name == n {
				return true
			}
		}
		return false
	}
	for _, k := range DefaultFuncs() {
		if !check(k) {
			t.Fatalf("no test case for %q", k)
		}
	}

	p := NewParser(DisableDefaultFuncs())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := p.ParseExpr(c.src, nil)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if a.n.haskind(nodeCall) {
				t.Errorf("call expression in %v", a.n)
			}
		})
	}
}

func TestParseFuncDisablesOne(t *testing.T) {
	p := NewParser(ParseFunc("sin", nil))
	a, err := p.ParseExpr("sin(x) + cos(x)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sin", "x"}, a.Vars()); diff != "" {
		t.Errorf("wrong vars (-want +got):\n%s", diff)
	}
	if !a.n.haskind(nodeCall) {
		t.Errorf("cos not parsed as a call in %v", a.n)
	}
}

func TestParseEnvShadowing(t *testing.T) {
	env := NewEnv()
	if err := env.DefineVariable("sin", 2); err != nil {
		t.Fatal(err)
	}
	if err := env.AddFunction("five", func(a, b float64) float64 { return a + b }); err != nil {
		t.Fatal(err)
	}
	// A variable named like a default function shadows it.
	a, err := NewParser().ParseExpr("sin(3)", env)
	if err != nil {
		t.Fatal(err)
	}
	if a.n.haskind(nodeCall) {
		t.Errorf("sin parsed as a call in %v", a.n)
	}
	// An environment function overrides a parse option function.
	if _, err := testParser.ParseExpr("five(1, 2)", env); err != nil {
		t.Errorf("five(1, 2) with env function failed: %v", err)
	}
	if _, err := testParser.ParseExpr("five(1, 2)", nil); err == nil {
		t.Errorf("five(1, 2) with mock function parsed")
	}
}

func TestParseVars(t *testing.T) {
	cases := []struct {
		src  string
		vars []string
	}{
		{"1", []string{}},
		{"x", []string{"x"}},
		{"x + x", []string{"x"}},
		{"z y x", []string{"x", "y", "z"}},
		{"one(b) + zero(a)", []string{"a", "b"}},
		{"five(e, d, c, b, a)", []string{"a", "b", "c", "d", "e"}},
	}
	for _, c := range cases {
		a, err := testParser.ParseExpr(c.src, nil)
		if err != nil {
			t.Errorf("%q failed to parse: %v", c.src, err)
			continue
		}
		if diff := cmp.Diff(c.vars, a.Vars(), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("%q has wrong vars (-want +got):\n%s", c.src, diff)
		}
	}
}

func TestParseUndefined(t *testing.T) {
	env := NewEnv()
	if err := env.DefineVariable("x", 1); err != nil {
		t.Fatal(err)
	}
	_, err := NewParser().Parse("x + y", env)
	ne, ok := err.(*NameError)
	if !ok {
		t.Fatalf("want *NameError, got %#v", err)
	}
	if ne.Name != "y" {
		t.Errorf("want undefined y, got %q", ne.Name)
	}
}

func BenchmarkParse(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"descasc", "w^x*y+z+a*b^c"},
		{"descasc-parens", "(((w^x)*y)+z)+a*(b^c)"},
		{"ascdesc", "w+x*y^z^a*b+c"},
		{"ascdesc-parens", "w+((x*(y^(z^a)))*b)+c"},
		{"descasc-nums", "1^1.1*1.1e1+1.1e-1+.1*inf^∞"},
		{"ascdesc-nums", "1+1.1*1.1e1^1.1e-1^.1*inf+∞"},
		{"call0", "zero()"},
		{"call0-terms", "zero x"},
		{"call1-bare", "one x"},
		{"call5", "five(a, b, c, d, e)"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				testParser.ParseExpr(c.src, nil)
			}
		})
	}
}
