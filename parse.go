package neocalc

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Expr = num | name | Call | Neg | Plus | Add | Sub | Mul | Div | Pow | '(' Expr ')' | '[' Expr ']' | '{' Expr '}'
// Call = funcname | funcname Expr | funcname ArgList
// ArgList = '(' Expr { ',' Expr } ')' | '[' Expr { ',' Expr } ']' | '{' Expr { ',' Expr } '}'
// Neg = '-' Expr
// Plus = '+' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr | Expr '×' Expr | Expr Expr
// Div = Expr '/' Expr | Expr '÷' Expr
// Pow = Expr '^' Expr

// Expr is a parsed expression. Function calls are resolved at parse time;
// names are looked up each time the expression is evaluated.
type Expr struct {
	// n is the root node of the expression.
	n *node
	// names is the sorted list of variable names used in the expression.
	names []string
}

// NativeParser parses the package's own expression grammar. It implements
// Parser. The zero value is ready to use with default functions.
type NativeParser struct {
	conf parseconf
}

// NewParser creates a native parser. The given options are applied in order.
func NewParser(opts ...ParseOption) *NativeParser {
	var np NativeParser
	for _, opt := range opts {
		opt.parseOption(&np.conf)
	}
	return &np
}

// Parse parses text and binds it to env. Every name the expression uses must
// be a constant or variable in env at the time of the call; otherwise the
// result is a *NameError.
func (np *NativeParser) Parse(text string, env *Env) (Evaluable, error) {
	ex, err := np.ParseExpr(text, env)
	if err != nil {
		return nil, err
	}
	for _, name := range ex.names {
		if _, ok := env.Lookup(name); !ok {
			return nil, &NameError{Name: name}
		}
	}
	return ex.Bind(env), nil
}

// ParseExpr parses text without checking that its names are defined.
// Functions are taken from env, which may be nil, before the parser's own.
func (np *NativeParser) ParseExpr(text string, env *Env) (*Expr, error) {
	p := parser{
		scan:  lex(text),
		conf:  &np.conf,
		env:   env,
		names: make(map[string]bool),
	}
	n, err := p.term(exprprec)
	if err != nil {
		return nil, err
	}
	if tok := p.scan.must(); tok.kind != tokenEOF {
		return nil, itShouldNotHaveEndedThisWay(tok, -1)
	}
	ex := Expr{
		n:     n,
		names: make([]string, 0, len(p.names)),
	}
	for k := range p.names {
		ex.names = append(ex.names, k)
	}
	sortstrs(ex.names)
	return &ex, nil
}

// sortstrs sorts a short string slice in place.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// parser holds the state of a single parse.
type parser struct {
	scan *lexer
	conf *parseconf
	env  *Env
	// names is the set of variable names that have been seen this parse.
	names map[string]bool
	// resv is a reserved parsed node. arglist sets this when it parses a
	// single parenthesized term so that the parser can back it out to an
	// implicit multiplication if the function is niladic.
	resv *node
}

// term parses a single term. If there is no error, then term pushes the last
// token it scans, including EOF. If the input is an empty subexpression, the
// result is nil with no error; callers must create an error in contexts where
// empty subexpressions are illegal.
func (p *parser) term(until operator) (*node, error) {
	n, err := p.lhs(until)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	for {
		if p.resv != nil && termprec.moreBinding(until) {
			// A niladic function was followed by a parenthesized term.
			// So, the parsing here is as if we encountered an open bracket,
			// except that the contents are already parsed and valid. If
			// this term binds too tightly, an enclosing one picks it up.
			n = &node{kind: nodeMul, left: n, right: p.resv}
			p.resv = nil
		}
		tok, err := p.scan.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokenNum, tokenIdent:
			// (parsed) x -> (parsed) * (x)
			// (parsed) x^(expr) -> (parsed) * (x^(expr))
			// a^(parsed) x -> (a^(parsed)) * (x)
			p.scan.push(tok)
			if !termprec.moreBinding(until) {
				return n, nil
			}
			rhs, err := p.term(termprec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
		case tokenOp:
			prec := binop(tok.text)
			if prec.op == nodeNone {
				return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: false}
			}
			if !prec.moreBinding(until) {
				p.scan.push(tok)
				return n, nil
			}
			rhs, err := p.term(prec)
			if err != nil {
				return nil, err
			}
			if rhs == nil {
				// An operator followed directly by a close bracket.
				end := p.scan.must()
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			n = &node{kind: prec.op, left: n, right: rhs}
		case tokenOpen:
			// Since lhs parses functions aggressively, this is a
			// multiplication by a parenthesized term: 2 (expr) -> (2) * (expr).
			match := rightbracket(tok.text)
			if !termprec.moreBinding(until) {
				p.scan.push(tok)
				return n, nil
			}
			rhs, err := p.term(exprprec)
			if err != nil {
				return nil, err
			}
			end := p.scan.must()
			if end.kind != tokenClose || end.text != closebrackets[match] {
				return nil, itShouldNotHaveEndedThisWay(end, match)
			}
			if rhs == nil {
				return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			rhs, err = p.tail(rhs, termprec)
			if err != nil {
				return nil, err
			}
			n = &node{kind: nodeMul, left: n, right: rhs}
		case tokenClose, tokenSep, tokenEOF:
			// End of expression.
			p.scan.push(tok)
			return n, nil
		default:
			panic("neocalc: unknown token: " + tok.String())
		}
	}
}

// tail continues parsing operators that bind more tightly than until after an
// already parsed bracketed term, so that x(y)^2 is x*(y^2).
func (p *parser) tail(n *node, until operator) (*node, error) {
	for {
		tok, err := p.scan.next()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokenOp {
			p.scan.push(tok)
			return n, nil
		}
		prec := binop(tok.text)
		if prec.op == nodeNone || !prec.moreBinding(until) {
			p.scan.push(tok)
			return n, nil
		}
		rhs, err := p.term(prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := p.scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = &node{kind: prec.op, left: n, right: rhs}
	}
}

// lhs parses the first component of a term. I.e., operators are unary and
// any encountered token must be valid as the start of a subexpression.
func (p *parser) lhs(until operator) (*node, error) {
	tok, err := p.scan.next()
	if err != nil {
		return nil, err
	}
	var n *node
	switch tok.kind {
	case tokenNum:
		n = &node{kind: nodeNum, name: tok.text, num: parsenum(tok.text)}
	case tokenIdent:
		fn := p.conf.lookupFunc(p.env, tok.text)
		if fn == nil {
			p.names[tok.text] = true
			n = &node{kind: nodeName, name: tok.text}
			break
		}
		rhs, exp, err := p.call(until, fn, tok.text)
		if err != nil {
			return nil, err
		}
		// If fn is niladic and the call is like fn(a), then the result
		// from call is nil, nil, and p.resv is non-nil.
		n = &node{kind: nodeCall, name: tok.text, fn: fn, right: rhs}
		n.envfn = p.env != nil && p.env.Func(tok.text) != nil
		if exp != nil {
			exp.left = n
			n = exp
		}
	case tokenOp:
		prec := unop(tok.text)
		if prec.op == nodeNone {
			return nil, &OperatorError{Col: tok.pos, Operator: tok.text, Unary: true}
		}
		if !prec.moreBinding(until) {
			// x^-y -> x^(-y)
			// Just use the new operator's precedence to simplify.
			prec.prec, prec.right = until.prec, until.right
		}
		rhs, err := p.term(prec)
		if err != nil {
			return nil, err
		}
		if rhs == nil {
			end := p.scan.must()
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = &node{kind: prec.op, left: rhs}
	case tokenOpen:
		match := rightbracket(tok.text)
		rhs, err := p.term(exprprec)
		if err != nil {
			return nil, err
		}
		end := p.scan.must()
		if end.kind != tokenClose || end.text != closebrackets[match] {
			return nil, itShouldNotHaveEndedThisWay(end, match)
		}
		if rhs == nil {
			return nil, &EmptyExpressionError{Col: end.pos, End: end.text}
		}
		n = rhs
	case tokenClose:
		// This might be part of a niladic func(), so let the caller decide
		// what to do.
		p.scan.push(tok)
		return nil, nil
	case tokenSep:
		return nil, &SeparatorError{Col: tok.pos, Sep: tok.text}
	case tokenEOF:
		return nil, &EmptyExpressionError{Col: tok.pos, End: ""}
	default:
		panic("neocalc: unknown token: " + tok.String())
	}
	return n, nil
}

// call parses the arguments to a call of fn. The second result, if non-nil,
// is a node that the function call is lhs to.
func (p *parser) call(until operator, fn Func, name string) (*node, *node, error) {
	tok, err := p.scan.next()
	if err != nil {
		return nil, nil, err
	}
	switch tok.kind {
	case tokenOp:
		// Check for e.g. ^2 in cos^2 x. Must be an exponentiation or higher.
		// func^x^y(z) parses as [func(z)]^(x^y).
		if prec := binop(tok.text); prec.moreBinding(powprec) {
			up, err := p.term(powprec)
			if err != nil {
				return nil, nil, err
			}
			if up == nil {
				end := p.scan.must()
				return nil, nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			args, ee, err := p.call(until, fn, name)
			if err != nil {
				return nil, nil, err
			}
			if ee != nil {
				// The precedence we parsed is right-associative and higher
				// than any other, so there can't be a second exponent.
				panic("neocalc: parsed second call exponent: " + ee.String())
			}
			// The caller fills in up.left.
			exp := &node{kind: nodePow, right: up}
			return args, exp, nil
		}
		// Other than exponentiations, finding an operator is the same as
		// finding a number or identifier.
		fallthrough
	case tokenNum, tokenIdent:
		switch {
		case fn.CanCall(1):
			// Single argument. exp x -> exp(x)
			p.scan.push(tok)
			if termprec.moreBinding(until) {
				until = termprec
			}
			rhs, err := p.term(until)
			if err != nil {
				return nil, nil, err
			}
			if rhs == nil {
				end := p.scan.must()
				return nil, nil, &EmptyExpressionError{Col: end.pos, End: end.text}
			}
			return &node{kind: nodeArg, left: rhs}, nil, nil
		case fn.CanCall(0):
			// No argument. f x -> (f) * (x)
			p.scan.push(tok)
		default:
			// Any other number of arguments requires brackets.
			return nil, nil, &CallError{Col: tok.pos, Func: name, Len: 1}
		}
	case tokenOpen:
		match := rightbracket(tok.text)
		args, k, err := p.arglist(tok.text)
		if err != nil {
			return nil, nil, err
		}
		end := p.scan.must()
		if end.kind != tokenClose {
			panic("neocalc: arglist ended on " + end.String() + " instead of close bracket")
		}
		if end.text != closebrackets[match] {
			return nil, nil, &BracketError{Col: end.pos, Left: tok.text, Right: end.text}
		}
		if !fn.CanCall(k) {
			if p.resv != nil && fn.CanCall(0) {
				// fn is niladic, so convert from fn(a) to fn()*a. As with
				// any bracketed term, a following exponent applies to a.
				p.resv, err = p.tail(p.resv, termprec)
				if err != nil {
					p.resv = nil
					return nil, nil, err
				}
				return nil, nil, nil
			}
			p.resv = nil
			return nil, nil, &CallError{Col: tok.pos, Func: name, Len: k}
		}
		p.resv = nil
		return args, nil, nil
	case tokenClose, tokenSep, tokenEOF:
		if !fn.CanCall(0) {
			return nil, nil, &CallError{Col: tok.pos, Func: name}
		}
		p.scan.push(tok)
	default:
		panic("neocalc: unknown token: " + tok.String())
	}
	return nil, nil, nil
}

// arglist parses a bracketed list of zero or more args.
func (p *parser) arglist(open string) (*node, int, error) {
	var n node
	l := &n
	k := 0
	for {
		rhs, err := p.term(exprprec)
		if err != nil {
			// Reporting mismatched brackets is more helpful than an empty
			// expression at the end of the input.
			if ee, _ := err.(*EmptyExpressionError); ee != nil && ee.End == "" {
				err = &BracketError{Col: ee.Col, Left: open}
			}
			return nil, 0, err
		}
		end := p.scan.must()
		switch end.kind {
		case tokenClose:
			// Caller checks that brackets match.
			p.scan.push(end)
			if rhs == nil {
				// func() is allowed, but func(a,) isn't.
				if k != 0 {
					return nil, 0, &EmptyExpressionError{Col: end.pos, End: end.text}
				}
				return nil, 0, nil
			}
			l.right = &node{kind: nodeArg, left: rhs}
			if k == 0 {
				// func(a). If func is niladic, then this is an implicit
				// multiplication. Reserve the rhs so that the parser can
				// convert from a function call.
				p.resv = rhs
			}
			return n.right, k + 1, nil
		case tokenSep:
			if rhs == nil {
				return nil, 0, &SeparatorError{Col: end.pos, Sep: end.text}
			}
			k++
			l.right = &node{kind: nodeArg, left: rhs}
			l = l.right
		case tokenEOF:
			return nil, 0, &BracketError{Col: end.pos, Left: open, Right: ""}
		default:
			panic("neocalc: term ended on non-end token " + end.String())
		}
	}
}

// parsenum decodes a number token. The lexer guarantees the syntax, so the
// only possible error is range, for which ParseFloat already gives ±Inf or 0.
func parsenum(s string) float64 {
	if s == "∞" {
		return math.Inf(1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, _ := err.(*strconv.NumError); ne == nil || ne.Err != strconv.ErrRange {
			panic("neocalc: invalid number: " + s + " (" + err.Error() + ")")
		}
	}
	return f
}

// rightbracket gets the closing bracket index for an opening bracket.
func rightbracket(left string) int {
	r, sz := utf8.DecodeRuneInString(left)
	k := runeIndex(OpenBrackets, r)
	if k < 0 || sz != len(left) {
		panic("neocalc: invalid bracket " + strconv.Quote(left))
	}
	return k
}

// leftbracket gets the opening bracket matching right. If right is no bracket,
// then the result is the empty string.
func leftbracket(right int) string {
	if right == -1 {
		return ""
	}
	return openbrackets[right]
}

// itShouldNotHaveEndedThisWay returns an error appropriate for an unexpected
// token at the end of a subexpression. match is the bracket index that the
// expression should have matched, or -1 if none.
func itShouldNotHaveEndedThisWay(tok lexToken, match int) error {
	switch tok.kind {
	case tokenEOF:
		// Unexpected EOF implies an open bracket that was not closed.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: ""}
	case tokenClose:
		// A bracket could be the wrong bracket for the opening brace or any
		// bracket at the end of an input.
		return &BracketError{Col: tok.pos, Left: leftbracket(match), Right: tok.text}
	case tokenSep:
		// Separator outside a function call.
		return &SeparatorError{Col: tok.pos, Sep: tok.text}
	default:
		panic("neocalc: it really should not have ended this way: " + tok.String())
	}
}

// Vars returns the variable names used when evaluating the expression.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// String creates a string representation of the parsed expression, with
// alternating round and square brackets grouping each term.
func (e *Expr) String() string {
	var b strings.Builder
	e.n.fmt(&b, false, true)
	return b.String()
}

type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// op is the node kind to use when this operator is selected.
	op nodeKind
}

func (p operator) moreBinding(than operator) bool {
	if p.prec != than.prec {
		return p.prec > than.prec
	}
	return p.right
}

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of nodeNone.
func binop(text string) operator {
	switch text {
	case "+":
		return operator{1, false, nodeAdd}
	case "-":
		return operator{1, false, nodeSub}
	case "*", "×":
		return operator{5, false, nodeMul}
	case "/", "÷":
		return operator{5, false, nodeDiv}
	case "^":
		return operator{15, true, nodePow}
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of nodeNone.
func unop(text string) operator {
	switch text {
	case "+":
		return operator{10, true, nodeNop}
	case "-":
		return operator{10, true, nodeNeg}
	default:
		return operator{}
	}
}

var (
	// termprec is the default precedence for parsing terms. Its prec
	// should match that of multiplication.
	termprec = operator{5, true, nodeMul}
	// powprec is the precedence of exponentiation.
	powprec = binop("^")
	// exprprec is the precedence required to parse an entire subexpression.
	exprprec = operator{-128, true, nodeNone}
)
