package neocalc

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int8

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a real number token, including inf.
	tokenNum
	// tokenIdent is a variable, constant, or function name.
	tokenIdent
	// tokenOp is an operator.
	tokenOp
	// tokenOpen is an open bracket, e.g. (.
	tokenOpen
	// tokenClose is a close bracket, e.g. ).
	tokenClose
	// tokenSep is the function argument separator.
	tokenSep
)

var tokenNames = [...]string{
	tokenNone:  "None",
	tokenEOF:   "EOF",
	tokenNum:   "Num",
	tokenIdent: "Ident",
	tokenOp:    "Op",
	tokenOpen:  "Open",
	tokenClose: "Close",
	tokenSep:   "Sep",
}

func (k tokenKind) String() string {
	if k < 0 || int(k) >= len(tokenNames) {
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenNames[k]
}

// Operators contains the runes which are considered to be operators.
const Operators = "+-*/^×÷"

// OpenBrackets and CloseBrackets contain the runes which group expressions.
// The parser checks that the k'th rune of OpenBrackets is closed by the k'th
// rune of CloseBrackets.
const (
	OpenBrackets  = "([{"
	CloseBrackets = ")]}"
)

func runestrs(s string) []string {
	v := make([]string, 0, len(s))
	for _, r := range s {
		v = append(v, string(r))
	}
	return v
}

var (
	operstrs      = runestrs(Operators)
	openbrackets  = runestrs(OpenBrackets)
	closebrackets = runestrs(CloseBrackets)
)

// runeIndex is strings.IndexRune, but counting runes rather than bytes.
func runeIndex(s string, r rune) int {
	k := 0
	for _, c := range s {
		if c == r {
			return k
		}
		k++
	}
	return -1
}

type lexer struct {
	src string
	off int
	// col is the 1-based rune position of the next rune to read.
	col int
	buf strings.Builder
	p   lexToken
	eof bool
}

func lex(src string) *lexer {
	return &lexer{src: src, col: 1}
}

// push unreads a token so that it is the next token returned from next.
// Panics if there is already a pushed token.
func (l *lexer) push(tok lexToken) {
	if l.p.kind != tokenNone {
		panic("neocalc: double push")
	}
	l.p = tok
}

// must scans the pushed token. Panics if there is no pushed token.
func (l *lexer) must() lexToken {
	tok := l.p
	if tok.kind == tokenNone {
		panic("neocalc: no pushed token")
	}
	l.p = lexToken{}
	return tok
}

// peek returns the next rune without consuming it, or utf8.RuneError and
// false at the end of the input.
func (l *lexer) peek() (rune, bool) {
	if l.off >= len(l.src) {
		return utf8.RuneError, false
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r, true
}

// advance consumes the rune returned by peek.
func (l *lexer) advance() {
	_, sz := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += sz
	l.col++
}

// next scans the next token from the input. The first time the end of input
// is reached, the result is an EOF token. After that, next panics unless a
// token has been pushed.
func (l *lexer) next() (lexToken, error) {
	if l.p.kind != tokenNone {
		tok := l.p
		l.p = lexToken{}
		return tok, nil
	}
	if l.eof {
		panic("neocalc: scan past EOF")
	}
	defer l.buf.Reset()
	for {
		r, ok := l.peek()
		tok := lexToken{pos: l.col}
		switch {
		case !ok:
			tok.kind = tokenEOF
			l.eof = true
			return tok, nil
		case unicode.IsSpace(r):
			l.advance()
			continue
		case '0' <= r && r <= '9', r == '.':
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case r == '_', unicode.IsLetter(r):
			l.scanIdent()
			tok.text = l.buf.String()
			// inf looks like an identifier, so check for it here.
			switch tok.text {
			case "inf", "Inf":
				tok.kind = tokenNum
			default:
				tok.kind = tokenIdent
			}
			return tok, nil
		case r == ',':
			l.advance()
			tok.text = ","
			tok.kind = tokenSep
			return tok, nil
		case r == '∞':
			l.advance()
			tok.text = "∞"
			tok.kind = tokenNum
			return tok, nil
		}
		l.advance()
		if k := runeIndex(Operators, r); k >= 0 {
			tok.text = operstrs[k]
			tok.kind = tokenOp
			return tok, nil
		}
		if k := runeIndex(OpenBrackets, r); k >= 0 {
			tok.text = openbrackets[k]
			tok.kind = tokenOpen
			return tok, nil
		}
		if k := runeIndex(CloseBrackets, r); k >= 0 {
			tok.text = closebrackets[k]
			tok.kind = tokenClose
			return tok, nil
		}
		// Write the rune so that it shows up in the error message.
		l.buf.WriteRune(r)
		return tok, l.error("")
	}
}

// scanNum scans a decimal number with an optional exponent into buf. On error,
// the rest of the malformed token is consumed.
func (l *lexer) scanNum() error {
	var dig, dot, e, le, ed, bad bool
	for {
		r, ok := l.peek()
		if !ok || unicode.IsSpace(r) {
			break
		}
		if r == '+' || r == '-' {
			// + or - anywhere other than immediately following an exponent
			// marker is an operator.
			if !le {
				break
			}
			le = false
			l.buf.WriteRune(r)
			l.advance()
			continue
		}
		if strings.ContainsRune(Operators+OpenBrackets+CloseBrackets+",", r) {
			break
		}
		l.buf.WriteRune(r)
		l.advance()
		switch r {
		case '.':
			if dot || e {
				bad = true
			}
			dot = true
			le = false
		case 'e', 'E':
			if !dig || e {
				bad = true
			}
			e = true
			le = true
		case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			if e {
				ed = true
			} else {
				dig = true
			}
			le = false
		default:
			bad = true
		}
	}
	if bad || !dig || (e && !ed) {
		return l.error("number")
	}
	return nil
}

func (l *lexer) scanIdent() {
	for {
		r, ok := l.peek()
		if !ok {
			return
		}
		switch {
		case r == '_', r == '.', unicode.IsLetter(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) error(kind string) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  l.col - 1,
	}
}

// IsName reports whether s lexes as exactly one identifier, so that it can be
// used as a symbol name in expressions.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	l := lex(s)
	tok, err := l.next()
	if err != nil || tok.kind != tokenIdent || tok.text != s {
		return false
	}
	return l.off == len(s)
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the token the lexer was scanning when the invalid rune was
	// encountered, including the invalid rune.
	Text string
	// Kind is the type of token the lexer was scanning. This may be "number"
	// or the empty string if a token kind hadn't been decided.
	Kind string
	// Col is the number of runes scanned by the lexer up to and including
	// the invalid token.
	Col int
}

func (err *LexError) Error() string {
	pos := "column " + strconv.Itoa(err.Col)
	if err.Kind == "" {
		return "invalid token at " + pos + ": " + err.Text
	}
	return "invalid " + err.Kind + " token at " + pos + ": " + err.Text
}

func (err *LexError) Pos() int {
	return err.Col
}
