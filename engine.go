package neocalc

import (
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Parser compiles expression text against a symbol environment. Parsers must
// report malformed text, undefined names, and calls with the wrong number of
// arguments as errors from Parse or, if they can only be found while
// evaluating, as InputError or *NameError values from Eval.
type Parser interface {
	Parse(text string, env *Env) (Evaluable, error)
}

// Engine compiles and evaluates expressions against an environment that
// persists across calls. It is not safe to use an Engine concurrently.
type Engine struct {
	env    *Env
	parser Parser
	log    logrus.FieldLogger
	// cur is the most recently compiled expression, and text its source.
	cur  Evaluable
	text string
}

// Option is an option used when creating an engine.
type Option interface {
	engineOption()
}

type (
	parseropt struct{ p Parser }
	logopt    struct{ l logrus.FieldLogger }
	envopt    struct{ env *Env }
)

func (parseropt) engineOption() {}
func (logopt) engineOption()    {}
func (envopt) engineOption()    {}

// WithParser sets the parser an engine uses. The default is NewParser().
func WithParser(p Parser) Option {
	return parseropt{p}
}

// WithLogger sets the logger an engine reports compilations to at debug level.
// The default is logrus's standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return logopt{l}
}

// WithEnv makes an engine use env as-is instead of creating and initializing
// a new environment.
func WithEnv(env *Env) Option {
	return envopt{env}
}

// New creates an engine. Unless WithEnv is given, its environment starts with
// the built-in constants and functions.
func New(opts ...Option) *Engine {
	e := Engine{
		parser: NewParser(),
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case parseropt:
			e.parser = opt.p
		case logopt:
			e.log = opt.l
		case envopt:
			e.env = opt.env
		default:
			panic("neocalc: unknown option type")
		}
	}
	if e.env == nil {
		e.env = NewEnv()
		if err := e.env.Initialize(); err != nil {
			// A new Env is empty, so this cannot happen.
			panic(err)
		}
	}
	return &e
}

// Compile parses text against the current environment and evaluates it.
// Failure to parse, including undefined names and calls with the wrong number
// of arguments, is a *CompileError. Other evaluation failures, such as the
// *DomainError from root with a zero degree, are returned as they are.
//
// A successfully parsed expression replaces the engine's current expression
// even if evaluating it fails.
func (e *Engine) Compile(text string) (float64, error) {
	log := e.log.WithField("expr", text)
	ev, err := e.parser.Parse(text, e.env)
	if err != nil {
		log.WithError(err).Debug("compile failed")
		return 0, &CompileError{Text: text, Err: err}
	}
	e.cur, e.text = ev, text
	r, err := e.eval(text, ev)
	if err != nil {
		log.WithError(err).Debug("evaluation failed")
		return 0, err
	}
	log.WithField("result", r).Debug("compiled")
	return r, nil
}

// Eval evaluates the current expression again. Variables are read anew, so
// changes made through SetVariable or live bindings are observed. If nothing
// has been compiled, the result is ErrNotCompiled.
func (e *Engine) Eval() (float64, error) {
	if e.cur == nil {
		return 0, ErrNotCompiled
	}
	return e.eval(e.text, e.cur)
}

func (e *Engine) eval(text string, ev Evaluable) (float64, error) {
	r, err := ev.Eval()
	if err == nil {
		return r, nil
	}
	var ie InputError
	var ne *NameError
	if errors.As(err, &ie) || errors.As(err, &ne) {
		return 0, &CompileError{Text: text, Err: err}
	}
	return 0, err
}

// Env returns the engine's environment.
func (e *Engine) Env() *Env {
	return e.env
}

// DefineVariable defines or redefines a variable holding a copy of value.
func (e *Engine) DefineVariable(name string, value float64) error {
	return e.env.DefineVariable(name, value)
}

// SetVariable updates an existing variable.
func (e *Engine) SetVariable(name string, value float64) error {
	return e.env.SetVariable(name, value)
}

// BindVariable defines or redefines a variable that reads *ref whenever an
// expression using it is evaluated.
func (e *Engine) BindVariable(name string, ref *float64) error {
	return e.env.BindVariable(name, ref)
}

// AddFunction registers a two-argument function callable as name(a, b).
func (e *Engine) AddFunction(name string, fn func(a, b float64) float64) error {
	return e.env.AddFunction(name, fn)
}

// Clear removes every symbol from the environment, including the built-ins,
// and forgets the current expression.
func (e *Engine) Clear() {
	e.env.Clear()
	e.cur, e.text = nil, ""
}

// Reset clears the environment and restores the built-ins.
func (e *Engine) Reset() {
	e.Clear()
	if err := e.env.Initialize(); err != nil {
		panic(err)
	}
}

// ErrNotCompiled is returned by Engine.Eval when no expression has been
// compiled.
var ErrNotCompiled = errors.New("neocalc: no compiled expression")

// CompileError is an error indicating that expression text could not be
// compiled. It unwraps to the parser's diagnostic.
type CompileError struct {
	// Text is the expression text, if known.
	Text string
	// Err is the parser's diagnostic.
	Err error
}

func (err *CompileError) Error() string {
	if err.Text == "" {
		return "compile: " + err.Err.Error()
	}
	return "compile " + strconv.Quote(err.Text) + ": " + err.Err.Error()
}

func (err *CompileError) Unwrap() error {
	return err.Err
}
