package neocalc

// ParseOption is an option for the native parser.
type ParseOption interface {
	parseOption(*parseconf)
}

// parseconf holds the configuration of a native parser.
type parseconf struct {
	// funcs holds function overrides. A nil Func disables a default
	// function so its name parses as a variable.
	funcs map[string]Func
	// nodefaults disables every default function not named in funcs.
	nodefaults bool
}

type (
	funcopt struct {
		name string
		fn   Func
	}
	funcsopt  map[string]Func
	nodefsopt struct{}
)

// ParseFunc sets a function for parsing. To disable parsing a default
// function, pass nil for fn. Functions in the environment passed to Parse take
// precedence over those set here.
func ParseFunc(name string, fn Func) ParseOption {
	return &funcopt{name, fn}
}

func (o *funcopt) parseOption(p *parseconf) {
	if p.funcs == nil {
		p.funcs = map[string]Func{}
	}
	p.funcs[o.name] = o.fn
}

// ParseFuncs sets a group of functions for parsing. To disable parsing any
// default function, set it to nil.
func ParseFuncs(fns map[string]Func) ParseOption {
	return funcsopt(fns)
}

func (o funcsopt) parseOption(p *parseconf) {
	if p.funcs == nil {
		// Always make a copy.
		p.funcs = make(map[string]Func, len(o))
	}
	for k, v := range o {
		p.funcs[k] = v
	}
}

// DisableDefaultFuncs disables all default functions during parsing. Their
// names will be parsed as variables instead.
func DisableDefaultFuncs() ParseOption {
	return nodefsopt{}
}

func (nodefsopt) parseOption(p *parseconf) {
	p.nodefaults = true
}

// lookupFunc finds the function to use for a name, giving precedence to the
// environment, then parse options, then defaults.
func (p *parseconf) lookupFunc(env *Env, name string) Func {
	if env != nil {
		if fn := env.Func(name); fn != nil {
			return fn
		}
		if _, ok := env.Kind(name); ok {
			// Constants and variables shadow default functions.
			return nil
		}
	}
	if fn, ok := p.funcs[name]; ok {
		return fn
	}
	if p.nodefaults {
		return nil
	}
	return globalfuncs[name]
}
