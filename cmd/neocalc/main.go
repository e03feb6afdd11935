package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/neoconsole/neocalc"
	"github.com/neoconsole/neocalc/govalparse"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	var (
		inname, verb, varsname, parser string
		with                           [][2]string
		nl, echo, verbose              bool
	)
	addwith := func(s string) error {
		d := strings.SplitN(s, "=", 2)
		if len(d) != 2 {
			return fmt.Errorf(`variable definitions must be "name=value", not %q`, s)
		}
		with = append(with, [2]string{strings.TrimSpace(d[0]), strings.TrimSpace(d[1])})
		return nil
	}
	flag.StringVar(&inname, "in", "", "input file (default stdin if no args given)")
	flag.StringVar(&verb, "fmt", "%g", "result formatting string")
	flag.Func("given", "name=value variable definition (any number of times)", addwith)
	flag.StringVar(&varsname, "vars", "", "YAML file of constants and variables")
	flag.StringVar(&parser, "parser", "native", "expression parser: native or govaluate")
	flag.BoolVar(&nl, "n", false, "evaluate separate input lines as separate expressions")
	flag.BoolVar(&echo, "echo", false, "print each expression before its result")
	flag.BoolVar(&verbose, "v", false, "log compilations")
	flag.Parse()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	opts := []neocalc.Option{neocalc.WithLogger(log)}
	switch parser {
	case "native":
	case "govaluate":
		opts = append(opts, neocalc.WithParser(govalparse.New()))
	default:
		log.Fatalf("unknown parser %q", parser)
	}
	eng := neocalc.New(opts...)

	if varsname != "" {
		vf, err := loadVars(varsname)
		if err != nil {
			log.Fatal(err)
		}
		if err := vf.apply(eng); err != nil {
			log.Fatalf("%s: %v", varsname, err)
		}
	}
	for _, d := range with {
		r, err := eng.Compile(d[1])
		if err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
		if err := eng.DefineVariable(d[0], r); err != nil {
			log.Fatalf("setting %s: %v", d[0], err)
		}
	}

	if flag.NArg() == 0 && inname == "" && isatty.IsTerminal(os.Stdin.Fd()) {
		repl(eng, os.Stdin, os.Stdout, verb, log)
		return
	}

	var srcs []string
	f, err := infile(inname, flag.NArg() == 0)
	if err != nil {
		log.Fatal(err)
	}
	if f != nil {
		srcs, err = readExprs(f, nl)
		if err != nil {
			log.Fatal(err)
		}
	}
	srcs = append(srcs, flag.Args()...)

	failed := false
	verb += "\n"
	for _, src := range srcs {
		if echo {
			fmt.Printf("%s : ", src)
		}
		r, err := eng.Compile(src)
		if err != nil {
			fmt.Println()
			log.Error(err)
			failed = true
			continue
		}
		fmt.Printf(verb, r)
	}
	if failed {
		os.Exit(1)
	}
}

func infile(inname string, std bool) (io.Reader, error) {
	switch {
	case inname != "" && inname != "-":
		f, err := os.Open(inname)
		if err != nil {
			return nil, err
		}
		return f, nil
	case inname == "-", std:
		return os.Stdin, nil
	}
	return nil, nil
}

// readExprs reads expressions from in. If lines is set, each non-blank line is
// a separate expression; otherwise the entire input is one expression.
func readExprs(in io.Reader, lines bool) ([]string, error) {
	if !lines {
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		s := strings.TrimSpace(string(b))
		if s == "" {
			return nil, nil
		}
		return []string{s}, nil
	}
	var exprs []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			exprs = append(exprs, s)
		}
	}
	return exprs, sc.Err()
}
