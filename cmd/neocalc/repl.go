package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"

	"github.com/neoconsole/neocalc"
)

const replHelp = `expressions are evaluated and printed; commands are:
  :let name expr    define a variable
  :set name expr    update a variable
  :const name expr  define a constant
  :vars             list symbols
  :clear            remove all symbols, including built-ins
  :reset            restore only the built-ins
  :quit             exit`

var errQuit = errors.New("quit")

// repl reads lines from in until EOF or :quit, evaluating expressions and
// running commands. verb formats results.
func repl(eng *neocalc.Engine, in io.Reader, out io.Writer, verb string, log logrus.FieldLogger) {
	sc := bufio.NewScanner(in)
	verb += "\n"
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, ":"):
			err := command(eng, line[1:], out)
			if errors.Is(err, errQuit) {
				return
			}
			if err != nil {
				log.Error(err)
			}
		default:
			r, err := eng.Compile(line)
			if err != nil {
				log.Error(err)
				continue
			}
			fmt.Fprintf(out, verb, r)
		}
	}
	if err := sc.Err(); err != nil {
		log.Error(err)
	}
	fmt.Fprintln(out)
}

// command runs a REPL command line without its leading colon.
func command(eng *neocalc.Engine, line string, out io.Writer) error {
	args, err := shlex.Split(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("empty command")
	}
	env := eng.Env()
	switch args[0] {
	case "let", "set", "const":
		if len(args) < 3 {
			return fmt.Errorf("usage: :%s name expr", args[0])
		}
		v, err := eng.Compile(strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		switch args[0] {
		case "let":
			return env.DefineVariable(args[1], v)
		case "set":
			return env.SetVariable(args[1], v)
		default:
			return env.DefineConstant(args[1], v)
		}
	case "vars":
		for _, name := range env.Names() {
			k, _ := env.Kind(name)
			if v, ok := env.Lookup(name); ok {
				fmt.Fprintf(out, "%s\t%v\t%g\n", name, k, v)
				continue
			}
			fmt.Fprintf(out, "%s\t%v\n", name, k)
		}
	case "clear":
		eng.Clear()
	case "reset":
		eng.Reset()
	case "help", "h", "?":
		fmt.Fprintln(out, replHelp)
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try :help)", args[0])
	}
	return nil
}
