package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/neoconsole/neocalc"
)

// varsFile is the format of the file given to -vars. Values may be numbers or
// expression strings, which are evaluated with everything defined before
// them: constants first, then variables, each in name order.
type varsFile struct {
	Constants map[string]interface{} `yaml:"constants"`
	Variables map[string]interface{} `yaml:"variables"`
}

func loadVars(name string) (*varsFile, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return parseVars(b)
}

func parseVars(b []byte) (*varsFile, error) {
	var vf varsFile
	if err := yaml.Unmarshal(b, &vf); err != nil {
		return nil, err
	}
	return &vf, nil
}

func (vf *varsFile) apply(eng *neocalc.Engine) error {
	env := eng.Env()
	for _, name := range sortedKeys(vf.Constants) {
		v, err := yamlValue(eng, vf.Constants[name])
		if err != nil {
			return fmt.Errorf("constant %s: %w", name, err)
		}
		if err := env.DefineConstant(name, v); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(vf.Variables) {
		v, err := yamlValue(eng, vf.Variables[name])
		if err != nil {
			return fmt.Errorf("variable %s: %w", name, err)
		}
		if err := env.DefineVariable(name, v); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	r := make([]string, 0, len(m))
	for k := range m {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

// yamlValue converts a decoded YAML scalar to a number.
func yamlValue(eng *neocalc.Engine, v interface{}) (float64, error) {
	switch v := v.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		// Integers beyond the range of int64.
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return eng.Compile(v)
	default:
		return 0, fmt.Errorf("unsupported value %v of type %T", v, v)
	}
}
