package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// StringExpression replaces python style "%(var)s" references in configuration values
type StringExpression struct {
	env map[string]string
}

// NewStringExpression creates a StringExpression seeded with the process environment
// (as ENV_<NAME>) and the given key/value pairs
func NewStringExpression(envs ...string) *StringExpression {
	se := &StringExpression{env: make(map[string]string)}

	for _, env := range os.Environ() {
		t := strings.SplitN(env, "=", 2)
		if len(t) == 2 {
			se.env["ENV_"+t[0]] = t[1]
		}
	}
	n := len(envs)
	for i := 0; i+1 < n; i += 2 {
		se.env[envs[i]] = envs[i+1]
	}
	return se
}

// Add adds variable (key,value)
func (se *StringExpression) Add(key string, value string) *StringExpression {
	se.env[key] = value
	return se
}

// AddEnv adds every entry of envs as an ENV_<NAME> variable
func (se *StringExpression) AddEnv(envs map[string]string) *StringExpression {
	for k, v := range envs {
		se.env["ENV_"+k] = v
	}
	return se
}

// Eval substitutes "%(var)s" and "%(var)d" in s. Substituted values are
// taken literally and never evaluated again.
func (se *StringExpression) Eval(s string) (string, error) {
	pos := 0
	for {
		i := strings.Index(s[pos:], "%(")
		if i == -1 {
			return s, nil
		}
		start := pos + i

		n := len(s)
		end := start + 2
		for end < n && s[end] != ')' {
			end++
		}
		if end >= n {
			return "", fmt.Errorf("unterminated expression in %q", s)
		}

		typ := end + 1
		for typ < n && !((s[typ] >= 'a' && s[typ] <= 'z') || (s[typ] >= 'A' && s[typ] <= 'Z')) {
			typ++
		}
		if typ >= n {
			return "", fmt.Errorf("invalid string expression format")
		}

		varName := s[start+2 : end]
		varValue, ok := se.env[varName]
		if !ok {
			return "", fmt.Errorf("fail to find the variable %s", varName)
		}
		switch s[typ] {
		case 'd':
			i, err := strconv.Atoi(varValue)
			if err != nil {
				return "", fmt.Errorf("can't convert %s to integer", varValue)
			}
			value := fmt.Sprintf("%"+s[end+1:typ+1], i)
			s = s[0:start] + value + s[typ+1:]
			pos = start + len(value)
		case 's':
			s = s[0:start] + varValue + s[typ+1:]
			pos = start + len(varValue)
		default:
			return "", fmt.Errorf("not implement type:%c", s[typ])
		}
	}
}
