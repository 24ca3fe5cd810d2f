package dispatch

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ochinchina/wlreplay/faults"
)

// Request is what a builder produces for one command
type Request struct {
	Method  string
	Path    string
	Payload *Payload
}

// Builder turns the positional arguments of a command into a Request
type Builder func(args []string) (Request, error)

type argReader struct {
	op   string
	args []string
}

func (a argReader) need(n int) error {
	if len(a.args) < n {
		return faults.CommandError(a.op, "expected %d arguments, got %d", n, len(a.args))
	}
	return nil
}

func (a argReader) str(i int) string {
	return a.args[i]
}

func (a argReader) integer(i int, name string) (int, error) {
	v, err := strconv.Atoi(a.args[i])
	if err != nil {
		return 0, faults.CommandError(a.op, "%s %q is not an integer", name, a.args[i])
	}
	return v, nil
}

func (a argReader) number(i int, name string) (float64, error) {
	v, err := strconv.ParseFloat(a.args[i], 64)
	if err != nil {
		return 0, faults.CommandError(a.op, "%s %q is not a number", name, a.args[i])
	}
	return v, nil
}

// field describes one positional argument copied into the payload
type field struct {
	name string
	kind byte // 's' string, 'd' integer, 'f' float
}

// positional builds a POST whose payload is command=<command> followed by the fields, in order
func positional(op string, path string, command string, fields ...field) Builder {
	return func(args []string) (Request, error) {
		a := argReader{op: op, args: args}
		if err := a.need(len(fields)); err != nil {
			return Request{}, err
		}
		p := NewPayload().Set("command", command)
		for i, f := range fields {
			switch f.kind {
			case 'd':
				v, err := a.integer(i, f.name)
				if err != nil {
					return Request{}, err
				}
				p.Set(f.name, v)
			case 'f':
				v, err := a.number(i, f.name)
				if err != nil {
					return Request{}, err
				}
				p.Set(f.name, v)
			default:
				p.Set(f.name, a.str(i))
			}
		}
		return Request{Method: http.MethodPost, Path: path, Payload: p}, nil
	}
}

// update builds a POST with command=update, the integer id and one field per key:value argument
func update(op string, path string) Builder {
	return func(args []string) (Request, error) {
		a := argReader{op: op, args: args}
		if err := a.need(1); err != nil {
			return Request{}, err
		}
		id, err := a.integer(0, "id")
		if err != nil {
			return Request{}, err
		}
		p := NewPayload().Set("command", "update").Set("id", id)
		for _, arg := range args[1:] {
			kv := strings.SplitN(arg, ":", 2)
			if len(kv) != 2 {
				return Request{}, faults.CommandError(op, "%q is not a key:value pair", arg)
			}
			p.Set(kv[0], kv[1])
		}
		return Request{Method: http.MethodPost, Path: path, Payload: p}, nil
	}
}

// lookup builds a GET of <path>/<id>, the id is passed through unconverted
func lookup(op string, path string) Builder {
	return func(args []string) (Request, error) {
		a := argReader{op: op, args: args}
		if err := a.need(1); err != nil {
			return Request{}, err
		}
		return Request{Method: http.MethodGet, Path: path + "/" + url.PathEscape(a.str(0))}, nil
	}
}
