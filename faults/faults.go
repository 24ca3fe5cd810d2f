package faults

import (
	"errors"
	"fmt"
)

// Fault codes. CONFIG and IO are fatal for a replay run, COMMAND and
// NETWORK only fail the command that raised them.
const (
	CONFIG  = 10
	IO      = 20
	COMMAND = 30
	NETWORK = 40
)

var codeNames = map[int]string{
	CONFIG:  "config error",
	IO:      "io error",
	COMMAND: "command error",
	NETWORK: "network error",
}

// Fault is an error tagged with one of the fault codes
type Fault struct {
	Code int
	Op   string
	Err  error
}

func (f *Fault) Error() string {
	name, ok := codeNames[f.Code]
	if !ok {
		name = fmt.Sprintf("fault %d", f.Code)
	}
	if f.Op == "" {
		return fmt.Sprintf("%s: %v", name, f.Err)
	}
	return fmt.Sprintf("%s: %s: %v", name, f.Op, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Is matches any *Fault carrying the same code, so errors.Is(err, faults.ErrIO) works
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	return ok && t.Op == "" && t.Err == nil && t.Code == f.Code
}

// sentinels for errors.Is
var (
	ErrConfig  = &Fault{Code: CONFIG}
	ErrIO      = &Fault{Code: IO}
	ErrCommand = &Fault{Code: COMMAND}
	ErrNetwork = &Fault{Code: NETWORK}
)

// NewFault creates a fault with the code, the failed operation and its cause
func NewFault(code int, op string, err error) error {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return &Fault{Code: code, Op: op, Err: err}
}

// ConfigError wraps a configuration failure
func ConfigError(op string, err error) error {
	return NewFault(CONFIG, op, err)
}

// IOError wraps a flag file or database file failure
func IOError(op string, err error) error {
	return NewFault(IO, op, err)
}

// CommandError reports a workload command whose arguments could not be used
func CommandError(op string, format string, args ...interface{}) error {
	return NewFault(COMMAND, op, fmt.Errorf(format, args...))
}

// NetworkError wraps a transport failure while talking to the order service
func NetworkError(op string, err error) error {
	return NewFault(NETWORK, op, err)
}

// CodeOf returns the fault code of err, or 0 if err is not a fault
func CodeOf(err error) int {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code
	}
	return 0
}
