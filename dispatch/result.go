package dispatch

import (
	"net/http"

	"github.com/ochinchina/wlreplay/workload"
)

// Kind tags the outcome of one command
type Kind int

const (
	// Skipped commands matched no route and sent nothing
	Skipped Kind = iota
	// Success means the service answered 200
	Success
	// Failure covers non-200 answers, unusable arguments and transport errors
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "skipped"
	}
}

// Result is the outcome of dispatching one command
type Result struct {
	Kind    Kind
	Cmd     workload.Cmd
	Request *Request
	// Status is the HTTP status code, 0 if no response was received
	Status int
	Body   string
	Err    error
	// failureBody replaces Err in the report when set
	failureBody string
}

func successOrFailure(status int) Kind {
	if status == http.StatusOK {
		return Success
	}
	return Failure
}

// Message is the user facing report line, empty for skipped commands
func (r Result) Message() string {
	switch r.Kind {
	case Success:
		return "Successful: " + r.Body
	case Failure:
		if r.Err != nil {
			if r.failureBody != "" {
				return "Failed: " + r.failureBody
			}
			return "Failed: " + r.Err.Error()
		}
		return "Failed: " + r.Body
	default:
		return ""
	}
}
