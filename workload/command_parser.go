package workload

import (
	"strings"
)

// Service names accepted as the first token of a command line
const (
	User    = "USER"
	Product = "PRODUCT"
	Order   = "ORDER"
)

var services = map[string]bool{User: true, Product: true, Order: true}

// Cmd is one tokenized service command
type Cmd struct {
	Service string
	Action  string
	Args    []string
}

func (c Cmd) String() string {
	s := c.Service
	if c.Action != "" {
		s += " " + c.Action
	}
	if len(c.Args) > 0 {
		s += " " + strings.Join(c.Args, " ")
	}
	return s
}

// Tokenize splits line on whitespace. The service is upper-cased and the
// action lower-cased; the remaining tokens are kept raw. The second result
// is false for an empty line or an unknown service.
func Tokenize(line string) (Cmd, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Cmd{}, false
	}
	service := strings.ToUpper(tokens[0])
	if !services[service] {
		return Cmd{}, false
	}
	cmd := Cmd{Service: service, Args: make([]string, 0)}
	if len(tokens) > 1 {
		cmd.Action = strings.ToLower(tokens[1])
		cmd.Args = append(cmd.Args, tokens[2:]...)
	}
	return cmd, true
}
