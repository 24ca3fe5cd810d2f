// Package dispatch turns tokenized workload commands into order service requests.
package dispatch

import (
	"context"

	"github.com/ochinchina/wlreplay/workload"
	log "github.com/sirupsen/logrus"
)

// Dispatcher sends each routed command to the order service exactly once
type Dispatcher struct {
	registry *Registry
	client   *Client
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(registry *Registry, client *Client) *Dispatcher {
	return &Dispatcher{registry: registry, client: client}
}

// Plan builds the request of cmd without sending it. The second result is
// false if no route matches.
func (d *Dispatcher) Plan(cmd workload.Cmd) (Request, bool, error) {
	route, ok := d.registry.Lookup(cmd.Service, cmd.Action)
	if !ok {
		return Request{}, false, nil
	}
	req, err := route.Build(cmd.Args)
	return req, true, err
}

// Dispatch builds and sends the request of cmd. Commands without a route
// are Skipped; every other problem becomes a Failure result.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd workload.Cmd) Result {
	route, ok := d.registry.Lookup(cmd.Service, cmd.Action)
	if !ok {
		log.WithFields(log.Fields{"service": cmd.Service, "action": cmd.Action}).Debug("no route for command, skipped")
		return Result{Kind: Skipped, Cmd: cmd}
	}

	result := Result{Cmd: cmd, failureBody: route.FailureBody}
	req, err := route.Build(cmd.Args)
	if err != nil {
		result.Kind = Failure
		result.Err = err
		return result
	}
	result.Request = &req

	status, body, err := d.client.Do(ctx, req)
	result.Status = status
	result.Body = string(body)
	if err != nil {
		result.Kind = Failure
		result.Err = err
		log.WithFields(log.Fields{log.ErrorKey: err, "command": cmd.String()}).Warn("request to order service failed")
		return result
	}
	result.Kind = successOrFailure(status)
	log.WithFields(log.Fields{"command": cmd.String(), "status": status}).Debug("command dispatched")
	return result
}
