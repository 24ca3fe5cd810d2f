// Package replay drives a workload file against the order service.
//
// Before the first command is sent the driver decides, from the restart
// flag and the first real line of the workload, whether the database files
// are wiped:
//
//	flag absent,  first line != "restart"  -> reset databases, create flag
//	flag absent,  first line == "restart"  -> keep databases, create flag
//	flag present                           -> keep databases
//
// A "shutdown" line removes the flag and replay goes on with the next line.
// A "restart" line only prints a notice.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ochinchina/wlreplay/dispatch"
	"github.com/ochinchina/wlreplay/runstate"
	"github.com/ochinchina/wlreplay/workload"
	log "github.com/sirupsen/logrus"
)

// Resetter wipes the backing data files
type Resetter interface {
	Reset() error
}

// Dispatcher sends one command to the order service
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd workload.Cmd) dispatch.Result
	Plan(cmd workload.Cmd) (dispatch.Request, bool, error)
}

// Observer is notified of everything the driver does
type Observer interface {
	CommandDone(result dispatch.Result)
	ResetDone()
	FlagChanged(present bool)
}

// Decision is the outcome of the reset policy
type Decision struct {
	FlagPresent bool
	IsRestart   bool
	Reset       bool
	CreateFlag  bool
}

// Decide applies the reset policy to a workload and the current flag state
func Decide(lines []workload.Line, flagPresent bool) Decision {
	first, ok := workload.FirstReal(lines)
	isRestart := ok && first.Text == "restart"
	return Decision{
		FlagPresent: flagPresent,
		IsRestart:   isRestart,
		Reset:       !flagPresent && !isRestart,
		CreateFlag:  !flagPresent,
	}
}

// Summary tallies one replay run
type Summary struct {
	Dispatched  int
	Succeeded   int
	Failed      int
	Skipped     int
	Reset       bool
	FlagPresent bool
}

func (s Summary) String() string {
	return fmt.Sprintf("dispatched=%d succeeded=%d failed=%d skipped=%d reset=%v flag=%v",
		s.Dispatched, s.Succeeded, s.Failed, s.Skipped, s.Reset, s.FlagPresent)
}

// Driver replays workload lines one at a time
type Driver struct {
	flag       runstate.Store
	resetter   Resetter
	dispatcher Dispatcher
	out        io.Writer
	observers  []Observer
	dryRun     bool
}

// NewDriver creates a Driver. Notices and results are written to out.
func NewDriver(flag runstate.Store, resetter Resetter, dispatcher Dispatcher, out io.Writer) *Driver {
	return &Driver{flag: flag, resetter: resetter, dispatcher: dispatcher, out: out}
}

// AddObserver registers an observer
func (d *Driver) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

// SetDryRun makes Run print the planned requests instead of sending them.
// A dry run never touches the flag or the database files.
func (d *Driver) SetDryRun(dryRun bool) {
	d.dryRun = dryRun
}

func (d *Driver) println(args ...interface{}) {
	fmt.Fprintln(d.out, args...)
}

// Run evaluates the reset policy once then replays every line in order.
// Flag and database failures abort the run; command failures do not.
func (d *Driver) Run(ctx context.Context, lines []workload.Line) (Summary, error) {
	summary := Summary{}

	present, err := d.flag.Exists()
	if err != nil {
		return summary, err
	}
	flag := d.flag
	if d.dryRun {
		flag = runstate.NewMemStore(present)
	}

	decision := Decide(lines, present)
	log.WithFields(log.Fields{
		"flag":    decision.FlagPresent,
		"restart": decision.IsRestart,
		"reset":   decision.Reset,
	}).Info("reset policy evaluated")

	if decision.Reset {
		d.println("No restart flag found and first command is not restart. Deleting all database files...")
		if !d.dryRun {
			if err := d.resetter.Reset(); err != nil {
				return summary, err
			}
		}
		summary.Reset = true
		d.each(func(o Observer) { o.ResetDone() })
	}
	if decision.CreateFlag {
		if err := flag.Create(); err != nil {
			return summary, err
		}
		d.println("Created restart flag file")
		d.each(func(o Observer) { o.FlagChanged(true) })
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		switch line.Kind {
		case workload.Blank, workload.Comment:
			continue
		case workload.Shutdown:
			d.println("Shutdown command detected")
			exists, err := flag.Exists()
			if err != nil {
				return summary, err
			}
			if exists {
				if err := flag.Delete(); err != nil {
					return summary, err
				}
				d.println("Removed restart flag file due to shutdown")
				d.each(func(o Observer) { o.FlagChanged(false) })
			}
		case workload.Restart:
			d.println("Restart command detected, keeping existing database")
		default:
			d.command(ctx, line, &summary)
		}
	}

	summary.FlagPresent, err = flag.Exists()
	return summary, err
}

func (d *Driver) command(ctx context.Context, line workload.Line, summary *Summary) {
	cmd, ok := workload.Tokenize(line.Text)
	if !ok {
		log.WithFields(log.Fields{"line": line.Num}).Debug("unknown service, line ignored")
		summary.Skipped++
		return
	}

	if d.dryRun {
		d.plan(line, cmd, summary)
		return
	}

	result := d.dispatcher.Dispatch(ctx, cmd)
	switch result.Kind {
	case dispatch.Skipped:
		summary.Skipped++
		return
	case dispatch.Success:
		summary.Succeeded++
	default:
		summary.Failed++
	}
	summary.Dispatched++
	d.println(result.Message())
	d.each(func(o Observer) { o.CommandDone(result) })
}

func (d *Driver) plan(line workload.Line, cmd workload.Cmd, summary *Summary) {
	req, ok, err := d.dispatcher.Plan(cmd)
	switch {
	case !ok:
		summary.Skipped++
	case err != nil:
		summary.Failed++
		d.println(fmt.Sprintf("line %d: %v", line.Num, err))
	default:
		summary.Dispatched++
		if req.Payload == nil {
			d.println(fmt.Sprintf("line %d: %s %s", line.Num, req.Method, req.Path))
			return
		}
		b, _ := json.Marshal(req.Payload)
		d.println(fmt.Sprintf("line %d: %s %s %s", line.Num, req.Method, req.Path, b))
	}
}

func (d *Driver) each(f func(o Observer)) {
	for _, o := range d.observers {
		f(o)
	}
}
