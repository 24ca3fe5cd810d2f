package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/ochinchina/wlreplay/config"
	"github.com/ochinchina/wlreplay/database"
	"github.com/ochinchina/wlreplay/dispatch"
	"github.com/ochinchina/wlreplay/faults"
	"github.com/ochinchina/wlreplay/journal"
	"github.com/ochinchina/wlreplay/metrics"
	"github.com/ochinchina/wlreplay/replay"
	"github.com/ochinchina/wlreplay/runstate"
	"github.com/ochinchina/wlreplay/workload"
	log "github.com/sirupsen/logrus"
)

// RunCommand replays a workload file against the order service
type RunCommand struct {
	DryRun      bool   `long:"dry-run" description:"print the planned requests, send nothing and leave the flag and database files untouched"`
	MetricsFile string `long:"metrics-file" description:"write replay metrics in the prometheus text format to this file"`
	Journal     string `long:"journal" description:"record every command and its outcome in this SQLite database"`
}

// CheckCommand prints the reset decision and the planned requests of a workload
type CheckCommand struct {
}

var runCommand RunCommand
var checkCommand CheckCommand

const runUsage = "run <config_file> <workload_file>"
const checkUsage = "check <config_file> <workload_file>"

// checkArgs verifies the exact number of positional arguments
func checkArgs(args []string, numArgs int, usage string) error {
	if len(args) != numArgs {
		return &flags.Error{Type: flags.ErrRequired, Message: fmt.Sprintf("Invalid arguments.\nUsage: wlreplay %v", usage)}
	}
	return nil
}

func (rc *RunCommand) Execute(args []string) error {
	if err := checkArgs(args, 2, runUsage); err != nil {
		return err
	}
	return rc.replay(args[0], args[1], os.Stdout)
}

func (cc *CheckCommand) Execute(args []string) error {
	if err := checkArgs(args, 2, checkUsage); err != nil {
		return err
	}
	rc := RunCommand{DryRun: true}
	return rc.replay(args[0], args[1], os.Stdout)
}

func (rc *RunCommand) replay(configFile string, workloadFile string, out io.Writer) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	lines, err := workload.ReadFile(workloadFile)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := log.WithFields(log.Fields{"run": runID, "workload": workloadFile})
	logger.WithFields(log.Fields{"url": cfg.OrderServiceURL(), "lines": len(lines)}).Info("start replay")

	client := dispatch.NewClient(cfg.OrderServiceURL())
	client.SetTimeout(cfg.Replay.Timeout)
	driver := replay.NewDriver(
		runstate.NewFileStore(cfg.Replay.FlagFile),
		database.NewResetter(cfg.Replay.DBFiles, out),
		dispatch.NewDispatcher(dispatch.NewOrderServiceRegistry(), client),
		out)
	driver.SetDryRun(rc.DryRun)

	recorder := metrics.NewRecorder()
	driver.AddObserver(recorder)
	if rc.Journal != "" && !rc.DryRun {
		j, err := journal.Open(rc.Journal, runID)
		if err != nil {
			return faults.IOError("open journal", err)
		}
		defer j.Close()
		driver.AddObserver(j)
	}

	ctx, cancel := signalContext()
	defer cancel()
	summary, err := driver.Run(ctx, lines)

	if rc.MetricsFile != "" {
		if werr := recorder.WriteTextfile(rc.MetricsFile); werr != nil {
			logger.WithFields(log.Fields{log.ErrorKey: werr, "file": rc.MetricsFile}).Warn("fail to write metrics")
		}
	}
	if err != nil {
		return err
	}
	logger.WithFields(log.Fields{
		"dispatched": summary.Dispatched,
		"succeeded":  summary.Succeeded,
		"failed":     summary.Failed,
		"skipped":    summary.Skipped,
		"reset":      summary.Reset,
		"flag":       summary.FlagPresent,
	}).Info("replay finished")
	if rc.DryRun {
		fmt.Fprintf(out, "Plan: %s\n", summary)
	}
	return nil
}

func init() {
	parser.AddCommand("run",
		"replay a workload",
		"Replay the commands of a workload file against the order service. Usage: "+runUsage,
		&runCommand)
	parser.AddCommand("check",
		"show what a replay would do",
		"Evaluate the reset policy and print the requests a replay would send, without side effects. Usage: "+checkUsage,
		&checkCommand)
}
