package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/ochinchina/wlreplay/faults"
	log "github.com/sirupsen/logrus"
)

// Options are the flags shared by every command
type Options struct {
	Verbose bool `short:"v" long:"verbose" description:"show debug logs"`
}

func init() {
	log.SetOutput(os.Stderr)
	if runtime.GOOS == "windows" {
		log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	} else {
		log.SetFormatter(&log.TextFormatter{DisableColors: false, FullTimestamp: true})
	}
	log.SetLevel(log.InfoLevel)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.WithFields(log.Fields{"signal": sig}).Info("receive a signal to stop")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}

// exit status of a failed command
func exitCode(err error) int {
	switch faults.CodeOf(err) {
	case faults.CONFIG:
		return 2
	case faults.IO:
		return 3
	default:
		return 1
	}
}

var options Options
var parser = flags.NewParser(&options, flags.Default & ^flags.PrintErrors)

func main() {
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if options.Verbose {
			log.SetLevel(log.DebugLevel)
		}
		if command == nil {
			return nil
		}
		return command.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		flagsErr, ok := err.(*flags.Error)
		if ok {
			switch flagsErr.Type {
			case flags.ErrHelp:
				fmt.Fprintln(os.Stdout, err)
				os.Exit(0)
			case flags.ErrCommandRequired:
				parser.WriteHelp(os.Stderr)
				os.Exit(1)
			default:
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
		log.WithFields(log.Fields{log.ErrorKey: err}).Error("replay aborted")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
