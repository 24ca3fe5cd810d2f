package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Version is the wlreplay release, overridden at link time with -X main.Version
var Version = "v0.3"

// VersionCommand prints the release and the Go runtime it was built with
type VersionCommand struct {
	Short bool `short:"s" long:"short" description:"print the release only"`
}

var versionCommand VersionCommand

func (vc *VersionCommand) Execute(args []string) error {
	return vc.print(os.Stdout)
}

func (vc *VersionCommand) print(out io.Writer) error {
	if vc.Short {
		_, err := fmt.Fprintln(out, Version)
		return err
	}
	_, err := fmt.Fprintf(out, "wlreplay %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return err
}

func init() {
	parser.AddCommand("version",
		"show the version of wlreplay",
		"display the wlreplay version",
		&versionCommand)
}
