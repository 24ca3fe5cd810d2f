// Package workload reads replay workload files and tokenizes their commands.
package workload

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/ochinchina/wlreplay/faults"
)

// LineKind classifies one workload line
type LineKind int

const (
	Blank LineKind = iota
	Comment
	Restart
	Shutdown
	Command
)

func (k LineKind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Restart:
		return "restart"
	case Shutdown:
		return "shutdown"
	default:
		return "command"
	}
}

// Line is one trimmed line of a workload file
type Line struct {
	Num  int
	Text string
	Kind LineKind
}

// IsReal reports whether the line is neither blank nor a comment
func (l Line) IsReal() bool {
	return l.Kind != Blank && l.Kind != Comment
}

// Classify returns the kind of an already trimmed line. Control commands
// match exactly, so "Restart" is a (dropped) service command.
func Classify(text string) LineKind {
	switch {
	case text == "":
		return Blank
	case strings.HasPrefix(text, "#"), strings.HasPrefix(text, "//"):
		return Comment
	case text == "restart":
		return Restart
	case text == "shutdown":
		return Shutdown
	default:
		return Command
	}
}

// Parse reads every line of r, trimmed and classified
func Parse(r io.Reader) ([]Line, error) {
	lines := make([]Line, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		lines = append(lines, Line{Num: n, Text: text, Kind: Classify(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ReadFile loads a workload file
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.IOError("open workload "+path, err)
	}
	defer f.Close()
	lines, err := Parse(f)
	if err != nil {
		return nil, faults.IOError("read workload "+path, err)
	}
	return lines, nil
}

// FirstReal returns the first line that is neither blank nor a comment
func FirstReal(lines []Line) (Line, bool) {
	for _, l := range lines {
		if l.IsReal() {
			return l, true
		}
	}
	return Line{}, false
}
