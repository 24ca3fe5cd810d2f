// Package metrics exposes replay statistics as prometheus metrics.
package metrics

import (
	"sort"
	"strconv"
	"sync"

	"github.com/ochinchina/wlreplay/dispatch"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "wlreplay"
	subsystem = "replay"
)

type commandKey struct {
	service string
	action  string
	outcome string
}

// Recorder accumulates replay statistics
type Recorder struct {
	sync.Mutex
	commands    map[commandKey]float64
	statuses    map[int]float64
	resets      float64
	flagPresent bool
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{commands: make(map[commandKey]float64), statuses: make(map[int]float64)}
}

// CommandDone counts the outcome of one dispatched command
func (r *Recorder) CommandDone(result dispatch.Result) {
	r.Lock()
	defer r.Unlock()
	r.commands[commandKey{result.Cmd.Service, result.Cmd.Action, result.Kind.String()}]++
	if result.Status != 0 {
		r.statuses[result.Status]++
	}
}

// ResetDone counts a database reset
func (r *Recorder) ResetDone() {
	r.Lock()
	defer r.Unlock()
	r.resets++
}

// FlagChanged records the current run-state flag
func (r *Recorder) FlagChanged(present bool) {
	r.Lock()
	defer r.Unlock()
	r.flagPresent = present
}

type replayCollector struct {
	commandsDesc *prometheus.Desc
	statusDesc   *prometheus.Desc
	resetsDesc   *prometheus.Desc
	flagDesc     *prometheus.Desc
	rec          *Recorder
}

// NewCollector returns a Collector exposing the statistics of rec
func NewCollector(rec *Recorder) prometheus.Collector {
	return &replayCollector{
		commandsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "commands_total"),
			"Workload commands by service, action and outcome",
			[]string{"service", "action", "outcome"},
			nil,
		),
		statusDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "responses_total"),
			"Order service responses by HTTP status code",
			[]string{"code"},
			nil,
		),
		resetsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "database_resets_total"),
			"Database resets performed",
			nil,
			nil,
		),
		flagDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "restart_flag"),
			"Whether the restart flag is present",
			nil,
			nil,
		),
		rec: rec,
	}
}

// Describe generates prometheus metric description
func (c *replayCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.commandsDesc
	ch <- c.statusDesc
	ch <- c.resetsDesc
	ch <- c.flagDesc
}

// Collect gathers the recorded replay statistics
func (c *replayCollector) Collect(ch chan<- prometheus.Metric) {
	c.rec.Lock()
	defer c.rec.Unlock()

	keys := make([]commandKey, 0, len(c.rec.commands))
	for k := range c.rec.commands {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].service+keys[i].action+keys[i].outcome < keys[j].service+keys[j].action+keys[j].outcome
	})
	for _, k := range keys {
		ch <- prometheus.MustNewConstMetric(c.commandsDesc, prometheus.CounterValue, c.rec.commands[k], k.service, k.action, k.outcome)
	}
	for code, n := range c.rec.statuses {
		ch <- prometheus.MustNewConstMetric(c.statusDesc, prometheus.CounterValue, n, strconv.Itoa(code))
	}
	ch <- prometheus.MustNewConstMetric(c.resetsDesc, prometheus.CounterValue, c.rec.resets)

	flag := 0.0
	if c.rec.flagPresent {
		flag = 1
	}
	ch <- prometheus.MustNewConstMetric(c.flagDesc, prometheus.GaugeValue, flag)
}

// Registry returns a registry holding the collector of rec
func (r *Recorder) Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(r))
	return reg
}

// WriteTextfile writes the statistics in the text exposition format, for the
// node exporter textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry())
}
