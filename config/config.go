// Package config loads the replay configuration.
//
// JSON, INI and YAML files are accepted. Values may reference environment
// variables as %(ENV_NAME)s and the config file directory as %(here)s.
package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ochinchina/wlreplay/faults"
	log "github.com/sirupsen/logrus"
)

const (
	// OrderServiceSection names the entry holding the order service endpoint
	OrderServiceSection = "OrderService"
	// ReplaySection names the optional entry holding replay runtime settings
	ReplaySection = "replay"

	// DefaultFlagFile is the run-state marker path, relative to the working directory
	DefaultFlagFile = "restart_flag.txt"
)

// DefaultDBFiles lists the backing data files of the user, product and order services
var DefaultDBFiles = []string{
	"compiled/UserService/users.txt",
	"compiled/ProductService/products.txt",
	"compiled/OrderService/orders.txt",
}

// Entry is one section of the configuration file
type Entry struct {
	ConfigDir string
	Name      string
	keyValues map[string]string
	expr      *StringExpression
}

// NewEntry creates configuration entry
func NewEntry(configDir string, name string) *Entry {
	return &Entry{ConfigDir: configDir, Name: name, keyValues: make(map[string]string)}
}

// HasParameter checks if key has a value
func (e *Entry) HasParameter(key string) bool {
	_, ok := e.keyValues[key]
	return ok
}

// GetString returns the evaluated value of key, or defValue if the key is absent
func (e *Entry) GetString(key string, defValue string) (string, error) {
	s, ok := e.keyValues[key]
	if !ok {
		return defValue, nil
	}
	expr := e.expr
	if expr == nil {
		expr = NewStringExpression("here", e.ConfigDir)
	}
	r, err := expr.Eval(s)
	if err != nil {
		return "", fmt.Errorf("%s.%s: %v", e.Name, key, err)
	}
	return r, nil
}

// GetStringArray returns the evaluated value of key split by sep, with blank items dropped
func (e *Entry) GetStringArray(key string, sep string) ([]string, error) {
	s, err := e.GetString(key, "")
	if err != nil {
		return nil, err
	}
	result := make([]string, 0)
	for _, item := range strings.Split(s, sep) {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result, nil
}

// String dumps the entry as key=value lines
func (e *Entry) String() string {
	keys := make([]string, 0, len(e.keyValues))
	for k := range e.keyValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := bytes.NewBuffer(make([]byte, 0))
	for _, k := range keys {
		fmt.Fprintf(buf, "%s=%s\n", k, e.keyValues[k])
	}
	return buf.String()
}

// Replay holds the runtime paths and transport settings of a replay run
type Replay struct {
	FlagFile string
	DBFiles  []string
	Timeout  time.Duration
}

// Config memory representation of the replay configuration file
type Config struct {
	configFile string
	// mapping between the section name and configuration entry
	entries map[string]*Entry

	orderServiceURL string
	Replay          Replay
}

// NewConfig creates Config object
func NewConfig(configFile string) *Config {
	return &Config{
		configFile: configFile,
		entries:    make(map[string]*Entry),
		Replay: Replay{
			FlagFile: DefaultFlagFile,
			DBFiles:  append([]string(nil), DefaultDBFiles...),
		},
	}
}

// Load reads the configuration file at path and resolves the order service URL
func Load(path string) (*Config, error) {
	c := NewConfig(path)
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the configuration file. Every failure is a faults.ConfigError.
func (c *Config) Load() error {
	log.WithFields(log.Fields{"file": c.configFile}).Info("load configuration from file")

	if _, err := os.Stat(c.configFile); err != nil {
		return faults.ConfigError("load "+c.configFile, err)
	}
	reader := readerFor(c.configFile)
	sections, err := reader.Read(c.configFile)
	if err != nil {
		return faults.ConfigError("parse "+c.configFile, err)
	}
	for name, kv := range sections {
		entry := NewEntry(c.GetConfigFileDir(), name)
		for k, v := range kv {
			entry.keyValues[k] = strings.TrimSpace(v)
		}
		c.entries[name] = entry
	}

	expr, err := c.newExpression()
	if err != nil {
		return faults.ConfigError("env_files", err)
	}
	for _, entry := range c.entries {
		entry.expr = expr
	}

	if err := c.parseReplay(); err != nil {
		return faults.ConfigError("section "+ReplaySection, err)
	}

	overrides, err := loadEnvOverrides()
	if err != nil {
		return faults.ConfigError("environment", err)
	}
	c.applyOverrides(overrides)

	if c.orderServiceURL == "" {
		u, err := c.parseOrderService()
		if err != nil {
			return faults.ConfigError("section "+OrderServiceSection, err)
		}
		c.orderServiceURL = u
	}
	log.WithFields(log.Fields{"url": c.orderServiceURL}).Debug("order service endpoint resolved")
	return nil
}

// the expression evaluator shared by all entries, extended with the env_files of the replay section
func (c *Config) newExpression() (*StringExpression, error) {
	expr := NewStringExpression("here", c.GetConfigFileDir())
	entry, ok := c.entries[ReplaySection]
	if !ok || !entry.HasParameter("env_files") {
		return expr, nil
	}
	entry.expr = expr
	files, err := entry.GetStringArray("env_files", ",")
	if err != nil {
		return nil, err
	}
	for i, f := range files {
		if !filepath.IsAbs(f) {
			files[i] = filepath.Join(c.GetConfigFileDir(), f)
		}
	}
	envs, err := parseEnvFiles(files)
	if err != nil {
		return nil, err
	}
	return expr.AddEnv(envs), nil
}

func (c *Config) parseReplay() error {
	entry, ok := c.entries[ReplaySection]
	if !ok {
		return nil
	}
	flagFile, err := entry.GetString("flag_file", c.Replay.FlagFile)
	if err != nil {
		return err
	}
	c.Replay.FlagFile = flagFile

	if entry.HasParameter("db_files") {
		files, err := entry.GetStringArray("db_files", ",")
		if err != nil {
			return err
		}
		c.Replay.DBFiles = files
	}

	timeout, err := entry.GetString("timeout", "")
	if err != nil {
		return err
	}
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("timeout: %v", err)
		}
		c.Replay.Timeout = d
	}
	return nil
}

func (c *Config) parseOrderService() (string, error) {
	entry, ok := c.entries[OrderServiceSection]
	if !ok {
		return "", fmt.Errorf("missing %s entry", OrderServiceSection)
	}
	for _, key := range []string{"ip", "port"} {
		if !entry.HasParameter(key) {
			return "", fmt.Errorf("missing %s.%s", OrderServiceSection, key)
		}
	}
	ip, err := entry.GetString("ip", "")
	if err != nil {
		return "", err
	}
	port, err := entry.GetString("port", "")
	if err != nil {
		return "", err
	}
	if ip == "" {
		return "", fmt.Errorf("empty %s.ip", OrderServiceSection)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 0 || p > 65535 {
		return "", fmt.Errorf("invalid %s.port %q", OrderServiceSection, port)
	}
	return "http://" + net.JoinHostPort(ip, port), nil
}

// GetConfigFileDir returns directory of the configuration file
func (c *Config) GetConfigFileDir() string {
	return filepath.Dir(c.configFile)
}

// GetEntry returns the configuration entry with the given section name
func (c *Config) GetEntry(name string) (*Entry, bool) {
	entry, ok := c.entries[name]
	return entry, ok
}

// OrderServiceURL returns the base URL of the order service, "http://<ip>:<port>"
func (c *Config) OrderServiceURL() string {
	return c.orderServiceURL
}

// String converts configuration to the string
func (c *Config) String() string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	buf := bytes.NewBuffer(make([]byte, 0))
	for _, name := range names {
		fmt.Fprintf(buf, "[%s]\n", name)
		fmt.Fprintf(buf, "%s\n", c.entries[name].String())
	}
	return buf.String()
}
