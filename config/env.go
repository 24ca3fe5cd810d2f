package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-envparse"
	log "github.com/sirupsen/logrus"
)

// envOverrides are applied after the configuration file is parsed
type envOverrides struct {
	OrderServiceURL string        `env:"WLREPLAY_ORDER_SERVICE_URL"`
	FlagFile        string        `env:"WLREPLAY_FLAG_FILE"`
	DBFiles         []string      `env:"WLREPLAY_DB_FILES" envSeparator:","`
	Timeout         time.Duration `env:"WLREPLAY_TIMEOUT"`
}

func loadEnvOverrides() (envOverrides, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

func (c *Config) applyOverrides(o envOverrides) {
	if o.OrderServiceURL != "" {
		log.WithFields(log.Fields{"url": o.OrderServiceURL}).Info("order service url overridden by environment")
		c.orderServiceURL = o.OrderServiceURL
	}
	if o.FlagFile != "" {
		c.Replay.FlagFile = o.FlagFile
	}
	if len(o.DBFiles) > 0 {
		c.Replay.DBFiles = o.DBFiles
	}
	if o.Timeout > 0 {
		c.Replay.Timeout = o.Timeout
	}
}

// parseEnvFiles merges the variables of the env files, later files win
//
//	env_files = global.env,local.env
func parseEnvFiles(files []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, envFilePath := range files {
		f, err := os.Open(envFilePath)
		if err != nil {
			return nil, err
		}
		r, err := envparse.Parse(f)
		f.Close()
		if err != nil {
			log.WithFields(log.Fields{
				log.ErrorKey: err,
				"file":       envFilePath,
			}).Error("Parse env file failed: " + envFilePath)
			return nil, err
		}
		for k, v := range r {
			result[k] = v
		}
	}
	return result, nil
}
