package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys. Each is also read from the environment as MCP_<KEY>.
const (
	cfgKeyMaxRows      = "max_rows"
	cfgKeyQueryTimeout = "query_timeout"
	cfgKeyTemplatePath = "template_path"
	cfgKeyAccessDriver = "access_driver"
	cfgKeyLogLevel     = "log_level"
	cfgKeySeqURL       = "seq_url"

	envPrefix = "MCP"
)

const (
	defaultMaxRows      = 10000
	defaultTemplatePath = "empty.mdb"
	defaultAccessDriver = "Microsoft Access Driver (*.mdb, *.accdb)"
	defaultLogLevel     = "info"
)

// Config holds the server settings. None of them are required; a missing
// config file and an empty environment yield the defaults.
type Config struct {
	// MaxRows caps the rows returned by a single query. Zero disables the cap.
	MaxRows int
	// QueryTimeout bounds each tool call when positive. Zero means the core
	// imposes no deadline of its own.
	QueryTimeout time.Duration
	// TemplatePath is the empty Access database copied by create.
	TemplatePath string
	// AccessDriver is the ODBC driver name used for modern Access files.
	AccessDriver string
	LogLevel     string
	SeqURL       string
}

// loadConfig reads settings with Viper. configFile may be empty, in which
// case only defaults and MCP_* environment variables apply.
func loadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyMaxRows, defaultMaxRows)
	v.SetDefault(cfgKeyQueryTimeout, time.Duration(0))
	v.SetDefault(cfgKeyTemplatePath, defaultTemplatePath)
	v.SetDefault(cfgKeyAccessDriver, defaultAccessDriver)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeySeqURL, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		MaxRows:      v.GetInt(cfgKeyMaxRows),
		QueryTimeout: v.GetDuration(cfgKeyQueryTimeout),
		TemplatePath: v.GetString(cfgKeyTemplatePath),
		AccessDriver: v.GetString(cfgKeyAccessDriver),
		LogLevel:     v.GetString(cfgKeyLogLevel),
		SeqURL:       v.GetString(cfgKeySeqURL),
	}
	if cfg.MaxRows < 0 {
		return nil, fmt.Errorf("invalid %s: %d", cfgKeyMaxRows, cfg.MaxRows)
	}
	if cfg.QueryTimeout < 0 {
		return nil, fmt.Errorf("invalid %s: %s", cfgKeyQueryTimeout, cfg.QueryTimeout)
	}
	return cfg, nil
}
