// Package config loads settings from flags, environment variables and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/spajza/internal/db"
	"github.com/erazemk/spajza/internal/logging"
)

// EnvPrefix prefixes environment variables, e.g. SPAJZA_DB_DSN.
const EnvPrefix = "SPAJZA"

// Config holds all runtime settings.
type Config struct {
	DB struct {
		Driver       string        `mapstructure:"driver"`
		DSN          string        `mapstructure:"dsn"`
		MaxOpenConns int           `mapstructure:"max_open_conns"`
		SlowQuery    time.Duration `mapstructure:"slow_query"`
	} `mapstructure:"db"`
	Server struct {
		Addr            string        `mapstructure:"addr"`
		BasePath        string        `mapstructure:"base_path"`
		CORSOrigins     []string      `mapstructure:"cors_origins"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
		Color bool   `mapstructure:"color"`
	} `mapstructure:"log"`
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"metrics"`
	Seed bool `mapstructure:"seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", db.DriverSQLite)
	v.SetDefault("db.dsn", "spajza.sqlite3")
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.slow_query", 200*time.Millisecond)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.color", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("seed", true)
}

const usage = `Usage: spajza [flags]

Flags:
  -d, --db <dsn>          database path or DSN (default: spajza.sqlite3)
      --driver <name>     database driver: sqlite, postgres, mysql (default: sqlite)
  -a, --addr <host:port>  listen address (default: :8080)
  -l, --log <path>        log file path (default: no file, stdout/stderr only)
      --log-level <lvl>   debug, info, warn, error (default: info)
      --seed              insert starter items into an empty catalog (default: true)
      --config <path>     YAML config file (default: ./spajza.yaml or ./config/spajza.yaml)
  -h, --help              show this help and exit

Every setting can also be given as an environment variable, e.g. SPAJZA_DB_DSN.
`

// Load parses args and merges them with the environment, the config file and
// the defaults, in that order of precedence. It returns pflag.ErrHelp when
// help was requested.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("spajza", pflag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	fs.StringP("db", "d", "", "")
	fs.String("driver", "", "")
	fs.StringP("addr", "a", "", "")
	fs.StringP("log", "l", "", "")
	fs.String("log-level", "", "")
	fs.Bool("seed", true, "")
	configFile := fs.String("config", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	v := viper.New()
	setDefaults(v)

	for key, flag := range map[string]string{
		"db.dsn":      "db",
		"db.driver":   "driver",
		"server.addr": "addr",
		"log.file":    "log",
		"log.level":   "log-level",
		"seed":        "seed",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("binding flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("spajza")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	if _, err := db.LookupDialect(c.DB.Driver); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.DB.DSN == "" {
		return errors.New("invalid config: db.dsn is empty")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("invalid config: server.base_path %q must start with /", c.Server.BasePath)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("invalid config: metrics.path %q must start with /", c.Metrics.Path)
	}
	return nil
}
