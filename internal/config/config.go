// Package config loads knolstudy settings from flags, a YAML file and the
// environment.
package config

import (
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve without system zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore, so KNOLSTUDY_DB__DSN sets db.dsn.
const EnvPrefix = "KNOLSTUDY_"

// Config is the complete runtime configuration.
type Config struct {
	DB       DBConfig     `koanf:"db"`
	Server   ServerConfig `koanf:"server"`
	Timezone string       `koanf:"timezone" validate:"omitempty,timezone"`
	Study    StudyConfig  `koanf:"study"`
	Review   ReviewConfig `koanf:"review"`
	Import   ImportConfig `koanf:"import"`
	Log      LogConfig    `koanf:"log"`
}

// DBConfig selects the database.
type DBConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `koanf:"dsn" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// StudyConfig shapes the due sets of study sessions.
type StudyConfig struct {
	DefaultLimit   int  `koanf:"default_limit" validate:"gte=1"`
	MaxLimit       int  `koanf:"max_limit" validate:"gtefield=DefaultLimit"`
	NewCardDivisor int  `koanf:"new_card_divisor" validate:"gte=0"`
	BackfillNew    bool `koanf:"backfill_new"`
}

// ReviewConfig tunes review submission.
type ReviewConfig struct {
	MaxRetries int `koanf:"max_retries" validate:"gte=0,lte=20"`
}

// ImportConfig locates imported sources. LocalRoot bounds the directories
// the HTTP API may import; when empty it accepts git URLs only.
type ImportConfig struct {
	ReposDir  string `koanf:"repos_dir" validate:"required"`
	LocalRoot string `koanf:"local_root"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// flagKeys maps command-line flag names onto configuration keys.
// Flags missing here are command arguments, not settings.
var flagKeys = map[string]string{
	"db-driver":        "db.driver",
	"db-dsn":           "db.dsn",
	"addr":             "server.addr",
	"timezone":         "timezone",
	"default-limit":    "study.default_limit",
	"max-limit":        "study.max_limit",
	"new-card-divisor": "study.new_card_divisor",
	"backfill-new":     "study.backfill_new",
	"max-retries":      "review.max_retries",
	"repos-dir":        "import.repos_dir",
	"local-root":       "import.local_root",
	"log-level":        "log.level",
	"log-format":       "log.format",
}

// RegisterFlags defines the configuration flags and their defaults on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("db-driver", "sqlite", "database driver (sqlite or postgres)")
	fs.String("db-dsn", "knolstudy.db", "database DSN")
	fs.String("addr", ":8080", "HTTP listen address")
	fs.String("timezone", "", "IANA time zone defining calendar days (default: local)")
	fs.Int("default-limit", 20, "cards per session when none is requested")
	fs.Int("max-limit", 500, "largest session size accepted")
	fs.Int("new-card-divisor", 3, "new-card quota is limit divided by this")
	fs.Bool("backfill-new", false, "let new cards fill unused review slots")
	fs.Int("max-retries", 3, "retries of a review that lost a concurrent update")
	fs.String("repos-dir", "repos", "directory for cloned git sources")
	fs.String("local-root", "", "directory the HTTP API may import local sources from (default: none)")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text or json)")
}

// Load reads the configuration. Later sources win: flag defaults, the YAML
// file named by --config, KNOLSTUDY_ environment variables, then flags set
// on the command line.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", path)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	err = k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load flags")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// Location returns the zone defining calendar days, the process' local zone
// when none is configured.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load timezone %q", c.Timezone)
	}
	return loc, nil
}
