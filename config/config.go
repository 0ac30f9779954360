// Package config loads caret settings and assembles a parse engine from
// them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("caret.config")

// Config is the complete caret configuration.
type Config struct {
	// Root is the directory whose tree ordinary paths navigate.
	Root string `mapstructure:"root" json:"root"`
	// Hierarchy is an optional YAML, JSON or TOML file addressed by custom
	// hierarchy references.
	Hierarchy  string           `mapstructure:"hierarchy" json:"hierarchy"`
	Separator  string           `mapstructure:"separator" json:"separator"`
	Delimiters DelimitersConfig `mapstructure:"delimiters" json:"delimiters"`
	Cache      CacheConfig      `mapstructure:"cache" json:"cache"`
	Trace      TraceConfig      `mapstructure:"trace" json:"trace"`
	Log        LogConfig        `mapstructure:"log" json:"log"`
}

type DelimitersConfig struct {
	Begin     string `mapstructure:"begin" json:"begin"`
	Separator string `mapstructure:"separator" json:"separator"`
	End       string `mapstructure:"end" json:"end"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
}

type TraceConfig struct {
	Enabled   bool `mapstructure:"enabled" json:"enabled"`
	StopAfter int  `mapstructure:"stopAfter" json:"stopAfter"`
}

type LogConfig struct {
	Verbosity int    `mapstructure:"verbosity" json:"verbosity"`
	File      string `mapstructure:"file" json:"file"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Root:      ".",
		Separator: "/",
		Delimiters: DelimitersConfig{
			Begin:     "{",
			Separator: "#",
			End:       "}",
		},
		Cache: CacheConfig{TTL: 2 * time.Second},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("hierarchy", d.Hierarchy)
	v.SetDefault("separator", d.Separator)
	v.SetDefault("delimiters.begin", d.Delimiters.Begin)
	v.SetDefault("delimiters.separator", d.Delimiters.Separator)
	v.SetDefault("delimiters.end", d.Delimiters.End)
	v.SetDefault("cache.ttl", d.Cache.TTL.String())
	v.SetDefault("trace.enabled", d.Trace.Enabled)
	v.SetDefault("trace.stopAfter", d.Trace.StopAfter)
	v.SetDefault("log.verbosity", d.Log.Verbosity)
	v.SetDefault("log.file", d.Log.File)
}

// Load reads caret.{yaml,toml,json} from dir, or file when it is not
// empty, and applies CARET_* environment overrides. A missing caret file
// in dir is not an error.
func Load(dir, file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("caret")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("CARET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		log.Debugf("no caret config in %s, using defaults", dir)
	} else {
		log.Infof("loaded config from %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that every delimiter is a single, distinct rune and that
// durations and counts are not negative.
func (c *Config) Validate() error {
	if c.Root == "" {
		return &Error{Field: "root", Message: "must not be empty"}
	}

	seen := map[rune]string{}
	for _, f := range []struct{ field, value string }{
		{"separator", c.Separator},
		{"delimiters.begin", c.Delimiters.Begin},
		{"delimiters.separator", c.Delimiters.Separator},
		{"delimiters.end", c.Delimiters.End},
	} {
		if utf8.RuneCountInString(f.value) != 1 {
			return &Error{Field: f.field, Message: fmt.Sprintf("must be a single character, got %q", f.value)}
		}
		r, _ := utf8.DecodeRuneInString(f.value)
		if other, ok := seen[r]; ok {
			return &Error{Field: f.field, Message: fmt.Sprintf("%q is already used by %s", f.value, other)}
		}
		seen[r] = f.field
	}

	if c.Cache.TTL < 0 {
		return &Error{Field: "cache.ttl", Message: "must not be negative"}
	}
	if c.Trace.StopAfter < 0 {
		return &Error{Field: "trace.stopAfter", Message: "must not be negative"}
	}
	return nil
}

// Error is an invalid configuration value.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
