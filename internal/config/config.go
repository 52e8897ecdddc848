// Package config loads and validates the tracker's startup configuration
// from flags, environment, and (optionally) a config file, in the layered
// viper idiom.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	liberr "github.com/sabouaram/p2ptracker/errors"
)

// Config is the full set of values cmd/trackerd needs to build a
// tracker.Server. Daemon/Lock are carried only as the out-of-scope seam
// named in spec.md §6; the core never reads them.
type Config struct {
	Port    int    `mapstructure:"port" json:"port" yaml:"port" toml:"port" validate:"min=0,max=65535"`
	Queue   int    `mapstructure:"queue" json:"queue" yaml:"queue" toml:"queue" validate:"min=1"`
	Threads int    `mapstructure:"threads" json:"threads" yaml:"threads" toml:"threads" validate:"min=1"`
	Daemon  bool   `mapstructure:"daemon" json:"daemon" yaml:"daemon" toml:"daemon"`
	Lock    string `mapstructure:"lock" json:"lock" yaml:"lock" toml:"lock"`
	Name    string `mapstructure:"name" json:"name" yaml:"name" toml:"name" validate:"required"`
}

// Default mirrors the flag defaults named in spec.md §6: port 6600, queue
// 32, threads 64.
func Default() Config {
	return Config{
		Port:    6600,
		Queue:   32,
		Threads: 64,
		Name:    "tracker",
	}
}

// Load layers environment variables (TRACKER_*) and an optional config
// file over the given defaults, the way the teacher's components load
// through viper before constructing their own typed config struct.
func Load(defaults Config, configFile string) (Config, liberr.Error) {
	v := viper.New()
	v.SetEnvPrefix("tracker")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", defaults.Port)
	v.SetDefault("queue", defaults.Queue)
	v.SetDefault("threads", defaults.Threads)
	v.SetDefault("daemon", defaults.Daemon)
	v.SetDefault("lock", defaults.Lock)
	v.SetDefault("name", defaults.Name)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, ErrorLoad.Error(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, ErrorLoad.Error(err)
	}

	return cfg, nil
}

// Validate checks struct tag constraints, in the validator.v10 idiom used
// throughout the pack's own config types.
func (c Config) Validate() liberr.Error {
	val := validator.New()
	err := val.Struct(c)
	if err == nil {
		return nil
	}

	if _, ok := err.(*validator.InvalidValidationError); ok {
		return ErrorValidate.Error(err)
	}

	out := ErrorValidate.Error(nil)

	for _, e := range err.(validator.ValidationErrors) {
		out.Add(fieldError{field: e.Field(), tag: e.ActualTag()})
	}

	if out.HasParent() {
		return out
	}

	return nil
}

// fieldError renders one failed validator.v10 constraint as a plain error,
// since liberr.Error.Add only accepts the stdlib error interface.
type fieldError struct {
	field string
	tag   string
}

func (f fieldError) Error() string {
	return "config field '" + f.field + "' is not validated by constraint '" + f.tag + "'"
}
