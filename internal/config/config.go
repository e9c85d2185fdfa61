/*
Copyright 2025 The enrollment-planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/scholarship-analytics/enrollment-planner/internal/capacity"
	"github.com/scholarship-analytics/enrollment-planner/internal/logging"
)

const (
	// EnvPrefix prefixes every environment override, e.g. PLANNER_DATA_HISTORYPATH.
	EnvPrefix = "PLANNER"

	// DefaultConfigName is the config file searched for when none is given.
	DefaultConfigName = "planner"

	// DefaultConfigDir is searched after the working directory.
	DefaultConfigDir = "/etc/enrollment-planner"
)

// Config keys.
const (
	KeyHistoryPath           = "data.historyPath"
	KeyModelPath             = "data.modelPath"
	KeyServerAddress         = "server.address"
	KeyServerReadTimeout     = "server.readTimeout"
	KeyServerWriteTimeout    = "server.writeTimeout"
	KeyServerShutdownTimeout = "server.shutdownTimeout"
	KeyCapacityRounding      = "capacity.rounding"
	KeyCapacityProfiles      = "capacity.profiles"
	KeyLogLevel              = "log.level"
	KeyLogDevelopment        = "log.development"
)

// Config is the complete planner configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Server   ServerConfig   `mapstructure:"server"`
	Capacity CapacityConfig `mapstructure:"capacity"`
	Log      LogConfig      `mapstructure:"log"`
}

// DataConfig locates the two static inputs.
type DataConfig struct {
	// HistoryPath is the monthly enrollment history CSV.
	HistoryPath string `mapstructure:"historyPath"`
	// ModelPath is the model artifact (.yaml linear or .json tree dump).
	ModelPath string `mapstructure:"modelPath"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// CapacityConfig configures the tutor calculator.
type CapacityConfig struct {
	// Rounding is the global tutor rounding policy: "ceiling" or "legacy".
	Rounding string `mapstructure:"rounding"`
	// Profiles holds YAML capacity profile entries keyed by name.
	Profiles map[string]string `mapstructure:"profiles"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// NewViper returns a viper instance with defaults, environment binding and the
// config search path applied. When configFile is empty, "planner.yaml" is
// looked up in the working directory and DefaultConfigDir.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigDir)
	}
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHistoryPath, "data/enrollment_history.csv")
	v.SetDefault(KeyModelPath, "data/enrollment_model.yaml")
	v.SetDefault(KeyServerAddress, ":8080")
	v.SetDefault(KeyServerReadTimeout, 10*time.Second)
	v.SetDefault(KeyServerWriteTimeout, 30*time.Second)
	v.SetDefault(KeyServerShutdownTimeout, 15*time.Second)
	v.SetDefault(KeyCapacityRounding, capacity.RoundingCeiling.String())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogDevelopment, false)
}

// Load reads the config file (if any) and returns the validated configuration.
// A missing file is not an error unless it was named explicitly.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field and returns all problems at once.
func (c *Config) Validate() error {
	var errs field.ErrorList

	data := field.NewPath("data")
	if strings.TrimSpace(c.Data.HistoryPath) == "" {
		errs = append(errs, field.Required(data.Child("historyPath"), "path to the history CSV"))
	}
	if strings.TrimSpace(c.Data.ModelPath) == "" {
		errs = append(errs, field.Required(data.Child("modelPath"), "path to the model artifact"))
	}

	server := field.NewPath("server")
	if strings.TrimSpace(c.Server.Address) == "" {
		errs = append(errs, field.Required(server.Child("address"), ""))
	}
	for name, d := range map[string]time.Duration{
		"readTimeout":     c.Server.ReadTimeout,
		"writeTimeout":    c.Server.WriteTimeout,
		"shutdownTimeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, field.Invalid(server.Child(name), d.String(), "must be a positive duration"))
		}
	}

	capPath := field.NewPath("capacity")
	if _, err := capacity.ParseRounding(c.Capacity.Rounding); err != nil {
		errs = append(errs, field.NotSupported(capPath.Child("rounding"), c.Capacity.Rounding, roundingNames))
	}
	errs = append(errs, validateProfileEntries(capPath.Child("profiles"), c.Capacity.Profiles)...)

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, field.Invalid(field.NewPath("log", "level"), c.Log.Level, err.Error()))
	}

	// Map iteration above is unordered; keep messages stable.
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs.ToAggregate()
}

func validateProfileEntries(path *field.Path, entries map[string]string) field.ErrorList {
	var errs field.ErrorList
	base := BuiltinCapacityProfile()
	if text, ok := entries[GlobalDefaultsKey]; ok {
		profile, err := parseProfileEntry(GlobalDefaultsKey, text, base)
		if err != nil {
			return append(errs, field.Invalid(path.Key(GlobalDefaultsKey), text, err.Error()))
		}
		base = base.merge(profile)
	}
	for key, text := range entries {
		if key == GlobalDefaultsKey {
			continue
		}
		if _, err := parseProfileEntry(key, text, base); err != nil {
			errs = append(errs, field.Invalid(path.Key(key), text, err.Error()))
		}
	}
	return errs
}

// RoundingPolicy returns the parsed global rounding policy.
func (c *Config) RoundingPolicy() capacity.Rounding {
	r, err := capacity.ParseRounding(c.Capacity.Rounding)
	if err != nil {
		return capacity.RoundingCeiling
	}
	return r
}

// CapacityProfiles parses the configured profile entries.
func (c *Config) CapacityProfiles() CapacityProfiles {
	return ParseCapacityProfiles(c.Capacity.Profiles)
}

// LogOptions maps the log section onto logger options.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Development: c.Log.Development}
}
