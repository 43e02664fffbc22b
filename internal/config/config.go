// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads trainstat settings from a YAML file and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// File is the name of the configuration file searched for by
// LoadConfig.
const File = "trainstat.yaml"

// EnvPrefix prefixes the environment variables that override the
// configuration file. TRAINSTAT_LOG_LEVEL sets log_level.
const EnvPrefix = "TRAINSTAT_"

var ErrFileNotFound = errors.New("file not found")

var validate = validator.New()

// Config holds the settings of the trainstat command.
type Config struct {
	// Format is the output format of the per-log table.
	Format string `koanf:"format" validate:"oneof=text csv"`

	// Sort is the order of the per-log table. See trainstat.ParseOrder.
	Sort string `koanf:"sort" validate:"oneof=name -name throughput -throughput progress -progress config -config"`

	// Workers is the number of logs read concurrently. 0 means one per
	// CPU.
	Workers int `koanf:"workers" validate:"gte=0"`

	// Grid selects grid-search mode, which only reads logs named
	// training_<T>t_<B>b.log.
	Grid bool `koanf:"grid"`

	// Pattern overrides the glob used to find logs in a directory.
	Pattern string `koanf:"pattern"`

	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Format:   "text",
		Sort:     "name",
		Grid:     true,
		LogLevel: "warn",
	}
}

// Level returns the zerolog level named by c.LogLevel.
func (c Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.WarnLevel
	}
	return l
}

// Validate checks the values of c.
func (c Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid configuration")
}

// Load returns the default configuration overridden by the YAML file
// at path, if path is not empty, and then by TRAINSTAT_* environment
// variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "loading %s", path)
		}
		log.Info().Str("file", path).Msg("loaded configuration from file")
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return Config{}, errors.Wrap(err, "loading environment")
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoding configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SearchUpwardsForFile looks for filename in dir and each of its
// parents and returns the first path found.
func SearchUpwardsForFile(dir, filename string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.Wrap(ErrFileNotFound, filename)
		}
		dir = parent
	}
}

// LoadDotEnv loads environment variables from the first file named
// fileName found above dir. It is not an error if there is none.
func LoadDotEnv(dir, fileName string) error {
	path, err := SearchUpwardsForFile(dir, fileName)
	if err != nil {
		log.Debug().Err(err).Msgf("no %s file", fileName)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "invalid env file %s", path)
	}
	log.Info().Msgf("loaded environment variables from %s", path)
	return nil
}

// LoadConfig is the main entry point for configuration loading. It
// loads envFile, then the configuration file at path. If path is
// empty, it searches upwards from dir for File and uses it if found.
func LoadConfig(dir, envFile, path string) (Config, error) {
	if envFile != "" {
		if err := LoadDotEnv(dir, envFile); err != nil {
			return Config{}, err
		}
	}
	if path == "" {
		found, err := SearchUpwardsForFile(dir, File)
		if err == nil {
			path = found
		}
	}
	return Load(path)
}
