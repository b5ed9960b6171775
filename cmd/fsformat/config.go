package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/weberc2/fsformat/pkg/logger"
	"github.com/weberc2/fsformat/pkg/store"
	. "github.com/weberc2/fsformat/pkg/types"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "FSFORMAT"
	appName      = "fsformat"
)

type Config struct {
	Blocks    Block    `envconfig:"BLOCKS"     yaml:"blocks"`
	LogLevel  string   `envconfig:"LOG_LEVEL"  yaml:"logLevel"`
	LogFormat string   `envconfig:"LOG_FORMAT" yaml:"logFormat"`
	S3        S3Config `envconfig:"S3"         yaml:"s3"`
}

// S3Config configures publishing. Publishing is off unless `Bucket` is set.
type S3Config struct {
	Bucket string `envconfig:"BUCKET" yaml:"bucket"`
	Prefix string `envconfig:"PREFIX" yaml:"prefix"`
	Region string `envconfig:"REGION" yaml:"region"`
	Gzip   bool   `envconfig:"GZIP"   yaml:"gzip"`
}

func DefaultConfig() Config {
	return Config{
		Blocks:    DefaultCapacity,
		LogLevel:  "info",
		LogFormat: logger.FormatText,
	}
}

// LoadConfig layers the YAML file at `configFile` (or `FSFORMAT_CONFIG_FILE`
// when `configFile` is empty) and then the environment over the defaults. A
// missing file is only an error when one was named.
func LoadConfig(configFile string) (*Config, error) {
	c := DefaultConfig()

	if configFile == "" {
		configFile = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	if y, e, problem := func() (string, string, string) {
		if c.Blocks > store.MaxCapacity {
			return "blocks", "BLOCKS", fmt.Sprintf(
				"`%d` exceeds the maximum of `%d`",
				c.Blocks,
				store.MaxCapacity,
			)
		}
		if c.Blocks <= BlockBitmapStart+store.BitmapBlocks(c.Blocks) {
			return "blocks", "BLOCKS", fmt.Sprintf(
				"`%d` leaves no room past the bitmap",
				c.Blocks,
			)
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return "logLevel", "LOG_LEVEL", fmt.Sprintf(
				"unknown level `%s`",
				c.LogLevel,
			)
		}
		if c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON {
			return "logFormat", "LOG_FORMAT", fmt.Sprintf(
				"wanted `%s` or `%s`; found `%s`",
				logger.FormatText,
				logger.FormatJSON,
				c.LogFormat,
			)
		}
		if c.S3.Bucket == "" && (c.S3.Prefix != "" || c.S3.Region != "") {
			return "s3.bucket", "S3_BUCKET", "required when an s3 prefix " +
				"or region is set"
		}
		return "", "", ""
	}(); y != "" {
		return fmt.Errorf(
			"invalid configuration: %s / %s_%s: %s",
			y,
			envVarPrefix,
			e,
			problem,
		)
	}
	return nil
}
