package sqlsplit

import (
	"bytes"
	"io"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// Formats lists the output formats of Run.
var Formats = []string{"text", "json", "yaml", "pp"}

// Config is the YAML configuration shared by --config and --config-inline. Unset fields leave
// the value of an earlier config in place.
type Config struct {
	ChunkSize      *int    `yaml:"chunk_size"`
	Delimiter      *string `yaml:"delimiter"`
	BatchSeparator *bool   `yaml:"batch_separator"`
	Format         *string `yaml:"format"`
	Parallel       *int    `yaml:"parallel"`
}

func ParseConfig(configFile string) (Config, error) {
	if configFile == "" {
		return Config{}, nil
	}

	buf, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config '%s'", configFile)
	}
	config, err := parseConfig(buf)
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid config '%s'", configFile)
	}
	return config, nil
}

func ParseConfigString(yamlString string) (Config, error) {
	config, err := parseConfig([]byte(yamlString))
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid inline config")
	}
	return config, nil
}

func parseConfig(buf []byte) (Config, error) {
	var config Config
	if len(bytes.TrimSpace(buf)) == 0 {
		return config, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf), yaml.DisallowUnknownField())
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.ChunkSize != nil && *c.ChunkSize <= 0 {
		return errors.Errorf("chunk_size must be positive, got %d", *c.ChunkSize)
	}
	if c.Format != nil && !slices.Contains(Formats, *c.Format) {
		return errors.Errorf("unknown format %q, expected one of %v", *c.Format, Formats)
	}
	return nil
}

// MergeConfigs applies configs in order; a field set by a later config wins.
func MergeConfigs(configs []Config) Config {
	var merged Config
	for _, c := range configs {
		if c.ChunkSize != nil {
			merged.ChunkSize = c.ChunkSize
		}
		if c.Delimiter != nil {
			merged.Delimiter = c.Delimiter
		}
		if c.BatchSeparator != nil {
			merged.BatchSeparator = c.BatchSeparator
		}
		if c.Format != nil {
			merged.Format = c.Format
		}
		if c.Parallel != nil {
			merged.Parallel = c.Parallel
		}
	}
	return merged
}

// Options returns the Splitter options the config selects.
func (c Config) Options() Options {
	var options Options
	if c.ChunkSize != nil {
		options.ChunkSize = *c.ChunkSize
	}
	if c.Delimiter != nil {
		options.Delimiter = *c.Delimiter
	}
	if c.BatchSeparator != nil {
		options.BatchSeparator = *c.BatchSeparator
	}
	return options
}

func (c Config) OutputFormat() string {
	if c.Format == nil {
		return "text"
	}
	return *c.Format
}

// Concurrency is how many files Run splits at once.
func (c Config) Concurrency() int {
	if c.Parallel == nil || *c.Parallel < 1 {
		return 1
	}
	return *c.Parallel
}
