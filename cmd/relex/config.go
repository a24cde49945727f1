package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

const defaultConfigFile = "relex.toml"

// fileConfig is the relex.toml layout. Every field supplies the default of
// the flag with the same name; flags given on the command line win.
type fileConfig struct {
	Grammar     string `toml:"grammar"`
	Grammars    string `toml:"grammars"`
	Store       string `toml:"store"`
	Color       string `toml:"color"`
	MaxFileSize int64  `toml:"max_file_size"`
	Verbose     bool   `toml:"verbose"`
	Quiet       bool   `toml:"quiet"`
}

// loadConfig reads path, or ./relex.toml when path is empty. A missing
// default file yields an empty config; a missing explicit file is an error.
func loadConfig(path string) (*fileConfig, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// apply sets every flag the user did not pass to its config value.
func (c *fileConfig) apply(flags *pflag.FlagSet) error {
	values := map[string]string{
		"grammar":  c.Grammar,
		"grammars": c.Grammars,
		"store":    c.Store,
		"color":    c.Color,
	}
	if c.MaxFileSize > 0 {
		values["max-file-size"] = strconv.FormatInt(c.MaxFileSize, 10)
	}
	if c.Verbose {
		values["verbose"] = "true"
	}
	if c.Quiet {
		values["quiet"] = "true"
	}

	for name, value := range values {
		if value == "" {
			continue
		}
		f := flags.Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := f.Value.Set(value); err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
	}
	return nil
}
