// Package config loads the optional .assetindex.yaml file that sits
// next to the assets directory. Values from the file sit between the
// built-in defaults and command line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tqbf/assetindex/pkg/index"
	"github.com/tqbf/assetindex/pkg/paths"
)

const FileName = ".assetindex.yaml"

type Config struct {
	Root    string   `yaml:"root"`
	Output  string   `yaml:"output"`
	Skip    []string `yaml:"skip"`
	Exclude []string `yaml:"exclude"`
	Slash   bool     `yaml:"slash"`
	Indent  bool     `yaml:"indent"`
	Serve   Serve    `yaml:"serve"`
	Watch   Watch    `yaml:"watch"`
}

type Serve struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type Watch struct {
	Debounce time.Duration `yaml:"debounce"`
}

func Default() Config {
	return Config{
		Root: "assets",
		Skip: []string{paths.DefaultSkip},
		Serve: Serve{
			Addr:   "127.0.0.1:8080",
			Prefix: "/assets/",
		},
		Watch: Watch{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Load overlays the YAML file at path onto the defaults. A missing file
// is only an error when required is set, which is the case for a path
// named explicitly on the command line.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	if err := paths.ValidatePatterns(c.Exclude); err != nil {
		return err
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// RootPath resolves the assets root against the working directory.
func (c Config) RootPath(dir string) string {
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	return filepath.Join(dir, c.Root)
}

// OutputPath defaults to index.json inside the assets root.
func (c Config) OutputPath(dir string) string {
	switch {
	case c.Output == "":
		return filepath.Join(c.RootPath(dir), "index.json")
	case filepath.IsAbs(c.Output):
		return c.Output
	default:
		return filepath.Join(dir, c.Output)
	}
}

// IndexOptions keeps the output file out of its own listing.
func (c Config) IndexOptions(dir string) index.Options {
	return index.Options{
		Skip:     c.Skip,
		Excludes: c.Exclude,
		Ignore:   []string{c.OutputPath(dir)},
		Slash:    c.Slash,
	}
}
