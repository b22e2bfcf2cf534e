package config

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the settings shared by the binaries. Flags win over the
// optional YAML file, which wins over the defaults.
type Config struct {
	File        string `yaml:"-"`
	Format      string `yaml:"format"`       // "dlis" or "lis"
	Offset      int64  `yaml:"offset"`       // physical offset of logical zero
	TapeImage   bool   `yaml:"tapeimage"`    // tape-image framing present
	EscapeLevel string `yaml:"escape_level"` // debug, info, warning or error
	Verbose     bool   `yaml:"verbose"`
}

// NewConfig parses flags (and a -config YAML file when given).
func NewConfig() (*Config, error) {
	file := flag.String("file", "", "well log file to read")
	format := flag.String("format", "dlis", "file format: dlis or lis")
	offset := flag.Int64("offset", 0, "physical offset of logical zero")
	tapeimage := flag.Bool("tapeimage", false, "apply tape-image framing")
	escape := flag.String("escape-level", "warning",
		"highest severity that is logged rather than raised")
	verbose := flag.Bool("v", false, "verbose output")
	configFile := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg := &Config{
		File:        *file,
		Format:      *format,
		Offset:      *offset,
		TapeImage:   *tapeimage,
		EscapeLevel: *escape,
		Verbose:     *verbose,
	}

	if *configFile != "" {
		raw, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		fromFile := *cfg
		if err := yaml.Unmarshal(raw, &fromFile); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		// Re-apply flags that were set explicitly; the file fills the rest.
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "format":
				fromFile.Format = *format
			case "offset":
				fromFile.Offset = *offset
			case "tapeimage":
				fromFile.TapeImage = *tapeimage
			case "escape-level":
				fromFile.EscapeLevel = *escape
			case "v":
				fromFile.Verbose = *verbose
			}
		})
		fromFile.File = cfg.File
		cfg = &fromFile
	}

	if cfg.Format != "dlis" && cfg.Format != "lis" {
		return nil, fmt.Errorf("unknown format %q: expected dlis or lis", cfg.Format)
	}
	return cfg, nil
}
