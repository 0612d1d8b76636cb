// Package config loads and validates classmod configuration.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/rupor-github/gencfg"
	yaml "gopkg.in/yaml.v3"

	"github.com/gnana997/classmod/pkg/classes"
)

//go:embed default.yaml
var DefaultYAML []byte

// ProjectFile is looked up in the working directory when no path is given.
const ProjectFile = ".classmod/config.yaml"

type (
	PathsConfig struct {
		FeaturesDir    string   `yaml:"features_dir" validate:"required"`
		Include        []string `yaml:"include" validate:"min=1,dive,required"`
		Exclude        []string `yaml:"exclude" validate:"dive,required"`
		ExtensionTable string   `yaml:"extension_table"`
	}

	MarkupConfig struct {
		ClassAttributes  []string `yaml:"class_attributes" validate:"min=1,dive,required"`
		SemanticElements []string `yaml:"semantic_elements" validate:"dive,required"`
		CommonElements   []string `yaml:"common_elements" validate:"dive,required"`
		StyleBinding     string   `yaml:"style_binding" validate:"required"`
	}

	ConversionConfig struct {
		Breakpoints     map[string]string `yaml:"breakpoints" validate:"dive,keys,required,endkeys,required"`
		Pseudo          map[string]string `yaml:"pseudo" validate:"dive,keys,required,endkeys,required"`
		AmbiguousPrefix string            `yaml:"ambiguous_prefix" validate:"oneof=drop unknown"`
		Replace         bool              `yaml:"replace"`
	}

	ReportConfig struct {
		Dir                  string `yaml:"dir" validate:"required"`
		SummaryFile          string `yaml:"summary_file" validate:"required"`
		GuideFile            string `yaml:"guide_file" validate:"required"`
		DuplicatesFile       string `yaml:"duplicates_file" validate:"required"`
		GlobalPropertiesFile string `yaml:"global_properties_file" validate:"required"`
		DuplicateThreshold   int    `yaml:"duplicate_threshold" validate:"min=2"`
	}

	LoggingConfig struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=text json"`
	}

	Config struct {
		Version    int              `yaml:"version" validate:"eq=1"`
		Framework  string           `yaml:"framework" validate:"oneof=tailwind bootstrap"`
		Paths      PathsConfig      `yaml:"paths"`
		Markup     MarkupConfig     `yaml:"markup"`
		Conversion ConversionConfig `yaml:"conversion"`
		Report     ReportConfig     `yaml:"report"`
		Logging    LoggingConfig    `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, validate bool) (*Config, error) {
	// Only fields defined above are accepted.
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if validate {
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg, err := unmarshalConfig(DefaultYAML, &Config{}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration at path and layers it over the defaults. An
// empty path falls back to ProjectFile when it exists, then to the defaults.
func Load(path string) (*Config, error) {
	cfg, err := unmarshalConfig(DefaultYAML, &Config{}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(ProjectFile); err == nil {
			path = ProjectFile
		}
	}
	if path == "" {
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration after command-line overrides are applied.
func (c *Config) Validate() error {
	if err := gencfg.Validate(c); err != nil {
		return err
	}
	for _, bp := range c.Modifiers().Responsive {
		if _, ok := c.Conversion.Pseudo[bp]; ok {
			return errors.New("a modifier cannot be both a breakpoint and a pseudo state: " + bp)
		}
	}
	return nil
}

// Dump renders the configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// Modifiers returns the responsive and pseudo prefixes, sorted.
func (c *Config) Modifiers() classes.Modifiers {
	return classes.Modifiers{
		Responsive: slices.Sorted(maps.Keys(c.Conversion.Breakpoints)),
		Pseudo:     slices.Sorted(maps.Keys(c.Conversion.Pseudo)),
	}
}

// Policy returns the ambiguity policy for two-part tokens.
func (c *Config) Policy() classes.AmbiguityPolicy {
	p, err := classes.ParseAmbiguityPolicy(c.Conversion.AmbiguousPrefix)
	if err != nil {
		return classes.DropUnknownPrefix
	}
	return p
}

// ReportPath joins name onto the report directory.
func (c *Config) ReportPath(name string) string {
	return filepath.Join(c.Report.Dir, name)
}
