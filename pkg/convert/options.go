package convert

import (
	"fmt"
	"os"

	"github.com/gnana997/classmod/pkg/classes"
	"github.com/gnana997/classmod/pkg/config"
	"github.com/gnana997/classmod/pkg/discover"
	"github.com/gnana997/classmod/pkg/rewrite"
	"github.com/gnana997/classmod/pkg/utility"
)

// Options controls a conversion run.
type Options struct {
	Framework utility.Framework
	// Replace rewrites class attributes in the source files.
	Replace bool

	FeaturesDir string
	// Root is the directory paths in logs and reports are relative to.
	Root     string
	Discover discover.Options
	// ExtensionTable is an optional utility table merged over the built-in one.
	ExtensionTable string

	ClassAttributes  []string
	SemanticElements []string
	CommonElements   []string
	StyleBinding     string

	Modifiers   classes.Modifiers
	Policy      classes.AmbiguityPolicy
	Breakpoints map[string]string
	Pseudo      map[string]string

	ReportDir            string
	SummaryFile          string
	GuideFile            string
	DuplicatesFile       string
	GlobalPropertiesFile string
	DuplicateThreshold   int
}

// OptionsFromConfig builds run options from a validated configuration. An
// unsupported framework fails with utility.ErrUnknownFramework.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	fw, err := utility.ParseFramework(cfg.Framework)
	if err != nil {
		return Options{}, err
	}

	root, err := os.Getwd()
	if err != nil {
		return Options{}, fmt.Errorf("failed to get working directory: %w", err)
	}

	return Options{
		Framework:   fw,
		Replace:     cfg.Conversion.Replace,
		FeaturesDir: cfg.Paths.FeaturesDir,
		Root:        root,
		Discover: discover.Options{
			Include: cfg.Paths.Include,
			Exclude: cfg.Paths.Exclude,
		},
		ExtensionTable: cfg.Paths.ExtensionTable,

		ClassAttributes:  cfg.Markup.ClassAttributes,
		SemanticElements: cfg.Markup.SemanticElements,
		CommonElements:   cfg.Markup.CommonElements,
		StyleBinding:     cfg.Markup.StyleBinding,

		Modifiers:   cfg.Modifiers(),
		Policy:      cfg.Policy(),
		Breakpoints: cfg.Conversion.Breakpoints,
		Pseudo:      cfg.Conversion.Pseudo,

		ReportDir:            cfg.Report.Dir,
		SummaryFile:          cfg.Report.SummaryFile,
		GuideFile:            cfg.Report.GuideFile,
		DuplicatesFile:       cfg.Report.DuplicatesFile,
		GlobalPropertiesFile: cfg.Report.GlobalPropertiesFile,
		DuplicateThreshold:   cfg.Report.DuplicateThreshold,
	}, nil
}

// DefaultOptions returns the options of the built-in configuration.
func DefaultOptions() (Options, error) {
	cfg, err := config.Default()
	if err != nil {
		return Options{}, err
	}
	return OptionsFromConfig(cfg)
}

func (o Options) binding() string {
	if o.StyleBinding == "" {
		return rewrite.DefaultBinding
	}
	return o.StyleBinding
}
