package utility

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/classmod/catalogs"
)

// Variable is one SCSS variable emitted into _variables.scss.
type Variable struct {
	Group string `yaml:"group"`
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Table is the utility resolution table of one framework. It is read-only
// once loaded.
type Table struct {
	Framework Framework  `yaml:"framework"`
	Variables []Variable `yaml:"variables"`

	// Utilities maps a base class to its literal CSS declarations.
	Utilities map[string]string `yaml:"utilities"`

	// Colors maps a colour class to the SCSS variable used by the text/bg mixins.
	Colors map[string]string `yaml:"colors"`

	// Spacing maps an all-sides spacing class to the SCSS variable used by
	// the p/m/gap mixins.
	Spacing map[string]string `yaml:"spacing"`
}

// Resolve returns the declaration text for a base class.
func (t *Table) Resolve(base string) (string, bool) {
	decl, ok := t.Utilities[base]
	if !ok || strings.TrimSpace(decl) == "" {
		return "", false
	}
	return decl, true
}

// Color returns the colour variable for a class.
func (t *Table) Color(base string) (string, bool) {
	v, ok := t.Colors[base]
	return v, ok
}

// SpacingVar returns the spacing variable for a class.
func (t *Table) SpacingVar(base string) (string, bool) {
	v, ok := t.Spacing[base]
	return v, ok
}

// Len returns the number of utilities in the table.
func (t *Table) Len() int {
	return len(t.Utilities)
}

// Validate checks the table for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (t *Table) Validate() []error {
	var errs []error

	if t.Framework == "" {
		errs = append(errs, fmt.Errorf("framework is required"))
	}
	if len(t.Utilities) == 0 {
		errs = append(errs, fmt.Errorf("utilities must not be empty"))
	}

	defined := make(map[string]bool, len(t.Variables))
	for i, v := range t.Variables {
		if v.Name == "" || v.Value == "" {
			errs = append(errs, fmt.Errorf("variables[%d]: name and value are required", i))
			continue
		}
		if defined[v.Name] {
			errs = append(errs, fmt.Errorf("variables[%d]: duplicate variable %q", i, v.Name))
			continue
		}
		defined[v.Name] = true
	}

	for class, decl := range t.Utilities {
		if strings.TrimSpace(decl) == "" {
			errs = append(errs, fmt.Errorf("utilities[%q]: declaration is empty", class))
		}
	}

	check := func(section string, refs map[string]string) {
		for class, ref := range refs {
			name, ok := strings.CutPrefix(ref, "$")
			if !ok {
				errs = append(errs, fmt.Errorf("%s[%q]: %q is not an SCSS variable", section, class, ref))
				continue
			}
			if !defined[name] {
				errs = append(errs, fmt.Errorf("%s[%q]: variable %q is not defined", section, class, ref))
			}
			if _, ok := t.Utilities[class]; !ok {
				errs = append(errs, fmt.Errorf("%s[%q]: class has no utility entry", section, class))
			}
		}
	}
	check("colors", t.Colors)
	check("spacing", t.Spacing)

	return errs
}

// Load returns the embedded table for a framework.
func Load(fw Framework) (*Table, error) {
	switch fw {
	case Tailwind:
		return LoadFromBytes(catalogs.TailwindYAML)
	case Bootstrap:
		return LoadFromBytes(catalogs.BootstrapYAML)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFramework, fw)
	}
}

// LoadFile loads a user-supplied table from a YAML file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read utility table: %w", err)
	}
	t, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadFromBytes parses and validates a table from raw YAML bytes.
func LoadFromBytes(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse utility table: %w", err)
	}
	if errs := t.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("utility table validation failed: %w", errors.Join(errs...))
	}
	return &t, nil
}

// Merge returns a new table with ext layered over t. Entries in ext override
// entries in t; variables from ext are appended unless already defined, in
// which case their value replaces the original. The framework of t is kept.
func (t *Table) Merge(ext *Table) *Table {
	out := &Table{
		Framework: t.Framework,
		Variables: make([]Variable, len(t.Variables)),
		Utilities: maps.Clone(t.Utilities),
		Colors:    maps.Clone(t.Colors),
		Spacing:   maps.Clone(t.Spacing),
	}
	copy(out.Variables, t.Variables)
	if ext == nil {
		return out
	}

	if out.Utilities == nil {
		out.Utilities = make(map[string]string)
	}
	if out.Colors == nil {
		out.Colors = make(map[string]string)
	}
	if out.Spacing == nil {
		out.Spacing = make(map[string]string)
	}
	maps.Copy(out.Utilities, ext.Utilities)
	maps.Copy(out.Colors, ext.Colors)
	maps.Copy(out.Spacing, ext.Spacing)

	index := make(map[string]int, len(out.Variables))
	for i, v := range out.Variables {
		index[v.Name] = i
	}
	for _, v := range ext.Variables {
		if i, ok := index[v.Name]; ok {
			out.Variables[i] = v
			continue
		}
		index[v.Name] = len(out.Variables)
		out.Variables = append(out.Variables, v)
	}

	return out
}

// Extend reads an extension table from path, merges it over t and validates
// the result. The extension may omit the framework and any section.
func (t *Table) Extend(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extension table: %w", err)
	}

	var ext Table
	if err := yaml.Unmarshal(data, &ext); err != nil {
		return nil, fmt.Errorf("failed to parse extension table %s: %w", path, err)
	}
	if ext.Framework != "" && ext.Framework != t.Framework {
		return nil, fmt.Errorf("extension table %s targets %s, active framework is %s", path, ext.Framework, t.Framework)
	}

	merged := t.Merge(&ext)
	if errs := merged.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("extension table %s: %w", path, errors.Join(errs...))
	}
	return merged, nil
}
