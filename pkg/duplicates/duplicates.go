// Package duplicates finds declarations repeated across generated feature
// stylesheets. It only reads stylesheet text and never modifies it.
package duplicates

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/gosimple/slug"

	"github.com/gnana997/classmod/pkg/utility"
)

// DefaultThreshold is the minimum number of distinct (feature, selector)
// locations for a declaration to be reported.
const DefaultThreshold = 3

// Property is one declaration found in a stylesheet.
type Property struct {
	Feature  string
	Selector string
	// Context holds the nested pseudo or media headers, outermost first.
	Context  []string
	Property string
	Value    string
	Line     int
}

// Key returns the grouping key "property: value".
func (p Property) Key() string {
	return p.Property + ": " + p.Value
}

// Occurrence is one place a duplicated declaration appears.
type Occurrence struct {
	Feature  string
	Selector string
}

// Group is a declaration that appears in enough distinct locations.
type Group struct {
	Key         string
	Property    string
	Value       string
	Occurrences []Occurrence
}

// Locations returns the number of distinct (feature, selector) pairs.
func (g Group) Locations() int {
	return len(distinct(g.Occurrences))
}

// Features returns the features the group appears in, first-seen order.
func (g Group) Features() []string {
	var out []string
	for _, o := range g.Occurrences {
		if !slices.Contains(out, o.Feature) {
			out = append(out, o.Feature)
		}
	}
	return out
}

// Extract reads the declarations of a generated stylesheet. Comments,
// @use/@import/@include lines and declarations outside any rule are skipped.
// The selector of a declaration is its outermost rule header.
func Extract(feature, text string) []Property {
	var (
		props     []Property
		stack     []string
		inComment bool
	)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if inComment {
			end := strings.Index(line, "*/")
			if end < 0 {
				continue
			}
			inComment = false
			line = strings.TrimSpace(line[end+2:])
		}
		line, inComment = stripComments(line)
		if line == "" || skipLine(line) {
			continue
		}

		for line != "" {
			open := strings.IndexByte(line, '{')
			closing := strings.IndexByte(line, '}')

			switch {
			case open >= 0 && (closing < 0 || open < closing):
				stack = append(stack, strings.TrimSpace(line[:open]))
				line = strings.TrimSpace(line[open+1:])

			case closing >= 0:
				if body := strings.TrimSpace(line[:closing]); body != "" && len(stack) > 0 {
					props = append(props, declarations(feature, stack, body, i+1)...)
				}
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				line = strings.TrimSpace(line[closing+1:])

			default:
				if len(stack) > 0 && strings.Contains(line, ":") {
					props = append(props, declarations(feature, stack, line, i+1)...)
				}
				line = ""
			}
		}
	}

	return props
}

func declarations(feature string, stack []string, body string, line int) []Property {
	decls, err := utility.ParseDeclarations(body)
	if err != nil {
		return nil
	}

	var ctx []string
	if len(stack) > 1 {
		ctx = slices.Clone(stack[1:])
	}

	out := make([]Property, 0, len(decls))
	for _, d := range decls {
		out = append(out, Property{
			Feature:  feature,
			Selector: stack[0],
			Context:  ctx,
			Property: d.Property,
			Value:    d.Value,
			Line:     line,
		})
	}
	return out
}

func skipLine(line string) bool {
	for _, prefix := range []string{"@use", "@import", "@forward", "@include", "$"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// stripComments removes // and /* */ comments from a single line and
// reports whether a block comment is left open.
func stripComments(line string) (string, bool) {
	var sb strings.Builder
	for {
		lc := strings.Index(line, "//")
		bc := strings.Index(line, "/*")
		switch {
		case lc >= 0 && (bc < 0 || lc < bc):
			sb.WriteString(line[:lc])
			return strings.TrimSpace(sb.String()), false
		case bc >= 0:
			sb.WriteString(line[:bc])
			end := strings.Index(line[bc+2:], "*/")
			if end < 0 {
				return strings.TrimSpace(sb.String()), true
			}
			line = line[bc+2+end+2:]
		default:
			sb.WriteString(line)
			return strings.TrimSpace(sb.String()), false
		}
	}
}

// Analyze groups properties by "property: value" and keeps the groups
// backed by at least threshold distinct (feature, selector) pairs. Groups
// are ordered by total occurrences, most first; ties keep first-seen order.
func Analyze(props []Property, threshold int) []Group {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	var order []string
	groups := make(map[string]*Group)
	for _, p := range props {
		key := p.Key()
		g, ok := groups[key]
		if !ok {
			g = &Group{Key: key, Property: p.Property, Value: p.Value}
			groups[key] = g
			order = append(order, key)
		}
		g.Occurrences = append(g.Occurrences, Occurrence{Feature: p.Feature, Selector: p.Selector})
	}

	var out []Group
	for _, key := range order {
		if g := groups[key]; g.Locations() >= threshold {
			out = append(out, *g)
		}
	}

	slices.SortStableFunc(out, func(a, b Group) int {
		return cmp.Compare(len(b.Occurrences), len(a.Occurrences))
	})
	return out
}

// AnalyzeFiles reads the stylesheets in files (feature name to path) in the
// order given by features and analyzes them together. Missing files are
// skipped.
func AnalyzeFiles(features []string, files map[string]string, threshold int) ([]Group, error) {
	var props []Property
	for _, feature := range features {
		path, ok := files[feature]
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		props = append(props, Extract(feature, string(data))...)
	}
	return Analyze(props, threshold), nil
}

// SuggestVariable proposes an SCSS variable name for a duplicated
// declaration. It returns "" for properties that do not need a variable.
func SuggestVariable(property, value string) string {
	switch {
	case property == "color":
		switch {
		case strings.Contains(value, "#4b5563"):
			return "$text-gray"
		case strings.Contains(value, "#2563eb"):
			return "$text-blue"
		default:
			return "$color-primary"
		}
	case property == "background-color":
		if value == "#ffffff" {
			return "$bg-white"
		}
		name := strings.ReplaceAll(slug.Make(value), "-", "")
		if name == "" {
			name = "default"
		}
		if len(name) > 10 {
			name = name[:10]
		}
		return "$bg-" + name
	case strings.Contains(property, "padding"):
		return "$spacing-standard"
	case property == "border-radius":
		switch value {
		case "0.25rem":
			return "$radius-sm"
		case "0.5rem":
			return "$radius-md"
		case "0.75rem":
			return "$radius-lg"
		default:
			return "$radius-default"
		}
	case property == "display", property == "flex-direction":
		return ""
	default:
		return "$" + strings.ReplaceAll(property, "-", "_")
	}
}

func distinct(occ []Occurrence) map[Occurrence]struct{} {
	set := make(map[Occurrence]struct{}, len(occ))
	for _, o := range occ {
		set[o] = struct{}{}
	}
	return set
}
