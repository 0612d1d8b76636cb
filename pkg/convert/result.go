package convert

import (
	"github.com/gnana997/classmod/pkg/report"
	"github.com/gnana997/classmod/pkg/selector"
	"github.com/gnana997/classmod/pkg/stylesheet"
	"github.com/gnana997/classmod/pkg/tracker"
)

// FeatureSummary is the per-feature line of the conversion report.
type FeatureSummary = report.FeatureSummary

// ElementResult is one converted class attribute.
type ElementResult struct {
	Selector selector.ElementSelector
	// Tag is the resolved tag name used for the selector.
	Tag  string
	Line int

	// Original holds every token as written. Each one lands in exactly one
	// of Known (as written) or Unknown (without its global: prefix).
	Original []string
	Known    []string
	Unknown  []string

	Block *stylesheet.Block
	// Rule is the rendered SCSS rule, empty when the block has no lines.
	Rule string
}

// FileResult is the conversion of one source file.
type FileResult struct {
	// Path is the file path as shown in logs and reports.
	Path string
	// Name is the base name of the file.
	Name string

	Elements []ElementResult
	// Globals holds the distinct global: classes in first-seen order.
	Globals []stylesheet.GlobalRule
	Unknown []tracker.Entry
	// Dynamic counts class attributes with expression values; they are
	// left untouched.
	Dynamic int

	// Source is the rewritten file content, nil when nothing changed.
	Source []byte
}

// Rules returns the non-empty rendered rules in document order.
func (r *FileResult) Rules() []string {
	var rules []string
	for _, el := range r.Elements {
		if el.Rule != "" {
			rules = append(rules, el.Rule)
		}
	}
	return rules
}

// KnownCount returns the number of converted tokens.
func (r *FileResult) KnownCount() int {
	n := 0
	for _, el := range r.Elements {
		n += len(el.Known)
	}
	return n
}

// Mappings returns the element mappings listed in the conversion guide.
func (r *FileResult) Mappings() []report.Mapping {
	out := make([]report.Mapping, 0, len(r.Elements))
	for _, el := range r.Elements {
		out = append(out, report.Mapping{
			Selector: el.Selector.Selector,
			Original: el.Original,
			Known:    el.Known,
			Unknown:  el.Unknown,
		})
	}
	return out
}

// FeatureResult is the conversion of one feature folder.
type FeatureResult struct {
	Name string
	Dir  string

	Files   []*FileResult
	Summary FeatureSummary

	// Module and Global are the generated stylesheets; Global is empty when
	// the feature has no global: classes.
	Module string
	Global string

	// Outputs lists the files written, in write order.
	Outputs []string
	// Err aggregates the per-file failures.
	Err error
}
