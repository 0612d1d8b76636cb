// Package selector assigns stable CSS-module selectors to markup elements.
package selector

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// FallbackTag is used when an element's tag cannot be determined.
const FallbackTag = "div"

// TagKind classifies the tag name of a markup element.
type TagKind int

const (
	// TagIntrinsic is a lower-case HTML element such as div or nav.
	TagIntrinsic TagKind = iota
	// TagComponent is a capitalised component reference such as Button.
	TagComponent
	// TagIndeterminate covers member expressions, namespaced names,
	// fragments and missing tags.
	TagIndeterminate
)

// ClassifyTag returns the kind of a tag name as written in markup.
func ClassifyTag(name string) TagKind {
	if name == "" || strings.ContainsAny(name, ".:") {
		return TagIndeterminate
	}
	for _, r := range name {
		if unicode.IsUpper(r) {
			return TagComponent
		}
		return TagIntrinsic
	}
	return TagIndeterminate
}

// ResolveTag returns the tag name used for selector assignment.
func ResolveTag(name string, kind TagKind) string {
	switch kind {
	case TagIntrinsic:
		return strings.ToLower(name)
	case TagComponent:
		return name
	case TagIndeterminate:
		return FallbackTag
	default:
		return FallbackTag
	}
}

// ElementSelector is the selector assigned to one element.
type ElementSelector struct {
	Tag      string
	Ordinal  int
	Selector string
}

// Key is the selector without its leading dot, as used for module lookups.
func (s ElementSelector) Key() string {
	return strings.TrimPrefix(s.Selector, ".")
}

// Assigner hands out selectors for the elements of one file, in document
// order. Call Reset before each file.
type Assigner struct {
	semantic []string
	common   []string
	counts   map[string]int
}

// NewAssigner creates an Assigner with the given semantic and common element
// sets.
func NewAssigner(semantic, common []string) *Assigner {
	return &Assigner{
		semantic: slices.Clone(semantic),
		common:   slices.Clone(common),
		counts:   make(map[string]int),
	}
}

// Reset clears the per-file counters.
func (a *Assigner) Reset() {
	clear(a.counts)
}

// Assign names the next element with the given tag.
func (a *Assigner) Assign(tag string) ElementSelector {
	a.counts[tag]++
	n := a.counts[tag]

	sel := ElementSelector{Tag: tag, Ordinal: n}
	switch {
	case slices.Contains(a.semantic, tag):
		sel.Selector = "." + tag
	case n == 1 && !slices.Contains(a.common, tag):
		sel.Selector = "." + tag
	default:
		sel.Selector = "." + tag + "_nth-of-type_" + strconv.Itoa(n)
	}
	return sel
}
