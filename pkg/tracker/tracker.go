// Package tracker records utility classes that could not be resolved.
package tracker

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Entry is one occurrence of an unknown class.
type Entry struct {
	Feature   string
	File      string
	Line      int
	Element   string
	Class     string
	Framework string
}

// LogLine formats the entry the way it appears in conversion.log.
func (e Entry) LogLine() string {
	return fmt.Sprintf("%s:%d\n  Element: <%s>\n  Unknown class: %s\n  Framework: %s\n",
		e.File, e.Line, e.Element, e.Class, e.Framework)
}

// Tracker is an append-only log of unknown class occurrences. Every
// occurrence is kept; deduplication only happens in Unique.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Record appends an occurrence.
func (t *Tracker) Record(e Entry) {
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
}

// Len returns the number of recorded occurrences.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// ForFeature returns the occurrences recorded for one feature.
func (t *Tracker) ForFeature(feature string) []Entry {
	return t.filter(func(e Entry) bool { return e.Feature == feature })
}

// ForFile returns the occurrences recorded for one file.
func (t *Tracker) ForFile(file string) []Entry {
	return t.filter(func(e Entry) bool { return e.File == file })
}

// Unique returns the sorted set of unknown classes seen in file.
func (t *Tracker) Unique(file string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range t.ForFile(file) {
		if !seen[e.Class] {
			seen[e.Class] = true
			out = append(out, e.Class)
		}
	}
	slices.Sort(out)
	return out
}

// Features returns the features that have at least one entry, in first-seen order.
func (t *Tracker) Features() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, e := range t.entries {
		if !slices.Contains(out, e.Feature) {
			out = append(out, e.Feature)
		}
	}
	return out
}

// Log renders the conversion.log contents for the given entries.
func Log(entries []Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.LogLine())
	}
	return sb.String()
}

func (t *Tracker) filter(keep func(Entry) bool) []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Entry
	for _, e := range t.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
