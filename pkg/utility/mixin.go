package utility

import (
	"log/slog"
	"strings"
)

// Mapper turns a resolved declaration into the lines emitted in a rule body,
// substituting shorthand mixin calls where the fixed rule table applies.
type Mapper struct {
	table  *Table
	logger *slog.Logger
}

// NewMapper creates a Mapper backed by table.
func NewMapper(table *Table, logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{table: table, logger: logger}
}

// Table returns the table the mapper resolves against.
func (m *Mapper) Table() *Table {
	return m.table
}

// Map returns the lines contributed by base, whose literal declaration text
// is decl. Rules, first match wins:
//
//  1. colour class: @include text($v) for text-*, @include bg($v) otherwise
//  2. spacing class keyed by its prefix: p, m/mt/mb/ms/me, space/gap
//  3. any box-shadow declaration: @include shadow-xl
//  4. the declarations verbatim, one per line, each ending in ";"
//
// An empty decl contributes nothing.
func (m *Mapper) Map(base, decl string) []string {
	if strings.TrimSpace(decl) == "" {
		return nil
	}

	if v, ok := m.table.Color(base); ok {
		if strings.HasPrefix(base, "text") {
			return []string{"@include text(" + v + ");"}
		}
		return []string{"@include bg(" + v + ");"}
	}

	if v, ok := m.table.SpacingVar(base); ok {
		prefix, _, _ := strings.Cut(base, "-")
		switch prefix {
		case "p":
			return []string{"@include p(" + v + ");"}
		case "m", "mt", "mb", "ms", "me":
			return []string{"@include m(" + v + ");"}
		case "space", "gap":
			return []string{"@include gap(" + v + ");"}
		}
	}

	decls, err := ParseDeclarations(decl)
	if err != nil || len(decls) == 0 {
		// Keep the text as written; a malformed table entry is still output.
		m.logger.Debug("declaration not tokenised, passing through", "class", base, "error", err)
		return passthrough(decl)
	}

	for _, d := range decls {
		if d.Property == "box-shadow" {
			return []string{"@include shadow-xl;"}
		}
	}

	lines := make([]string, 0, len(decls))
	for _, d := range decls {
		lines = append(lines, d.String()+";")
	}
	return lines
}

// Resolve looks up base and maps it in one step.
func (m *Mapper) Resolve(base string) ([]string, bool) {
	decl, ok := m.table.Resolve(base)
	if !ok {
		return nil, false
	}
	return m.Map(base, decl), true
}

func passthrough(decl string) []string {
	var lines []string
	for _, part := range strings.Split(decl, ";") {
		if part = strings.TrimSpace(part); part != "" {
			lines = append(lines, part+";")
		}
	}
	return lines
}
