// Package rewrite patches class attributes in markup source to reference a
// generated CSS module. The parse tree is never mutated: edits are collected
// against the original bytes and applied in one pass.
package rewrite

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/gnana997/classmod/pkg/jsx"
)

// DefaultBinding is the import name used when a module import is inserted.
const DefaultBinding = "styles"

// ErrOverlappingEdits is returned by Apply when two edits touch the same bytes.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Edit replaces source[Start:End] with Text. Start == End inserts.
type Edit struct {
	Start uint
	End   uint
	Text  string
}

// Rewriter collects edits for one source file.
type Rewriter struct {
	source  []byte
	edits   []Edit
	binding string
}

// New returns a Rewriter over source. The slice is not modified.
func New(source []byte) *Rewriter {
	return &Rewriter{source: source, binding: DefaultBinding}
}

// Binding returns the name module lookups are written against.
func (r *Rewriter) Binding() string {
	return r.binding
}

// ModulePath returns the relative import path of a feature's module stylesheet.
func ModulePath(feature string) string {
	return "./" + feature + ".module.scss"
}

// EnsureImport makes sure the module at modulePath is imported with a
// binding. An existing import is reused; otherwise one is inserted at offset
// (the top of the file, or after its shebang and directive prologue). The
// inserted import is bound to binding unless another import already declares
// that name, in which case a name derived from the module file is used.
// It returns the binding used for lookups.
func (r *Rewriter) EnsureImport(imports []jsx.Import, offset uint, modulePath, binding string) string {
	if binding == "" {
		binding = DefaultBinding
	}

	want := path.Clean(modulePath)
	taken := make(map[string]bool)
	for _, imp := range imports {
		if path.Clean(imp.Source) == want && imp.Binding() != "" {
			r.binding = imp.Binding()
			return r.binding
		}
		for _, name := range imp.Locals() {
			taken[name] = true
		}
	}
	binding = freeBinding(binding, modulePath, taken)

	stmt := fmt.Sprintf("import %s from %q;", binding, modulePath)
	if offset == 0 {
		stmt += "\n"
	} else {
		stmt = "\n" + stmt
	}
	r.edits = append(r.edits, Edit{Start: offset, End: offset, Text: stmt})
	r.binding = binding
	return binding
}

// freeBinding returns binding when it is not taken. Otherwise it tries
// <module>Styles (nav.module.scss gives navStyles) and then numbered
// variants of that.
func freeBinding(binding, modulePath string, taken map[string]bool) string {
	if !taken[binding] {
		return binding
	}
	base := identifier(strings.TrimSuffix(path.Base(modulePath), ".module.scss")) + "Styles"
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		if name := base + strconv.Itoa(n); !taken[name] {
			return name
		}
	}
}

// identifier turns a file stem into a camel case JS identifier:
// "user-card" gives "userCard", "2col" gives "_2col".
func identifier(stem string) string {
	var b strings.Builder
	upper := false
	for _, r := range stem {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper && b.Len() > 0 {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			upper = false
		default:
			upper = true
		}
	}
	out := b.String()
	if out == "" {
		return "module"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

// ReplaceClassName rewrites a static attribute value to a module lookup for
// key, keeping unknown classes as a literal suffix. Dynamic attributes are
// left alone and false is returned.
func (r *Rewriter) ReplaceClassName(attr jsx.ClassAttribute, key string, unknown []string) bool {
	if !attr.Static || attr.ValueEnd <= attr.ValueStart {
		return false
	}
	r.edits = append(r.edits, Edit{
		Start: attr.ValueStart,
		End:   attr.ValueEnd,
		Text:  Lookup(r.binding, key, unknown),
	})
	return true
}

// Lookup renders the replacement attribute value.
//
//	{styles["div_nth-of-type_1"]}
//	{`${styles["div_nth-of-type_1"]} unknown-shake`}
func Lookup(binding, key string, unknown []string) string {
	ref := binding + `["` + key + `"]`
	if len(unknown) == 0 {
		return "{" + ref + "}"
	}
	escaped := make([]string, len(unknown))
	for i, u := range unknown {
		escaped[i] = templateEscaper.Replace(u)
	}
	return "{`${" + ref + "} " + strings.Join(escaped, " ") + "`}"
}

var templateEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

// Edits returns the collected edits sorted by position.
func (r *Rewriter) Edits() []Edit {
	out := slices.Clone(r.edits)
	slices.SortStableFunc(out, func(a, b Edit) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Changed reports whether any edit was collected.
func (r *Rewriter) Changed() bool {
	return len(r.edits) > 0
}

// Apply returns a new copy of the source with all edits applied.
func (r *Rewriter) Apply() ([]byte, error) {
	edits := r.Edits()

	var out []byte
	var pos uint
	for _, e := range edits {
		if e.Start < pos || e.End < e.Start || e.End > uint(len(r.source)) {
			return nil, fmt.Errorf("%w: [%d,%d)", ErrOverlappingEdits, e.Start, e.End)
		}
		out = append(out, r.source[pos:e.Start]...)
		out = append(out, e.Text...)
		pos = e.End
	}
	out = append(out, r.source[pos:]...)
	return out, nil
}
