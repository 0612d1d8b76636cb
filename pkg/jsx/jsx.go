// Package jsx extracts class attributes and imports from a parsed TSX/JSX tree.
package jsx

import (
	"slices"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/classmod/pkg/selector"
)

// DefaultClassAttributes are the attribute names read when none are configured.
var DefaultClassAttributes = []string{"className"}

// ClassAttribute is one class attribute on a markup element.
type ClassAttribute struct {
	Name string
	// Tag is the element name as written; empty for fragments.
	Tag     string
	TagKind selector.TagKind
	Line    int // 1-based
	Column  int // 1-based

	// Static is set when the value is a plain string literal. Expression
	// values are reported but never converted.
	Static bool
	// Value is the literal content without quotes (static values only).
	Value string

	// ValueStart and ValueEnd delimit the value node, quotes or braces
	// included, in the source bytes.
	ValueStart uint
	ValueEnd   uint
}

// ResolvedTag returns the tag name used for selector assignment.
func (a ClassAttribute) ResolvedTag() string {
	return selector.ResolveTag(a.Tag, a.TagKind)
}

// Import is a top-level import statement.
type Import struct {
	Source        string
	DefaultName   string
	NamespaceName string
	// Names are the local names of named specifiers (the alias when renamed).
	Names []string
	Line  int
}

// Locals returns every local name the statement declares.
func (i Import) Locals() []string {
	var out []string
	if i.DefaultName != "" {
		out = append(out, i.DefaultName)
	}
	if i.NamespaceName != "" {
		out = append(out, i.NamespaceName)
	}
	return append(out, i.Names...)
}

// Binding returns the local name the module is bound to, if any.
func (i Import) Binding() string {
	if i.DefaultName != "" {
		return i.DefaultName
	}
	return i.NamespaceName
}

// Extraction holds everything the converter reads from one file.
type Extraction struct {
	Attributes []ClassAttribute
	Imports    []Import

	// ImportOffset is where new imports are inserted: 0, or the end of the
	// directive prologue ("use client"; and friends).
	ImportOffset uint
}

// StaticCount returns the number of static class attributes.
func (e *Extraction) StaticCount() int {
	n := 0
	for _, a := range e.Attributes {
		if a.Static {
			n++
		}
	}
	return n
}

// Extract walks tree and collects the attributes named in attrNames, in
// document order. A nil or empty attrNames selects DefaultClassAttributes.
func Extract(tree *ts.Tree, source []byte, attrNames []string) *Extraction {
	if len(attrNames) == 0 {
		attrNames = DefaultClassAttributes
	}

	result := &Extraction{}
	root := tree.RootNode()

	extractImports(root, source, result)
	result.ImportOffset = prologueEnd(root, source)

	w := &walker{source: source, names: attrNames, result: result}
	w.walk(root)

	return result
}

// prologueEnd returns the end offset of a leading shebang line and the
// directive statements after it.
func prologueEnd(root *ts.Node, source []byte) uint {
	var end uint
loop:
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "comment":
		case "hash_bang_line":
			end = child.EndByte()
		case "expression_statement":
			if child.ChildCount() == 0 || child.Child(0).Kind() != "string" {
				break loop
			}
			end = child.EndByte()
		default:
			break loop
		}
	}
	return end
}

func extractImports(node *ts.Node, source []byte, result *Extraction) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "import_statement" {
			continue
		}

		info := Import{Line: int(child.StartPosition().Row) + 1}

		for j := uint(0); j < child.ChildCount(); j++ {
			part := child.Child(j)
			switch part.Kind() {
			case "string":
				info.Source = stringContent(part, source)
			case "import_clause":
				extractImportClause(part, source, &info)
			}
		}

		if info.Source != "" {
			result.Imports = append(result.Imports, info)
		}
	}
}

func extractImportClause(node *ts.Node, source []byte, info *Import) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "identifier":
			info.DefaultName = child.Utf8Text(source)
		case "namespace_import":
			for j := uint(0); j < child.ChildCount(); j++ {
				if id := child.Child(j); id.Kind() == "identifier" {
					info.NamespaceName = id.Utf8Text(source)
				}
			}
		case "named_imports":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec.Kind() != "import_specifier" {
					continue
				}
				id := spec.ChildByFieldName("alias")
				if id == nil {
					id = spec.ChildByFieldName("name")
				}
				if id != nil {
					info.Names = append(info.Names, id.Utf8Text(source))
				}
			}
		}
	}
}

// stringContent returns the text of a string node without its quotes.
func stringContent(node *ts.Node, source []byte) string {
	text := node.Utf8Text(source)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

type walker struct {
	source []byte
	names  []string
	result *Extraction
}

func (w *walker) walk(node *ts.Node) {
	switch node.Kind() {
	case "jsx_opening_element", "jsx_self_closing_element":
		w.element(node)
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i))
	}
}

// element records the class attributes of an opening or self-closing tag.
// Each attribute value is walked right after the attribute itself so that
// elements nested in expression values keep document order.
func (w *walker) element(node *ts.Node) {
	tag, kind := tagName(node, w.source)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "jsx_attribute" {
			if attr, ok := w.attribute(child); ok {
				attr.Tag = tag
				attr.TagKind = kind
				w.result.Attributes = append(w.result.Attributes, attr)
			}
		}
		w.walk(child)
	}
}

func (w *walker) attribute(node *ts.Node) (ClassAttribute, bool) {
	var attr ClassAttribute
	matched := false

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "property_identifier":
			name := child.Utf8Text(w.source)
			if !slices.Contains(w.names, name) {
				return attr, false
			}
			attr.Name = name
			matched = true
		case "string":
			attr.Static = true
			attr.Value = stringContent(child, w.source)
			attr.ValueStart, attr.ValueEnd = child.StartByte(), child.EndByte()
		case "jsx_expression":
			attr.ValueStart, attr.ValueEnd = child.StartByte(), child.EndByte()
		}
	}

	if !matched {
		return attr, false
	}
	pos := node.StartPosition()
	attr.Line = int(pos.Row) + 1
	attr.Column = int(pos.Column) + 1
	return attr, true
}

// tagName returns the element name and its kind.
func tagName(node *ts.Node, source []byte) (string, selector.TagKind) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "identifier":
			name := child.Utf8Text(source)
			return name, selector.ClassifyTag(name)
		case "member_expression", "nested_identifier", "jsx_namespace_name":
			return child.Utf8Text(source), selector.TagIndeterminate
		case "jsx_attribute", "jsx_expression":
			return "", selector.TagIndeterminate
		}
	}
	return "", selector.TagIndeterminate
}
