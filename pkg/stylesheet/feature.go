package stylesheet

import (
	"strings"

	"github.com/gnana997/classmod/pkg/utility"
)

// VariablesFile is the name of the shared variables stylesheet.
const VariablesFile = "_variables.scss"

// Section is the rendered rules of one source file.
type Section struct {
	// File is the source file name without extension.
	File  string
	Rules []string
}

// RenderFeature assembles a feature's module stylesheet. When labelled is
// set each section is preceded by a comment naming its source file.
func RenderFeature(mixinsFile string, sections []Section, labelled bool) string {
	var sb strings.Builder
	sb.WriteString(`@use "./` + mixinsFile + `" as *;` + "\n\n")
	for _, s := range sections {
		if labelled {
			sb.WriteString("\n  // " + s.File + "\n")
		}
		for _, r := range s.Rules {
			sb.WriteString(r)
		}
	}
	return sb.String()
}

// GlobalRule is one class collected from a global: token.
type GlobalRule struct {
	// Class is the token without its global: prefix.
	Class      string
	Responsive string
	Pseudo     string
	Lines      []string
	Resolved   bool
}

var classEscaper = strings.NewReplacer(":", `\:`, "/", `\/`, ".", `\.`)

// EscapeClass escapes a class name for use in a selector.
func EscapeClass(class string) string {
	return classEscaper.Replace(class)
}

// RenderGlobals renders the global stylesheet, one rule per class in the
// given order. Unresolved classes are left as TODO comments.
func (bl *Builder) RenderGlobals(rules []GlobalRule) string {
	var sb strings.Builder
	for _, r := range rules {
		sel := "." + EscapeClass(r.Class)
		switch {
		case !r.Resolved || len(r.Lines) == 0:
			sb.WriteString(sel + " { /* TODO: " + r.Class + " */ }\n")
		case r.Responsive == "" && r.Pseudo == "":
			sb.WriteString(sel + " { " + strings.Join(r.Lines, " ") + " }\n")
		default:
			b := NewBlock()
			b.Add(r.Responsive, r.Pseudo, r.Lines...)
			sb.WriteString(bl.Render(sel, b))
		}
	}
	return sb.String()
}

// RenderVariables renders _variables.scss from the table's variable list,
// with a comment line before each group.
func RenderVariables(table *utility.Table) string {
	var sb strings.Builder
	group := ""
	for i, v := range table.Variables {
		if i == 0 || v.Group != group {
			if i > 0 {
				sb.WriteString("\n")
			}
			group = v.Group
			if group != "" {
				sb.WriteString("// " + group + "\n")
			}
		}
		sb.WriteString("$" + v.Name + ": " + v.Value + ";\n")
	}
	return sb.String()
}

// RenderMixins renders the shared mixins file used by generated module
// stylesheets.
func RenderMixins() string {
	return `@use './` + VariablesFile + `' as *;
@mixin bg($color){background-color:$color;}
@mixin text($color){color:$color;}
@mixin p($value){padding:$value;}
@mixin m($value){margin:$value;}
@mixin gap($value){gap:$value;}
@mixin shadow-xl{box-shadow:0 25px 50px -12px rgba(0,0,0,0.25);}
@mixin shadow-sm{box-shadow:0 1px 2px 0 rgba(0,0,0,0.05);}
@mixin rounded($value){border-radius:$value;}
`
}
