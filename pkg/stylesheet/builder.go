package stylesheet

import (
	"strings"
)

// Builder renders Blocks into SCSS rule text.
type Builder struct {
	// Breakpoints maps a responsive modifier to its media query.
	Breakpoints map[string]string
	// Pseudo maps a pseudo modifier to its nested selector.
	Pseudo map[string]string
	// Indent is one nesting level; two spaces when empty.
	Indent string
}

// DefaultBreakpoints returns the min-width media queries for sm through 2xl.
func DefaultBreakpoints() map[string]string {
	return map[string]string{
		"sm":  "@media (min-width: 640px)",
		"md":  "@media (min-width: 768px)",
		"lg":  "@media (min-width: 1024px)",
		"xl":  "@media (min-width: 1280px)",
		"2xl": "@media (min-width: 1536px)",
	}
}

// DefaultPseudo returns the nested selectors for the supported states.
func DefaultPseudo() map[string]string {
	return map[string]string{
		"hover":    "&:hover",
		"focus":    "&:focus",
		"active":   "&:active",
		"disabled": "&:disabled",
		"visited":  "&:visited",
	}
}

// NewBuilder returns a Builder using the default breakpoints and states.
func NewBuilder() *Builder {
	return &Builder{
		Breakpoints: DefaultBreakpoints(),
		Pseudo:      DefaultPseudo(),
		Indent:      "  ",
	}
}

// Supports reports whether both modifiers of a key can be rendered.
func (bl *Builder) Supports(responsive, pseudo string) bool {
	if responsive != "" && responsive != BaseAxis {
		if _, ok := bl.Breakpoints[responsive]; !ok {
			return false
		}
	}
	if pseudo != "" && pseudo != BaseAxis {
		if _, ok := bl.Pseudo[pseudo]; !ok {
			return false
		}
	}
	return true
}

// Render returns the rule for selector, or "" when the block has no lines.
//
// Order: base lines flat, then each base/pseudo group nested under its
// state, then each responsive group under its media query with its own
// pseudo nesting.
func (bl *Builder) Render(selector string, b *Block) string {
	if b == nil || b.Empty() {
		return ""
	}
	ind := bl.indent()

	var sb strings.Builder
	sb.WriteString(selector + " {\n")

	for _, k := range b.keys {
		if k.IsBase() {
			writeLines(&sb, ind, b.lines[k])
		}
	}

	for _, k := range b.keys {
		lines := b.lines[k]
		if k.Responsive != BaseAxis || k.Pseudo == BaseAxis || len(lines) == 0 {
			continue
		}
		bl.writeNested(&sb, ind, bl.Pseudo[k.Pseudo], lines)
	}

	for _, k := range b.keys {
		lines := b.lines[k]
		if k.Responsive == BaseAxis || len(lines) == 0 {
			continue
		}
		sb.WriteString(ind + bl.Breakpoints[k.Responsive] + " {\n")
		if k.Pseudo == BaseAxis {
			writeLines(&sb, ind+ind, lines)
		} else {
			bl.writeNested(&sb, ind+ind, bl.Pseudo[k.Pseudo], lines)
		}
		sb.WriteString(ind + "}\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (bl *Builder) writeNested(sb *strings.Builder, prefix, header string, lines []string) {
	sb.WriteString(prefix + header + " {\n")
	writeLines(sb, prefix+bl.indent(), lines)
	sb.WriteString(prefix + "}\n")
}

func (bl *Builder) indent() string {
	if bl.Indent == "" {
		return "  "
	}
	return bl.Indent
}

func writeLines(sb *strings.Builder, prefix string, lines []string) {
	for _, l := range lines {
		sb.WriteString(prefix + l + "\n")
	}
}
