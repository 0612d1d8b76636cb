package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/gnana997/classmod/pkg/classes"
	"github.com/gnana997/classmod/pkg/convert"
	"github.com/gnana997/classmod/pkg/selector"
)

const (
	maxWidth        = 80
	previewSelector = ".element"
)

func runInspect(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("missing CLASS: at least one utility class is required")
	}
	opts, err := conversionOptions(env, cmd)
	if err != nil {
		return err
	}

	conv, err := convert.New(opts, env.log)
	if err != nil {
		return err
	}
	defer conv.Close()

	w := cmd.Root().Writer
	for i, arg := range cmd.Args().Slice() {
		// Quoted attribute values may hold several classes.
		for j, class := range classes.Split(arg) {
			if i > 0 || j > 0 {
				fmt.Fprintln(w)
			}
			printClass(w, conv, class)
		}
	}
	return nil
}

// printClass prints a human-readable summary of one class.
func printClass(w io.Writer, conv *convert.Converter, class string) {
	opts := conv.Options()
	tok := classes.Parse(class, opts.Modifiers, opts.Policy)

	decl, known := conv.Table().Resolve(tok.Base)
	header := fmt.Sprintf("%s  [%s]", tok.Original, opts.Framework)
	switch {
	case tok.Malformed:
		header += "  [MALFORMED]"
	case !known:
		header += "  [UNKNOWN]"
	}
	fmt.Fprintln(w, header)

	if tok.Malformed || !known {
		fmt.Fprintln(w)
		printWrapped(w, "Not in the "+string(opts.Framework)+" table. It is kept in the markup and listed in the conversion report.", 2, maxWidth)
		return
	}

	fmt.Fprintln(w)
	printFields(w, "Token", [][2]string{
		{"base", tok.Base},
		{"breakpoint", orNone(tok.Responsive, opts.Breakpoints)},
		{"state", orNone(tok.Pseudo, opts.Pseudo)},
		{"global", fmt.Sprint(tok.Global)},
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Declaration")
	printWrapped(w, decl, 2, maxWidth)

	el, globals := conv.ConvertClasses(class, selector.ElementSelector{Tag: "element", Ordinal: 1, Selector: previewSelector})
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SCSS")
	fmt.Fprintln(w, "  "+strings.Repeat("─", 40))
	for _, line := range strings.Split(strings.TrimRight(el.Rule, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if len(globals) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Global")
		fmt.Fprintln(w, "  "+strings.Repeat("─", 40))
		for _, line := range strings.Split(strings.TrimRight(conv.Builder().RenderGlobals(globals), "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
}

// printFields renders a two-column table with a dynamic name column.
func printFields(w io.Writer, title string, fields [][2]string) {
	fmt.Fprintln(w, title)
	nameW := 0
	for _, f := range fields {
		nameW = max(nameW, len(f[0]))
	}
	for _, f := range fields {
		fmt.Fprintf(w, "  %-*s  %s\n", nameW, f[0], f[1])
	}
}

func orNone(modifier string, wrappers map[string]string) string {
	if modifier == "" {
		return "—"
	}
	if wrapper, ok := wrappers[modifier]; ok {
		return modifier + "  " + wrapper
	}
	return modifier
}

// printWrapped prints text word-wrapped at width with the given left indent.
func printWrapped(w io.Writer, text string, indent, width int) {
	words := strings.Fields(text)
	prefix := strings.Repeat(" ", indent)
	line := prefix
	for _, word := range words {
		if len(line)+len(word)+1 > width && line != prefix {
			fmt.Fprintln(w, line)
			line = prefix + word
		} else {
			if line == prefix {
				line += word
			} else {
				line += " " + word
			}
		}
	}
	if line != prefix {
		fmt.Fprintln(w, line)
	}
}
