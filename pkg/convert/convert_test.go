package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/classmod/pkg/classes"
	"github.com/gnana997/classmod/pkg/parser"
	"github.com/gnana997/classmod/pkg/util"
)

const navbarSource = `export function Navbar() {
  return (
    <nav className="flex p-4">
      <div className="bg-blue-500 hover:bg-white md:p-4 unknown-shake">a</div>
      <div className="global:text-red-500">b</div>
      <div className={dynamic}>c</div>
      <span className="sm:hover:bg-blue-500">d</span>
    </nav>
  );
}
`

func testOptions(t *testing.T, root string) Options {
	t.Helper()
	opts, err := DefaultOptions()
	require.NoError(t, err)
	opts.Root = root
	opts.FeaturesDir = filepath.Join(root, "src", "features")
	opts.ReportDir = root
	return opts
}

func newTestConverter(t *testing.T, opts Options) *Converter {
	t.Helper()
	conv, err := New(opts, util.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { conv.Close() })
	return conv
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestConvertSource(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	res, err := conv.ConvertSource(context.Background(), "navbar", "src/features/navbar/Navbar.tsx", []byte(navbarSource))
	require.NoError(t, err)

	require.Len(t, res.Elements, 4)
	assert.Equal(t, 1, res.Dynamic)
	assert.Equal(t, "Navbar.tsx", res.Name)

	nav := res.Elements[0]
	assert.Equal(t, ".nav", nav.Selector.Selector)
	assert.Equal(t, ".nav {\n  display: flex;\n  @include p($spacing-4);\n}\n", nav.Rule)

	div := res.Elements[1]
	assert.Equal(t, ".div_nth-of-type_1", div.Selector.Selector)
	assert.Equal(t, []string{"bg-blue-500", "hover:bg-white", "md:p-4"}, div.Known)
	assert.Equal(t, []string{"unknown-shake"}, div.Unknown)
	assert.Equal(t, ".div_nth-of-type_1 {\n"+
		"  @include bg($blue-500);\n"+
		"  &:hover {\n"+
		"    @include bg($white);\n"+
		"  }\n"+
		"  @media (min-width: 768px) {\n"+
		"    @include p($spacing-4);\n"+
		"  }\n"+
		"}\n", div.Rule)

	global := res.Elements[2]
	assert.Equal(t, ".div_nth-of-type_2", global.Selector.Selector)
	assert.Equal(t, []string{"global:text-red-500"}, global.Known)
	assert.Contains(t, global.Rule, "@include text($red-500);")
	require.Len(t, res.Globals, 1)
	assert.Equal(t, "text-red-500", res.Globals[0].Class)
	assert.True(t, res.Globals[0].Resolved)

	span := res.Elements[3]
	assert.Equal(t, ".span_nth-of-type_1", span.Selector.Selector)
	assert.Contains(t, span.Rule, "  @media (min-width: 640px) {\n    &:hover {\n      @include bg($blue-500);\n    }\n  }\n")

	require.Len(t, res.Unknown, 1)
	assert.Equal(t, "unknown-shake", res.Unknown[0].Class)
	assert.Equal(t, "div", res.Unknown[0].Element)
	assert.Equal(t, 4, res.Unknown[0].Line)
	assert.Equal(t, "navbar", res.Unknown[0].Feature)
	assert.Equal(t, "tailwind", res.Unknown[0].Framework)

	out := string(res.Source)
	assert.True(t, strings.HasPrefix(out, "import styles from \"./navbar.module.scss\";\nexport function Navbar()"))
	assert.Contains(t, out, `<nav className={styles["nav"]}>`)
	assert.Contains(t, out, "<div className={`${styles[\"div_nth-of-type_1\"]} unknown-shake`}>a</div>")
	assert.Contains(t, out, `<div className={dynamic}>c</div>`)
}

func TestConvertSource_TokenAccounting(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	src := `const A = () => <div className="flex  global:hidden lg:focus:p-4 bogus xx:hover:flex a:b:c:d">x</div>;`
	res, err := conv.ConvertSource(context.Background(), "a", "A.jsx", []byte(src))
	require.NoError(t, err)
	require.Len(t, res.Elements, 1)

	el := res.Elements[0]
	assert.Len(t, el.Original, 6)
	assert.Equal(t, len(el.Original), len(el.Known)+len(el.Unknown))
	assert.Equal(t, []string{"flex", "global:hidden", "lg:focus:p-4"}, el.Known)
	assert.Equal(t, []string{"bogus", "xx:hover:flex", "a:b:c:d"}, el.Unknown)
}

func TestConvertSource_AmbiguityPolicy(t *testing.T) {
	src := []byte(`const A = () => <p className="dark:flex">x</p>;`)

	opts := testOptions(t, t.TempDir())
	res, err := newTestConverter(t, opts).ConvertSource(context.Background(), "a", "A.tsx", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"dark:flex"}, res.Elements[0].Known)

	opts.Policy = classes.TreatAsUnknown
	res, err = newTestConverter(t, opts).ConvertSource(context.Background(), "a", "A.tsx", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"dark:flex"}, res.Elements[0].Unknown)
	assert.Empty(t, res.Elements[0].Rule)
}

func TestConvertSource_ExistingImport(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	src := `"use client";
import css from "./card.module.scss";

export const Card = () => <section className="p-4">x</section>;
`
	res, err := conv.ConvertSource(context.Background(), "card", "Card.tsx", []byte(src))
	require.NoError(t, err)

	out := string(res.Source)
	assert.Equal(t, 1, strings.Count(out, "import "))
	assert.Contains(t, out, `<section className={css["section"]}>`)

	other := `import styles from "./Card.module.scss";

export const Nav = () => <span className="p-4">x</span>;
`
	res, err = conv.ConvertSource(context.Background(), "nav", "Nav.tsx", []byte(other))
	require.NoError(t, err)

	out = string(res.Source)
	assert.Equal(t, 1, strings.Count(out, "import styles "))
	assert.Contains(t, out, `import navStyles from "./nav.module.scss";`)
	assert.Contains(t, out, `<span className={navStyles["span_nth-of-type_1"]}>`)
}

func TestConvertSource_NoClassesLeavesSource(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	res, err := conv.ConvertSource(context.Background(), "a", "A.tsx", []byte(`export const A = () => <div className={x}>y</div>;`))
	require.NoError(t, err)
	assert.Nil(t, res.Source)
	assert.Empty(t, res.Elements)
}

func TestConvertSource_SyntaxError(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	_, err := conv.ConvertSource(context.Background(), "a", "Broken.tsx", []byte(`export const A = () => <div className="p-4">;`))
	assert.ErrorIs(t, err, parser.ErrSyntax)
}

func TestConvertSource_Cancelled(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conv.ConvertSource(ctx, "a", "A.tsx", []byte(`<div/>`))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertSource_Cache(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))
	cache, err := NewCache(8, util.NopLogger())
	require.NoError(t, err)
	conv.SetCache(cache)

	src := []byte(navbarSource)
	first, err := conv.ConvertSource(context.Background(), "navbar", "Navbar.tsx", src)
	require.NoError(t, err)
	second, err := conv.ConvertSource(context.Background(), "navbar", "Navbar.tsx", src)
	require.NoError(t, err)
	assert.Same(t, first, second)

	changed := []byte(strings.Replace(navbarSource, "flex p-4", "flex", 1))
	third, err := conv.ConvertSource(context.Background(), "navbar", "Navbar.tsx", changed)
	require.NoError(t, err)
	assert.NotSame(t, first, third)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestConverter_Forget(t *testing.T) {
	root := t.TempDir()
	conv := newTestConverter(t, testOptions(t, root))
	conv.Forget("navbar", "Navbar.tsx")

	cache, err := NewCache(8, util.NopLogger())
	require.NoError(t, err)
	conv.SetCache(cache)

	dir := filepath.Join(root, "src", "features", "navbar")
	file := filepath.Join(dir, "Navbar.tsx")
	_, err = conv.ConvertSource(context.Background(), "navbar", "src/features/navbar/Navbar.tsx", []byte(navbarSource))
	require.NoError(t, err)
	require.Equal(t, 1, cache.Stats().Entries)

	conv.Forget(dir, filepath.Join(dir, "Other.tsx"))
	assert.Equal(t, 1, cache.Stats().Entries)

	conv.Forget(dir, file)
	assert.Equal(t, 0, cache.Stats().Entries)

	_, ok := cache.Get("navbar", "src/features/navbar/Navbar.tsx", []byte(navbarSource))
	assert.False(t, ok)
}

func TestConvertClasses(t *testing.T) {
	conv := newTestConverter(t, testOptions(t, t.TempDir()))

	el, globals := conv.ConvertClasses("global:flex shake", selectorFor("button"))
	assert.Equal(t, []string{"global:flex"}, el.Known)
	assert.Equal(t, []string{"shake"}, el.Unknown)
	assert.Equal(t, ".button {\n  display: flex;\n}\n", el.Rule)
	require.Len(t, globals, 1)
	assert.Equal(t, "flex", globals[0].Class)
}
