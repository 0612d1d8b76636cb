package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/classmod/pkg/selector"
	"github.com/gnana997/classmod/pkg/util"
)

func selectorFor(tag string) selector.ElementSelector {
	return selector.NewAssigner(nil, nil).Assign(tag)
}

// setupProject creates three features sharing "display: flex" on distinct
// selectors, one of them with two files and an unknown class.
func setupProject(t *testing.T) (string, Options) {
	t.Helper()
	root := t.TempDir()
	opts := testOptions(t, root)
	features := opts.FeaturesDir

	writeFile(t, filepath.Join(features, "navbar", "Navbar.tsx"), navbarSource)
	writeFile(t, filepath.Join(features, "navbar", "NavLink.tsx"),
		`export const NavLink = () => <a className="text-gray-600 hover:text-blue-500">x</a>;`+"\n")
	writeFile(t, filepath.Join(features, "card", "Card.tsx"),
		`export const Card = () => <article className="flex rounded-lg"><h2 className="font-bold">t</h2></article>;`+"\n")
	writeFile(t, filepath.Join(features, "alert", "Alert.jsx"),
		`export const Alert = () => <aside className="flex items-center">!</aside>;`+"\n")

	return root, opts
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestRun_AllFeatures(t *testing.T) {
	root, opts := setupProject(t)
	features := opts.FeaturesDir

	rc, err := Run(context.Background(), opts, "all", util.NopLogger())
	require.NoError(t, err)
	require.NoError(t, rc.Err())

	require.Len(t, rc.Summaries, 3)
	assert.Equal(t, "alert", rc.Summaries[0].Feature)
	assert.Equal(t, "card", rc.Summaries[1].Feature)
	assert.Equal(t, "navbar", rc.Summaries[2].Feature)

	nav := rc.Summaries[2]
	assert.Equal(t, 2, nav.FilesProcessed)
	assert.Equal(t, 1, nav.UnknownClasses)
	assert.True(t, nav.SCSSGenerated)
	assert.False(t, nav.SourcesUpdated)

	navDir := filepath.Join(features, "navbar")
	module := readFile(t, filepath.Join(navDir, "navbar.module.scss"))
	assert.True(t, strings.HasPrefix(module, "@use \"./tailwind.mixins.scss\" as *;\n\n"))
	assert.Contains(t, module, "\n  // NavLink\n.a_nth-of-type_1 {\n  @include text($gray-600);\n")
	assert.Less(t, strings.Index(module, "// NavLink"), strings.Index(module, "// Navbar"))

	assert.FileExists(t, filepath.Join(navDir, "_variables.scss"))
	assert.Contains(t, readFile(t, filepath.Join(navDir, "tailwind.mixins.scss")), "@mixin bg($color)")
	assert.Equal(t, ".text-red-500 { @include text($red-500); }\n", readFile(t, filepath.Join(navDir, "navbar.global.scss")))
	assert.Contains(t, readFile(t, filepath.Join(navDir, "conversion.log")),
		"src/features/navbar/Navbar.tsx:4\n  Element: <div>\n  Unknown class: unknown-shake\n")
	assert.Contains(t, readFile(t, filepath.Join(navDir, "CONVERSION_GUIDE.md")), "- `unknown-shake`")

	assert.NoFileExists(t, filepath.Join(features, "card", "conversion.log"))
	assert.NoFileExists(t, filepath.Join(features, "card", "card.global.scss"))

	// sources are untouched without replace
	assert.Equal(t, navbarSource, readFile(t, filepath.Join(navDir, "Navbar.tsx")))

	summary := readFile(t, filepath.Join(root, "CONVERSION_REPORT.md"))
	assert.Contains(t, summary, "| Features Converted | 3 |")
	assert.Contains(t, summary, "**src/features/navbar/Navbar.tsx**")

	require.NotEmpty(t, rc.Duplicates)
	assert.Equal(t, "display: flex", rc.Duplicates[0].Key)
	assert.Contains(t, readFile(t, filepath.Join(features, "_global_properties.scss")), "// Property: display: flex\n")
	assert.Contains(t, readFile(t, filepath.Join(root, "PROPERTY_DUPLICATES_REPORT.md")), "### display: flex")
}

func TestRun_ReplaceSingleFeature(t *testing.T) {
	root, opts := setupProject(t)
	opts.Replace = true

	rc, err := Run(context.Background(), opts, "card", util.NopLogger())
	require.NoError(t, err)

	require.Len(t, rc.Summaries, 1)
	assert.True(t, rc.Summaries[0].SourcesUpdated)

	card := readFile(t, filepath.Join(opts.FeaturesDir, "card", "Card.tsx"))
	assert.True(t, strings.HasPrefix(card, "import styles from \"./card.module.scss\";\n"))
	assert.Contains(t, card, `<article className={styles["article"]}><h2 className={styles["h2"]}>`)

	assert.FileExists(t, filepath.Join(root, "CONVERSION_REPORT.md"))
	assert.NoFileExists(t, filepath.Join(root, "PROPERTY_DUPLICATES_REPORT.md"))
	assert.NoFileExists(t, filepath.Join(opts.FeaturesDir, "_global_properties.scss"))
}

func TestRun_MissingFolder(t *testing.T) {
	root, opts := setupProject(t)

	_, err := Run(context.Background(), opts, "ghost", util.NopLogger())
	assert.ErrorIs(t, err, ErrFolderNotFound)
	assert.NoFileExists(t, filepath.Join(root, "CONVERSION_REPORT.md"))
}

func TestConvertFeature_SkipsBrokenFiles(t *testing.T) {
	_, opts := setupProject(t)
	dir := filepath.Join(opts.FeaturesDir, "card")
	writeFile(t, filepath.Join(dir, "Broken.tsx"), "export const B = () => <div className=\"flex\">;\n")

	conv := newTestConverter(t, opts)
	rc := NewRunContext(opts)
	rc.Now = fixedClock

	fr, err := conv.ConvertFeature(context.Background(), rc, dir)
	require.NoError(t, err)

	assert.Equal(t, 1, fr.Summary.FilesProcessed)
	assert.Equal(t, 1, fr.Summary.FilesFailed)
	assert.Error(t, fr.Err)
	assert.Error(t, rc.Err())
	assert.Contains(t, fr.Module, ".article {")

	guide := readFile(t, filepath.Join(dir, "CONVERSION_GUIDE.md"))
	assert.Contains(t, guide, "Generated: 2026-03-14 09:26:53")
	assert.Contains(t, guide, "## ✅ All Classes Converted!")
}

func TestConvertFeature_RemovesStaleOutputs(t *testing.T) {
	_, opts := setupProject(t)
	dir := filepath.Join(opts.FeaturesDir, "alert")
	writeFile(t, filepath.Join(dir, "alert.global.scss"), ".old {}\n")
	writeFile(t, filepath.Join(dir, LogFile), "old\n")

	conv := newTestConverter(t, opts)
	_, err := conv.ConvertFeature(context.Background(), NewRunContext(opts), dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "alert.global.scss"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, LogFile))
	assert.True(t, os.IsNotExist(err))
}
