package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("export {};\n"), 0o644))
}

func setupFeatures(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	features := filepath.Join(root, "src", "features")

	writeFile(t, filepath.Join(features, "navbar", "Navbar.tsx"))
	writeFile(t, filepath.Join(features, "navbar", "parts", "Link.jsx"))
	writeFile(t, filepath.Join(features, "navbar", "navbar.module.scss"))
	writeFile(t, filepath.Join(features, "navbar", "node_modules", "dep", "x.tsx"))
	writeFile(t, filepath.Join(features, "card", "Card.tsx"))
	writeFile(t, filepath.Join(features, "empty", "README.md"))

	return features
}

func TestFiles(t *testing.T) {
	features := setupFeatures(t)

	files, err := Files(filepath.Join(features, "navbar"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(features, "navbar", "Navbar.tsx"),
		filepath.Join(features, "navbar", "parts", "Link.jsx"),
	}, files)
}

func TestFiles_InvalidPattern(t *testing.T) {
	_, err := Files(t.TempDir(), Options{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestFeatures(t *testing.T) {
	features := setupFeatures(t)

	dirs, err := Features(features, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(features, "card"),
		filepath.Join(features, "navbar"),
	}, dirs)

	_, err = Features(filepath.Join(features, "missing"), DefaultOptions())
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestResolveTarget(t *testing.T) {
	features := setupFeatures(t)

	dirs, err := ResolveTarget("all", features, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, dirs, 2)

	dirs, err = ResolveTarget("navbar", features, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(features, "navbar")}, dirs)

	dirs, err = ResolveTarget("features/card", features, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(features, "card")}, dirs)

	dirs, err = ResolveTarget(filepath.Join(features, "card"), features, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(features, "card")}, dirs)

	_, err = ResolveTarget("ghost", features, DefaultOptions())
	assert.ErrorIs(t, err, ErrFolderNotFound)
}

func TestResolveTarget_NoFeatures(t *testing.T) {
	features := t.TempDir()
	writeFile(t, filepath.Join(features, "docs", "notes.md"))

	_, err := ResolveTarget("all", features, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoFeatures)
}

func TestOptionsMatch(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Match("Navbar.tsx"))
	assert.True(t, opts.Match("parts/Link.jsx"))
	assert.False(t, opts.Match("navbar.module.scss"))
	assert.False(t, opts.Match("node_modules/dep/x.tsx"))
}
