package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/classmod/pkg/config"
)

const navbarTSX = `export function Navbar() {
  return (
    <nav className="flex p-4">
      <a className="text-gray-600 wiggle">Home</a>
    </nav>
  );
}
`

// runApp runs the command line in-process with dir as working directory.
func runApp(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(contextWithEnv(context.Background()), append([]string{appName}, args...))
	return stdout.String(), stderr.String(), err
}

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConvertCommand(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/features/navbar/Navbar.tsx", navbarTSX)

	_, stderr, err := runApp(t, root, "--log-level", "warn", "convert", "navbar")
	require.NoError(t, err, stderr)

	module, err := os.ReadFile(filepath.Join(root, "src/features/navbar/navbar.module.scss"))
	require.NoError(t, err)
	assert.Contains(t, string(module), ".nav {\n  display: flex;\n  @include p($spacing-4);\n}\n")

	assert.FileExists(t, filepath.Join(root, "CONVERSION_REPORT.md"))
	assert.FileExists(t, filepath.Join(root, "src/features/navbar/CONVERSION_GUIDE.md"))
	assert.FileExists(t, filepath.Join(root, "src/features/navbar/conversion.log"))

	// Without --replace the markup is untouched.
	src, err := os.ReadFile(filepath.Join(root, "src/features/navbar/Navbar.tsx"))
	require.NoError(t, err)
	assert.Equal(t, navbarTSX, string(src))
}

func TestConvertCommand_Replace(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "app/features/navbar/Navbar.tsx", navbarTSX)

	_, stderr, err := runApp(t, root, "--log-level", "error",
		"convert", "--replace", "--features-dir", "app/features", "navbar")
	require.NoError(t, err, stderr)

	src, err := os.ReadFile(filepath.Join(root, "app/features/navbar/Navbar.tsx"))
	require.NoError(t, err)
	assert.Contains(t, string(src), `import styles from "./navbar.module.scss";`)
	assert.Contains(t, string(src), `<nav className={styles["nav"]}>`)
}

func TestConvertCommand_Errors(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "src/features/navbar/Navbar.tsx", navbarTSX)

	tests := []struct {
		name string
		args []string
	}{
		{"missing target", []string{"convert"}},
		{"missing feature", []string{"convert", "checkout"}},
		{"unknown framework", []string{"convert", "--framework", "foundation", "navbar"}},
		{"bad log level", []string{"--log-level", "loud", "convert", "navbar"}},
		{"missing config", []string{"--config", "nope.yaml", "convert", "navbar"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runApp(t, root, tc.args...)
			assert.Error(t, err)
		})
	}
	assert.NoFileExists(t, filepath.Join(root, "CONVERSION_REPORT.md"))
}

func TestConvertCommand_ProjectConfig(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "web/features/card/Card.jsx",
		`export const Card = () => <section className="p-4">x</section>;`+"\n")
	writeProjectFile(t, root, config.ProjectFile, "paths:\n  features_dir: ./web/features\nreport:\n  dir: reports\n")

	_, stderr, err := runApp(t, root, "--log-level", "error", "convert", "all")
	require.NoError(t, err, stderr)

	assert.FileExists(t, filepath.Join(root, "web/features/card/card.module.scss"))
	assert.FileExists(t, filepath.Join(root, "reports/CONVERSION_REPORT.md"))
}

func TestDumpConfigCommand(t *testing.T) {
	root := t.TempDir()

	stdout, _, err := runApp(t, root, "dumpconfig", "--default")
	require.NoError(t, err)
	assert.Equal(t, string(config.DefaultYAML), stdout)

	stdout, _, err = runApp(t, root, "--log-format", "json", "dumpconfig")
	require.NoError(t, err)
	assert.Contains(t, stdout, "framework: tailwind")
	assert.Contains(t, stdout, "format: json")

	dest := filepath.Join(root, "out.yaml")
	_, _, err = runApp(t, root, "--log-level", "error", "dumpconfig", dest)
	require.NoError(t, err)

	cfg, err := config.Load(dest)
	require.NoError(t, err)
	assert.Equal(t, "./src/features", cfg.Paths.FeaturesDir)
}

func TestInspectCommand(t *testing.T) {
	stdout, _, err := runApp(t, t.TempDir(), "inspect", "md:hover:bg-blue-500", "wiggle")
	require.NoError(t, err)

	assert.Contains(t, stdout, "md:hover:bg-blue-500  [tailwind]\n")
	assert.Contains(t, stdout, "breakpoint  md  @media (min-width: 768px)")
	assert.Contains(t, stdout, "@include bg($blue-500);")
	assert.Contains(t, stdout, "  .element {\n")
	assert.Contains(t, stdout, "wiggle  [tailwind]  [UNKNOWN]\n")
}

func TestInspectCommand_Bootstrap(t *testing.T) {
	stdout, _, err := runApp(t, t.TempDir(), "inspect", "--framework", "bootstrap", "d-flex")
	require.NoError(t, err)
	assert.Contains(t, stdout, "d-flex  [bootstrap]\n")
	assert.Contains(t, stdout, "display: flex;")
}

func TestPrintWrapped(t *testing.T) {
	var buf bytes.Buffer
	printWrapped(&buf, "alpha beta gamma delta", 2, 14)
	assert.Equal(t, "  alpha beta\n  gamma delta\n", buf.String())
}
