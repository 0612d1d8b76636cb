// Package discover finds feature folders and the markup files inside them.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrFolderNotFound is returned when a target folder does not exist.
	ErrFolderNotFound = errors.New("folder does not exist")
	// ErrNoFeatures is returned when "all" matches no feature folder.
	ErrNoFeatures = errors.New("no feature folders with markup files found")
)

// AllFeatures selects every feature folder.
const AllFeatures = "all"

// Options holds the include/exclude globs, matched against slash-separated
// paths relative to the walked directory.
type Options struct {
	Include []string
	Exclude []string
}

// DefaultOptions matches .tsx and .jsx files outside node_modules.
func DefaultOptions() Options {
	return Options{
		Include: []string{"**/*.tsx", "**/*.jsx"},
		Exclude: []string{"**/node_modules/**"},
	}
}

func (o Options) validate() error {
	for _, pattern := range o.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range o.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}

// Excluded reports whether rel matches one of the exclude patterns.
func (o Options) Excluded(rel string) bool {
	return matchAny(o.Exclude, rel)
}

// Match reports whether rel, a slash-separated path relative to a walked
// directory, is included and not excluded.
func (o Options) Match(rel string) bool {
	if o.Excluded(rel) {
		return false
	}
	return len(o.Include) == 0 || matchAny(o.Include, rel)
}

// Files walks dir and returns the sorted paths of matching files.
func Files(dir string, opts Options) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if matchAny(opts.Exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if len(opts.Include) > 0 && !matchAny(opts.Include, rel) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Features returns the immediate subdirectories of featuresDir that contain
// at least one matching file, sorted.
func Features(featuresDir string, opts Options) ([]string, error) {
	entries, err := os.ReadDir(featuresDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, featuresDir)
		}
		return nil, fmt.Errorf("failed to read features dir: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(featuresDir, e.Name())
		files, err := Files(dir, opts)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			dirs = append(dirs, dir)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

// ResolveTarget maps a command-line target to feature folders:
//
//	all            every feature folder under featuresDir
//	navbar         featuresDir/navbar
//	features/nav   resolved against featuresDir's parent
//	anything else  used as a path
func ResolveTarget(arg, featuresDir string, opts Options) ([]string, error) {
	if arg == AllFeatures {
		dirs, err := Features(featuresDir, opts)
		if err != nil {
			return nil, err
		}
		if len(dirs) == 0 {
			return nil, fmt.Errorf("%w in %s", ErrNoFeatures, featuresDir)
		}
		return dirs, nil
	}

	var dir string
	switch {
	case !strings.ContainsAny(arg, `/\`):
		dir = filepath.Join(featuresDir, arg)
	case strings.HasPrefix(filepath.ToSlash(arg), filepath.Base(featuresDir)+"/"):
		dir = filepath.Join(filepath.Dir(featuresDir), arg)
	default:
		dir = arg
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, dir)
	}
	return []string{dir}, nil
}
