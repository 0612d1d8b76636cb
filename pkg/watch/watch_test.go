package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/classmod/pkg/convert"
	"github.com/gnana997/classmod/pkg/util"
)

func setup(t *testing.T, replace bool) (*convert.Converter, string) {
	conv, dir, _ := setupWithCache(t, replace)
	return conv, dir
}

func setupWithCache(t *testing.T, replace bool) (*convert.Converter, string, *convert.Cache) {
	t.Helper()
	root := t.TempDir()

	opts, err := convert.DefaultOptions()
	require.NoError(t, err)
	opts.Root = root
	opts.FeaturesDir = filepath.Join(root, "features")
	opts.ReportDir = root
	opts.Replace = replace

	dir := filepath.Join(opts.FeaturesDir, "card")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Card.tsx"),
		[]byte(`export const Card = () => <article className="flex">x</article>;`+"\n"), 0o644))

	conv, err := convert.New(opts, util.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { conv.Close() })

	cache, err := convert.NewCache(0, util.NopLogger())
	require.NoError(t, err)
	conv.SetCache(cache)

	return conv, dir, cache
}

func TestNew_RejectsReplace(t *testing.T) {
	conv, dir := setup(t, true)

	_, err := New(conv, []string{dir}, Options{}, util.NopLogger())
	assert.ErrorIs(t, err, ErrReplaceUnsupported)
}

func TestWatcher_RegeneratesOnChange(t *testing.T) {
	conv, dir := setup(t, false)

	runs := make(chan *convert.RunContext, 8)
	w, err := New(conv, []string{dir}, Options{
		Debounce: 20 * time.Millisecond,
		OnRegenerate: func(rc *convert.RunContext, err error) {
			assert.NoError(t, err)
			runs <- rc
		},
	}, util.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("initial run did not happen")
	}

	module := filepath.Join(dir, "card.module.scss")
	data, err := os.ReadFile(module)
	require.NoError(t, err)
	assert.Contains(t, string(data), "display: flex;")

	// give the watcher time to register its directories
	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.watcher.WatchList()) > 0
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Card.tsx"),
		[]byte(`export const Card = () => <article className="hidden">x</article>;`+"\n"), 0o644))

	select {
	case rc := <-runs:
		require.Len(t, rc.Summaries, 1)
		assert.Equal(t, "card", rc.Summaries[0].Feature)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a run")
	}

	data, err = os.ReadFile(module)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "display: none;"))
	assert.GreaterOrEqual(t, w.Runs(), 2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresGeneratedFiles(t *testing.T) {
	conv, dir := setup(t, false)

	w, err := New(conv, []string{dir}, Options{}, util.NopLogger())
	require.NoError(t, err)
	defer w.Stop()

	_, ok := w.featureOf(filepath.Join(dir, "card.module.scss"))
	assert.False(t, ok)

	feature, ok := w.featureOf(filepath.Join(dir, "parts", "Header.jsx"))
	assert.True(t, ok)
	assert.Equal(t, "card", filepath.Base(feature))

	_, ok = w.featureOf(filepath.Join(filepath.Dir(dir), "other", "X.tsx"))
	assert.False(t, ok)
}

func TestWatcher_ForgetsRemovedFiles(t *testing.T) {
	tests := []struct {
		name string
		op   fsnotify.Op
	}{
		{"remove", fsnotify.Remove},
		{"rename", fsnotify.Rename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, dir, cache := setupWithCache(t, false)

			w, err := New(conv, []string{dir}, Options{Debounce: time.Hour}, util.NopLogger())
			require.NoError(t, err)
			defer w.Stop()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			w.regenerate(ctx)
			require.Equal(t, 1, cache.Stats().Entries)

			file := filepath.Join(dir, "Card.tsx")
			require.NoError(t, os.Remove(file))
			w.handleEvent(ctx, fsnotify.Event{Name: file, Op: tt.op})

			assert.Equal(t, 0, cache.Stats().Entries)
		})
	}
}
