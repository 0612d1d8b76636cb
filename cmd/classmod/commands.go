package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cli "github.com/urfave/cli/v3"

	"github.com/gnana997/classmod/pkg/config"
	"github.com/gnana997/classmod/pkg/convert"
	"github.com/gnana997/classmod/pkg/discover"
	mcpserver "github.com/gnana997/classmod/pkg/mcp"
	"github.com/gnana997/classmod/pkg/mcplog"
	"github.com/gnana997/classmod/pkg/watch"
)

// conversionOptions applies the command-line overrides to a copy of the
// active configuration.
func conversionOptions(env *appEnv, cmd *cli.Command) (convert.Options, error) {
	cfg := *env.cfg
	if cmd.IsSet("framework") {
		cfg.Framework = cmd.String("framework")
	}
	if cmd.IsSet("features-dir") {
		cfg.Paths.FeaturesDir = cmd.String("features-dir")
	}
	if cmd.Bool("replace") {
		cfg.Conversion.Replace = true
	}
	if err := cfg.Validate(); err != nil {
		return convert.Options{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return convert.OptionsFromConfig(&cfg)
}

func targetArg(env *appEnv, cmd *cli.Command) (string, error) {
	if cmd.Args().Len() == 0 {
		return "", fmt.Errorf("missing TARGET: feature name, feature path or %q", discover.AllFeatures)
	}
	if cmd.Args().Len() > 1 {
		env.log.Warn("Malformed command line, too many targets", "ignoring", cmd.Args().Slice()[1:])
	}
	return cmd.Args().First(), nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	target, err := targetArg(env, cmd)
	if err != nil {
		return err
	}
	opts, err := conversionOptions(env, cmd)
	if err != nil {
		return err
	}

	env.log.Info("Converting", "target", target, "framework", opts.Framework, "replace", opts.Replace)

	rc, err := convert.Run(ctx, opts, target, env.log)
	if err != nil {
		return err
	}

	var files, converted int
	for _, s := range rc.Summaries {
		files += s.FilesProcessed
		converted += s.ClassesConverted
	}
	env.log.Info("Conversion complete",
		"features", len(rc.Summaries),
		"files", files,
		"converted", converted,
		"unknown", rc.Tracker.Len(),
		"duplicates", len(rc.Duplicates),
		"report", filepath.Join(opts.ReportDir, opts.SummaryFile))

	// Files that failed are already part of the report.
	if err := rc.Err(); err != nil {
		env.log.Warn("Some files were not converted", "error", err)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	target, err := targetArg(env, cmd)
	if err != nil {
		return err
	}
	opts, err := conversionOptions(env, cmd)
	if err != nil {
		return err
	}
	if opts.Replace {
		env.log.Warn("Source replacement is disabled while watching")
		opts.Replace = false
	}

	targets, err := discover.ResolveTarget(target, opts.FeaturesDir, opts.Discover)
	if err != nil {
		return err
	}

	conv, err := convert.New(opts, env.log)
	if err != nil {
		return err
	}
	defer conv.Close()

	cache, err := convert.NewCache(convert.DefaultCacheSize, env.log)
	if err != nil {
		return err
	}
	conv.SetCache(cache)

	w, err := watch.New(conv, targets, watch.Options{
		Debounce: cmd.Duration("debounce"),
		OnRegenerate: func(rc *convert.RunContext, err error) {
			if err != nil {
				env.log.Error("Regeneration failed", "error", err)
				return
			}
			env.log.Info("Regenerated", "features", len(rc.Summaries), "unknown", rc.Tracker.Len())
		},
	}, env.log)
	if err != nil {
		return err
	}

	env.log.Info("Watching for changes, press Ctrl+C to stop", "target", target, "features", len(targets))
	err = w.Run(ctx)

	st := cache.Stats()
	env.log.Debug("Watch stopped", "runs", w.Runs(), "cache_hits", st.Hits, "cache_misses", st.Misses)
	return err
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)

	opts, err := conversionOptions(env, cmd)
	if err != nil {
		return err
	}

	conv, err := convert.New(opts, env.log)
	if err != nil {
		return err
	}
	defer conv.Close()

	calls, err := mcplog.Open(cmd.String("log-file"))
	if err != nil {
		return err
	}
	defer calls.Close()

	env.log.Info("Serving MCP over stdio", "framework", opts.Framework)

	srv := mcpserver.NewServer(conv, calls)
	if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.log.Warn("Malformed command line, too many destinations", "ignoring", cmd.Args().Slice()[1:])
	}

	fname := cmd.Args().Get(0)

	var (
		data  []byte
		state string
	)

	if cmd.Bool("default") {
		state = "default"
		data = config.DefaultYAML
	} else {
		state = "actual"
		if data, err = config.Dump(env.cfg); err != nil {
			return fmt.Errorf("unable to get configuration: %w", err)
		}
	}

	if len(fname) == 0 {
		_, err = cmd.Root().Writer.Write(data)
		return err
	}

	out, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	env.log.Info("Configuration written", "state", state, "file", fname)
	return nil
}
