package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/gnana997/classmod/pkg/config"
	"github.com/gnana997/classmod/pkg/discover"
	"github.com/gnana997/classmod/pkg/util"
	"github.com/gnana997/classmod/pkg/utility"
	"github.com/gnana997/classmod/pkg/watch"
)

const (
	appName = "classmod"
	version = "0.1.0-dev"
)

// initializeAppContext loads the configuration and prepares logging after
// the command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.IsSet("log-level") {
		cfg.Logging.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Logging.Format = cmd.String("log-format")
	}

	level, err := util.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return ctx, err
	}
	format, err := util.ParseLogFormat(cfg.Logging.Format)
	if err != nil {
		return ctx, err
	}
	cfg.Logging.Level, cfg.Logging.Format = string(level), string(format)

	env.cfg = cfg
	env.log = util.NewLogger(util.LoggerConfig{Level: level, Format: format, Output: cmd.Root().ErrWriter})

	env.log.Debug("Program started", "args", os.Args, "ver", version, "runtime", runtime.Version())
	if configFile == "" {
		env.log.Debug("No configuration file given, using project or built-in defaults")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	env.log.Debug("Program ended", "elapsed", env.uptime(), "parsed args", cmd.Args().Slice())
	return nil
}

// Errors are returned from actions as regular errors and reported once,
// either through the log or directly to stderr.
var errWasHandled bool

func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.cfg != nil {
		env.log.Error("Program ended with error", "error", err)
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "converts utility classes in TSX/JSX components into SCSS modules",
		Version:         version + " (" + runtime.Version() + ")",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML), defaults to " + config.ProjectFile + " when present"},
			&cli.StringFlag{Name: "log-level", Usage: "log `LEVEL` (debug, info, warn, error)"},
			&cli.StringFlag{Name: "log-format", Usage: "log `FORMAT` (text, json)"},
		},
		Commands: []*cli.Command{
			{
				Name:         "convert",
				Usage:        "Converts the utility classes of one feature or all features",
				OnUsageError: usageErrorHandler,
				Action:       runConvert,
				Flags: append(conversionFlags(),
					&cli.BoolFlag{Name: "replace", Aliases: []string{"r"}, Usage: "rewrite class attributes in the source files to use the generated module"},
				),
				ArgsUsage: "TARGET",
				CustomHelpTemplate: fmt.Sprintf(`%s
TARGET:
    feature name under the features directory ("navbar"), a path to a feature
    directory ("src/features/navbar"), or %q to convert every feature
`, cli.CommandHelpTemplate, discover.AllFeatures),
			},
			{
				Name:         "watch",
				Usage:        "Converts TARGET and regenerates stylesheets and reports on every change",
				OnUsageError: usageErrorHandler,
				Action:       runWatch,
				Flags: append(conversionFlags(),
					&cli.DurationFlag{Name: "debounce", Value: watch.DefaultDebounce, Usage: "wait `DURATION` after the last change before regenerating"},
				),
				ArgsUsage: "TARGET",
			},
			{
				Name:         "serve",
				Usage:        "Serves conversion tools to MCP clients over stdio",
				OnUsageError: usageErrorHandler,
				Action:       runServe,
				Flags: append(conversionFlags(),
					&cli.StringFlag{Name: "log-file", Usage: "append a JSONL entry per tool call to `FILE`"},
				),
			},
			{
				Name:         "inspect",
				Usage:        "Shows how utility classes convert with the active framework",
				OnUsageError: usageErrorHandler,
				Action:       runInspect,
				Flags:        conversionFlags(),
				ArgsUsage:    "CLASS...",
			},
			{
				Name:         "setup",
				Usage:        "Registers the MCP server with the AI agents found on this machine",
				OnUsageError: usageErrorHandler,
				Action:       runSetup,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "auto", Usage: "configure every detected agent without prompting"},
				},
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or actual configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s
DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values, project configuration and values specified in configuration file.
To see default configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
			},
		},
	}
}

// conversionFlags override configuration values for commands that convert.
func conversionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "framework", Aliases: []string{"f"}, Usage: "utility `FRAMEWORK` (" + frameworkNames() + ")"},
		&cli.StringFlag{Name: "features-dir", Usage: "`DIR` holding one directory per feature"},
	}
}

func frameworkNames() string {
	var s string
	for i, fw := range utility.Frameworks() {
		if i > 0 {
			s += ", "
		}
		s += string(fw)
	}
	return s
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit is called at the end of main to set exit code, make sure there
	// are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}
