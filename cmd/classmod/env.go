package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnana997/classmod/pkg/config"
	"github.com/gnana997/classmod/pkg/util"
)

// appEnv is the program state shared by all commands.
type appEnv struct {
	cfg   *config.Config
	log   *slog.Logger
	start time.Time
}

type envKey struct{}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &appEnv{
		log:   util.NopLogger(),
		start: time.Now(),
	})
}

func envFromContext(ctx context.Context) *appEnv {
	if env, ok := ctx.Value(envKey{}).(*appEnv); ok {
		return env
	}
	panic("program environment is missing from context")
}

func (e *appEnv) uptime() time.Duration {
	return time.Since(e.start)
}
