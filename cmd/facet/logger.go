package main

import (
	"context"
	"fmt"
	"io"

	"cosmossdk.io/log"
	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slog"
)

// newLogger writes structured logs to w at the named level ("debug", "info", ...).
func newLogger(w io.Writer, level string, json bool) (ethlog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %v", err)
	}
	opts := []log.Option{log.LevelOption(lvl)}
	if json {
		opts = append(opts, log.OutputJSONOption())
	}
	return &cosmosToETHLogger{
		log: log.NewLogger(w, opts...),
	}, nil
}

// cosmosToETHLogger adapts a Cosmos Logger to fulfill geth's logger interface.
type cosmosToETHLogger struct {
	log log.Logger
}

var _ ethlog.Logger = (*cosmosToETHLogger)(nil)

func (l *cosmosToETHLogger) With(kvs ...any) ethlog.Logger {
	return &cosmosToETHLogger{
		log: l.log.With(kvs...),
	}
}

func (l *cosmosToETHLogger) New(kvs ...any) ethlog.Logger {
	return l.With(kvs...)
}

func (l *cosmosToETHLogger) Log(level slog.Level, msg string, kvs ...any) {
	l.Write(level, msg, kvs...)
}

func (l *cosmosToETHLogger) Trace(msg string, kvs ...any) {
	l.log.Debug(msg, kvs...)
}

func (l *cosmosToETHLogger) Debug(msg string, kvs ...any) {
	l.log.Debug(msg, kvs...)
}

func (l *cosmosToETHLogger) Info(msg string, kvs ...any) {
	l.log.Info(msg, kvs...)
}

func (l *cosmosToETHLogger) Warn(msg string, kvs ...any) {
	l.log.Warn(msg, kvs...)
}

func (l *cosmosToETHLogger) Error(msg string, kvs ...any) {
	l.log.Error(msg, kvs...)
}

func (l *cosmosToETHLogger) Crit(msg string, kvs ...any) {
	l.log.Error(msg, kvs...)
	panic(msg)
}

func (l *cosmosToETHLogger) Write(level slog.Level, msg string, kvs ...any) {
	switch {
	case level < slog.LevelInfo:
		l.log.Debug(msg, kvs...)
	case level < slog.LevelWarn:
		l.log.Info(msg, kvs...)
	case level < slog.LevelError:
		l.log.Warn(msg, kvs...)
	default:
		l.log.Error(msg, kvs...)
	}
}

func (l *cosmosToETHLogger) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (l *cosmosToETHLogger) Handler() slog.Handler {
	return nil
}
