// Package xlog is a thin wrapper around log/slog styled after the
// teacher's own structured, leveled, key-value logger
// (github.com/ethereum/go-ethereum/log, used throughout e.g.
// miner/preconf_checker.go as log.Info("msg", "key", val, ...)). This
// module can't import that package directly — it *is* a renamed fork of
// the repo that defines it — so the same call-site shape is reproduced
// here over the standard library's slog, the closest stdlib equivalent
// of a handler-based structured logger. See DESIGN.md for why this is
// the one ambient concern built on the standard library.
package xlog

import (
	"context"
	"log/slog"
	"os"
)

// LevelTrace sits one step below slog.LevelDebug, mirroring the
// teacher's five-level scheme (Trace, Debug, Info, Warn, Error).
const LevelTrace = slog.Level(-8)

var root = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelTrace}))

// SetDefault replaces the package-level logger, e.g. to install a JSON
// handler or raise the minimum level at startup.
func SetDefault(l *slog.Logger) { root = l }

func Trace(msg string, kv ...any) { root.Log(context.Background(), LevelTrace, msg, kv...) }
func Debug(msg string, kv ...any) { root.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { root.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { root.Warn(msg, kv...) }
func Error(msg string, kv ...any) { root.Error(msg, kv...) }

// New returns a child logger with the given key-values bound, mirroring
// log.New(ctx...) in the teacher's logger.
func New(kv ...any) *slog.Logger {
	return root.With(kv...)
}
