package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger routes GORM output through slog. Missing rows are not errors:
// repositories translate them into not-found results.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a GORM logger at warn level writing to l.
func NewGormLogger(l *slog.Logger) logger.Interface {
	return &gormLogger{log: l, level: logger.Warn, slow: slowQueryThreshold}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	g.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	g.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	g.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (g *gormLogger) printf(ctx context.Context, min logger.LogLevel, lvl slog.Level, msg string, args []interface{}) {
	if g.level < min {
		return
	}
	g.log.Log(ctx, lvl, fmt.Sprintf(msg, args...), slog.String("component", "gorm"))
}

// Trace logs failed statements at error, slow ones at warn, and everything
// else only when the level is info.
func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := g.slow > 0 && elapsed > g.slow

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case failed && g.level >= logger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case slow && g.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
	case g.level >= logger.Info:
		lvl, msg = slog.LevelDebug, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("component", "gorm"),
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if failed {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	g.log.LogAttrs(ctx, lvl, msg, attrs...)
}
