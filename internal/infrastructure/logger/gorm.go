package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	defaultMaxSQLLength  = 2048
)

// GormConfig controls which statements reach the log
type GormConfig struct {
	Level gormlogger.LogLevel
	// SlowThreshold promotes statements to a warning. Zero takes 200ms;
	// negative turns slow reporting off.
	SlowThreshold time.Duration
	// LogNotFound also reports gorm.ErrRecordNotFound, which lookups by
	// ID hit routinely
	LogNotFound bool
	// MaxSQLLength truncates the logged statement. Bulk import inserts
	// otherwise flood the log.
	MaxSQLLength int
}

// GormLogger writes GORM's SQL traces to zap, tagged with the request or
// job that issued them
type GormLogger struct {
	base *zap.Logger
	cfg  GormConfig
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger logs under the "gorm" name of base
func NewGormLogger(base *zap.Logger, cfg GormConfig) *GormLogger {
	if cfg.SlowThreshold == 0 {
		cfg.SlowThreshold = defaultSlowThreshold
	}
	if cfg.MaxSQLLength <= 0 {
		cfg.MaxSQLLength = defaultMaxSQLLength
	}
	return &GormLogger{base: base.Named("gorm"), cfg: cfg}
}

// LogMode returns a copy at level; the receiver is unchanged
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.cfg.Level = level
	return &cp
}

func (l *GormLogger) at(level gormlogger.LogLevel) bool {
	return l.cfg.Level >= level
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.at(gormlogger.Info) {
		l.base.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.at(gormlogger.Warn) {
		l.base.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.at(gormlogger.Error) {
		l.base.Sugar().Errorf(msg, data...)
	}
}

// Trace logs one statement: failures as errors, slow ones as warnings and
// the rest at debug when the level is Info
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	slow := l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold

	var msg string
	var write func(string, ...zap.Field)
	switch {
	case err != nil && l.at(gormlogger.Error):
		if errors.Is(err, gormlogger.ErrRecordNotFound) && !l.cfg.LogNotFound {
			return
		}
		msg, write = "SQL Error", l.base.Error
	case slow && l.at(gormlogger.Warn):
		msg, write = "SLOW SQL >= "+l.cfg.SlowThreshold.String(), l.base.Warn
	case l.at(gormlogger.Info):
		msg, write = "SQL Query", l.base.Debug
	default:
		return
	}

	sql, rows := fc()
	fields := append(make([]zap.Field, 0, 6),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", truncateSQL(sql, l.cfg.MaxSQLLength)),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	write(msg, append(fields, Fields(ctx)...)...)
}

func truncateSQL(sql string, limit int) string {
	if len(sql) <= limit {
		return sql
	}
	return sql[:limit] + "...(truncated)"
}

// MapGormLogLevel maps the application log level to GORM's. Info and debug
// trace every statement; anything unknown reports slow queries and errors.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
