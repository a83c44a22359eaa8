package store

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger implements gorm's logger.Interface on top of logrus.
type GormLogger struct {
	logger        *log.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(l *log.Logger) *GormLogger {
	return &GormLogger{logger: l, level: logger.Warn, slowThreshold: 200 * time.Millisecond}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.logger.WithField("data", data).Info(msg)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.logger.WithField("data", data).Warn(msg)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.logger.WithField("data", data).Error(msg)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.logger.WithFields(log.Fields{
		"sql":     sql,
		"rows":    rows,
		"elapsed": elapsed,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		entry.WithError(err).Error("GORM error")
	case elapsed > l.slowThreshold && l.level >= logger.Warn:
		entry.Warn("GORM slow query")
	default:
		entry.Debug("GORM query")
	}
}
