package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowThreshold = 200 * time.Millisecond

// zerologLogger routes gorm logs through the global zerolog logger
type zerologLogger struct {
	level logger.LogLevel
}

// NewLogger returns a gorm logger. Development builds log every statement,
// release builds only slow queries and errors.
func NewLogger(dev bool) logger.Interface {
	level := logger.Warn
	if dev {
		level = logger.Info
	}
	return &zerologLogger{level: level}
}

func (l *zerologLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &zerologLogger{level: level}
}

func (l *zerologLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		log.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *zerologLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		log.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *zerologLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		log.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *zerologLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var event *zerolog.Event
	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		event = log.Error().Err(err)
	case elapsed > slowThreshold && l.level >= logger.Warn:
		event = log.Warn().Dur("threshold", slowThreshold)
	case l.level >= logger.Info:
		event = log.Debug()
	default:
		return
	}

	sql, rows := fc()
	event.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm")
}
