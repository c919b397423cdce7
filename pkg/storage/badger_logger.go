package storage

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// zapBadgerLogger routes BadgerDB's printf-style logging into zap.
type zapBadgerLogger struct {
	log *zap.SugaredLogger
}

// NewBadgerLogger adapts a zap logger to badger.Logger. Badger terminates
// its messages with a newline, which is trimmed.
func NewBadgerLogger(logger *zap.Logger) badger.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapBadgerLogger{log: logger.Named("badger").Sugar()}
}

func (l *zapBadgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(strings.TrimRight(format, "\n"), args...)
}

func (l *zapBadgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(strings.TrimRight(format, "\n"), args...)
}

func (l *zapBadgerLogger) Infof(format string, args ...interface{}) {
	l.log.Infof(strings.TrimRight(format, "\n"), args...)
}

func (l *zapBadgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(strings.TrimRight(format, "\n"), args...)
}
