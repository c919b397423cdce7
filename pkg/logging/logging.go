// Package logging builds the zap loggers used by graphkit.
//
// Console output goes to the writer the caller supplies. When a log file is
// configured a second JSON core writes to it through lumberjack, which
// handles rotation.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/orneryd/graphkit/pkg/config"
)

// Logger is a zap logger plus the resources it owns.
type Logger struct {
	*zap.Logger
	file *lumberjack.Logger
}

// New builds a logger from cfg writing console output to console.
//
// The level is parsed from cfg.Level; an unknown level is an error. The
// console encoding follows cfg.Format. File output is always JSON.
func New(cfg config.LoggingConfig, console zapcore.WriteSyncer) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	cores := []zapcore.Core{zapcore.NewCore(encoder(cfg.Format), console, level)}

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder("json"), zapcore.AddSync(file), level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel)).Named("graphkit")
	return &Logger{Logger: logger, file: file}, nil
}

// Close flushes buffered entries and closes the log file, if any.
func (l *Logger) Close() error {
	// Sync on a terminal returns EINVAL on some platforms.
	_ = l.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func encoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")

	if strings.EqualFold(format, "json") {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}
