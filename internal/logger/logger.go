/**
 * @description
 * Structured logger for the Earnings Navigator backend.
 * Keeps printf-style helpers for call sites while writing through zap.
 *
 * @dependencies
 * - go.uber.org/zap
 *
 * @notes
 * - Info/Warn go to stdout, Error/Fatal go to stderr so platform log parsers label them correctly.
 * - Init must be called once from main; before that a development logger is used.
 */

package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base = newLogger("development")

// Init configures the process logger for the given environment
func Init(env string) {
	base = newLogger(env)
}

// L returns the underlying zap logger for structured fields
func L() *zap.Logger {
	return base
}

// Sync flushes buffered log entries
func Sync() {
	_ = base.Sync()
}

func newLogger(env string) *zap.Logger {
	var encCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	level := zapcore.InfoLevel

	if env == "development" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
		level = zapcore.DebugLevel
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	stdout := zapcore.Lock(os.Stdout)
	stderr := zapcore.Lock(os.Stderr)

	belowError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l < zapcore.ErrorLevel
	})
	atLeastError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, stdout, belowError),
		zapcore.NewCore(encoder.Clone(), stderr, atLeastError),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	base.Debug(fmt.Sprintf(format, v...))
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	base.Info(fmt.Sprintf(format, v...))
}

// Warn logs a warning to stdout
func Warn(format string, v ...interface{}) {
	base.Warn(fmt.Sprintf(format, v...))
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	base.Error(fmt.Sprintf(format, v...))
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	base.Fatal(fmt.Sprintf(format, v...))
}

// GormWriter adapts the logger to gorm's logger.Writer.
// gorm filters by its own LogMode, so everything that reaches here is emitted.
type GormWriter struct{}

func (GormWriter) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	base.WithOptions(zap.AddCallerSkip(2)).Info(msg, zap.String("component", "gorm"))
}
