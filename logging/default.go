package logging

import (
	"context"
	"maps"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger is the zap-backed Logger implementation.
// All levels go to stderr so stdout stays free for reports.
type DefaultLogger struct {
	z      *zap.Logger
	level  zap.AtomicLevel
	fields Fields
}

// NewDefaultLogger creates a production zap logger at info level
func NewDefaultLogger() *DefaultLogger {
	return newDefaultLogger(false)
}

// NewDevelopmentLogger creates a console-encoded zap logger at debug level
func NewDevelopmentLogger() *DefaultLogger {
	return newDefaultLogger(true)
}

func newDefaultLogger(development bool) *DefaultLogger {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return FromZap(zap.NewNop())
	}

	return &DefaultLogger{
		z:      z,
		level:  cfg.Level,
		fields: make(Fields),
	}
}

// FromZap wraps an existing zap logger. The level of a wrapped logger is
// owned by its core, so SetLevel only filters on top of it.
func FromZap(z *zap.Logger) *DefaultLogger {
	return &DefaultLogger{
		z:      z,
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
		fields: make(Fields),
	}
}

// Zap returns the underlying zap logger
func (d *DefaultLogger) Zap() *zap.Logger {
	return d.z
}

// Sync flushes buffered entries
func (d *DefaultLogger) Sync() error {
	return d.z.Sync()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (d *DefaultLogger) zapFields(err error, fields ...Fields) []zap.Field {
	allFields := make(Fields)
	maps.Copy(allFields, d.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	keys := make([]string, 0, len(allFields))
	for k := range allFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	zf := make([]zap.Field, 0, len(keys)+1)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	for _, k := range keys {
		zf = append(zf, zap.Any(k, allFields[k]))
	}
	return zf
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	zl := toZapLevel(level)
	if !d.level.Enabled(zl) {
		return
	}

	zf := d.zapFields(err, fields...)

	switch level {
	case DebugLevel:
		d.z.Debug(msg, zf...)
	case InfoLevel:
		d.z.Info(msg, zf...)
	case WarnLevel:
		d.z.Warn(msg, zf...)
	case ErrorLevel:
		d.z.Error(msg, zf...)
	case FatalLevel:
		d.z.Fatal(msg, zf...)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		z:      d.z,
		level:  d.level,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level shared by this logger and every logger derived from it
func (d *DefaultLogger) SetLevel(level Level) {
	d.level.SetLevel(toZapLevel(level))
}

// NoOpLogger is a logger that does nothing, used by tests and when logging is disabled
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
