package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface used by the dictionary loader,
// the encoder tooling and the command line tools.
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}

// DefaultLogger provides a default logger implementation using logrus.
type DefaultLogger struct {
	logger *logrus.Logger
}

// NewDefaultLogger creates a new default logger with standard configuration.
func NewDefaultLogger() *DefaultLogger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: false,
	})
	logger.SetLevel(logrus.InfoLevel)

	return &DefaultLogger{
		logger: logger,
	}
}

// NewNopLogger creates a logger that discards everything.
func NewNopLogger() *DefaultLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)

	return &DefaultLogger{
		logger: logger,
	}
}

var discard Logger = NewNopLogger()

// Discard returns a shared logger that drops everything.
func Discard() Logger {
	return discard
}

// NewLoggerWithOutput creates a logger writing to w at the given level.
func NewLoggerWithOutput(w io.Writer, level string) *DefaultLogger {
	logger := NewLoggerWithLevel(level)
	logger.logger.SetOutput(w)

	return logger
}

// NewLoggerWithLevel creates a new logger with specified log level.
func NewLoggerWithLevel(level string) *DefaultLogger {
	logger := NewDefaultLogger()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.logger.SetLevel(lvl)

	return logger
}

// Debug logs a message at debug level.
func (l *DefaultLogger) Debug(args ...interface{}) {
	l.logger.Debug(args...)
}

// Debugf logs a formatted message at debug level.
func (l *DefaultLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Info logs a message at info level.
func (l *DefaultLogger) Info(args ...interface{}) {
	l.logger.Info(args...)
}

// Infof logs a formatted message at info level.
func (l *DefaultLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// Warn logs a message at warning level.
func (l *DefaultLogger) Warn(args ...interface{}) {
	l.logger.Warn(args...)
}

// Warnf logs a formatted message at warning level.
func (l *DefaultLogger) Warnf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

// Error logs a message at error level.
func (l *DefaultLogger) Error(args ...interface{}) {
	l.logger.Error(args...)
}

// Errorf logs a formatted message at error level.
func (l *DefaultLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// Fatal logs a message at fatal level and exits.
func (l *DefaultLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(args...)
}

// Fatalf logs a formatted message at fatal level and exits.
func (l *DefaultLogger) Fatalf(format string, args ...interface{}) {
	l.logger.Fatalf(format, args...)
}

// SetLevel sets the log level for the logger.
func (l *DefaultLogger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	l.logger.SetLevel(lvl)
}

// GetLogrus returns the underlying logrus logger for advanced configuration.
func (l *DefaultLogger) GetLogrus() *logrus.Logger {
	return l.logger
}

// WithField returns a logger that adds key=value to every entry.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.logger.WithField(key, value)}
}

// entryLogger is a Logger bound to a set of logrus fields.
type entryLogger struct {
	entry *logrus.Entry
}

func (l *entryLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *entryLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *entryLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *entryLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *entryLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *entryLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *entryLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *entryLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *entryLogger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *entryLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

// WithField adds another field to the bound set.
func (l *entryLogger) WithField(key string, value interface{}) Logger {
	return &entryLogger{entry: l.entry.WithField(key, value)}
}

// FieldLogger is implemented by loggers that can carry structured context.
type FieldLogger interface {
	Logger
	WithField(key string, value interface{}) Logger
}

// With returns l with key=value attached when l supports fields, or l itself.
func With(l Logger, key string, value interface{}) Logger {
	if fl, ok := l.(FieldLogger); ok {
		return fl.WithField(key, value)
	}
	return l
}
