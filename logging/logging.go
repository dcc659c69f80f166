// Package logging provides the logging abstraction used throughout tracecore.
package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Level is a log severity level.
type Level int

const (
	// Error error log level
	Error Level = iota
	// Warn warn log level
	Warn
	// Info info log level
	Info
	// Debug debug log level
	Debug
)

// Logger provides the interface for tracecore logger implementations.
type Logger interface {
	Debug(fmt string, a ...interface{})
	Info(fmt string, a ...interface{})
	Warn(fmt string, a ...interface{})
	Error(fmt string, a ...interface{})

	WithFields(fields map[string]interface{}) Logger

	GetLevel() Level
	SetLevel(l Level)
}

// StandardLogger is the default tracecore logger implementation, backed by logrus.
type StandardLogger struct {
	logger *logrus.Logger
	fields map[string]interface{}
}

// New returns a new standard logger writing to stderr at Info level.
func New() *StandardLogger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	return &StandardLogger{logger: l}
}

func (l *StandardLogger) entry() *logrus.Entry {
	return l.logger.WithFields(logrus.Fields(l.fields))
}

func (l *StandardLogger) Debug(f string, a ...interface{}) { l.entry().Debugf(f, a...) }
func (l *StandardLogger) Info(f string, a ...interface{})  { l.entry().Infof(f, a...) }
func (l *StandardLogger) Warn(f string, a ...interface{})  { l.entry().Warnf(f, a...) }
func (l *StandardLogger) Error(f string, a ...interface{}) { l.entry().Errorf(f, a...) }

// WithFields returns a new logger that always includes the given fields.
func (l *StandardLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &StandardLogger{logger: l.logger, fields: merged}
}

func (l *StandardLogger) GetLevel() Level {
	switch l.logger.GetLevel() {
	case logrus.DebugLevel, logrus.TraceLevel:
		return Debug
	case logrus.InfoLevel:
		return Info
	case logrus.WarnLevel:
		return Warn
	default:
		return Error
	}
}

func (l *StandardLogger) SetLevel(level Level) {
	switch level {
	case Debug:
		l.logger.SetLevel(logrus.DebugLevel)
	case Info:
		l.logger.SetLevel(logrus.InfoLevel)
	case Warn:
		l.logger.SetLevel(logrus.WarnLevel)
	default:
		l.logger.SetLevel(logrus.ErrorLevel)
	}
}

// NoOpLogger is a logging implementation that does nothing.
type NoOpLogger struct{}

// NewNoOpLogger instantiates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...interface{}) {}
func (*NoOpLogger) Info(string, ...interface{})  {}
func (*NoOpLogger) Warn(string, ...interface{})  {}
func (*NoOpLogger) Error(string, ...interface{}) {}
func (l *NoOpLogger) WithFields(map[string]interface{}) Logger { return l }
func (*NoOpLogger) GetLevel() Level                             { return Error }
func (*NoOpLogger) SetLevel(Level)                              {}

type requestContextKey struct{}

// RequestContext carries per-session identifiers onto log lines.
type RequestContext struct {
	SessionID string
	ThreadID  int
}

// NewContext returns a copy of parent with an associated RequestContext.
func NewContext(parent context.Context, val *RequestContext) context.Context {
	return context.WithValue(parent, requestContextKey{}, val)
}

// FromContext returns the RequestContext associated with ctx, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	val, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return val, ok
}
