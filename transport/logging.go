package transport

import (
	"github.com/sirupsen/logrus"
)

// LoggerHelper provides standardized logging fields for the transport package.
type LoggerHelper struct {
	fields logrus.Fields
}

// NewLogger creates a logger helper tagged with the function name.
func NewLogger(function string) *LoggerHelper {
	return &LoggerHelper{
		fields: logrus.Fields{
			"function": function,
			"package":  "transport",
		},
	}
}

// WithField adds a custom field to the logger.
func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	l.fields[key] = value
	return l
}

// WithSocket tags the entry with a socket id.
func (l *LoggerHelper) WithSocket(id interface{}) *LoggerHelper {
	return l.WithField("socket", id)
}

// WithError adds error information to the logger.
func (l *LoggerHelper) WithError(err error) *LoggerHelper {
	if err != nil {
		l.fields["error"] = err.Error()
	}
	return l
}

// Debug logs a debug message.
func (l *LoggerHelper) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

// Info logs an info message.
func (l *LoggerHelper) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

// Warn logs a warning message.
func (l *LoggerHelper) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}

// Error logs an error message.
func (l *LoggerHelper) Error(message string) {
	logrus.WithFields(l.fields).Error(message)
}
