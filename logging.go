package srtsock

import (
	"github.com/sirupsen/logrus"
)

// LoggerHelper provides standardized logging fields for the facade.
type LoggerHelper struct {
	fields logrus.Fields
}

// NewLogger creates a logger helper tagged with the function name.
func NewLogger(function string) *LoggerHelper {
	return &LoggerHelper{
		fields: logrus.Fields{
			"function": function,
			"package":  "srtsock",
		},
	}
}

// WithField adds a custom field to the logger.
func (l *LoggerHelper) WithField(key string, value interface{}) *LoggerHelper {
	l.fields[key] = value
	return l
}

// WithHandle tags the entry with a handle.
func (l *LoggerHelper) WithHandle(h Handle) *LoggerHelper {
	return l.WithField("handle", int32(h))
}

// WithError adds error information to the logger.
func (l *LoggerHelper) WithError(err error) *LoggerHelper {
	if err != nil {
		l.fields["error"] = err.Error()
	}
	return l
}

func (l *LoggerHelper) Debug(message string) {
	logrus.WithFields(l.fields).Debug(message)
}

func (l *LoggerHelper) Info(message string) {
	logrus.WithFields(l.fields).Info(message)
}

func (l *LoggerHelper) Warn(message string) {
	logrus.WithFields(l.fields).Warn(message)
}
