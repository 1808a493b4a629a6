package engine

import "github.com/sirupsen/logrus"

// Log levels follow the syslog scale used by the engine.
const (
	LogLevelCritical = 2
	LogLevelError    = 3
	LogLevelWarning  = 4
	LogLevelNotice   = 5
	LogLevelInfo     = 6
	LogLevelDebug    = 7
)

// LogrusLevel maps a syslog-scale engine level onto logrus.
func LogrusLevel(level int) logrus.Level {
	switch {
	case level <= LogLevelCritical:
		return logrus.FatalLevel
	case level == LogLevelError:
		return logrus.ErrorLevel
	case level == LogLevelWarning:
		return logrus.WarnLevel
	case level < LogLevelDebug:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}
