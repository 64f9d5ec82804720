package log

import (
	"github.com/robfig/cron/v3"
)

type cronLogger struct{}

// CronLogger routes scheduler messages through the package logger
func CronLogger() cron.Logger {
	return cronLogger{}
}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Errorw(msg, append(keysAndValues, "error", err)...)
}
