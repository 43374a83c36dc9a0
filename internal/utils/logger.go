package utils

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// GetLogger returns the process wide logger.
// LOG_LEVEL picks the level (default info) and LOG_FORMAT=text switches from JSON to plain text.
func GetLogger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = newLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	})
	return logger
}

func newLogger(level, format string) *logrus.Logger {
	l := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	l.SetLevel(logLevel)

	if strings.EqualFold(format, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l.SetOutput(os.Stdout)
	return l
}

// SetLogLevel applies a configured level. Unknown levels are ignored.
func SetLogLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		GetLogger().SetLevel(lvl)
	}
}
