package logconfig

import (
	"strings"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in the test (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production.
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// ConfigLogger picks a setup by LOG_LEVEL: "debug", "info" or
// "production". Any other logrus level name keeps the production format at
// that level.
func ConfigLogger(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		ConfigDebugLogger()
	case "info":
		ConfigInfoLogger()
	case "", "production":
		ConfigProductionLogger()
	default:
		ConfigProductionLogger()
		lvl, err := myLogger.ParseLevel(level)
		if err != nil {
			myLogger.WithField("level", level).Warn("unknown log level, using info")
			return
		}
		myLogger.SetLevel(lvl)
	}
}
