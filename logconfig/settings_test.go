package logconfig

import (
	"testing"

	myLogger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigLogger(t *testing.T) {
	defer ConfigInfoLogger()

	ConfigLogger("debug")
	assert.Equal(t, myLogger.DebugLevel, myLogger.GetLevel())
	assert.IsType(t, &myLogger.TextFormatter{}, myLogger.StandardLogger().Formatter)

	ConfigLogger("production")
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())
	assert.IsType(t, &myLogger.JSONFormatter{}, myLogger.StandardLogger().Formatter)

	ConfigLogger("warn")
	assert.Equal(t, myLogger.WarnLevel, myLogger.GetLevel())

	ConfigLogger("loud")
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())
}
