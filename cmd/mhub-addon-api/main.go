// Package main is the entry point for the add-on registry API server.
package main

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/mediahubhq/addon-registry-server/cmd/mhub-addon-api/app"
	"github.com/mediahubhq/addon-registry-server/internal/config"
	"github.com/mediahubhq/addon-registry-server/pkg/logger"
)

// debugEnabled reads the MHUB_ADDON_LOG_LEVEL environment variable, falling
// back to LOG_LEVEL, and reports whether debug logging was requested.
func debugEnabled() bool {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	return strings.EqualFold(levelStr, "debug")
}

func main() {
	// Logs go to stderr so stdout stays clean for commands that output
	// data (e.g. version --format json).
	logger.Initialize(debugEnabled())

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
