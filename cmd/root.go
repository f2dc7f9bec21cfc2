package cmd

import (
	"endlesshmon/cmd/commands"
	"endlesshmon/internal/logging"
)

// Execute runs the main execution flow
func Execute() {
	// Setup flags and parse them
	setupFlagsAndParse()

	// Merge config file and flag overrides
	cfg := loadConfig()

	// Setup structured logging
	logging.Setup(cfg.LogDir)

	// Handle maintenance commands first (like show-fame, reset-fame)
	if handled := commands.Dispatch(cfg); handled {
		return
	}

	// Run the exporter daemon
	if err := runDaemon(cfg); err != nil {
		logging.GetLogger().Fatalf("exporter error: %v", err)
	}
}
