package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// Setup initializes logrus with log rotation and date-based log file
// naming. When the log directory cannot be created (e.g. running
// unprivileged) logging falls back to stderr so journald captures it.
func Setup(dir string) {
	Logger = logrus.New()
	Logger.SetFormatter(&logrus.JSONFormatter{})
	Logger.SetLevel(logrus.InfoLevel)

	if dir == "" {
		Logger.SetOutput(os.Stderr)
		return
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Fprintln(os.Stderr, "cannot create log directory, logging to stderr:", err)
		Logger.SetOutput(os.Stderr)
		return
	}

	// Get the current date for log file naming
	currentDate := time.Now().Format("2006-01-02")

	Logger.SetOutput(&lumberjack.Logger{
		Filename:   filepath.Join(dir, currentDate+".log"),
		MaxSize:    10, // Max size (in MB) before rotating
		MaxBackups: 3,  // Keep up to 3 backups
		MaxAge:     30, // Retain backups for 30 days
	})
}

// GetLogger returns the global logrus Logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		Setup("")
	}
	return Logger
}
