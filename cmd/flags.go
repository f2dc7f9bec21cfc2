package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"endlesshmon/internal/config"
)

var (
	configPath = pflag.String("config", "", "path to YAML config file")
	listenAddr = pflag.String("listen", "", "metrics listen address")
	unitName   = pflag.String("unit", "", "systemd unit to watch")
	logWindow  = pflag.Duration("window", 0, "log lookback window per pass")
	interval   = pflag.Duration("interval", 0, "evaluation interval")
	famePath   = pflag.String("fame-path", "", "hall of fame file path")
	fameCap    = pflag.Int("fame-cap", 0, "hall of fame size cap")
	geoCache   = pflag.String("geo-cache", "", "geo cache database path")
	geoBudget  = pflag.Int("geo-budget", -1, "external geo lookups per pass")
	logDir     = pflag.String("log-dir", "", "log directory")
	showHelp   = pflag.BoolP("help", "h", false, "show help")
)

// setupFlagsAndParse sets up the command-line flags and parses them.
func setupFlagsAndParse() {
	pflag.Usage = printHelp
	pflag.Parse()

	if *showHelp {
		printHelp()
		os.Exit(0)
	}
}

// loadConfig merges the optional config file with flag overrides. Flags
// beat file values; file values beat defaults.
func loadConfig() config.Config {
	cfg := config.Default()

	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Println("config error:", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	applyOverrides(&cfg)

	if err := config.Validate(cfg); err != nil {
		fmt.Println("config error:", err)
		printHelp()
		os.Exit(1)
	}
	return cfg
}

func applyOverrides(cfg *config.Config) {
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}
	if *unitName != "" {
		cfg.Unit = *unitName
	}
	if *logWindow != time.Duration(0) {
		cfg.Window = config.Duration(*logWindow)
	}
	if *interval != time.Duration(0) {
		cfg.Interval = config.Duration(*interval)
	}
	if *famePath != "" {
		cfg.FamePath = *famePath
	}
	if *fameCap != 0 {
		cfg.FameCap = *fameCap
	}
	if *geoCache != "" {
		cfg.GeoCachePath = *geoCache
	}
	if *geoBudget >= 0 {
		cfg.GeoBudget = *geoBudget
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
}
