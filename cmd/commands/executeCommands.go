package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"endlesshmon/internal/config"
)

// Dispatch runs a maintenance command when one is present on the command
// line. It reports whether a command was handled.
func Dispatch(cfg config.Config) bool {
	args := pflag.Args()
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "show-fame":
		runShowFame(cfg)

	case "reset-fame":
		runResetFame(cfg)

	case "resolve-ip":
		if len(args) != 2 {
			fmt.Println("usage: endlesshmon resolve-ip <address>")
			os.Exit(1)
		}
		runResolveIP(cfg, args[1])

	case "purge-geo-cache":
		runPurgeGeoCache(cfg)

	default:
		fmt.Printf("unknown command: %s\n", args[0])
		os.Exit(1)
	}

	return true
}
