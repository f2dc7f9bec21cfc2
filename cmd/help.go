package cmd

import (
	"fmt"

	"github.com/Des1red/clihelp"
)

func printHelp() {
	fmt.Println("endlesshmon - SSH tarpit session tracker and Prometheus exporter")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  endlesshmon [flags] [command]")
	fmt.Println()

	// ─── Core ────────────────────────────────────────────────
	fmt.Println("Core:")
	clihelp.Print(
		clihelp.F("--config", "path", "YAML config file"),
		clihelp.F("--listen", "address", "Metrics listen address"),
		clihelp.F("--unit", "string", "Systemd unit to watch"),
		clihelp.F("--window", "duration", "Log lookback window per pass"),
		clihelp.F("--interval", "duration", "Evaluation interval"),
	)
	fmt.Println()

	// ─── Hall of Fame ────────────────────────────────────────
	fmt.Println("Hall of Fame:")
	clihelp.Print(
		clihelp.F("--fame-path", "path", "Persisted leaderboard file"),
		clihelp.F("--fame-cap", "int", "Leaderboard size cap"),
	)
	fmt.Println()

	// ─── GeoIP ───────────────────────────────────────────────
	fmt.Println("GeoIP:")
	clihelp.Print(
		clihelp.F("--geo-cache", "path", "Location cache database"),
		clihelp.F("--geo-budget", "int", "External lookups per pass"),
	)
	fmt.Println()

	fmt.Println("Maintenance:")
	clihelp.Print(
		clihelp.F("show-fame", "", "Prints the current Hall of Fame"),
		clihelp.F("reset-fame", "", "Empties the Hall of Fame"),
		clihelp.F("resolve-ip", "string", "Resolves one address and caches it"),
		clihelp.F("purge-geo-cache", "", "Drops all cached locations"),
	)
	fmt.Println()

	// ─── Notes ───────────────────────────────────────────────
	fmt.Println("Notes:")
	fmt.Println("  Flags override values from --config.")
	fmt.Println("  The metrics endpoint serves the last complete snapshot; it never")
	fmt.Println("  blocks on a running evaluation pass.")
}
