package commands

import (
	"fmt"
	"os"
	"time"

	"endlesshmon/internal/config"
	"endlesshmon/internal/halloffame"
	"endlesshmon/internal/logging"
)

func runShowFame(cfg config.Config) {
	store := halloffame.New(cfg.FamePath, cfg.FameCap, logging.GetLogger())
	store.Load()

	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Println("hall of fame is empty")
		return
	}

	fmt.Printf("Hall of Fame (%d entries, cap %d):\n", len(entries), cfg.FameCap)
	for i, e := range entries {
		location := "unknown location"
		if e.HasLocation() {
			location = fmt.Sprintf("%s, %s", e.City, e.Country)
		}
		fmt.Printf("%3d. %-15s %10s  started %s  (%s)\n",
			i+1,
			e.Origin,
			(time.Duration(e.Duration * float64(time.Second))).Truncate(time.Second),
			e.StartedAt.Local().Format("2006-01-02 15:04:05"),
			location,
		)
	}
}

func runResetFame(cfg config.Config) {
	store := halloffame.New(cfg.FamePath, cfg.FameCap, logging.GetLogger())
	store.Load()

	n := store.Len()
	if err := store.Reset(); err != nil {
		fmt.Println("failed to reset hall of fame:", err)
		os.Exit(1)
	}
	fmt.Printf("hall of fame reset (%d entries discarded)\n", n)
}
