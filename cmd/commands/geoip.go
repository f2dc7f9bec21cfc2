package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"endlesshmon/internal/config"
	"endlesshmon/internal/geo"
	"endlesshmon/internal/logging"
)

func runResolveIP(cfg config.Config, ip string) {
	cache, err := geo.OpenCache(cfg.GeoCachePath)
	if err != nil {
		fmt.Println("failed to open geo cache:", err)
		os.Exit(1)
	}
	defer cache.Close()

	resolver := geo.NewResolver(cache, geo.NewAPILookup(), 1, logging.GetLogger())
	resolver.BeginPass()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	loc, ok := resolver.Resolve(ctx, ip)
	if !ok {
		fmt.Printf("%s: unresolved\n", ip)
		os.Exit(1)
	}
	fmt.Printf("%s: %s, %s (%s) lat=%g lon=%g\n", ip, loc.City, loc.Country, loc.CountryCode, loc.Lat, loc.Lon)
}

func runPurgeGeoCache(cfg config.Config) {
	cache, err := geo.OpenCache(cfg.GeoCachePath)
	if err != nil {
		fmt.Println("failed to open geo cache:", err)
		os.Exit(1)
	}
	defer cache.Close()

	n, err := cache.Purge()
	if err != nil {
		fmt.Println("failed to purge geo cache:", err)
		os.Exit(1)
	}
	fmt.Printf("geo cache purged (%d locations dropped)\n", n)
}
