package geo

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"endlesshmon/internal/models"
)

// Cache persists resolved locations in sqlite so process restarts do not
// respend the external lookup budget on origins already seen.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create geo cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open geo cache: %w", err)
	}

	// Safety: fail early if DB is not writable
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping geo cache: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS locations (
		ip TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		country_code TEXT NOT NULL,
		city TEXT NOT NULL,
		lat REAL NOT NULL DEFAULT 0,
		lon REAL NOT NULL DEFAULT 0,
		resolved_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init geo cache schema: %w", err)
	}
	return nil
}

func (c *Cache) Get(ip string) (models.Location, bool, error) {
	var loc models.Location
	err := c.db.QueryRow(
		`SELECT country, country_code, city, lat, lon FROM locations WHERE ip = ?`, ip,
	).Scan(&loc.Country, &loc.CountryCode, &loc.City, &loc.Lat, &loc.Lon)
	if err == sql.ErrNoRows {
		return models.Location{}, false, nil
	}
	if err != nil {
		return models.Location{}, false, err
	}
	return loc, true, nil
}

func (c *Cache) Put(ip string, loc models.Location) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO locations (ip, country, country_code, city, lat, lon)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ip, loc.Country, loc.CountryCode, loc.City, loc.Lat, loc.Lon,
	)
	return err
}

// Purge drops every cached location and returns how many were removed.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM locations`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *Cache) Close() error {
	return c.db.Close()
}
