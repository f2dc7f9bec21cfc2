package models

import "time"

// FameEntry is one persisted Hall of Fame record: the longest released
// session ever observed for its origin. Duration is stored explicitly
// because the raw timestamps age out of the log window.
type FameEntry struct {
	Origin      string    `json:"ip"`
	ConnKey     string    `json:"conn_key"`
	Port        string    `json:"port"`
	StartedAt   time.Time `json:"started"`
	Duration    float64   `json:"duration"`
	Country     string    `json:"country,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	City        string    `json:"city,omitempty"`
	Lat         float64   `json:"lat,omitempty"`
	Lon         float64   `json:"lon,omitempty"`
}

func (e FameEntry) HasLocation() bool { return e.Country != "" }

// SetLocation copies a resolved location into the entry fields.
func (e *FameEntry) SetLocation(loc Location) {
	e.Country = loc.Country
	e.CountryCode = loc.CountryCode
	e.City = loc.City
	e.Lat = loc.Lat
	e.Lon = loc.Lon
}
