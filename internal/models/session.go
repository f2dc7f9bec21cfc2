package models

import "time"

type Status string

const (
	StatusTrapped  Status = "trapped"
	StatusReleased Status = "released"
)

// Session is one reconstructed tarpit connection within the log window.
type Session struct {
	Origin    string
	ConnKey   string
	Port      string
	StartedAt time.Time
	EndedAt   time.Time // zero while trapped
	Status    Status
	Duration  float64 // seconds, set for released sessions only
	Location  *Location
}

// TrapDuration returns the session length in seconds. Trapped sessions are
// measured against now for display only; the value is never stored.
func (s Session) TrapDuration(now time.Time) float64 {
	if s.Status == StatusReleased {
		return s.Duration
	}
	return now.Sub(s.StartedAt).Seconds()
}
