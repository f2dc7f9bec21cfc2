package models

import "time"

// EventKind distinguishes tarpit accept and close log lines.
type EventKind int

const (
	EventConnect EventKind = iota
	EventDisconnect
)

// Event is one parsed endlessh log line.
type Event struct {
	ConnKey  string // origin:port, unique per connection (fds get reused)
	Origin   string
	Port     string
	FD       string
	Kind     EventKind
	Time     time.Time
	Duration float64 // seconds held, reported by endlessh on CLOSE lines only
}
