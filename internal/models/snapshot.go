package models

import "time"

// Snapshot is the immutable result of one evaluation pass. The metrics
// endpoint only ever reads the most recent complete snapshot; it is swapped
// in whole once a pass finishes and never mutated afterwards.
type Snapshot struct {
	TakenAt      time.Time
	Sessions     []Session           // live + window-closed, one per ConnKey
	Fame         []FameEntry         // ranked longest first
	Locations    map[string]Location // origin -> resolved location
	TotalAccepts uint64              // monotonic accept counter since process start
}
