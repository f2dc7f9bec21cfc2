package tracker

import (
	"sort"

	"endlesshmon/internal/models"
)

// Build reconstructs the session set for one observation window from its
// full event set. Input order does not matter; the window is re-derived
// from scratch each pass, so the result fully replaces any previous live
// view.
//
// Pairing rules:
//   - connect without close: trapped, EndedAt zero
//   - connect with close: released, duration from the CLOSE time= field
//     (endlessh's own measurement), falling back to the timestamp delta
//   - close without connect: dropped — the connect aged out of the window
//     and a start time will not be fabricated
func Build(events []models.Event) []models.Session {
	connects := make(map[string]models.Event)
	closes := make(map[string]models.Event)

	for _, ev := range events {
		switch ev.Kind {
		case models.EventConnect:
			// A source port reused within one window collapses to one key;
			// the later accept wins.
			if prev, seen := connects[ev.ConnKey]; !seen || ev.Time.After(prev.Time) {
				connects[ev.ConnKey] = ev
			}
		case models.EventDisconnect:
			if prev, seen := closes[ev.ConnKey]; !seen || ev.Time.After(prev.Time) {
				closes[ev.ConnKey] = ev
			}
		}
	}

	sessions := make([]models.Session, 0, len(connects))
	for key, acc := range connects {
		s := models.Session{
			Origin:    acc.Origin,
			ConnKey:   key,
			Port:      acc.Port,
			StartedAt: acc.Time,
			Status:    models.StatusTrapped,
		}

		if cl, seen := closes[key]; seen {
			s.Status = models.StatusReleased
			s.EndedAt = cl.Time
			if s.EndedAt.Before(s.StartedAt) {
				s.EndedAt = s.StartedAt
			}
			s.Duration = cl.Duration
			if s.Duration <= 0 {
				s.Duration = s.EndedAt.Sub(s.StartedAt).Seconds()
			}
		}

		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ConnKey < sessions[j].ConnKey
	})

	return sessions
}

// Released filters the window's closed sessions, the only ones eligible
// for the Hall of Fame.
func Released(sessions []models.Session) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == models.StatusReleased {
			out = append(out, s)
		}
	}
	return out
}
