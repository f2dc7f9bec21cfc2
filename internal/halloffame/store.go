package halloffame

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"endlesshmon/internal/models"
)

// Store is the persisted, size-capped, per-origin-deduplicated ranking of
// the longest trap sessions ever observed. It holds the running maximum
// per origin: a shorter rerun from a known origin never displaces the
// record, and re-merging an already-incorporated session changes nothing.
type Store struct {
	path string
	cap  int
	log  *logrus.Logger

	mu      sync.Mutex
	entries map[string]models.FameEntry // origin -> best released run
}

func New(path string, cap int, log *logrus.Logger) *Store {
	return &Store{
		path:    path,
		cap:     cap,
		log:     log,
		entries: make(map[string]models.FameEntry),
	}
}

// Load reads the persisted board. A missing, unreadable, or corrupt file
// starts an empty board and never fails startup; a corrupt file stays on
// disk untouched (it is only overwritten by the next successful merge),
// aiding manual recovery.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("hall of fame unreadable, starting empty")
		}
		return
	}

	var list []models.FameEntry
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.WithError(err).Warn("hall of fame file is corrupt, starting empty")
		return
	}

	for _, e := range list {
		if e.Origin == "" || e.Duration <= 0 {
			continue
		}
		// Hand-edited files may carry duplicates; keep the best per origin.
		if cur, seen := s.entries[e.Origin]; seen && cur.Duration >= e.Duration {
			continue
		}
		s.entries[e.Origin] = e
	}

	// A file persisted under a larger cap shrinks on load; the trimmed
	// board reaches disk with the next changed merge.
	s.evictLocked()

	s.log.WithField("entries", len(s.entries)).Info("loaded hall of fame")
}

// Merge folds released sessions into the board, evicts down to the cap,
// and persists atomically when anything changed. The in-memory board stays
// correct even when the persist fails; the write is retried on the next
// merge and the prior on-disk state is untouched.
func (s *Store) Merge(released []models.Session) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, sess := range released {
		if sess.Status != models.StatusReleased || sess.Duration <= 0 {
			continue
		}

		cur, seen := s.entries[sess.Origin]
		if seen && sess.Duration <= cur.Duration {
			continue // ties keep the incumbent
		}

		e := models.FameEntry{
			Origin:    sess.Origin,
			ConnKey:   sess.ConnKey,
			Port:      sess.Port,
			StartedAt: sess.StartedAt,
			Duration:  sess.Duration,
		}
		if sess.Location != nil {
			e.SetLocation(*sess.Location)
		} else if seen && cur.HasLocation() {
			// carry the known location across record updates
			e.Country = cur.Country
			e.CountryCode = cur.CountryCode
			e.City = cur.City
			e.Lat = cur.Lat
			e.Lon = cur.Lon
		}

		s.entries[sess.Origin] = e
		changed = true
	}

	if s.evictLocked() {
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, s.persistLocked()
}

// UpdateLocations backfills resolved locations onto entries persisted
// before their origin could be looked up.
func (s *Store) UpdateLocations(locs map[string]models.Location) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for origin, loc := range locs {
		e, seen := s.entries[origin]
		if !seen || e.HasLocation() {
			continue
		}
		e.SetLocation(loc)
		s.entries[origin] = e
		changed = true
	}

	if !changed {
		return false, nil
	}
	return true, s.persistLocked()
}

// Reset discards the board and persists the empty document.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]models.FameEntry)
	return s.persistLocked()
}

// Entries returns the board ranked longest-first.
func (s *Store) Entries() []models.FameEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rankedLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLocked trims the board to the cap. Eviction is definitive.
func (s *Store) evictLocked() bool {
	if s.cap <= 0 || len(s.entries) <= s.cap {
		return false
	}
	ranked := s.rankedLocked()
	for _, e := range ranked[s.cap:] {
		delete(s.entries, e.Origin)
	}
	return true
}

// rankedLocked sorts by duration descending. Ties rank the earlier start
// first, then the origin lexicographically, so eviction under the cap is
// deterministic.
func (s *Store) rankedLocked() []models.FameEntry {
	ranked := make([]models.FameEntry, 0, len(s.entries))
	for _, e := range s.entries {
		ranked = append(ranked, e)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Duration != b.Duration {
			return a.Duration > b.Duration
		}
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return a.Origin < b.Origin
	})
	return ranked
}

// persistLocked writes the ranked board through a temp file and an atomic
// rename so a crash mid-write never leaves a half-written file visible.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.rankedLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode hall of fame: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create hall of fame dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fame-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write hall of fame: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync hall of fame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace hall of fame: %w", err)
	}
	return nil
}
