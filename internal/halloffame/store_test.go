package halloffame

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"endlesshmon/internal/models"
)

var epoch = time.Date(2025, 10, 14, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newStore(t *testing.T, cap int) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "fame.json"), cap, quietLogger())
}

func released(origin, port string, start time.Time, dur float64) models.Session {
	return models.Session{
		Origin:    origin,
		ConnKey:   origin + ":" + port,
		Port:      port,
		StartedAt: start,
		EndedAt:   start.Add(time.Duration(dur * float64(time.Second))),
		Status:    models.StatusReleased,
		Duration:  dur,
	}
}

func TestMerge_PerOriginRunningMaximum(t *testing.T) {
	s := newStore(t, 100)

	changed, err := s.Merge([]models.Session{released("203.0.113.7", "1000", epoch, 300)})
	require.NoError(t, err)
	assert.True(t, changed)

	// a later, shorter run must not displace the record
	changed, err = s.Merge([]models.Session{released("203.0.113.7", "2000", epoch.Add(time.Hour), 120)})
	require.NoError(t, err)
	assert.False(t, changed)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "203.0.113.7", entries[0].Origin)
	assert.Equal(t, 300.0, entries[0].Duration)
	assert.Equal(t, "1000", entries[0].Port)
}

func TestMerge_LongerRunReplacesRecord(t *testing.T) {
	s := newStore(t, 100)

	_, err := s.Merge([]models.Session{released("203.0.113.7", "1000", epoch, 300)})
	require.NoError(t, err)
	_, err = s.Merge([]models.Session{released("203.0.113.7", "2000", epoch.Add(time.Hour), 900)})
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 900.0, entries[0].Duration)
	assert.Equal(t, "2000", entries[0].Port)
}

func TestMerge_Idempotent(t *testing.T) {
	s := newStore(t, 100)
	sess := released("203.0.113.7", "1000", epoch, 300)

	changed, err := s.Merge([]models.Session{sess})
	require.NoError(t, err)
	assert.True(t, changed)
	first := s.Entries()

	changed, err = s.Merge([]models.Session{sess})
	require.NoError(t, err)
	assert.False(t, changed, "re-delivering an incorporated session must be a no-op")
	assert.Equal(t, first, s.Entries())
}

func TestMerge_EqualDurationKeepsIncumbent(t *testing.T) {
	s := newStore(t, 100)

	_, err := s.Merge([]models.Session{released("203.0.113.7", "1000", epoch, 300)})
	require.NoError(t, err)
	_, err = s.Merge([]models.Session{released("203.0.113.7", "2000", epoch.Add(time.Hour), 300)})
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "1000", entries[0].Port, "first-seen wins ties")
}

func TestMerge_CapEvictsLowestDurations(t *testing.T) {
	s := newStore(t, 2)

	_, err := s.Merge([]models.Session{
		released("10.0.0.1", "1", epoch, 500),
		released("10.0.0.2", "2", epoch, 400),
	})
	require.NoError(t, err)

	_, err = s.Merge([]models.Session{released("10.0.0.3", "3", epoch, 450)})
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "10.0.0.1", entries[0].Origin)
	assert.Equal(t, "10.0.0.3", entries[1].Origin)

	// eviction is definitive: the evicted origin re-enters as new
	_, err = s.Merge([]models.Session{released("10.0.0.2", "4", epoch, 10)})
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 2)
	for _, e := range s.Entries() {
		assert.NotEqual(t, 400.0, e.Duration)
	}
}

func TestMerge_CapTieBreakIsDeterministic(t *testing.T) {
	s := newStore(t, 2)

	_, err := s.Merge([]models.Session{
		released("10.0.0.1", "1", epoch.Add(time.Hour), 300),
		released("10.0.0.2", "2", epoch, 300),
		released("10.0.0.3", "3", epoch.Add(2*time.Hour), 500),
	})
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "10.0.0.3", entries[0].Origin)
	assert.Equal(t, "10.0.0.2", entries[1].Origin, "equal durations rank the earlier start first")
}

func TestMerge_IgnoresTrappedAndZeroDuration(t *testing.T) {
	s := newStore(t, 100)

	trapped := models.Session{
		Origin: "10.0.0.1", ConnKey: "10.0.0.1:1", Port: "1",
		StartedAt: epoch, Status: models.StatusTrapped,
	}
	changed, err := s.Merge([]models.Session{trapped, released("10.0.0.2", "2", epoch, 0)})
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Zero(t, s.Len())
}

func TestLoad_RestartReconstructsBoard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fame.json")

	s1 := New(path, 100, quietLogger())
	_, err := s1.Merge([]models.Session{
		released("203.0.113.7", "1000", epoch, 300),
		released("198.51.100.9", "2000", epoch, 150),
	})
	require.NoError(t, err)

	s2 := New(path, 100, quietLogger())
	s2.Load()

	assert.Equal(t, s1.Entries(), s2.Entries(), "reload must reconstruct the pre-restart board")
}

func TestLoad_EnforcesLoweredCap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fame.json")

	s1 := New(path, 100, quietLogger())
	_, err := s1.Merge([]models.Session{
		released("203.0.113.7", "1000", epoch, 500),
		released("198.51.100.9", "2000", epoch, 400),
		released("192.0.2.4", "3000", epoch, 300),
	})
	require.NoError(t, err)

	s2 := New(path, 2, quietLogger())
	s2.Load()

	entries := s2.Entries()
	require.Len(t, entries, 2, "a lowered cap applies at load, not only on the next merge")
	assert.Equal(t, "203.0.113.7", entries[0].Origin)
	assert.Equal(t, "198.51.100.9", entries[1].Origin)
}

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	s := newStore(t, 100)
	s.Load()
	assert.Zero(t, s.Len())
}

func TestLoad_CorruptFilePreservedOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fame.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, 100, quietLogger())
	s.Load()
	assert.Zero(t, s.Len())

	// the corrupt file must survive until a successful merge replaces it
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))

	_, err = s.Merge([]models.Session{released("203.0.113.7", "1000", epoch, 300)})
	require.NoError(t, err)

	s2 := New(path, 100, quietLogger())
	s2.Load()
	assert.Equal(t, 1, s2.Len())
}

func TestUpdateLocations_BackfillPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fame.json")

	s := New(path, 100, quietLogger())
	_, err := s.Merge([]models.Session{released("203.0.113.7", "1000", epoch, 300)})
	require.NoError(t, err)

	changed, err := s.UpdateLocations(map[string]models.Location{
		"203.0.113.7": {Country: "Netherlands", CountryCode: "NL", City: "Amsterdam"},
	})
	require.NoError(t, err)
	assert.True(t, changed)

	s2 := New(path, 100, quietLogger())
	s2.Load()
	entries := s2.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Netherlands", entries[0].Country)

	// already-located entries are left alone
	changed, err = s.UpdateLocations(map[string]models.Location{
		"203.0.113.7": {Country: "Germany"},
	})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMerge_CarriesLocationAcrossRecordUpdate(t *testing.T) {
	s := newStore(t, 100)

	first := released("203.0.113.7", "1000", epoch, 300)
	first.Location = &models.Location{Country: "Netherlands", CountryCode: "NL", City: "Amsterdam"}
	_, err := s.Merge([]models.Session{first})
	require.NoError(t, err)

	// a longer run without a resolved location keeps the known one
	_, err = s.Merge([]models.Session{released("203.0.113.7", "2000", epoch.Add(time.Hour), 900)})
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 900.0, entries[0].Duration)
	assert.Equal(t, "Netherlands", entries[0].Country)
}

func TestReset_EmptiesAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fame.json")

	s := New(path, 100, quietLogger())
	_, err := s.Merge([]models.Session{released("203.0.113.7", "1000", epoch, 300)})
	require.NoError(t, err)

	require.NoError(t, s.Reset())

	s2 := New(path, 100, quietLogger())
	s2.Load()
	assert.Zero(t, s2.Len())
}
