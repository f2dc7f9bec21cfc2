package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"endlesshmon/internal/geo"
	"endlesshmon/internal/halloffame"
	"endlesshmon/internal/journal"
	"endlesshmon/internal/models"
	"endlesshmon/internal/parser"
	"endlesshmon/internal/tracker"
)

type Config struct {
	Window        time.Duration // log lookback per pass
	CounterWindow time.Duration // sub-window feeding the monotonic counter
	Interval      time.Duration // time between evaluation passes
}

// Pipeline runs the evaluation loop: fetch window, parse, track sessions,
// merge released sessions into the hall of fame, resolve locations within
// budget, then swap in a fresh snapshot for the serving path. Passes never
// overlap; the loop goroutine is the only writer.
type Pipeline struct {
	cfg      Config
	source   journal.Source
	parser   *parser.Parser
	fame     *halloffame.Store
	resolver *geo.Resolver
	log      *logrus.Logger

	snap atomic.Pointer[models.Snapshot]

	// accept identities already counted, pruned to the counter window
	seen  map[string]time.Time
	total uint64
}

func New(cfg Config, source journal.Source, p *parser.Parser, fame *halloffame.Store, resolver *geo.Resolver, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		parser:   p,
		fame:     fame,
		resolver: resolver,
		log:      log,
		seen:     make(map[string]time.Time),
	}
}

// Snapshot returns the last complete snapshot, or nil before the first
// pass has finished. It never blocks on a running pass.
func (p *Pipeline) Snapshot() *models.Snapshot {
	return p.snap.Load()
}

// Run executes evaluation passes on a fixed interval until ctx is
// cancelled. The first pass starts immediately.
func (p *Pipeline) Run(ctx context.Context) {
	p.RunPass(ctx, time.Now())

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunPass(ctx, time.Now())
		}
	}
}

// RunPass executes one fetch -> parse -> track -> merge -> persist cycle
// and publishes the result. When the log source is unavailable the pass is
// abandoned and the previous snapshot keeps serving.
func (p *Pipeline) RunPass(ctx context.Context, now time.Time) {
	lines, err := p.source.Lines(ctx, p.cfg.Window)
	if err != nil {
		p.log.WithError(err).Warn("log source unavailable, keeping last snapshot")
		return
	}

	events, skipped := p.parser.ParseLines(lines)
	if skipped > 0 {
		p.log.WithField("lines", skipped).Debug("skipped malformed log lines")
	}

	sessions := tracker.Build(events)

	p.resolver.BeginPass()
	locs := make(map[string]models.Location)
	resolve := func(origin string) (models.Location, bool) {
		if loc, ok := locs[origin]; ok {
			return loc, true
		}
		loc, ok := p.resolver.Resolve(ctx, origin)
		if ok {
			locs[origin] = loc
		}
		return loc, ok
	}

	for i := range sessions {
		if loc, ok := resolve(sessions[i].Origin); ok {
			l := loc
			sessions[i].Location = &l
		}
	}

	if _, err := p.fame.Merge(tracker.Released(sessions)); err != nil {
		p.log.WithError(err).Error("hall of fame persist failed, retrying next merge")
	}
	p.backfillFame(resolve)
	p.countAccepts(events, now)

	p.snap.Store(&models.Snapshot{
		TakenAt:      now,
		Sessions:     sessions,
		Fame:         p.fame.Entries(),
		Locations:    locs,
		TotalAccepts: p.total,
	})
}

// backfillFame resolves locations for hall of fame entries persisted
// before their origin could be looked up, using whatever budget the live
// sessions left over.
func (p *Pipeline) backfillFame(resolve func(string) (models.Location, bool)) {
	missing := make(map[string]models.Location)
	for _, e := range p.fame.Entries() {
		if e.HasLocation() {
			continue
		}
		if loc, ok := resolve(e.Origin); ok {
			missing[e.Origin] = loc
		}
	}
	if len(missing) == 0 {
		return
	}
	if _, err := p.fame.UpdateLocations(missing); err != nil {
		p.log.WithError(err).Error("hall of fame persist failed after location backfill")
	}
}

// countAccepts folds newly seen accept events into the monotonic total.
// Identity is timestamp plus connection key, so re-reading overlapping
// windows across passes never double-counts. Identities older than the
// counter window cannot reappear and are pruned.
func (p *Pipeline) countAccepts(events []models.Event, now time.Time) {
	cutoff := now.Add(-p.cfg.CounterWindow)

	for _, ev := range events {
		if ev.Kind != models.EventConnect || ev.Time.Before(cutoff) {
			continue
		}
		id := ev.Time.UTC().Format(time.RFC3339) + "|" + ev.ConnKey
		if _, counted := p.seen[id]; counted {
			continue
		}
		p.seen[id] = ev.Time
		p.total++
	}

	for id, ts := range p.seen {
		if ts.Before(cutoff) {
			delete(p.seen, id)
		}
	}
}
