package geo

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"

	"endlesshmon/internal/models"
)

// Resolver answers origin -> location queries cache-first, with a bounded
// number of external lookups per evaluation pass. Lookups past the budget
// are deferred to the next pass, not dropped; lookup failures are never
// cached, so they get retried. The Resolver is owned by the evaluation
// pipeline and is not safe for concurrent use.
type Resolver struct {
	cache  *Cache
	lookup Lookup
	budget int
	log    *logrus.Logger

	remaining int
	mem       map[string]models.Location
}

func NewResolver(cache *Cache, lookup Lookup, budget int, log *logrus.Logger) *Resolver {
	return &Resolver{
		cache:  cache,
		lookup: lookup,
		budget: budget,
		log:    log,
		mem:    make(map[string]models.Location),
	}
}

// BeginPass resets the external-lookup budget for a new evaluation pass.
func (r *Resolver) BeginPass() {
	r.remaining = r.budget
}

// Resolve returns the location for origin if it is already known or can
// be looked up within the remaining pass budget. ok=false means
// unresolved for now; callers display accordingly and retry next pass.
func (r *Resolver) Resolve(ctx context.Context, origin string) (models.Location, bool) {
	if loc, ok := r.mem[origin]; ok {
		return loc, true
	}

	if r.cache != nil {
		loc, ok, err := r.cache.Get(origin)
		if err != nil {
			r.log.WithError(err).Warn("geo cache read failed")
		} else if ok {
			r.mem[origin] = loc
			return loc, true
		}
	}

	// Private and reserved ranges can never resolve externally; cache them
	// permanently instead of burning budget on them every pass.
	if loc, ok := privateLocation(origin); ok {
		r.store(origin, loc)
		return loc, true
	}

	if r.remaining <= 0 {
		return models.Location{}, false
	}
	r.remaining--

	loc, err := r.lookup.Lookup(ctx, origin)
	if err != nil {
		r.log.WithField("ip", origin).WithError(err).Debug("location lookup failed")
		return models.Location{}, false
	}

	r.store(origin, loc)
	return loc, true
}

// Remaining reports the external lookups left in the current pass.
func (r *Resolver) Remaining() int {
	return r.remaining
}

func (r *Resolver) store(origin string, loc models.Location) {
	r.mem[origin] = loc
	if r.cache != nil {
		if err := r.cache.Put(origin, loc); err != nil {
			r.log.WithError(err).Warn("geo cache write failed")
		}
	}
}

func privateLocation(origin string) (models.Location, bool) {
	ip := net.ParseIP(origin)
	if ip == nil {
		return models.Location{}, false
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return models.Location{
			Country:     "Private network",
			CountryCode: "XX",
			City:        "Private network",
		}, true
	}
	return models.Location{}, false
}
