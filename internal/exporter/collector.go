package exporter

import (
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"endlesshmon/internal/models"
)

const startedLayout = "2006-01-02 15:04:05"

// SnapshotFunc hands the collector the most recent complete evaluation
// snapshot. It returns nil before the first pass finishes.
type SnapshotFunc func() *models.Snapshot

// Collector projects the latest snapshot into the exported metric set.
// Collection is side-effect-free and repeatable: scraping never triggers
// an evaluation pass, so scrapes between passes return identical results.
type Collector struct {
	snapshot SnapshotFunc
	now      func() time.Time

	totalConnsEver  *prometheus.Desc
	totalConns      *prometheus.Desc
	activeConns     *prometheus.Desc
	maxTrap         *prometheus.Desc
	avgTrap         *prometheus.Desc
	uniqueIPs       *prometheus.Desc
	connInfo        *prometheus.Desc
	connsPerIP      *prometheus.Desc
	connsPerCountry *prometheus.Desc
}

func NewCollector(snapshot SnapshotFunc) *Collector {
	return &Collector{
		snapshot: snapshot,
		now:      time.Now,
		totalConnsEver: prometheus.NewDesc(
			"endlessh_total_connections_total",
			"Total SSH connections observed since exporter start.",
			nil, nil,
		),
		totalConns: prometheus.NewDesc(
			"endlessh_total_connections",
			"Distinct SSH connections in the current log window.",
			nil, nil,
		),
		activeConns: prometheus.NewDesc(
			"endlessh_active_connections",
			"Currently trapped SSH connections.",
			nil, nil,
		),
		maxTrap: prometheus.NewDesc(
			"endlessh_max_trap_duration_seconds",
			"Maximum trap duration across trapped connections and the hall of fame.",
			nil, nil,
		),
		avgTrap: prometheus.NewDesc(
			"endlessh_avg_trap_duration_seconds",
			"Average trap duration across trapped connections and the hall of fame.",
			nil, nil,
		),
		uniqueIPs: prometheus.NewDesc(
			"endlessh_unique_ips",
			"Distinct origin addresses in the current log window.",
			nil, nil,
		),
		connInfo: prometheus.NewDesc(
			"endlessh_connection_info",
			"Per-connection trap details; value is the trap duration in seconds.",
			[]string{"ip", "port", "country", "city", "status", "started", "sort_order", "ip_group"},
			nil,
		),
		connsPerIP: prometheus.NewDesc(
			"endlessh_connections_per_ip",
			"Connections per origin address in the current log window.",
			[]string{"ip", "country", "country_code", "city", "latitude", "longitude", "max_trap_duration", "avg_trap_duration"},
			nil,
		),
		connsPerCountry: prometheus.NewDesc(
			"endlessh_connections_per_country",
			"Connections per origin country in the current log window.",
			[]string{"country"},
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalConnsEver
	ch <- c.totalConns
	ch <- c.activeConns
	ch <- c.maxTrap
	ch <- c.avgTrap
	ch <- c.uniqueIPs
	ch <- c.connInfo
	ch <- c.connsPerIP
	ch <- c.connsPerCountry
}

// displayRow is one line of the dashboard's connection table: all trapped
// sessions first, then hall of fame entries for origins not currently
// trapped.
type displayRow struct {
	origin   string
	port     string
	country  string
	city     string
	status   models.Status
	started  time.Time
	duration float64
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()
	if snap == nil {
		snap = &models.Snapshot{}
	}

	// Trapped durations are measured against the snapshot's own pass time,
	// not the scrape time, so every scrape between passes reports the same
	// values.
	now := snap.TakenAt
	if now.IsZero() {
		now = c.now()
	}

	rows := displayList(snap, now)

	ch <- prometheus.MustNewConstMetric(c.totalConnsEver, prometheus.CounterValue, float64(snap.TotalAccepts))
	ch <- prometheus.MustNewConstMetric(c.totalConns, prometheus.GaugeValue, float64(len(snap.Sessions)))

	active := 0
	for _, s := range snap.Sessions {
		if s.Status == models.StatusTrapped {
			active++
		}
	}
	ch <- prometheus.MustNewConstMetric(c.activeConns, prometheus.GaugeValue, float64(active))

	var maxDur, sumDur float64
	for _, r := range rows {
		if r.duration > maxDur {
			maxDur = r.duration
		}
		sumDur += r.duration
	}
	avgDur := 0.0
	if len(rows) > 0 {
		avgDur = sumDur / float64(len(rows))
	}
	ch <- prometheus.MustNewConstMetric(c.maxTrap, prometheus.GaugeValue, maxDur)
	ch <- prometheus.MustNewConstMetric(c.avgTrap, prometheus.GaugeValue, avgDur)

	c.collectConnInfo(ch, rows)
	c.collectPerOrigin(ch, snap, rows)
}

func (c *Collector) collectConnInfo(ch chan<- prometheus.Metric, rows []displayRow) {
	// ip_group numbers distinct origins in display order so the dashboard
	// can stripe rows by origin.
	groups := make(map[string]int)
	nextGroup := 0

	for idx, r := range rows {
		group, seen := groups[r.origin]
		if !seen {
			group = nextGroup
			groups[r.origin] = group
			nextGroup++
		}

		ch <- prometheus.MustNewConstMetric(
			c.connInfo, prometheus.GaugeValue, r.duration,
			r.origin,
			r.port,
			orUnknown(r.country),
			orUnknown(r.city),
			string(r.status),
			r.started.Local().Format(startedLayout),
			strconv.Itoa(idx),
			strconv.Itoa(group),
		)
	}
}

func (c *Collector) collectPerOrigin(ch chan<- prometheus.Metric, snap *models.Snapshot, rows []displayRow) {
	counts := make(map[string]int)
	for _, s := range snap.Sessions {
		counts[s.Origin]++
	}
	ch <- prometheus.MustNewConstMetric(c.uniqueIPs, prometheus.GaugeValue, float64(len(counts)))

	// per-origin duration stats come from the displayed rows, matching the
	// headline max/avg blend of live and historical sessions
	maxByIP := make(map[string]float64)
	sumByIP := make(map[string]float64)
	cntByIP := make(map[string]int)
	for _, r := range rows {
		if r.duration > maxByIP[r.origin] {
			maxByIP[r.origin] = r.duration
		}
		sumByIP[r.origin] += r.duration
		cntByIP[r.origin]++
	}

	origins := make([]string, 0, len(counts))
	for origin := range counts {
		origins = append(origins, origin)
	}
	sort.Strings(origins)

	countryCounts := make(map[string]int)
	for _, origin := range origins {
		loc, ok := snap.Locations[origin]
		if !ok {
			loc = models.Location{Country: "Unknown", CountryCode: "XX", City: "Unknown"}
		}
		countryCounts[loc.Country] += counts[origin]

		avg := 0.0
		if cntByIP[origin] > 0 {
			avg = sumByIP[origin] / float64(cntByIP[origin])
		}

		ch <- prometheus.MustNewConstMetric(
			c.connsPerIP, prometheus.GaugeValue, float64(counts[origin]),
			origin,
			orUnknown(loc.Country),
			orCode(loc.CountryCode),
			orUnknown(loc.City),
			strconv.FormatFloat(loc.Lat, 'f', -1, 64),
			strconv.FormatFloat(loc.Lon, 'f', -1, 64),
			strconv.FormatFloat(maxByIP[origin], 'f', 2, 64),
			strconv.FormatFloat(avg, 'f', 2, 64),
		)
	}

	countries := make([]string, 0, len(countryCounts))
	for country := range countryCounts {
		countries = append(countries, country)
	}
	sort.Strings(countries)
	for _, country := range countries {
		ch <- prometheus.MustNewConstMetric(
			c.connsPerCountry, prometheus.GaugeValue, float64(countryCounts[country]),
			country,
		)
	}
}

// displayList builds the combined connection table: trapped sessions
// always shown first, then hall of fame entries whose origin is not
// already trapped, both ordered by duration descending.
func displayList(snap *models.Snapshot, now time.Time) []displayRow {
	rows := make([]displayRow, 0, len(snap.Sessions)+len(snap.Fame))
	trappedOrigins := make(map[string]bool)

	for _, s := range snap.Sessions {
		if s.Status != models.StatusTrapped {
			continue
		}
		trappedOrigins[s.Origin] = true

		row := displayRow{
			origin:   s.Origin,
			port:     s.Port,
			status:   models.StatusTrapped,
			started:  s.StartedAt,
			duration: s.TrapDuration(now),
		}
		if s.Location != nil {
			row.country = s.Location.Country
			row.city = s.Location.City
		} else if loc, ok := snap.Locations[s.Origin]; ok {
			row.country = loc.Country
			row.city = loc.City
		}
		rows = append(rows, row)
	}

	for _, e := range snap.Fame {
		if trappedOrigins[e.Origin] {
			continue
		}
		rows = append(rows, displayRow{
			origin:   e.Origin,
			port:     e.Port,
			country:  e.Country,
			city:     e.City,
			status:   models.StatusReleased,
			started:  e.StartedAt,
			duration: e.Duration,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.status != b.status {
			return a.status == models.StatusTrapped
		}
		if a.duration != b.duration {
			return a.duration > b.duration
		}
		if a.origin != b.origin {
			return a.origin < b.origin
		}
		return a.port < b.port
	})

	return rows
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orCode(s string) string {
	if s == "" {
		return "XX"
	}
	return s
}
