package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"endlesshmon/internal/models"
)

// endlessh prints its own UTC timestamp ahead of the event fields, e.g.
//
//	2025-10-14T16:17:13.280Z ACCEPT host=::ffff:1.2.3.4 port=51425 fd=4 n=1/4096
//	2025-10-14T16:19:13.401Z CLOSE host=::ffff:1.2.3.4 port=51425 fd=4 time=120.099 bytes=520
//
// The ::ffff: prefix is the IPv4-mapped form endlessh logs when bound to a
// dual-stack socket.
var (
	acceptRe = regexp.MustCompile(`ACCEPT host=(?:::ffff:)?([0-9a-fA-F.:]+) port=(\d+) fd=(\d+)`)
	closeRe  = regexp.MustCompile(`CLOSE host=(?:::ffff:)?([0-9a-fA-F.:]+) port=(\d+) fd=(\d+).*?time=([\d.]+)`)
	stampRe  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})(?:\.\d+)?Z`)
)

const stampLayout = "2006-01-02T15:04:05"

// Parser turns raw journal lines into typed connect/disconnect events.
// Parsing is stateless: the same line always yields the same event, so
// overlapping windows across passes re-derive identical results.
type Parser struct {
	log *logrus.Logger
}

func New(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// ParseLines extracts events from a batch of journal lines. Lines that are
// not connection events (endlessh config chatter, journal noise) are
// ignored silently; lines that look like events but cannot be fully parsed
// are skipped and counted. Output order is not guaranteed to be
// chronological.
func (p *Parser) ParseLines(lines []string) ([]models.Event, int) {
	events := make([]models.Event, 0, len(lines))
	skipped := 0

	for _, line := range lines {
		ev, ok, malformed := parseLine(line)
		if malformed {
			skipped++
			if p.log != nil {
				p.log.WithField("line", line).Debug("skipping malformed tarpit log line")
			}
			continue
		}
		if ok {
			events = append(events, ev)
		}
	}

	return events, skipped
}

func parseLine(line string) (ev models.Event, ok bool, malformed bool) {
	if m := closeRe.FindStringSubmatch(line); m != nil {
		ts, tok := parseStamp(line)
		dur, err := strconv.ParseFloat(m[4], 64)
		if !tok || err != nil {
			return models.Event{}, false, true
		}
		return models.Event{
			ConnKey:  m[1] + ":" + m[2],
			Origin:   m[1],
			Port:     m[2],
			FD:       m[3],
			Kind:     models.EventDisconnect,
			Time:     ts,
			Duration: dur,
		}, true, false
	}

	if m := acceptRe.FindStringSubmatch(line); m != nil {
		ts, tok := parseStamp(line)
		if !tok {
			return models.Event{}, false, true
		}
		return models.Event{
			ConnKey: m[1] + ":" + m[2],
			Origin:  m[1],
			Port:    m[2],
			FD:      m[3],
			Kind:    models.EventConnect,
			Time:    ts,
		}, true, false
	}

	return models.Event{}, false, false
}

func parseStamp(line string) (time.Time, bool) {
	m := stampRe.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(stampLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
