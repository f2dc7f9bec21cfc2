package journal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner abstracts command execution so the source can be unit-tested
// without a live journald.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// OSRunner executes commands on the host via os/exec.
type OSRunner struct{}

func (OSRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %s", err.Error(), msg)
		}
		return "", err
	}
	return out.String(), nil
}

// Source supplies the raw log lines for a recent time window.
type Source interface {
	Lines(ctx context.Context, window time.Duration) ([]string, error)
}

// JournalctlSource reads a systemd unit's log via journalctl. Output mode
// cat strips the journal's own prefix; endlessh prints its own timestamp
// inside the message, which is what the parser keys on.
type JournalctlSource struct {
	Unit   string
	Runner Runner
}

func NewJournalctlSource(unit string) *JournalctlSource {
	return &JournalctlSource{Unit: unit, Runner: OSRunner{}}
}

func (s *JournalctlSource) Lines(ctx context.Context, window time.Duration) ([]string, error) {
	out, err := s.Runner.Output(ctx, "journalctl",
		"-u", s.Unit,
		"--since", sinceArg(window),
		"--no-pager",
		"--output=cat",
	)
	if err != nil {
		return nil, fmt.Errorf("journalctl: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// sinceArg renders a window length as a systemd relative timestamp.
func sinceArg(window time.Duration) string {
	secs := int64(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("%d seconds ago", secs)
}
