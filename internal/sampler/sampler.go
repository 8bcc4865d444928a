package sampler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrProbeTimeout means the probe process was killed after exceeding
	// its deadline.
	ErrProbeTimeout = errors.New("memory probe timed out")
	// ErrProbeFailed means the probe ran but reported an error or produced
	// output that could not be parsed.
	ErrProbeFailed = errors.New("memory probe failed")
)

// Reading is one successful probe result, in megabytes as reported by the
// probe's own unit flag. No further conversion is applied.
type Reading struct {
	TotalMB float64
	UsedMB  float64
	FreeMB  float64
}

// Sampler reads host memory usage by invoking an external probe, by
// default `free -t --mega`. The last three whitespace-delimited numeric
// tokens of the probe's stdout are taken as total/used/free.
//
// Sample never panics: every failure path resolves to an error result, so
// the scheduler driving it cannot be crashed by a misbehaving probe.
type Sampler struct {
	command string
	args    []string
	timeout time.Duration
}

func New(timeout time.Duration) *Sampler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Sampler{
		command: "free",
		args:    []string{"-t", "--mega"},
		timeout: timeout,
	}
}

func (s *Sampler) Sample(ctx context.Context) (Reading, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Error("memory probe killed after timeout", "command", s.command, "timeout", s.timeout)
		return Reading{}, ErrProbeTimeout
	}

	if stderr.Len() > 0 {
		slog.Error("memory probe unavailable",
			"severity", "critical",
			"command", s.command,
			"stderr", strings.TrimSpace(stderr.String()))
		return Reading{}, ErrProbeFailed
	}

	if runErr != nil {
		slog.Error("memory probe could not run", "command", s.command, "error", runErr)
		return Reading{}, fmt.Errorf("%w: %v", ErrProbeFailed, runErr)
	}

	reading, err := parseReading(stdout.String())
	if err != nil {
		slog.Error("memory probe output unparseable", "command", s.command, "error", err)
		return Reading{}, err
	}

	return reading, nil
}

func parseReading(output string) (Reading, error) {
	fields := strings.Fields(output)
	if len(fields) < 3 {
		return Reading{}, fmt.Errorf("%w: expected at least 3 output tokens, got %d", ErrProbeFailed, len(fields))
	}

	tail := fields[len(fields)-3:]
	values := make([]float64, 3)
	for i, raw := range tail {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: token %q is not numeric", ErrProbeFailed, raw)
		}
		values[i] = value
	}

	return Reading{TotalMB: values[0], UsedMB: values[1], FreeMB: values[2]}, nil
}
