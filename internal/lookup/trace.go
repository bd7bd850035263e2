package lookup

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/rileyhilliard/lookout/internal/errors"
)

// DefaultTraceTimeout bounds one traceroute run.
const DefaultTraceTimeout = 60 * time.Second

var ipv4Pattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// CommandTracer shells out to the platform traceroute.
type CommandTracer struct {
	// Command overrides the binary; empty picks traceroute or tracert.
	Command string
	MaxHops int
}

// Trace implements Tracer.
func (t CommandTracer) Trace(ctx context.Context, host string) ([]string, error) {
	maxHops := t.MaxHops
	if maxHops <= 0 {
		maxHops = 30
	}

	name := t.Command
	var args []string
	if runtime.GOOS == "windows" {
		if name == "" {
			name = "tracert"
		}
		args = []string{"-d", "-h", fmt.Sprint(maxHops), "-w", "1000", host}
	} else {
		if name == "" {
			name = "traceroute"
		}
		args = []string{"-n", "-q", "1", "-w", "1", "-m", fmt.Sprint(maxHops), host}
	}

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil && len(out) == 0 {
		return nil, errors.WrapWithCode(err, errors.ErrResolve,
			fmt.Sprintf("traceroute to %s failed", host),
			"Install traceroute or disable trace for this server")
	}
	return ParseHops(string(out)), nil
}

// ParseHops extracts the distinct IPv4 hop addresses from traceroute or
// tracert output, in order. Header lines naming the destination are skipped.
func ParseHops(output string) []string {
	var hops []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "traceroute") || strings.HasPrefix(lower, "tracing") || strings.HasPrefix(lower, "over a maximum") {
			continue
		}
		ip := ipv4Pattern.FindString(line)
		if ip == "" || seen[ip] {
			continue
		}
		seen[ip] = true
		hops = append(hops, ip)
	}
	return hops
}

// TraceCache memoizes non-empty traceroute results per host.
type TraceCache struct {
	tracer Tracer
	memo   *memo[[]string]
}

// NewTraceCache creates a cache over t.
func NewTraceCache(t Tracer) *TraceCache {
	return &TraceCache{
		tracer: t,
		memo:   newMemo[[]string](DefaultTraceTimeout),
	}
}

// Trace returns the hops towards host.
func (c *TraceCache) Trace(ctx context.Context, host string) ([]string, error) {
	return c.memo.resolve(ctx, host, func(ctx context.Context) ([]string, error) {
		hops, err := c.tracer.Trace(ctx, host)
		if err != nil {
			return nil, err
		}
		if len(hops) == 0 {
			return nil, errors.New(errors.ErrResolve,
				fmt.Sprintf("traceroute to %s found no hops", host), "")
		}
		return hops, nil
	})
}

// Size returns the number of cached hosts.
func (c *TraceCache) Size() int {
	return c.memo.size()
}
