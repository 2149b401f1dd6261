package probe

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/KilimcininKorOglu/netscope/internal/parse"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
)

// Ping runs the system ping command against host. A non-zero exit still
// counts as success when the output holds statistics or an address, as
// ping exits non-zero on packet loss.
func (s *Service) Ping(ctx context.Context, host string, opts PingOptions) (*PingResult, error) {
	target, err := NormalizeTarget(host)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	cmd, err := s.command(KindPing, target, commandParams{
		Count:   opts.Count,
		Size:    opts.Size,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, cmd.Name, cmd.Args, opts.processTimeout())
	if runner.IsTimeout(err) {
		return nil, fmt.Errorf("%w: %s: no reply within %s: %w", ErrPingFailed, host, opts.processTimeout(), err)
	}
	if err != nil && !runner.IsNonZeroExit(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrPingFailed, host, err)
	}

	stats := parse.Ping(out.Stdout, s.os)
	if !stats.HasRTT() && stats.IP == "" {
		detail := strings.TrimSpace(out.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(out.Stdout)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrPingFailed, host, detail)
	}

	received := int(math.Round(float64(opts.Count) * (100 - stats.Loss) / 100))
	return &PingResult{
		ID:          newID(),
		Host:        host,
		IP:          stats.IP,
		Min:         stats.Min,
		Avg:         stats.Avg,
		Max:         stats.Max,
		LossPercent: stats.Loss,
		TTL:         stats.TTL,
		Sent:        opts.Count,
		Received:    received,
		Timestamp:   s.now(),
	}, nil
}
