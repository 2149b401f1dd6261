package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/parse"
	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// MTR traces the path to target with mtr, or pathping on Windows. When
// mtr is not installed, traceroute is used instead and the result carries
// the install hint as a notice.
func (s *Service) MTR(ctx context.Context, target string, opts MtrOptions) *trace.PathResult {
	opts = opts.withDefaults()
	res := s.newPathResult(KindMTR, target)

	host, err := NormalizeTarget(target)
	if err != nil {
		return s.failPath(res, err, "")
	}

	status := s.tools.CheckMTR(ctx)
	res.Tool = status.Tool
	if status.State == tools.NotInstalled {
		return s.mtrFallback(ctx, res, host, status, opts)
	}
	if !status.Usable() {
		return s.failPath(res, status.Err(), status.Remediation)
	}

	cmd, err := s.command(KindMTR, host, commandParams{
		Binary:  status.Path,
		Count:   opts.Count,
		Size:    opts.PacketSize,
		MaxHops: opts.MaxHops,
		Elevate: status.State == tools.PermissionRequired,
	})
	if err != nil {
		return s.failPath(res, err, "")
	}

	hops, err := s.runPath(ctx, cmd, opts.Timeout, status, parse.MTR)
	if err != nil {
		return s.failPath(res, err, status.Remediation)
	}
	return s.finishPath(ctx, res, hops, host, opts.Enrich)
}

func (s *Service) mtrFallback(ctx context.Context, res *trace.PathResult, host string, mtr tools.Status, opts MtrOptions) *trace.PathResult {
	tr := s.tools.CheckTraceroute(ctx)
	if !tr.Usable() {
		remedy := strings.TrimSpace(mtr.Remediation + "\n" + tr.Remediation)
		return s.failPath(res, errors.Join(mtr.Err(), tr.Err()), remedy)
	}

	s.logger.Info("mtr not installed, falling back to traceroute", "target", host)
	fallback := s.traceroute(ctx, res, host, tr, TracerouteOptions{
		MaxHops: opts.MaxHops,
		Enrich:  opts.Enrich,
	}.withDefaults())
	fallback.Notice = mtr.Remediation
	return fallback
}

// Traceroute traces the path to target with traceroute, or tracert on
// Windows.
func (s *Service) Traceroute(ctx context.Context, target string, opts TracerouteOptions) *trace.PathResult {
	opts = opts.withDefaults()
	res := s.newPathResult(KindTraceroute, target)

	host, err := NormalizeTarget(target)
	if err != nil {
		return s.failPath(res, err, "")
	}

	status := s.tools.CheckTraceroute(ctx)
	if !status.Usable() {
		res.Tool = status.Tool
		return s.failPath(res, status.Err(), status.Remediation)
	}
	return s.traceroute(ctx, res, host, status, opts)
}

func (s *Service) traceroute(ctx context.Context, res *trace.PathResult, host string, status tools.Status, opts TracerouteOptions) *trace.PathResult {
	res.Tool = status.Tool

	cmd, err := s.command(KindTraceroute, host, commandParams{
		Binary:  status.Path,
		MaxHops: opts.MaxHops,
		Timeout: opts.Timeout,
	})
	if err != nil {
		return s.failPath(res, err, "")
	}

	hops, err := s.runPath(ctx, cmd, opts.processTimeout(), status, parse.Traceroute)
	if err != nil {
		return s.failPath(res, err, status.Remediation)
	}
	return s.finishPath(ctx, res, hops, host, opts.Enrich)
}

// runPath executes a path command and parses its stdout. Permission
// problems are detected from the output text.
func (s *Service) runPath(ctx context.Context, cmd Command, timeout time.Duration, status tools.Status, parser func(string, platform.OS) []trace.Hop) ([]trace.Hop, error) {
	out, err := s.runner.Run(ctx, cmd.Name, cmd.Args, timeout)
	if out != nil && IsPermissionOutput(out.Stderr+"\n"+out.Stdout) {
		return nil, fmt.Errorf("%s: %w", status.Tool, tools.ErrToolPermissionRequired)
	}
	if runner.IsTimeout(err) {
		return nil, fmt.Errorf("%s: no report within %s: %w", status.Tool, timeout, err)
	}
	if err != nil && !runner.IsNonZeroExit(err) {
		return nil, err
	}

	hops := parser(out.Stdout, s.os)
	if len(hops) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", status.Tool, ErrNoHops)
	}
	return hops, nil
}

func (s *Service) newPathResult(kind Kind, target string) *trace.PathResult {
	return &trace.PathResult{
		ID:        newID(),
		Kind:      kind.String(),
		Target:    target,
		Hops:      []trace.Hop{},
		Timestamp: s.now(),
	}
}

func (s *Service) failPath(res *trace.PathResult, err error, remediation string) *trace.PathResult {
	s.logger.Debug("path test failed", "kind", res.Kind, "target", res.Target, "error", err)
	res.Success = false
	res.Error = err.Error()
	if remediation != "" {
		res.Error += "\n" + remediation
	}
	return res
}

func (s *Service) finishPath(ctx context.Context, res *trace.PathResult, hops []trace.Hop, host string, enrich bool) *trace.PathResult {
	hops = trace.Normalize(hops, host)
	if enrich && s.enricher != nil {
		if err := s.enricher.Enrich(ctx, hops); err != nil {
			s.logger.Warn("hop enrichment interrupted", "target", host, "error", err)
		}
	}
	res.Hops = hops
	res.Summary = trace.Summarize(hops)
	res.Success = true
	return res
}
