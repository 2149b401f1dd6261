package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
	"github.com/KilimcininKorOglu/netscope/internal/tui"
)

var (
	// Shared by mtr and traceroute
	tuiMode  bool
	noEnrich bool
	noRDNS   bool
	maxHops  int
	timeout  time.Duration

	// mtr only
	mtrCount      int
	mtrPacketSize int
)

var mtrCmd = &cobra.Command{
	Use:   "mtr [target]",
	Short: "Trace the path with mtr (pathping on Windows)",
	Long: `Trace the path to a target with mtr, or pathping on Windows.

When mtr is not installed, traceroute is used instead and the install
command is shown as a note. Public hops are located through the
geolocation chain unless --no-enrich is given.

Examples:
  netscope mtr google.com
  netscope mtr -c 10 -m 20 1.1.1.1
  netscope mtr --tui google.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMTR,
}

var tracerouteCmd = &cobra.Command{
	Use:     "traceroute [target]",
	Aliases: []string{"tracert"},
	Short:   "Trace the path with traceroute (tracert on Windows)",
	Long: `Trace the path to a target with traceroute, or tracert on Windows.

Examples:
  netscope traceroute google.com
  netscope traceroute -m 30 8.8.8.8 --json
  netscope traceroute --tui cloudflare.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTraceroute,
}

func init() {
	for _, cmd := range []*cobra.Command{mtrCmd, tracerouteCmd} {
		cmd.Flags().BoolVarP(&tuiMode, "tui", "t", false, "Interactive TUI mode")
		cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Do not locate hops")
		cmd.Flags().BoolVar(&noRDNS, "no-rdns", false, "Do not fill hostnames with reverse DNS")
		cmd.Flags().IntVarP(&maxHops, "max-hops", "m", 0, "Maximum number of hops")
	}

	mtrCmd.Flags().IntVarP(&mtrCount, "count", "c", 0, "Probes per hop")
	mtrCmd.Flags().IntVarP(&mtrPacketSize, "packet-size", "s", 0, "Probe packet size in bytes")
	mtrCmd.Flags().DurationVarP(&timeout, "timeout", "w", 0, "Time limit for the whole run")

	tracerouteCmd.Flags().DurationVarP(&timeout, "timeout", "w", 0, "Wait time per probe")
}

// mtrOptions merges the mtr flags over the config file.
func mtrOptions(cmd *cobra.Command) probe.MtrOptions {
	opts := probe.MtrOptions{
		Count:      cfg.MTR.Count,
		PacketSize: cfg.MTR.PacketSize,
		MaxHops:    cfg.MTR.MaxHops,
		Timeout:    cfg.MTR.Timeout,
		Enrich:     !noEnrich,
	}
	if cmd.Flags().Changed("count") {
		opts.Count = mtrCount
	}
	if cmd.Flags().Changed("packet-size") {
		opts.PacketSize = mtrPacketSize
	}
	if cmd.Flags().Changed("max-hops") {
		opts.MaxHops = maxHops
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout = timeout
	}
	return opts
}

// tracerouteOptions merges the traceroute flags over the config file.
func tracerouteOptions(cmd *cobra.Command) probe.TracerouteOptions {
	opts := probe.TracerouteOptions{
		MaxHops: cfg.Traceroute.MaxHops,
		Timeout: cfg.Traceroute.Timeout,
		Enrich:  !noEnrich,
	}
	if cmd.Flags().Changed("max-hops") {
		opts.MaxHops = maxHops
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout = timeout
	}
	return opts
}

func runMTR(cmd *cobra.Command, args []string) error {
	opts := mtrOptions(cmd)
	return runPath(cmd, args, "mtr", opts.Enrich, func(ctx context.Context, s *probe.Service, target string, locate bool) *trace.PathResult {
		o := opts
		o.Enrich = locate
		return s.MTR(ctx, target, o)
	})
}

func runTraceroute(cmd *cobra.Command, args []string) error {
	opts := tracerouteOptions(cmd)
	return runPath(cmd, args, "traceroute", opts.Enrich, func(ctx context.Context, s *probe.Service, target string, locate bool) *trace.PathResult {
		o := opts
		o.Enrich = locate
		return s.Traceroute(ctx, target, o)
	})
}

type pathFunc func(ctx context.Context, s *probe.Service, target string, locate bool) *trace.PathResult

// runPath runs an mtr or traceroute test in the TUI or with plain output.
func runPath(cmd *cobra.Command, args []string, title string, enrichHops bool, run pathFunc) error {
	target, err := targetArg(args, "target (IP or hostname)")
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)

	// The TUI runs the tool bare and locates hops itself so they appear
	// one by one.
	if tuiMode {
		var enricher *enrich.Enricher
		if enrichHops {
			enricher = a.enricher
		}
		_, err := tui.Run(ctx, tui.Config{
			Title:  title,
			Target: target,
			Trace: func(ctx context.Context) *trace.PathResult {
				return run(ctx, a.service, target, false)
			},
			Enricher: enricher,
			Plain:    noColor,
		})
		return err
	}

	if textOutput() {
		fmt.Fprintf(os.Stderr, "%s to %s, this can take a while...\n\n", title, target)
	}

	result := run(ctx, a.service, target, enrichHops)
	if err := newWriter().WritePath(result); err != nil {
		return err
	}
	if !result.Success {
		return errTestFailed
	}
	return nil
}
