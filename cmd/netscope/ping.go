package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/netscope/internal/probe"
)

var (
	pingCount   int
	pingSize    int
	pingTimeout time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping [host...]",
	Short: "Ping one or more hosts with the system ping",
	Long: `Ping one or more hosts with the system ping.

Several hosts are pinged at the same time, at most --max-concurrency at once.

Examples:
  netscope ping google.com
  netscope ping -c 10 1.1.1.1 8.8.8.8 9.9.9.9`,
	RunE: runPing,
}

func init() {
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 0, "Number of echo requests")
	pingCmd.Flags().IntVarP(&pingSize, "size", "s", 0, "Payload size in bytes")
	pingCmd.Flags().DurationVarP(&pingTimeout, "timeout", "w", 0, "Per-reply timeout")
}

// pingOptions merges the ping flags over the config file.
func pingOptions(cmd *cobra.Command) probe.PingOptions {
	opts := probe.PingOptions{
		Count:   cfg.Ping.Count,
		Size:    cfg.Ping.Size,
		Timeout: cfg.Ping.Timeout,
	}
	if cmd.Flags().Changed("count") {
		opts.Count = pingCount
	}
	if cmd.Flags().Changed("size") {
		opts.Size = pingSize
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout = pingTimeout
	}
	return opts
}

func runPing(cmd *cobra.Command, args []string) error {
	hosts := make([]string, 0, len(args))
	for _, arg := range args {
		hosts = append(hosts, cfg.ResolveAlias(arg))
	}
	if len(hosts) == 0 {
		host, err := targetArg(nil, "host (IP or hostname)")
		if err != nil {
			return err
		}
		hosts = append(hosts, host)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	results := a.service.PingMany(commandContext(cmd), hosts, pingOptions(cmd), maxConcurrency)
	if err := newWriter().WritePing(results); err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != "" {
			return errTestFailed
		}
	}
	return nil
}
