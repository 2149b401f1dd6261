package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/netscope/internal/probe"
)

var (
	dnsRecordType string
	dnsServer     string
	dnsTimeout    time.Duration
	dnsCompare    []string
)

var dnsCmd = &cobra.Command{
	Use:   "dns [domain]",
	Short: "Query DNS records",
	Long: fmt.Sprintf(`Query DNS records from the system resolver or a given server.

Supported record types: %s

With --compare the same query is sent to every listed server and the
answers are sorted by response time.

Examples:
  netscope dns example.com
  netscope dns example.com -t MX -s 1.1.1.1
  netscope dns example.com --compare 1.1.1.1,8.8.8.8,9.9.9.9`,
		strings.Join(probe.SupportedRecordTypes(), ", ")),
	Args: cobra.MaximumNArgs(1),
	RunE: runDNS,
}

func init() {
	dnsCmd.Flags().StringVarP(&dnsRecordType, "type", "t", "", "Record type (A, AAAA, CNAME, MX, TXT, NS)")
	dnsCmd.Flags().StringVarP(&dnsServer, "server", "s", "", `DNS server IP, or "default" for the system resolver`)
	dnsCmd.Flags().DurationVarP(&dnsTimeout, "timeout", "w", 0, "Query timeout")
	dnsCmd.Flags().StringSliceVar(&dnsCompare, "compare", nil, "Compare several DNS servers")
}

// dnsOptions merges the dns flags over the config file.
func dnsOptions(cmd *cobra.Command) probe.DNSOptions {
	opts := probe.DNSOptions{
		RecordType: cfg.DNS.RecordType,
		Server:     cfg.DNS.Server,
		Timeout:    cfg.DNS.Timeout,
	}
	if cmd.Flags().Changed("type") {
		opts.RecordType = strings.ToUpper(dnsRecordType)
	}
	if cmd.Flags().Changed("server") {
		opts.Server = dnsServer
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout = dnsTimeout
	}
	return opts
}

func runDNS(cmd *cobra.Command, args []string) error {
	domain, err := targetArg(args, "domain")
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	opts := dnsOptions(cmd)

	var results []*probe.DNSResult
	if len(dnsCompare) > 0 {
		results = a.service.CompareDNSServers(ctx, domain, dnsCompare, opts)
	} else {
		results = []*probe.DNSResult{a.service.DNS(ctx, domain, opts)}
	}

	if err := newWriter().WriteDNS(results); err != nil {
		return err
	}

	for _, r := range results {
		if r.Success {
			return nil
		}
	}
	return errTestFailed
}
