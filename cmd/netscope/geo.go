package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
)

var (
	geoService string
	geoTimeout time.Duration
	geoBatch   []string
)

var geoCmd = &cobra.Command{
	Use:   "geo [ip|current]",
	Short: "Locate IP addresses",
	Long: `Locate an IP address through the geolocation services.

In auto mode the services are tried in order until one answers. Without
an argument, or with "current", your own public address is located.

Examples:
  netscope geo
  netscope geo 8.8.8.8 --service ipinfo
  netscope geo --batch 1.1.1.1,8.8.8.8,9.9.9.9
  netscope geo services`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGeo,
}

var geoServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the geolocation services",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newWriter().WriteServices(geo.SupportedServices())
	},
}

func init() {
	geoCmd.Flags().StringVar(&geoService, "service", "", "Service to use (see 'netscope geo services')")
	geoCmd.Flags().DurationVarP(&geoTimeout, "timeout", "w", 0, "Per-request timeout")
	geoCmd.Flags().StringSliceVar(&geoBatch, "batch", nil, "Locate several addresses")

	geoCmd.AddCommand(geoServicesCmd)
}

// geoSettings merges the geo flags over the config file.
func geoSettings(cmd *cobra.Command) geo.Settings {
	settings := cfg.Geo.Settings
	if cmd.Flags().Changed("service") {
		settings.Service = strings.ToLower(geoService)
	}
	if cmd.Flags().Changed("timeout") {
		settings.Timeout = geoTimeout
	}
	return settings
}

func runGeo(cmd *cobra.Command, args []string) error {
	settings := geoSettings(cmd)
	if _, err := geo.Chain(settings); err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)

	if len(geoBatch) > 0 {
		ips := make([]string, 0, len(geoBatch))
		for _, ip := range geoBatch {
			ips = append(ips, cfg.ResolveAlias(strings.TrimSpace(ip)))
		}
		results := a.enricherFor(settings).LookupIPs(ctx, ips)
		if err := newWriter().WriteGeo(results); err != nil {
			return err
		}
		for _, r := range results {
			if !r.Success {
				return errTestFailed
			}
		}
		return nil
	}

	ip := geo.CurrentIP
	if len(args) > 0 {
		ip = cfg.ResolveAlias(args[0])
	}

	if enrich.IsInternal(ip) {
		return newWriter().WriteGeo([]enrich.IPResult{{IP: ip, Success: true, Internal: true}})
	}

	res, err := a.service.LookupLocation(ctx, ip, settings)
	if err != nil {
		return err
	}

	if textOutput() {
		fmt.Fprintf(os.Stderr, "Located with %s\n\n", res.Service)
	}
	location := res.Data
	return newWriter().WriteGeo([]enrich.IPResult{{IP: location.IP, Success: true, Location: &location}})
}
