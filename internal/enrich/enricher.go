// Package enrich attaches geolocation and reverse-DNS names to the hops
// of a path result.
package enrich

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

// internalPrefixes are never sent to a geolocation service.
var internalPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// IsInternal reports whether ip is private, loopback, link-local or
// carrier-grade NAT space. Unparsable input is not internal.
func IsInternal(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range internalPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Config holds enricher configuration.
type Config struct {
	// Locator resolves public addresses.
	Locator geo.Locator

	// RDNS fills hostnames that are still just the IP. Optional.
	RDNS *RDNSResolver

	// Concurrency bounds in-flight lookups during Enrich.
	Concurrency int

	// BatchConcurrency bounds in-flight lookups during LookupIPs.
	BatchConcurrency int

	// OnHop is called after a hop has been enriched. Calls are serialized.
	OnHop func(index int, hop trace.Hop)

	Logger *slog.Logger
}

// DefaultConfig returns the default concurrency limits.
func DefaultConfig() Config {
	return Config{
		Concurrency:      3,
		BatchConcurrency: 5,
	}
}

// Enricher fills in hop locations.
type Enricher struct {
	locator          geo.Locator
	rdns             *RDNSResolver
	concurrency      int
	batchConcurrency int
	onHop            func(int, trace.Hop)
	logger           *slog.Logger
}

// New creates an enricher.
func New(cfg Config) *Enricher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Enricher{
		locator:          cfg.Locator,
		rdns:             cfg.RDNS,
		concurrency:      cfg.Concurrency,
		batchConcurrency: cfg.BatchConcurrency,
		onHop:            cfg.OnHop,
		logger:           cfg.Logger,
	}
}

// WithOnHop returns a copy of e that reports progress to fn.
func (e *Enricher) WithOnHop(fn func(index int, hop trace.Hop)) *Enricher {
	c := *e
	c.onHop = fn
	return &c
}

// Enrich sets Location and Internal on hops in place. Timeout hops are
// left untouched and internal addresses never reach the locator. A failed
// lookup leaves that hop's location empty without affecting the others.
func (e *Enricher) Enrich(ctx context.Context, hops []trace.Hop) error {
	var mu sync.Mutex
	update := func(indices []int, apply func(*trace.Hop)) {
		mu.Lock()
		defer mu.Unlock()
		for _, i := range indices {
			apply(&hops[i])
			if e.onHop != nil {
				e.onHop(i, hops[i])
			}
		}
	}

	// Group hop indices by address so each IP is resolved once.
	byIP := make(map[string][]int)
	var order []string
	for i, hop := range hops {
		if !hop.Responded() {
			continue
		}
		if IsInternal(hop.IP) {
			update([]int{i}, func(h *trace.Hop) {
				h.Internal = true
				h.Location = nil
			})
			continue
		}
		if _, ok := byIP[hop.IP]; !ok {
			order = append(order, hop.IP)
		}
		byIP[hop.IP] = append(byIP[hop.IP], i)
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, ip := range order {
		indices := byIP[ip]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			loc, hostname := e.resolve(ctx, ip)
			update(indices, func(h *trace.Hop) {
				h.Location = loc
				if hostname != "" && (h.Hostname == "" || h.Hostname == h.IP) {
					h.Hostname = hostname
				}
			})
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}

func (e *Enricher) resolve(ctx context.Context, ip string) (*geo.Record, string) {
	var loc *geo.Record
	if e.locator != nil {
		rec, err := e.locator.Locate(ctx, ip)
		if err != nil {
			e.logger.Debug("hop location lookup failed", "ip", ip, "error", err)
		} else {
			loc = &rec
		}
	}

	var hostname string
	if e.rdns != nil {
		hostname = e.rdns.Lookup(ctx, ip)
	}
	return loc, hostname
}

// IPResult is one entry of a batch lookup.
type IPResult struct {
	IP       string      `json:"ip"`
	Success  bool        `json:"success"`
	Internal bool        `json:"internal,omitempty"`
	Location *geo.Record `json:"location,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// LookupIPs resolves a list of addresses with BatchConcurrency lookups in
// flight. Results keep the input order.
func (e *Enricher) LookupIPs(ctx context.Context, ips []string) []IPResult {
	results := make([]IPResult, len(ips))

	var g errgroup.Group
	g.SetLimit(e.batchConcurrency)
	for i, ip := range ips {
		results[i].IP = ip
		if IsInternal(ip) {
			results[i].Success = true
			results[i].Internal = true
			continue
		}
		if e.locator == nil {
			results[i].Error = "no locator configured"
			continue
		}

		g.Go(func() error {
			rec, err := e.locator.Locate(ctx, ip)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Success = true
			results[i].Location = &rec
			return nil
		})
	}
	g.Wait()
	return results
}
