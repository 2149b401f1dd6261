package probe

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds batch operations when the caller passes zero.
const DefaultConcurrency = 4

// PingMany pings every host with at most concurrency runs in flight.
// Results keep the input order; a failed host is reported with 100% loss
// and its error.
func (s *Service) PingMany(ctx context.Context, hosts []string, opts PingOptions, concurrency int) []*PingResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	opts = opts.withDefaults()
	results := make([]*PingResult, len(hosts))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, host := range hosts {
		g.Go(func() error {
			res, err := s.Ping(ctx, host, opts)
			if err != nil {
				res = &PingResult{
					ID:          newID(),
					Host:        host,
					LossPercent: 100,
					Sent:        opts.Count,
					Error:       err.Error(),
					Timestamp:   s.now(),
				}
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()
	return results
}

// CompareDNSServers runs the same query against several servers and sorts
// the answers: successes first, fastest first.
func (s *Service) CompareDNSServers(ctx context.Context, domain string, servers []string, opts DNSOptions) []*DNSResult {
	results := make([]*DNSResult, len(servers))

	var g errgroup.Group
	g.SetLimit(DefaultConcurrency)
	for i, server := range servers {
		o := opts
		o.Server = server
		g.Go(func() error {
			results[i] = s.DNS(ctx, domain, o)
			return nil
		})
	}
	g.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Success != results[j].Success {
			return results[i].Success
		}
		return results[i].ResponseTimeMs < results[j].ResponseTimeMs
	})
	return results
}
