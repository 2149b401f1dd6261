package enrich

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/geo"
)

// RDNSResolver performs cached reverse DNS lookups.
type RDNSResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
	cache    *geo.Cache[string]
}

// RDNSConfig holds configuration for the rDNS resolver.
type RDNSConfig struct {
	Resolver  *net.Resolver
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
}

// DefaultRDNSConfig returns default rDNS configuration.
func DefaultRDNSConfig() RDNSConfig {
	return RDNSConfig{
		Resolver:  net.DefaultResolver,
		Timeout:   2 * time.Second,
		CacheSize: 1000,
		CacheTTL:  5 * time.Minute,
	}
}

// NewRDNSResolver creates a new reverse DNS resolver.
func NewRDNSResolver(config RDNSConfig) *RDNSResolver {
	if config.Resolver == nil {
		config.Resolver = net.DefaultResolver
	}
	if config.Timeout == 0 {
		config.Timeout = 2 * time.Second
	}

	var cache *geo.Cache[string]
	if config.CacheSize > 0 {
		cache = geo.NewCache[string](config.CacheSize, config.CacheTTL)
	}

	return &RDNSResolver{
		resolver: config.Resolver,
		timeout:  config.Timeout,
		cache:    cache,
	}
}

// Lookup returns the first PTR name for ip without the trailing dot, or ""
// when there is none. Failures are cached as "".
func (r *RDNSResolver) Lookup(ctx context.Context, ip string) string {
	if r.cache != nil {
		if cached, ok := r.cache.Get(ip); ok {
			return cached
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	hostname := ""
	names, err := r.resolver.LookupAddr(lookupCtx, ip)
	if err == nil && len(names) > 0 {
		hostname = strings.TrimSuffix(names[0], ".")
	}

	if r.cache != nil && ctx.Err() == nil {
		r.cache.Set(ip, hostname)
	}
	return hostname
}
