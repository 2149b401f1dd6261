// Package geo resolves IP addresses to a location using a chain of HTTP
// geolocation providers and an optional offline MaxMind database.
package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// CurrentIP asks the providers about the caller's own public address.
const CurrentIP = "current"

// DefaultTimeout is the per-provider timeout.
const DefaultTimeout = 8 * time.Second

// maxBodySize caps provider responses.
const maxBodySize = 1 << 20

// Settings selects and configures providers for a lookup.
type Settings struct {
	Service        string        `json:"service" yaml:"service"`
	IP2LocationKey string        `json:"ip2location_key,omitempty" yaml:"ip2location_key"`
	IPInfoToken    string        `json:"ipinfo_token,omitempty" yaml:"ipinfo_token"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultSettings returns auto mode with the default timeout.
func DefaultSettings() Settings {
	return Settings{
		Service: ServiceAuto,
		Timeout: DefaultTimeout,
	}
}

// LookupResult is a successful answer and the service that produced it.
type LookupResult struct {
	Success bool   `json:"success"`
	Data    Record `json:"data"`
	Service string `json:"service"`
}

// Locator resolves a single IP.
type Locator interface {
	Locate(ctx context.Context, ip string) (Record, error)
}

// Config holds resolver dependencies.
type Config struct {
	// Client performs provider requests. Per-request timeouts come from
	// Settings, not from the client.
	Client *http.Client

	// UserAgent is sent with every provider request.
	UserAgent string

	// Local, when set, is consulted before the HTTP chain in auto mode.
	Local Locator

	Logger *slog.Logger
}

// DefaultConfig returns a resolver configuration using the proxy settings
// from the environment.
func DefaultConfig() Config {
	return Config{
		Client:    &http.Client{Transport: http.DefaultTransport},
		UserAgent: "netscope/dev",
	}
}

// Resolver tries providers in order until one answers.
type Resolver struct {
	client    *http.Client
	userAgent string
	local     Locator
	logger    *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(cfg Config) *Resolver {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Transport: http.DefaultTransport}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "netscope/dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{
		client:    cfg.Client,
		userAgent: cfg.UserAgent,
		local:     cfg.Local,
		logger:    cfg.Logger,
	}
}

// Chain returns the providers tried for s, in order.
func Chain(s Settings) ([]Provider, error) {
	service := strings.ToLower(strings.TrimSpace(s.Service))
	if service == "" {
		service = ServiceAuto
	}

	switch service {
	case ServiceAuto:
		var chain []Provider
		if s.IP2LocationKey != "" {
			chain = append(chain, IP2Location{Key: s.IP2LocationKey})
		}
		return append(chain, IPAPI{}, IPAPICo{}, IPInfo{Token: s.IPInfoToken}), nil
	case ServiceIPAPI:
		return []Provider{IPAPI{}}, nil
	case ServiceIPAPICo:
		return []Provider{IPAPICo{}}, nil
	case ServiceIP2Location:
		if s.IP2LocationKey == "" {
			return nil, fmt.Errorf("%s: %w", service, ErrMissingAPIKey)
		}
		return []Provider{IP2Location{Key: s.IP2LocationKey}}, nil
	case ServiceIPInfo:
		return []Provider{IPInfo{Token: s.IPInfoToken}}, nil
	default:
		return nil, fmt.Errorf("%q: %w", s.Service, ErrUnsupportedService)
	}
}

// Lookup resolves ip, or the caller's own address when ip is "current"
// or empty. Providers are tried one at a time, each once.
func (r *Resolver) Lookup(ctx context.Context, ip string, s Settings) (*LookupResult, error) {
	chain, err := Chain(s)
	if err != nil {
		return nil, err
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}

	ip = strings.TrimSpace(ip)
	current := ip == "" || strings.EqualFold(ip, CurrentIP)
	if current {
		ip = ""
	}

	auto := s.Service == "" || strings.EqualFold(s.Service, ServiceAuto)
	if auto && !current && r.local != nil {
		rec, err := r.local.Locate(ctx, ip)
		if err == nil && !rec.IsEmpty() {
			rec.IP = ip
			return &LookupResult{Success: true, Data: rec, Service: ServiceMaxMind}, nil
		}
		r.logger.Debug("local lookup missed", "ip", ip, "error", err)
	}

	var errs error
	for _, p := range chain {
		rec, err := r.query(ctx, p, ip, s.Timeout)
		if err != nil {
			r.logger.Warn("geolocation provider failed", "provider", p.Name(), "error", err)
			errs = multierr.Append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if !current {
			rec.IP = ip
		}
		r.logger.Debug("geolocation resolved", "provider", p.Name(), "ip", rec.IP)
		return &LookupResult{Success: true, Data: rec, Service: p.Name()}, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errs)
}

func (r *Resolver) query(ctx context.Context, p Provider, ip string, timeout time.Duration) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(ip), nil)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w: %w", p.Name(), ErrProviderRequest, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return Record{}, fmt.Errorf("%s: %w", p.Name(), ErrProviderTimeout)
		}
		return Record{}, fmt.Errorf("%s: %w: %w", p.Name(), ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if isTimeout(ctx, err) {
			return Record{}, fmt.Errorf("%s: %w", p.Name(), ErrProviderTimeout)
		}
		return Record{}, fmt.Errorf("%s: %w: %w", p.Name(), ErrProviderRequest, err)
	}

	rec, err := p.Parse(body)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			return Record{}, fmt.Errorf("%s: %w: HTTP %d", p.Name(), ErrProviderRequest, resp.StatusCode)
		}
		return Record{}, fmt.Errorf("%s: %w: %w", p.Name(), ErrProviderParse, err)
	}
	return rec, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Locator binds settings to the resolver so it can be used where a
// Locator is expected.
func (r *Resolver) Locator(s Settings) Locator {
	return settingsLocator{resolver: r, settings: s}
}

type settingsLocator struct {
	resolver *Resolver
	settings Settings
}

func (l settingsLocator) Locate(ctx context.Context, ip string) (Record, error) {
	res, err := l.resolver.Lookup(ctx, ip, l.settings)
	if err != nil {
		return Record{}, err
	}
	return res.Data, nil
}
