package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
)

// ToolChecker reports tool availability.
type ToolChecker interface {
	CheckMTR(ctx context.Context) tools.Status
	CheckTraceroute(ctx context.Context) tools.Status
}

// GeoResolver resolves an IP through the provider chain.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string, s geo.Settings) (*geo.LookupResult, error)
}

// Config holds service dependencies. Nil fields get defaults.
type Config struct {
	Platform platform.OS
	Runner   runner.Runner
	Tools    ToolChecker
	Geo      GeoResolver

	// Enricher is used when path options ask for enrichment. Optional.
	Enricher *enrich.Enricher

	// HTTPClient is the base client for HTTP tests; its transport is reused.
	HTTPClient *http.Client

	// ResolvConf is read to find the default DNS server.
	ResolvConf string

	// UserAgent is sent with HTTP tests.
	UserAgent string

	Logger *slog.Logger
}

// DefaultConfig returns a configuration for the running system.
func DefaultConfig() Config {
	r := runner.New(runner.DefaultConfig())
	os := platform.Current()
	return Config{
		Platform:   os,
		Runner:     r,
		Tools:      tools.New(tools.Config{Platform: os, Runner: r}),
		Geo:        geo.NewResolver(geo.DefaultConfig()),
		HTTPClient: &http.Client{Transport: http.DefaultTransport},
		ResolvConf: "/etc/resolv.conf",
		UserAgent:  "netscope/dev",
	}
}

// Service runs diagnostics. It keeps no per-call state and is safe for
// concurrent use.
type Service struct {
	os         platform.OS
	runner     runner.Runner
	tools      ToolChecker
	geo        GeoResolver
	enricher   *enrich.Enricher
	httpClient *http.Client
	resolvConf string
	userAgent  string
	commands   map[commandKey]commandBuilder
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a service. It fails when the command table is incomplete.
func New(cfg Config) (*Service, error) {
	if err := validateCommandTable(commandTable); err != nil {
		return nil, err
	}

	if cfg.Runner == nil {
		cfg.Runner = runner.New(runner.DefaultConfig())
	}
	if cfg.Tools == nil {
		cfg.Tools = tools.New(tools.Config{Platform: cfg.Platform, Runner: cfg.Runner})
	}
	if cfg.Geo == nil {
		cfg.Geo = geo.NewResolver(geo.DefaultConfig())
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Transport: http.DefaultTransport}
	}
	if cfg.ResolvConf == "" {
		cfg.ResolvConf = "/etc/resolv.conf"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "netscope/dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		os:         cfg.Platform,
		runner:     cfg.Runner,
		tools:      cfg.Tools,
		geo:        cfg.Geo,
		enricher:   cfg.Enricher,
		httpClient: cfg.HTTPClient,
		resolvConf: cfg.ResolvConf,
		userAgent:  cfg.UserAgent,
		commands:   commandTable,
		logger:     cfg.Logger,
		now:        time.Now,
	}, nil
}

// Platform returns the platform the service builds commands for.
func (s *Service) Platform() platform.OS {
	return s.os
}

// CheckMTR reports whether MTR can run.
func (s *Service) CheckMTR(ctx context.Context) tools.Status {
	return s.tools.CheckMTR(ctx)
}

// CheckTraceroute reports whether traceroute can run.
func (s *Service) CheckTraceroute(ctx context.Context) tools.Status {
	return s.tools.CheckTraceroute(ctx)
}

// LookupLocation resolves ip (or "current") through the provider chain.
func (s *Service) LookupLocation(ctx context.Context, ip string, settings geo.Settings) (*geo.LookupResult, error) {
	if s.geo == nil {
		return nil, errors.New("geolocation is not configured")
	}
	return s.geo.Lookup(ctx, ip, settings)
}

func (s *Service) command(kind Kind, target string, p commandParams) (Command, error) {
	cmd, err := buildCommand(s.commands, s.os, kind, target, p)
	if err != nil {
		return Command{}, err
	}
	s.logger.Debug("built command", "kind", kind, "command", cmd.String())
	return cmd, nil
}

func newID() string {
	return uuid.NewString()
}
