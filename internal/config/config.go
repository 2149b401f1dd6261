// Package config provides configuration file support for netscope.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
)

// Config represents the netscope configuration file structure.
type Config struct {
	// Defaults are applied when flags are not specified
	Defaults Defaults `yaml:"defaults"`

	Ping       PingConfig       `yaml:"ping"`
	MTR        MTRConfig        `yaml:"mtr"`
	Traceroute TracerouteConfig `yaml:"traceroute"`
	DNS        DNSConfig        `yaml:"dns"`
	HTTP       HTTPConfig       `yaml:"http"`
	Geo        GeoConfig        `yaml:"geo"`

	// Aliases for common targets
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// Defaults holds output and scheduling defaults shared by all commands.
type Defaults struct {
	// Output mode
	TUI     bool `yaml:"tui"`
	Verbose bool `yaml:"verbose"`
	JSON    bool `yaml:"json"`
	CSV     bool `yaml:"csv"`
	NoColor bool `yaml:"no_color"`

	// Targets probed at the same time by multi-target commands
	MaxConcurrency int `yaml:"max_concurrency"`
}

// PingConfig holds ping defaults. Zero size or timeout leaves the
// system ping defaults in place.
type PingConfig struct {
	Count   int           `yaml:"count"`
	Size    int           `yaml:"size"`
	Timeout time.Duration `yaml:"timeout"`
}

// MTRConfig holds mtr/pathping defaults.
type MTRConfig struct {
	Count      int           `yaml:"count"`
	PacketSize int           `yaml:"packet_size"`
	MaxHops    int           `yaml:"max_hops"`
	Timeout    time.Duration `yaml:"timeout"`
}

// TracerouteConfig holds traceroute/tracert defaults.
type TracerouteConfig struct {
	MaxHops int           `yaml:"max_hops"`
	Timeout time.Duration `yaml:"timeout"`
}

// DNSConfig holds DNS test defaults.
type DNSConfig struct {
	RecordType string        `yaml:"record_type"`
	Server     string        `yaml:"server"`
	Timeout    time.Duration `yaml:"timeout"`
}

// HTTPConfig holds HTTP test defaults.
type HTTPConfig struct {
	Method  string            `yaml:"method"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

// GeoConfig holds geolocation settings.
type GeoConfig struct {
	geo.Settings `yaml:",inline"`

	// Enrich looks up every hop of mtr/traceroute results
	Enrich bool `yaml:"enrich"`
	// RDNS fills missing hop hostnames with reverse DNS
	RDNS bool `yaml:"rdns"`

	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	MaxMind MaxMindConfig `yaml:"maxmind"`
}

// MaxMindConfig enables the offline GeoLite2 databases.
type MaxMindConfig struct {
	Enabled     bool `yaml:"enabled"`
	UpdateHours int  `yaml:"update_hours"`

	geo.MaxMindConfig `yaml:",inline"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Defaults: Defaults{
			MaxConcurrency: probe.DefaultConcurrency,
		},
		Ping: PingConfig{
			Count: probe.DefaultPingCount,
		},
		MTR: MTRConfig{
			Count:      probe.DefaultMtrCount,
			PacketSize: probe.DefaultMtrPacketSize,
			MaxHops:    probe.DefaultMtrMaxHops,
			Timeout:    probe.DefaultMtrTimeout,
		},
		Traceroute: TracerouteConfig{
			MaxHops: probe.DefaultTracerouteMaxHops,
			Timeout: probe.DefaultTracerouteTimeout,
		},
		DNS: DNSConfig{
			RecordType: probe.DefaultDNSRecordType,
			Server:     probe.DefaultDNSServer,
			Timeout:    probe.DefaultDNSTimeout,
		},
		HTTP: HTTPConfig{
			Method:  probe.DefaultHTTPMethod,
			Timeout: probe.DefaultHTTPTimeout,
		},
		Geo: GeoConfig{
			Settings:  geo.DefaultSettings(),
			Enrich:    true,
			RDNS:      true,
			CacheSize: 1000,
			CacheTTL:  time.Hour,
			MaxMind: MaxMindConfig{
				UpdateHours: 168,
			},
		},
		Aliases: make(map[string]string),
	}
}

// Validate checks values that the probes would otherwise reject at run
// time.
func (c *Config) Validate() error {
	modes := 0
	for _, on := range []bool{c.Defaults.TUI, c.Defaults.JSON, c.Defaults.CSV} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return ErrConflictingOutput
	}

	if c.Defaults.MaxConcurrency < 0 {
		return fmt.Errorf("%w: defaults.max_concurrency %d", ErrInvalidValue, c.Defaults.MaxConcurrency)
	}
	for name, v := range map[string]int{
		"ping.count":          c.Ping.Count,
		"ping.size":           c.Ping.Size,
		"mtr.count":           c.MTR.Count,
		"mtr.packet_size":     c.MTR.PacketSize,
		"mtr.max_hops":        c.MTR.MaxHops,
		"traceroute.max_hops": c.Traceroute.MaxHops,
		"geo.cache_size":      c.Geo.CacheSize,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s %d", ErrInvalidValue, name, v)
		}
	}
	if c.MTR.MaxHops > 255 || c.Traceroute.MaxHops > 255 {
		return fmt.Errorf("%w: max_hops above 255", ErrInvalidValue)
	}

	if rt := c.DNS.RecordType; rt != "" && !slices.Contains(probe.SupportedRecordTypes(), strings.ToUpper(rt)) {
		return fmt.Errorf("%w: %s", ErrUnknownRecordType, rt)
	}

	if svc := c.Geo.Service; svc != "" {
		known := false
		for _, info := range geo.SupportedServices() {
			if info.ID == svc {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: %s", ErrUnknownService, svc)
		}
	}
	return nil
}

// ResolveAlias returns the aliased target, or target itself.
func (c *Config) ResolveAlias(target string) string {
	if c == nil || c.Aliases == nil {
		return target
	}
	if alias, ok := c.Aliases[target]; ok {
		return alias
	}
	return target
}

// Load reads configuration from the default config file locations.
// It searches in order:
//  1. ./netscope.yaml (current directory)
//  2. ~/.config/netscope/config.yaml (Linux/macOS)
//  3. %APPDATA%\netscope\config.yaml (Windows)
//
// If no config file is found, ErrNotFound is returned with the defaults.
func Load() (*Config, error) {
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFrom(path)
		}
	}
	return DefaultConfig(), ErrNotFound
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Save writes the configuration to the default user config path.
func (c *Config) Save() error {
	path := getUserConfigPath()
	if path == "" {
		return ErrNoConfigDir
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// The file may hold API keys.
	return os.WriteFile(path, data, 0600)
}

// getConfigPaths returns the list of config file paths to search.
func getConfigPaths() []string {
	paths := []string{
		"netscope.yaml",
		"netscope.yml",
		".netscope.yaml",
		".netscope.yml",
	}

	if userPath := getUserConfigPath(); userPath != "" {
		paths = append(paths, userPath)
	}
	return paths
}

// getConfigDir returns the user-specific config directory.
func getConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "netscope")
		}
	default: // Linux, macOS, etc.
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "netscope")
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config", "netscope")
		}
	}
	return ""
}

func getUserConfigPath() string {
	dir := getConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// GetConfigPath returns the path where user config would be saved.
func GetConfigPath() string {
	return getUserConfigPath()
}

// GetCityDBPath returns the GeoLite2-City path, honoring an override in
// the config.
func (c *Config) GetCityDBPath() string {
	if c.Geo.MaxMind.CityDBPath != "" {
		return c.Geo.MaxMind.CityDBPath
	}
	return filepath.Join(getConfigDir(), "GeoLite2-City.mmdb")
}

// GetASNDBPath returns the GeoLite2-ASN path, honoring an override in the
// config.
func (c *Config) GetASNDBPath() string {
	if c.Geo.MaxMind.ASNDBPath != "" {
		return c.Geo.MaxMind.ASNDBPath
	}
	return filepath.Join(getConfigDir(), "GeoLite2-ASN.mmdb")
}

// GenerateExample generates an example configuration file content.
func GenerateExample() string {
	return `# netscope configuration file
# Location: ~/.config/netscope/config.yaml (Linux/macOS)
#           %APPDATA%\netscope\config.yaml (Windows)
#           ./netscope.yaml (current directory)

defaults:
  # Output mode (only one of tui/json/csv)
  tui: false              # Live view for mtr/traceroute
  verbose: false          # Detailed table output
  json: false             # JSON output
  csv: false              # CSV output
  no_color: false         # Disable colors
  max_concurrency: 4      # Targets probed at once

ping:
  count: 4
  size: 0                 # Payload bytes (0 = system default)
  timeout: 0s             # Per-reply timeout (0 = system default)

mtr:
  count: 5
  packet_size: 64
  max_hops: 15
  timeout: 2m

traceroute:
  max_hops: 15
  timeout: 2s             # Per-probe wait

dns:
  record_type: A          # A, AAAA, CNAME, MX, TXT, NS
  server: default         # "default" or an IP such as 1.1.1.1
  timeout: 5s

http:
  method: GET
  timeout: 10s
  # headers:
  #   Authorization: Bearer ...

geo:
  service: auto           # auto, ip-api, ipapi, ip2location, ipinfo
  ip2location_key: ""
  ipinfo_token: ""
  timeout: 8s
  enrich: true            # Locate every hop of mtr/traceroute
  rdns: true              # Reverse DNS for hops without a name
  cache_size: 1000
  cache_ttl: 1h
  maxmind:
    enabled: false        # Offline GeoLite2 lookups before the APIs
    license_key: ""
    update_hours: 168
    # city_db: /path/to/GeoLite2-City.mmdb
    # asn_db: /path/to/GeoLite2-ASN.mmdb

# Target aliases (optional)
aliases:
  dns: 8.8.8.8
  cf: 1.1.1.1
  google: google.com
`
}
