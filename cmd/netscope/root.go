package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/netscope/internal/config"
	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/neterr"
	"github.com/KilimcininKorOglu/netscope/internal/output"
	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
)

// errTestFailed is returned when a test ran but did not succeed. The
// result has already been written, so main only sets the exit code.
var errTestFailed = errors.New("test failed")

var (
	// Flags
	verbose        bool
	jsonOutput     bool
	csvOutput      bool
	noColor        bool
	debug          bool
	maxConcurrency int

	// Config file
	cfgFile string
	cfg     *config.Config

	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "netscope",
	Short: "Cross-platform network diagnostics",
	Long: `netscope - cross-platform network diagnostics

netscope runs the system ping, mtr and traceroute tools, queries DNS
servers directly, times HTTP requests and locates IP addresses through
a chain of geolocation services.

Examples:
  netscope ping google.com 1.1.1.1        Ping several hosts
  netscope dns example.com -t MX          Query MX records
  netscope dns example.com --compare 1.1.1.1,8.8.8.8
  netscope http https://example.com -X HEAD
  netscope mtr google.com --tui           Live mtr view
  netscope traceroute 8.8.8.8 --json      JSON output
  netscope tools                          Check mtr/traceroute availability
  netscope geo 8.8.8.8                    Locate an IP
  netscope config --init                  Create default config file`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.config/netscope/config.yaml)")

	// Output flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed table output")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&csvOutput, "csv", false, "Output in CSV format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug messages to stderr")
	rootCmd.PersistentFlags().IntVar(&maxConcurrency, "max-concurrency", 0, "Targets tested at the same time")

	// Add subcommands
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(dnsCmd)
	rootCmd.AddCommand(httpCmd)
	rootCmd.AddCommand(mtrCmd)
	rootCmd.AddCommand(tracerouteCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(geoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads configuration from file and applies defaults
// If no config file exists, it creates one automatically on first run
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error

	if cfgFile != "" {
		// Custom config file specified
		cfg, err = config.LoadFrom(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		// Try to load from default locations
		cfg, err = config.Load()
		switch {
		case errors.Is(err, config.ErrNotFound):
			// Try to save default config (ignore errors - might not have write permission)
			if cmd.Name() != configCmd.Name() {
				if saveErr := cfg.Save(); saveErr == nil {
					fmt.Fprintf(os.Stderr, "Created default config: %s\n", config.GetConfigPath())
					fmt.Fprintf(os.Stderr, "Edit this file to customize defaults (e.g., set tui: true)\n\n")
				}
			}
		case err != nil:
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Apply config defaults if flags not explicitly set
	applyConfigDefaults(cmd)

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if noColor {
		color.NoColor = true
	}

	return nil
}

// applyConfigDefaults applies config file values for unset flags
func applyConfigDefaults(cmd *cobra.Command) {
	if cfg == nil {
		return
	}

	defaults := cfg.Defaults

	// Output mode from config (if no flag set)
	if !cmd.Flags().Changed("tui") && defaults.TUI {
		tuiMode = true
	}
	if !cmd.Flags().Changed("verbose") && defaults.Verbose {
		verbose = true
	}
	if !cmd.Flags().Changed("json") && defaults.JSON {
		jsonOutput = true
	}
	if !cmd.Flags().Changed("csv") && defaults.CSV {
		csvOutput = true
	}
	if !cmd.Flags().Changed("no-color") && defaults.NoColor {
		noColor = true
	}

	// Machine-readable output wins over the TUI set in the config
	if !cmd.Flags().Changed("tui") && (jsonOutput || csvOutput) {
		tuiMode = false
	}

	if !cmd.Flags().Changed("max-concurrency") {
		if defaults.MaxConcurrency > 0 {
			maxConcurrency = defaults.MaxConcurrency
		} else {
			maxConcurrency = probe.DefaultConcurrency
		}
	}

	// Enrichment from config
	if !cmd.Flags().Changed("no-enrich") && !cfg.Geo.Enrich {
		noEnrich = true
	}
	if !cmd.Flags().Changed("no-rdns") && !cfg.Geo.RDNS {
		noRDNS = true
	}
}

// outputFormat picks the formatter for the output flags.
func outputFormat() output.Format {
	switch {
	case jsonOutput:
		return output.FormatJSON
	case csvOutput:
		return output.FormatCSV
	case verbose:
		return output.FormatVerbose
	default:
		return output.FormatText
	}
}

func newWriter() *output.Writer {
	return output.NewWriter(outputFormat(), output.Config{
		Colors:     !noColor,
		NoLocation: noEnrich,
	})
}

// textOutput reports whether progress messages may be printed.
func textOutput() bool {
	return !jsonOutput && !csvOutput
}

// app holds the services shared by the subcommands.
type app struct {
	service  *probe.Service
	checker  *tools.Checker
	resolver *geo.Resolver
	enricher *enrich.Enricher
	rdns     *enrich.RDNSResolver
	maxmind  *geo.MaxMindDB
}

// newApp wires the services from the loaded configuration.
func newApp() (*app, error) {
	family := platform.Current()
	run := runner.New(runner.Config{
		WaitDelay: runner.DefaultConfig().WaitDelay,
		Logger:    logger.With("component", "runner"),
	})
	checker := tools.New(tools.Config{
		Platform: family,
		Runner:   run,
		Logger:   logger.With("component", "tools"),
	})

	a := &app{checker: checker}

	geoConfig := geo.DefaultConfig()
	geoConfig.UserAgent = userAgent()
	geoConfig.Logger = logger.With("component", "geo")

	// Initialize MaxMind if enabled in config
	if cfg.Geo.MaxMind.Enabled && cfg.Geo.MaxMind.LicenseKey != "" {
		db, err := initMaxMind(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: MaxMind initialization failed: %v\n", err)
			fmt.Fprintf(os.Stderr, "Falling back to online services...\n\n")
		} else if db != nil {
			a.maxmind = db
			geoConfig.Local = db
		}
	}
	a.resolver = geo.NewResolver(geoConfig)

	if !noRDNS {
		a.rdns = enrich.NewRDNSResolver(enrich.DefaultRDNSConfig())
	}
	a.enricher = a.enricherFor(cfg.Geo.Settings)

	service, err := probe.New(probe.Config{
		Platform:  family,
		Runner:    run,
		Tools:     checker,
		Geo:       a.resolver,
		Enricher:  a.enricher,
		UserAgent: userAgent(),
		Logger:    logger.With("component", "probe"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = service
	return a, nil
}

// enricherFor returns an enricher that locates through settings.
func (a *app) enricherFor(settings geo.Settings) *enrich.Enricher {
	locator := geo.NewCachedLocator(a.resolver.Locator(settings), cfg.Geo.CacheSize, cfg.Geo.CacheTTL)
	return enrich.New(enrich.Config{
		Locator: locator,
		RDNS:    a.rdns,
		Logger:  logger.With("component", "enrich"),
	})
}

// Close releases the MaxMind readers.
func (a *app) Close() {
	if a.maxmind != nil {
		a.maxmind.Close()
	}
}

func userAgent() string {
	return "netscope/" + version
}

// commandContext returns the command context, cancelled on interrupt.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printSuggestions lists the remediation hints of a classified error.
func printSuggestions(err error) {
	var classified *neterr.Error
	if !errors.As(err, &classified) || len(classified.Suggestions) == 0 {
		return
	}
	yellow := color.New(color.FgYellow)
	fmt.Fprintln(os.Stderr, "Suggestions:")
	for _, s := range classified.Suggestions {
		yellow.Fprintf(os.Stderr, "  • %s\n", s)
	}
}

// targetArg returns the first argument or prompts for one, then resolves
// aliases.
func targetArg(args []string, what string) (string, error) {
	if len(args) > 0 {
		return cfg.ResolveAlias(args[0]), nil
	}
	target, err := promptForTarget(what)
	if err != nil {
		return "", err
	}
	return cfg.ResolveAlias(target), nil
}

// promptForTarget displays an interactive prompt for the user to enter a target
func promptForTarget(what string) (string, error) {
	// Title
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	cyan.Println("╔═══════════════════════════════════════════════════════════╗")
	cyan.Println("║            netscope - Network Diagnostics                 ║")
	cyan.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	// Show some examples
	fmt.Println("  Examples:")
	yellow.Println("    • google.com      - Google")
	yellow.Println("    • 8.8.8.8         - Google DNS")
	yellow.Println("    • cloudflare.com  - Cloudflare")
	fmt.Println()

	// Show aliases if any
	if cfg != nil && len(cfg.Aliases) > 0 {
		fmt.Println("  Aliases:")
		for alias, target := range cfg.Aliases {
			yellow.Printf("    • %s → %s\n", alias, target)
		}
		fmt.Println()
	}

	// Prompt
	reader := bufio.NewReader(os.Stdin)

	for {
		green.Printf("  Enter %s: ", what)
		os.Stdout.Sync()

		input, err := reader.ReadString('\n')
		if err != nil {
			// Ctrl+D or piped input ended
			if errors.Is(err, io.EOF) {
				return "", errors.New("no input provided")
			}
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		target := strings.TrimSpace(input)

		if target == "" {
			color.Red("  ✗ Target cannot be empty. Please try again.")
			fmt.Println()
			continue
		}

		if target == "q" || target == "quit" || target == "exit" {
			fmt.Println("  Goodbye!")
			os.Exit(0)
		}

		fmt.Println()
		return target, nil
	}
}

// initMaxMind opens the GeoLite2 databases, downloading or refreshing
// them when needed.
func initMaxMind(cfg *config.Config) (*geo.MaxMindDB, error) {
	mm := cfg.Geo.MaxMind
	if !mm.Enabled || mm.LicenseKey == "" {
		return nil, nil
	}

	db, err := geo.OpenMaxMind(geo.MaxMindConfig{
		LicenseKey: mm.LicenseKey,
		CityDBPath: cfg.GetCityDBPath(),
		ASNDBPath:  cfg.GetASNDBPath(),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// If no databases available, try to download
	if !db.Loaded() {
		fmt.Fprintf(os.Stderr, "Downloading MaxMind databases (first run)...\n")
		if err := db.DownloadDatabases(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to download databases: %w", err)
		}
		fmt.Fprintf(os.Stderr, "MaxMind databases downloaded successfully.\n\n")
		return db, nil
	}

	// Check if we need to update
	if mm.UpdateHours > 0 {
		maxAge := time.Duration(mm.UpdateHours) * time.Hour
		if db.NeedsUpdate(maxAge) {
			fmt.Fprintf(os.Stderr, "Updating MaxMind databases...\n")
			if err := db.UpdateIfNeeded(ctx, maxAge); err != nil {
				// Continue with existing databases
				fmt.Fprintf(os.Stderr, "Warning: Failed to update databases: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "MaxMind databases updated successfully.\n\n")
			}
		}
	}

	return db, nil
}

// Execute runs the root command. An interrupt cancels the running test
// and kills its process.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets version information for the CLI.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}
