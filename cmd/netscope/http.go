package main

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/netscope/internal/neterr"
	"github.com/KilimcininKorOglu/netscope/internal/probe"
)

var (
	httpMethod  string
	httpTimeout time.Duration
	httpHeaders []string
	httpRetries int
)

// retryDelay is the backoff between attempts.
var retryDelay = neterr.RetryDelay

var httpCmd = &cobra.Command{
	Use:   "http [url]",
	Short: "Time an HTTP request",
	Long: `Send one HTTP request and report the status, headers and timing.

A URL without a scheme is tried over https first. When the TLS handshake
fails the request is repeated once over http.

Examples:
  netscope http https://example.com
  netscope http example.com -X HEAD
  netscope http https://api.example.com -H "Authorization: Bearer xyz"
  netscope http https://flaky.example.com --retries 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHTTP,
}

func init() {
	httpCmd.Flags().StringVarP(&httpMethod, "method", "X", "", "Request method")
	httpCmd.Flags().DurationVarP(&httpTimeout, "timeout", "w", 0, "Request timeout")
	httpCmd.Flags().StringArrayVarP(&httpHeaders, "header", "H", nil, `Request header ("Key: Value"), repeatable`)
	httpCmd.Flags().IntVar(&httpRetries, "retries", 0, fmt.Sprintf("Retry timeouts, resets and refused connections (at most %d)", neterr.MaxRetries))
}

// parseHeaders turns "Key: Value" flags into a map.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Key: Value\"", v)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

// httpOptions merges the http flags over the config file.
func httpOptions(cmd *cobra.Command) (probe.HTTPOptions, error) {
	opts := probe.HTTPOptions{
		Method:  cfg.HTTP.Method,
		Timeout: cfg.HTTP.Timeout,
		Headers: maps.Clone(cfg.HTTP.Headers),
	}
	if cmd.Flags().Changed("method") {
		opts.Method = strings.ToUpper(httpMethod)
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout = httpTimeout
	}

	extra, err := parseHeaders(httpHeaders)
	if err != nil {
		return opts, err
	}
	if len(extra) > 0 {
		if opts.Headers == nil {
			opts.Headers = make(map[string]string, len(extra))
		}
		maps.Copy(opts.Headers, extra)
	}
	return opts, nil
}

func runHTTP(cmd *cobra.Command, args []string) error {
	target, err := targetArg(args, "URL")
	if err != nil {
		return err
	}

	opts, err := httpOptions(cmd)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)

	var result *probe.HTTPResult
	err = withRetries(ctx, httpRetries, func() error {
		var err error
		result, err = a.service.HTTP(ctx, target, opts)
		return err
	})
	if err != nil {
		printSuggestions(err)
		return err
	}
	return newWriter().WriteHTTP(result)
}

// withRetries calls fn until it succeeds, fails with a permanent error or
// has been retried retries times.
func withRetries(ctx context.Context, retries int, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || attempt >= retries || !neterr.ShouldRetry(err, attempt) {
			return err
		}

		delay := retryDelay(attempt)
		logger.Debug("retrying", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}
