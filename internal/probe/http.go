package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/neterr"
)

// HTTP issues a single request to rawURL. URLs without a scheme use
// https. When https fails on the certificate or handshake the request is
// retried once over plain http. Redirects are reported, not followed.
func (s *Service) HTTP(ctx context.Context, rawURL string, opts HTTPOptions) (*HTTPResult, error) {
	opts = opts.withDefaults()

	target, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	res, err := s.doHTTP(ctx, target, opts)
	if err == nil {
		return res, nil
	}

	if target.Scheme == "https" && neterr.IsCertificateError(err) && ctx.Err() == nil {
		s.logger.Info("https failed, retrying over http", "url", target.String(), "error", err)

		plain := *target
		plain.Scheme = "http"
		res, httpErr := s.doHTTP(ctx, &plain, opts)
		if httpErr == nil {
			res.FellBackToHTTP = true
			return res, nil
		}
		s.logger.Debug("http fallback failed", "url", plain.String(), "error", httpErr)
	}
	return nil, neterr.Classify(err)
}

func normalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	host, err := NormalizeTarget(u.Hostname())
	if err != nil {
		return nil, err
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}
	u.Host = host
	return u, nil
}

func (s *Service) doHTTP(ctx context.Context, target *url.URL, opts HTTPOptions) (*HTTPResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	var timing HTTPTiming
	var dnsStart, connectStart, tlsStart time.Time
	start := time.Now()
	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			if !dnsStart.IsZero() {
				timing.DNSMs = millis(time.Since(dnsStart))
			}
		},
		ConnectStart: func(string, string) { connectStart = time.Now() },
		ConnectDone: func(string, string, error) {
			if !connectStart.IsZero() {
				timing.ConnectMs = millis(time.Since(connectStart))
			}
		},
		TLSHandshakeStart: func() { tlsStart = time.Now() },
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			if !tlsStart.IsZero() {
				timing.TLSMs = millis(time.Since(tlsStart))
			}
		},
		GotFirstResponseByte: func() { timing.FirstByteMs = millis(time.Since(start)) },
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), opts.Method, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Close = true
	for k, v := range opts.Headers {
		// net/http sends req.Host, not a Host header.
		if http.CanonicalHeaderKey(k) == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	client := &http.Client{
		Transport: s.httpClient.Transport,
		Jar:       s.httpClient.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	read, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return nil, err
	}

	contentLength := resp.ContentLength
	if contentLength < 0 {
		contentLength = read
	}

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}

	return &HTTPResult{
		ID:             newID(),
		URL:            target.String(),
		Method:         opts.Method,
		StatusCode:     resp.StatusCode,
		StatusText:     http.StatusText(resp.StatusCode),
		ResponseTimeMs: millis(elapsed),
		ContentLength:  contentLength,
		ContentType:    resp.Header.Get("Content-Type"),
		Headers:        headers,
		Timing:         timing,
		Timestamp:      s.now(),
	}, nil
}
