package neterr

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{
			name: "dns not found",
			err:  &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true},
			want: DNSResolutionFailed,
		},
		{
			name: "dns timeout",
			err:  &net.DNSError{Err: "i/o timeout", Name: "slow.example", IsTimeout: true},
			want: ConnectionTimeout,
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			want: ConnectionRefused,
		},
		{
			name: "connection reset",
			err:  fmt.Errorf("read: %w", syscall.ECONNRESET),
			want: ConnectionReset,
		},
		{
			name: "connect timed out",
			err:  fmt.Errorf("dial: %w", syscall.ETIMEDOUT),
			want: ConnectionTimeout,
		},
		{
			name: "deadline",
			err:  fmt.Errorf("get: %w", context.DeadlineExceeded),
			want: SocketTimeout,
		},
		{
			name: "expired cert",
			err:  x509.CertificateInvalidError{Reason: x509.Expired},
			want: SSLCertExpired,
		},
		{
			name: "hostname mismatch",
			err:  x509.HostnameError{Host: "example.com", Certificate: &x509.Certificate{}},
			want: SSLCertInvalid,
		},
		{
			name: "unknown authority without cert",
			err:  x509.UnknownAuthorityError{},
			want: SSLCertInvalid,
		},
		{
			name: "string fallback",
			err:  errors.New("Get \"https://x\": x509: certificate signed by unknown authority"),
			want: SSLCertInvalid,
		},
		{
			name: "unknown",
			err:  errors.New("something odd"),
			want: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}

	cause := fmt.Errorf("dial: %w", syscall.ECONNREFUSED)
	e := Classify(cause)
	if e.Code != ConnectionRefused {
		t.Errorf("Code = %v, want %v", e.Code, ConnectionRefused)
	}
	if e.Message == "" {
		t.Error("Message should not be empty")
	}
	if len(e.Suggestions) == 0 {
		t.Error("Suggestions should not be empty")
	}
	if !errors.Is(e, syscall.ECONNREFUSED) {
		t.Error("classified error should unwrap to its cause")
	}

	// Already classified errors pass through untouched.
	if again := Classify(fmt.Errorf("wrap: %w", e)); again != e {
		t.Error("Classify() should return the existing *Error")
	}
}

func TestEveryCodeHasDescription(t *testing.T) {
	codes := []Code{
		DNSResolutionFailed, ConnectionRefused, ConnectionTimeout, SocketTimeout,
		ConnectionReset, ProtocolError, ProtocolNotSupported, SSLCertExpired,
		SSLCertInvalid, SSLSelfSigned, Unknown,
	}
	for _, code := range codes {
		d, ok := descriptions[code]
		if !ok || d.message == "" || len(d.suggestions) == 0 {
			t.Errorf("code %s has no complete description", code)
		}
	}
}

func TestIsCertificateError(t *testing.T) {
	if !IsCertificateError(x509.CertificateInvalidError{Reason: x509.Expired}) {
		t.Error("expired certificate should be a certificate error")
	}
	if IsCertificateError(fmt.Errorf("x: %w", syscall.ECONNREFUSED)) {
		t.Error("connection refused is not a certificate error")
	}
}

func TestShouldRetry(t *testing.T) {
	timeout := fmt.Errorf("x: %w", syscall.ETIMEDOUT)
	tests := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{"temporary first attempt", timeout, 0, true},
		{"temporary last allowed", timeout, MaxRetries - 1, true},
		{"temporary exhausted", timeout, MaxRetries, false},
		{"permanent", &net.DNSError{IsNotFound: true}, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err, tt.attempt); got != tt.want {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := RetryDelay(tt.attempt); got != tt.want {
			t.Errorf("RetryDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
