// Package neterr maps network failures onto a small taxonomy with
// human-readable messages, remediation hints and retry policy.
package neterr

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"os"
	"strings"
	"syscall"
	"time"
)

// Code identifies a class of network failure.
type Code string

const (
	DNSResolutionFailed  Code = "DNS_RESOLUTION_FAILED"
	ConnectionRefused    Code = "CONNECTION_REFUSED"
	ConnectionTimeout    Code = "CONNECTION_TIMEOUT"
	SocketTimeout        Code = "SOCKET_TIMEOUT"
	ConnectionReset      Code = "CONNECTION_RESET"
	ProtocolError        Code = "PROTOCOL_ERROR"
	ProtocolNotSupported Code = "PROTOCOL_NOT_SUPPORTED"
	SSLCertExpired       Code = "SSL_CERT_EXPIRED"
	SSLCertInvalid       Code = "SSL_CERT_INVALID"
	SSLSelfSigned        Code = "SSL_SELF_SIGNED"
	Unknown              Code = "UNKNOWN_ERROR"
)

// MaxRetries is the attempt cap used by ShouldRetry.
const MaxRetries = 3

type description struct {
	message     string
	suggestions []string
}

var descriptions = map[Code]description{
	DNSResolutionFailed: {
		message: "Could not resolve the host name",
		suggestions: []string{
			"Check that the domain name is spelled correctly",
			"Check your network connection",
			"Try a different DNS server",
		},
	},
	ConnectionRefused: {
		message: "The remote host refused the connection",
		suggestions: []string{
			"Check that the service is running on the target",
			"Check that the port is correct",
			"Check firewall rules between you and the target",
		},
	},
	ConnectionTimeout: {
		message: "The connection timed out",
		suggestions: []string{
			"Check your network connection",
			"The target may be overloaded or unreachable",
			"Try again with a longer timeout",
		},
	},
	SocketTimeout: {
		message: "The server stopped responding",
		suggestions: []string{
			"The server may be slow or overloaded",
			"Try again with a longer timeout",
		},
	},
	ConnectionReset: {
		message: "The connection was reset by the remote host",
		suggestions: []string{
			"The server closed the connection unexpectedly",
			"A proxy or firewall may be interfering",
			"Try again",
		},
	},
	ProtocolError: {
		message: "A protocol error occurred",
		suggestions: []string{
			"The server may not speak the expected protocol on this port",
			"Try http:// instead of https://",
		},
	},
	ProtocolNotSupported: {
		message: "The protocol is not supported",
		suggestions: []string{
			"Check the URL scheme",
			"The server may not support this protocol version",
		},
	},
	SSLCertExpired: {
		message: "The server certificate has expired",
		suggestions: []string{
			"Contact the site administrator to renew the certificate",
			"Check that your system clock is correct",
		},
	},
	SSLCertInvalid: {
		message: "The server certificate could not be verified",
		suggestions: []string{
			"The certificate may not match the host name",
			"The certificate chain may be incomplete",
		},
	},
	SSLSelfSigned: {
		message: "The server uses a self-signed certificate",
		suggestions: []string{
			"The certificate is not issued by a trusted authority",
			"Only continue if you trust this server",
		},
	},
	Unknown: {
		message: "An unknown network error occurred",
		suggestions: []string{
			"Check your network connection",
			"Try again later",
		},
	},
}

// Error is a classified network failure.
type Error struct {
	Code        Code     `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
	Err         error    `json:"-"`
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps err onto the taxonomy. It never returns nil for a non-nil
// error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	code := CodeOf(err)
	d := descriptions[code]
	return &Error{
		Code:        code,
		Message:     d.message,
		Suggestions: append([]string(nil), d.suggestions...),
		Err:         err,
	}
}

// CodeOf returns the taxonomy code for err.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ConnectionTimeout
		}
		return DNSResolutionFailed
	}

	// Certificate errors first: tls wraps them in *tls.CertificateVerificationError.
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		if invalid.Reason == x509.Expired {
			return SSLCertExpired
		}
		return SSLCertInvalid
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		if cert := unknownAuthority.Cert; cert != nil && isSelfSigned(cert) {
			return SSLSelfSigned
		}
		return SSLCertInvalid
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return SSLCertInvalid
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return SSLCertInvalid
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return ProtocolError
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return ConnectionRefused
	case errors.Is(err, syscall.ETIMEDOUT):
		return ConnectionTimeout
	case errors.Is(err, syscall.ECONNRESET):
		return ConnectionReset
	case errors.Is(err, syscall.EPROTONOSUPPORT), errors.Is(err, syscall.EAFNOSUPPORT):
		return ProtocolNotSupported
	case errors.Is(err, syscall.EPROTO):
		return ProtocolError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return SocketTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ConnectionTimeout
	}

	// Last resort for errors that lost their type across a boundary.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host"):
		return DNSResolutionFailed
	case strings.Contains(msg, "connection refused"):
		return ConnectionRefused
	case strings.Contains(msg, "connection reset"):
		return ConnectionReset
	case strings.Contains(msg, "certificate has expired"):
		return SSLCertExpired
	case strings.Contains(msg, "self-signed") || strings.Contains(msg, "self signed"):
		return SSLSelfSigned
	case strings.Contains(msg, "certificate"):
		return SSLCertInvalid
	case strings.Contains(msg, "tls: "):
		return ProtocolError
	}

	return Unknown
}

func isSelfSigned(cert *x509.Certificate) bool {
	if string(cert.RawIssuer) != string(cert.RawSubject) {
		return false
	}
	return cert.CheckSignatureFrom(cert) == nil
}

// IsCertificateError reports whether err is a TLS certificate or handshake
// problem that a plain-HTTP retry could side-step.
func IsCertificateError(err error) bool {
	switch CodeOf(err) {
	case SSLCertExpired, SSLCertInvalid, SSLSelfSigned, ProtocolError:
		return true
	}
	return false
}

// IsTemporary reports whether a failure of this class may go away on retry.
func IsTemporary(code Code) bool {
	switch code {
	case ConnectionTimeout, SocketTimeout, ConnectionReset, ConnectionRefused:
		return true
	}
	return false
}

// ShouldRetry reports whether attempt (0-based) may be retried.
func ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= MaxRetries {
		return false
	}
	return IsTemporary(CodeOf(err))
}

// RetryDelay returns the exponential backoff for attempt, capped at 10s.
func RetryDelay(attempt int) time.Duration {
	const maxDelay = 10 * time.Second
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 4 {
		return maxDelay
	}
	d := time.Second << attempt
	if d > maxDelay {
		return maxDelay
	}
	return d
}
