package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// recordTypes are the supported query types.
var recordTypes = map[string]uint16{
	"A":     dns.TypeA,
	"AAAA":  dns.TypeAAAA,
	"CNAME": dns.TypeCNAME,
	"MX":    dns.TypeMX,
	"TXT":   dns.TypeTXT,
	"NS":    dns.TypeNS,
}

// SupportedRecordTypes lists the accepted DNS record types.
func SupportedRecordTypes() []string {
	return []string{"A", "AAAA", "CNAME", "MX", "TXT", "NS"}
}

// DNS queries domain for one record type. The server is chosen per call,
// so concurrent tests against different servers do not interfere.
func (s *Service) DNS(ctx context.Context, domain string, opts DNSOptions) *DNSResult {
	opts = opts.withDefaults()
	start := time.Now()

	res := &DNSResult{
		ID:         newID(),
		Domain:     domain,
		RecordType: opts.RecordType,
		Records:    []string{},
		DNSServer:  opts.Server,
		Timestamp:  s.now(),
	}

	records, err := s.queryDNS(ctx, domain, opts)
	res.ResponseTimeMs = millis(time.Since(start))
	if err != nil {
		s.logger.Debug("dns query failed", "domain", domain, "type", opts.RecordType, "server", opts.Server, "error", err)
		res.Error = err.Error()
		res.Result = "query failed: " + err.Error()
		return res
	}

	res.Success = true
	res.Records = records
	res.Result = strings.Join(records, ", ")
	return res
}

func (s *Service) queryDNS(ctx context.Context, domain string, opts DNSOptions) ([]string, error) {
	qtype, ok := recordTypes[opts.RecordType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRecordType, opts.RecordType)
	}

	name, err := NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	if opts.Server != DefaultDNSServer {
		server, err := dnsServerAddr(opts.Server)
		if err != nil {
			return nil, err
		}
		return exchange(ctx, server, name, qtype, opts.Timeout)
	}

	if conf, err := dns.ClientConfigFromFile(s.resolvConf); err == nil && len(conf.Servers) > 0 {
		server := net.JoinHostPort(conf.Servers[0], conf.Port)
		return exchange(ctx, server, name, qtype, opts.Timeout)
	}
	return systemLookup(ctx, name, opts.RecordType, opts.Timeout)
}

// dnsServerAddr accepts an IP or IP:port and returns host:port.
func dnsServerAddr(server string) (string, error) {
	host, port, err := net.SplitHostPort(server)
	if err != nil {
		host, port = server, "53"
	}
	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDNSServer, server)
	}
	return net.JoinHostPort(addr.String(), port), nil
}

func exchange(ctx context.Context, server, name string, qtype uint16, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: timeout}
	in, _, err := client.ExchangeContext(ctx, msg, server)
	if err == nil && in.Truncated {
		client.Net = "tcp"
		in, _, err = client.ExchangeContext(ctx, msg, server)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("query %s: %s", server, dns.RcodeToString[in.Rcode])
	}

	records := answerRecords(in.Answer, qtype)
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// answerRecords formats the answers of the queried type, in answer order.
func answerRecords(answer []dns.RR, qtype uint16) []string {
	var records []string
	for _, rr := range answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch v := rr.(type) {
		case *dns.A:
			records = append(records, v.A.String())
		case *dns.AAAA:
			records = append(records, v.AAAA.String())
		case *dns.CNAME:
			records = append(records, strings.TrimSuffix(v.Target, "."))
		case *dns.MX:
			records = append(records, fmt.Sprintf("%d %s", v.Preference, strings.TrimSuffix(v.Mx, ".")))
		case *dns.TXT:
			records = append(records, strings.Join(v.Txt, ""))
		case *dns.NS:
			records = append(records, strings.TrimSuffix(v.Ns, "."))
		}
	}
	return records
}

// systemLookup is used when no resolv.conf is available, e.g. on Windows.
func systemLookup(ctx context.Context, name, recordType string, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := net.DefaultResolver
	var records []string
	var err error

	switch recordType {
	case "A", "AAAA":
		network := "ip4"
		if recordType == "AAAA" {
			network = "ip6"
		}
		var ips []net.IP
		ips, err = r.LookupIP(ctx, network, name)
		for _, ip := range ips {
			records = append(records, ip.String())
		}
	case "CNAME":
		var cname string
		cname, err = r.LookupCNAME(ctx, name)
		if cname != "" {
			records = append(records, strings.TrimSuffix(cname, "."))
		}
	case "MX":
		var mxs []*net.MX
		mxs, err = r.LookupMX(ctx, name)
		for _, mx := range mxs {
			records = append(records, fmt.Sprintf("%d %s", mx.Pref, strings.TrimSuffix(mx.Host, ".")))
		}
	case "TXT":
		records, err = r.LookupTXT(ctx, name)
	case "NS":
		var nss []*net.NS
		nss, err = r.LookupNS(ctx, name)
		for _, ns := range nss {
			records = append(records, strings.TrimSuffix(ns.Host, "."))
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}
