package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

type countingLocator struct {
	mu       sync.Mutex
	calls    map[string]int
	fail     map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newCountingLocator() *countingLocator {
	return &countingLocator{calls: map[string]int{}, fail: map[string]bool{}}
}

func (l *countingLocator) Locate(ctx context.Context, ip string) (geo.Record, error) {
	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		max := l.maxSeen.Load()
		if n <= max || l.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}

	l.mu.Lock()
	l.calls[ip]++
	fail := l.fail[ip]
	l.mu.Unlock()

	if fail {
		return geo.Record{}, errors.New("lookup failed")
	}
	return geo.Record{IP: ip, Country: "Testland", City: "Probe"}, nil
}

func (l *countingLocator) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

func TestIsInternal(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.31.255.254", true},
		{"172.32.0.1", false},
		{"192.168.1.1", true},
		{"127.0.0.1", true},
		{"169.254.10.10", true},
		{"100.64.0.1", true},
		{"100.127.255.255", true},
		{"100.128.0.1", false},
		{"::1", true},
		{"fe80::1", true},
		{"fd12:3456::1", true},
		{"::ffff:192.168.0.1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"*", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := IsInternal(tt.ip); got != tt.want {
			t.Errorf("IsInternal(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestEnrich_InternalHopsIssueNoLookups(t *testing.T) {
	loc := newCountingLocator()
	e := New(Config{Locator: loc})

	hops := []trace.Hop{
		{Number: 1, IP: "192.168.1.1"},
		{Number: 2, IP: "10.0.0.1"},
		{Number: 3, IP: "100.64.3.2"},
		{Number: 4, IP: "169.254.0.9"},
		{Number: 5, IP: "127.0.0.1"},
		{Number: 6, IP: trace.NoReply},
	}
	if err := e.Enrich(context.Background(), hops); err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	if loc.total() != 0 {
		t.Errorf("locator calls = %d, want 0", loc.total())
	}
	for _, h := range hops[:5] {
		if !h.Internal {
			t.Errorf("hop %d (%s) Internal = false, want true", h.Number, h.IP)
		}
		if h.LocationLabel() != trace.InternalLabel {
			t.Errorf("hop %d label = %q, want %q", h.Number, h.LocationLabel(), trace.InternalLabel)
		}
	}
	if hops[5].Internal || hops[5].Location != nil {
		t.Errorf("timeout hop was modified: %+v", hops[5])
	}
}

func TestEnrich_PublicHops(t *testing.T) {
	loc := newCountingLocator()
	loc.fail["9.9.9.9"] = true

	var mu sync.Mutex
	seen := map[int]bool{}
	e := New(Config{
		Locator: loc,
		OnHop: func(i int, h trace.Hop) {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
		},
	})

	hops := []trace.Hop{
		{Number: 1, IP: "192.168.0.1"},
		{Number: 2, IP: "8.8.8.8", Hostname: "8.8.8.8"},
		{Number: 3, IP: "9.9.9.9"},
		{Number: 4, IP: "8.8.8.8"},
	}
	e.Enrich(context.Background(), hops)

	if loc.calls["8.8.8.8"] != 1 {
		t.Errorf("8.8.8.8 looked up %d times, want 1", loc.calls["8.8.8.8"])
	}
	if hops[1].Location == nil || hops[1].Location.Country != "Testland" {
		t.Errorf("hop 2 location = %+v, want Testland", hops[1].Location)
	}
	if hops[3].Location == nil {
		t.Error("duplicate hop 4 should share the lookup result")
	}
	if hops[2].Location != nil {
		t.Errorf("failed hop location = %+v, want nil", hops[2].Location)
	}
	for _, i := range []int{0, 1, 2, 3} {
		if !seen[i] {
			t.Errorf("OnHop not called for index %d", i)
		}
	}
}

func TestEnrich_ConcurrencyWindow(t *testing.T) {
	loc := newCountingLocator()
	loc.delay = 20 * time.Millisecond
	e := New(Config{Locator: loc, Concurrency: 3})

	var hops []trace.Hop
	for i := 1; i <= 12; i++ {
		hops = append(hops, trace.Hop{Number: i, IP: fmt.Sprintf("203.0.113.%d", i)})
	}
	e.Enrich(context.Background(), hops)

	if got := loc.maxSeen.Load(); got > 3 {
		t.Errorf("max in-flight lookups = %d, want <= 3", got)
	}
	if loc.total() != 12 {
		t.Errorf("lookups = %d, want 12", loc.total())
	}
}

func TestLookupIPs(t *testing.T) {
	loc := newCountingLocator()
	loc.fail["1.1.1.1"] = true
	e := New(Config{Locator: loc})

	results := e.LookupIPs(context.Background(), []string{"8.8.8.8", "10.0.0.1", "1.1.1.1"})

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].IP != "8.8.8.8" || !results[0].Success || results[0].Location == nil {
		t.Errorf("results[0] = %+v", results[0])
	}
	if !results[1].Internal || !results[1].Success {
		t.Errorf("results[1] = %+v, want internal", results[1])
	}
	if results[2].Success || results[2].Error == "" {
		t.Errorf("results[2] = %+v, want failure", results[2])
	}
	if loc.total() != 2 {
		t.Errorf("locator calls = %d, want 2", loc.total())
	}
}
