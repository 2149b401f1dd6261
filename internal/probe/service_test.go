package probe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/enrich"
	"github.com/KilimcininKorOglu/netscope/internal/geo"
	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
	"github.com/KilimcininKorOglu/netscope/internal/tools"
	"github.com/KilimcininKorOglu/netscope/internal/trace"
)

type fakeResponse struct {
	out *runner.Output
	err error
}

// fakeRunner answers by command name and records every invocation.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (*runner.Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Command{Name: name, Args: args}.String())

	resp, ok := r.responses[name]
	if !ok {
		return nil, &runner.ProcessError{Kind: runner.KindSpawnFailure, Command: name, Err: errors.New("not found")}
	}
	return resp.out, resp.err
}

type fakeTools struct {
	mtr, traceroute tools.Status
}

func (f fakeTools) CheckMTR(context.Context) tools.Status        { return f.mtr }
func (f fakeTools) CheckTraceroute(context.Context) tools.Status { return f.traceroute }

var (
	readyMTR        = tools.Status{Tool: "mtr", Installed: true, HasPermission: true, State: tools.Ready, Path: "/usr/bin/mtr"}
	readyTraceroute = tools.Status{Tool: "traceroute", Installed: true, HasPermission: true, State: tools.Ready, Path: "/usr/bin/traceroute"}
	missingMTR      = tools.Status{Tool: "mtr", State: tools.NotInstalled, Remediation: "sudo apt-get install -y mtr"}
)

func newTestService(t *testing.T, os platform.OS, r runner.Runner, tc ToolChecker) *Service {
	t.Helper()
	svc, err := New(Config{Platform: os, Runner: r, Tools: tc})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

const linuxPingOutput = `PING example.com (93.184.216.34) 56(84) bytes of data.
64 bytes from 93.184.216.34: icmp_seq=1 ttl=64 time=1.20 ms
64 bytes from 93.184.216.34: icmp_seq=2 ttl=64 time=4.50 ms

--- example.com ping statistics ---
4 packets transmitted, 4 received, 0% packet loss, time 3004ms
rtt min/avg/max/mdev = 1.200/2.300/4.500/1.100 ms
`

func TestPing(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"ping": {out: &runner.Output{Stdout: linuxPingOutput}},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{})

	res, err := svc.Ping(context.Background(), "example.com", DefaultPingOptions())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	if res.IP != "93.184.216.34" {
		t.Errorf("IP = %q, want 93.184.216.34", res.IP)
	}
	if res.Min != 1.2 || res.Avg != 2.3 || res.Max != 4.5 {
		t.Errorf("min/avg/max = %v/%v/%v, want 1.2/2.3/4.5", res.Min, res.Avg, res.Max)
	}
	if res.LossPercent != 0 || res.TTL != 64 {
		t.Errorf("loss=%v ttl=%v, want 0 and 64", res.LossPercent, res.TTL)
	}
	if res.Sent != 4 || res.Received != 4 {
		t.Errorf("sent/received = %d/%d, want 4/4", res.Sent, res.Received)
	}
	if res.ID == "" {
		t.Error("ID is empty")
	}
	if r.calls[0] != "ping -c 4 example.com" {
		t.Errorf("command = %q", r.calls[0])
	}
}

func TestPing_LossWithNonZeroExit(t *testing.T) {
	out := &runner.Output{
		Stdout:   "PING 10.9.9.9 (10.9.9.9) 56(84) bytes of data.\n\n--- 10.9.9.9 ping statistics ---\n4 packets transmitted, 0 received, 100% packet loss, time 3060ms\n",
		ExitCode: 1,
	}
	r := &fakeRunner{responses: map[string]fakeResponse{
		"ping": {out: out, err: &runner.ProcessError{Kind: runner.KindNonZeroExit, ExitCode: 1}},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{})

	res, err := svc.Ping(context.Background(), "10.9.9.9", DefaultPingOptions())
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if res.LossPercent != 100 || res.Received != 0 {
		t.Errorf("loss=%v received=%d, want 100 and 0", res.LossPercent, res.Received)
	}
}

func TestPing_Failures(t *testing.T) {
	tests := []struct {
		name string
		resp fakeResponse
		want string
	}{
		{
			name: "unknown host",
			resp: fakeResponse{
				out: &runner.Output{Stderr: "ping: nosuch.invalid: Name or service not known", ExitCode: 2},
				err: &runner.ProcessError{Kind: runner.KindNonZeroExit, ExitCode: 2},
			},
		},
		{
			name: "timeout",
			resp: fakeResponse{err: &runner.ProcessError{Kind: runner.KindTimeout, Command: "ping"}},
			want: "no reply within",
		},
		{
			name: "spawn failure",
			resp: fakeResponse{err: &runner.ProcessError{Kind: runner.KindSpawnFailure, Err: errors.New("no ping")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{responses: map[string]fakeResponse{"ping": tt.resp}}
			svc := newTestService(t, platform.Linux, r, fakeTools{})

			_, err := svc.Ping(context.Background(), "nosuch.invalid", DefaultPingOptions())
			if !errors.Is(err, ErrPingFailed) {
				t.Errorf("Ping() error = %v, want ErrPingFailed", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Ping() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPing_InvalidTarget(t *testing.T) {
	r := &fakeRunner{}
	svc := newTestService(t, platform.Linux, r, fakeTools{})

	if _, err := svc.Ping(context.Background(), "host;reboot", DefaultPingOptions()); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Ping() error = %v, want ErrInvalidTarget", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("runner called for invalid target: %v", r.calls)
	}
}

const mtrReport = `Start: 2025-01-01T00:00:00+0000
HOST: box                         Loss%   Snt   Last   Avg  Best  Wrst StDev
  1.|-- 192.168.1.1                0.0%     5    0.5   0.6   0.4   0.9   0.2
  2.|-- 8.8.4.4                    0.0%     5    9.1   9.3   8.8  10.2   0.5
  3.|-- 8.8.8.8                    0.0%     5   12.0  12.4  11.9  13.1   0.4
`

func TestMTR(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"/usr/bin/mtr": {out: &runner.Output{Stdout: mtrReport}},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{mtr: readyMTR, traceroute: readyTraceroute})

	res := svc.MTR(context.Background(), "8.8.8.8", DefaultMtrOptions())
	if !res.Success {
		t.Fatalf("MTR() failed: %s", res.Error)
	}
	if res.Kind != "mtr" || res.Tool != "mtr" {
		t.Errorf("kind/tool = %s/%s, want mtr/mtr", res.Kind, res.Tool)
	}
	if len(res.Hops) != 3 {
		t.Fatalf("len(Hops) = %d, want 3", len(res.Hops))
	}
	for i, h := range res.Hops {
		if h.Number != i+1 {
			t.Errorf("Hops[%d].Number = %d, want %d", i, h.Number, i+1)
		}
	}
	if res.Summary.TotalHops != 3 || res.Summary.TotalTimeMs != 12.4 {
		t.Errorf("Summary = %+v", res.Summary)
	}
	if r.calls[0] != "/usr/bin/mtr -r -c 5 -s 64 -m 15 -n 8.8.8.8" {
		t.Errorf("command = %q", r.calls[0])
	}
}

const tracerouteOutput = `traceroute to 8.8.8.8 (8.8.8.8), 15 hops max, 60 byte packets
 1  192.168.1.1  0.512 ms
 2  *
 3  8.8.8.8  11.920 ms
`

func TestMTR_FallsBackToTraceroute(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"/usr/bin/traceroute": {out: &runner.Output{Stdout: tracerouteOutput}},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{mtr: missingMTR, traceroute: readyTraceroute})

	res := svc.MTR(context.Background(), "8.8.8.8", DefaultMtrOptions())
	if !res.Success {
		t.Fatalf("MTR() failed: %s", res.Error)
	}
	if res.Tool != "traceroute" {
		t.Errorf("Tool = %q, want traceroute", res.Tool)
	}
	if res.Notice != missingMTR.Remediation {
		t.Errorf("Notice = %q, want %q", res.Notice, missingMTR.Remediation)
	}
	if len(res.Hops) != 3 || res.Hops[1].IP != trace.NoReply {
		t.Errorf("Hops = %+v", res.Hops)
	}
	if !strings.HasPrefix(r.calls[0], "/usr/bin/traceroute -m 15") {
		t.Errorf("command = %q", r.calls[0])
	}
}

func TestMTR_BothToolsMissing(t *testing.T) {
	missingTraceroute := tools.Status{Tool: "traceroute", State: tools.NotInstalled, Remediation: "sudo apt-get install -y traceroute"}
	r := &fakeRunner{}
	svc := newTestService(t, platform.Linux, r, fakeTools{mtr: missingMTR, traceroute: missingTraceroute})

	res := svc.MTR(context.Background(), "8.8.8.8", DefaultMtrOptions())
	if res.Success {
		t.Fatal("MTR() succeeded with no tools")
	}
	if !strings.Contains(res.Error, "apt-get install -y mtr") || !strings.Contains(res.Error, "apt-get install -y traceroute") {
		t.Errorf("Error = %q, want both install hints", res.Error)
	}
	if len(r.calls) != 0 {
		t.Errorf("runner called: %v", r.calls)
	}
}

func TestMTR_PermissionDenied(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"/usr/bin/mtr": {
			out: &runner.Output{Stderr: "mtr-packet: Failure to open IPv4 sockets: Permission denied", ExitCode: 1},
			err: &runner.ProcessError{Kind: runner.KindNonZeroExit, ExitCode: 1},
		},
	}}
	status := readyMTR
	status.Remediation = "sudo chmod u+s /usr/bin/mtr"
	svc := newTestService(t, platform.Linux, r, fakeTools{mtr: status})

	res := svc.MTR(context.Background(), "8.8.8.8", DefaultMtrOptions())
	if res.Success {
		t.Fatal("MTR() succeeded despite permission error")
	}
	if !strings.Contains(res.Error, tools.ErrToolPermissionRequired.Error()) {
		t.Errorf("Error = %q, want permission message", res.Error)
	}
	if !strings.Contains(res.Error, "chmod u+s") {
		t.Errorf("Error = %q, want remediation", res.Error)
	}
}

func TestMTR_DarwinElevates(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"osascript": {out: &runner.Output{Stdout: mtrReport}},
	}}
	status := tools.Status{Tool: "mtr", Installed: true, State: tools.PermissionRequired, Path: "/opt/homebrew/sbin/mtr"}
	svc := newTestService(t, platform.Darwin, r, fakeTools{mtr: status})

	res := svc.MTR(context.Background(), "8.8.8.8", DefaultMtrOptions())
	if !res.Success {
		t.Fatalf("MTR() failed: %s", res.Error)
	}
	if !strings.HasPrefix(r.calls[0], "osascript -e do shell script") {
		t.Errorf("command = %q, want osascript wrapper", r.calls[0])
	}
}

func TestTraceroute_NoHops(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"/usr/bin/traceroute": {out: &runner.Output{Stdout: "traceroute to 8.8.8.8 (8.8.8.8), 15 hops max\n"}},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{traceroute: readyTraceroute})

	res := svc.Traceroute(context.Background(), "8.8.8.8", DefaultTracerouteOptions())
	if res.Success {
		t.Fatal("Traceroute() succeeded with no hops")
	}
	if !strings.Contains(res.Error, ErrNoHops.Error()) {
		t.Errorf("Error = %q", res.Error)
	}
}

func TestTraceroute_Timeout(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"/usr/bin/traceroute": {
			out: &runner.Output{},
			err: &runner.ProcessError{Kind: runner.KindTimeout, Command: "traceroute"},
		},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{traceroute: readyTraceroute})

	res := svc.Traceroute(context.Background(), "8.8.8.8", DefaultTracerouteOptions())
	if res.Success {
		t.Fatal("Traceroute() succeeded after a timeout")
	}
	if !strings.Contains(res.Error, "traceroute: no report within") {
		t.Errorf("Error = %q, want the timeout message", res.Error)
	}
}

type fixedLocator struct{}

func (fixedLocator) Locate(ctx context.Context, ip string) (geo.Record, error) {
	return geo.Record{IP: ip, Country: "United States", City: "Mountain View"}, nil
}

func TestTraceroute_Enrich(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"/usr/bin/traceroute": {out: &runner.Output{Stdout: tracerouteOutput}},
	}}
	svc, err := New(Config{
		Platform: platform.Linux,
		Runner:   r,
		Tools:    fakeTools{traceroute: readyTraceroute},
		Enricher: enrich.New(enrich.Config{Locator: fixedLocator{}}),
	})
	if err != nil {
		t.Fatal(err)
	}

	opts := DefaultTracerouteOptions()
	opts.Enrich = true
	res := svc.Traceroute(context.Background(), "8.8.8.8", opts)
	if !res.Success {
		t.Fatalf("Traceroute() failed: %s", res.Error)
	}

	if !res.Hops[0].Internal {
		t.Error("hop 1 should be internal")
	}
	if res.Hops[1].Location != nil {
		t.Error("timeout hop should have no location")
	}
	if got := res.Hops[2].LocationLabel(); got != "Mountain View, United States" {
		t.Errorf("hop 3 location = %q", got)
	}
}

func TestPingMany(t *testing.T) {
	r := &fakeRunner{responses: map[string]fakeResponse{
		"ping": {out: &runner.Output{Stdout: linuxPingOutput}},
	}}
	svc := newTestService(t, platform.Linux, r, fakeTools{})

	results := svc.PingMany(context.Background(), []string{"example.com", "bad host", "example.org"}, DefaultPingOptions(), 2)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Host != "example.com" || results[0].Error != "" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].LossPercent != 100 || results[1].Error == "" {
		t.Errorf("results[1] = %+v, want failure with 100%% loss", results[1])
	}
	if results[2].Host != "example.org" {
		t.Errorf("results[2].Host = %q", results[2].Host)
	}
}
