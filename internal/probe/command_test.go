package probe

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
)

func TestCommandTable(t *testing.T) {
	tests := []struct {
		name string
		os   platform.OS
		kind Kind
		p    commandParams
		want string
	}{
		{
			name: "windows ping",
			os:   platform.Windows,
			kind: KindPing,
			p:    commandParams{Count: 4},
			want: "ping -n 4 -l 32 -w 3000 example.com",
		},
		{
			name: "linux ping defaults",
			os:   platform.Linux,
			kind: KindPing,
			p:    commandParams{Count: 4},
			want: "ping -c 4 example.com",
		},
		{
			name: "linux ping explicit",
			os:   platform.Linux,
			kind: KindPing,
			p:    commandParams{Count: 2, Size: 56, Timeout: 1500 * time.Millisecond},
			want: "ping -c 2 -s 56 -W 2 example.com",
		},
		{
			name: "darwin ping explicit",
			os:   platform.Darwin,
			kind: KindPing,
			p:    commandParams{Count: 2, Timeout: 3 * time.Second},
			want: "ping -c 2 -W 3000 example.com",
		},
		{
			name: "windows pathping",
			os:   platform.Windows,
			kind: KindMTR,
			p:    commandParams{Count: 5, Size: 64, MaxHops: 15},
			want: "pathping -n -q 5 -h 15 example.com",
		},
		{
			name: "linux mtr",
			os:   platform.Linux,
			kind: KindMTR,
			p:    commandParams{Binary: "/usr/sbin/mtr", Count: 5, Size: 64, MaxHops: 15},
			want: "/usr/sbin/mtr -r -c 5 -s 64 -m 15 -n example.com",
		},
		{
			name: "darwin mtr elevated",
			os:   platform.Darwin,
			kind: KindMTR,
			p:    commandParams{Binary: "/opt/homebrew/sbin/mtr", Count: 5, Size: 64, MaxHops: 15, Elevate: true},
			want: `osascript -e do shell script "/opt/homebrew/sbin/mtr -r -c 5 -s 64 -m 15 -n example.com" with administrator privileges`,
		},
		{
			name: "darwin mtr setuid",
			os:   platform.Darwin,
			kind: KindMTR,
			p:    commandParams{Count: 5, Size: 64, MaxHops: 15},
			want: "mtr -r -c 5 -s 64 -m 15 -n example.com",
		},
		{
			name: "windows tracert",
			os:   platform.Windows,
			kind: KindTraceroute,
			p:    commandParams{MaxHops: 15, Timeout: 2 * time.Second},
			want: "tracert -h 15 -w 2000 example.com",
		},
		{
			name: "unix traceroute",
			os:   platform.Linux,
			kind: KindTraceroute,
			p:    commandParams{MaxHops: 15, Timeout: 2 * time.Second},
			want: "traceroute -m 15 -w 2 -q 1 -n example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := buildCommand(commandTable, tt.os, tt.kind, "example.com", tt.p)
			if err != nil {
				t.Fatalf("buildCommand() error = %v", err)
			}
			if got := cmd.String(); got != tt.want {
				t.Errorf("command = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateCommandTable(t *testing.T) {
	if err := validateCommandTable(commandTable); err != nil {
		t.Fatalf("validateCommandTable() error = %v", err)
	}

	partial := make(map[commandKey]commandBuilder)
	for k, v := range commandTable {
		partial[k] = v
	}
	delete(partial, commandKey{platform.Darwin, KindTraceroute})

	err := validateCommandTable(partial)
	if !errors.Is(err, ErrMissingCommand) {
		t.Fatalf("validateCommandTable() error = %v, want ErrMissingCommand", err)
	}
	if !strings.Contains(err.Error(), "traceroute on darwin") {
		t.Errorf("error = %q, want it to name the gap", err)
	}

	if _, err := buildCommand(commandTable, platform.Unsupported, KindPing, "x", commandParams{}); !errors.Is(err, ErrMissingCommand) {
		t.Errorf("buildCommand(unsupported) error = %v, want ErrMissingCommand", err)
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"8.8.8.8", "8.8.8.8", false},
		{" example.com ", "example.com", false},
		{"Example.COM", "example.com", false},
		{"2001:4860:4860::8888", "2001:4860:4860::8888", false},
		{"[::1]", "::1", false},
		{"bücher.example", "xn--bcher-kva.example", false},
		{"", "", true},
		{"example.com; rm -rf /", "", true},
		{`a"b.com`, "", true},
		{"-leading.example", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeTarget(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeTarget(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTarget) {
				t.Errorf("NormalizeTarget(%q) error = %v, want ErrInvalidTarget", tt.in, err)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
