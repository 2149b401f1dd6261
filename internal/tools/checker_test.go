package tools

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
)

type fakeInfo struct {
	name string
	mode fs.FileMode
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return 0 }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return nil }

type fakeRunner struct {
	out   *runner.Output
	err   error
	calls []string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args []string, timeout time.Duration) (*runner.Output, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return r.out, r.err
}

// fakeSystem describes a filesystem: files maps a path to its mode, path
// holds binaries visible through PATH.
type fakeSystem struct {
	path      map[string]string
	files     map[string]fs.FileMode
	links     map[string]string
	osRelease string
	setuid    map[string]bool
}

func newChecker(os platform.OS, sys fakeSystem, r runner.Runner) *Checker {
	c := New(Config{Platform: os, Runner: r})
	c.lookPath = func(name string) (string, error) {
		if p, ok := sys.path[name]; ok {
			return p, nil
		}
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	c.stat = func(name string) (fs.FileInfo, error) {
		if mode, ok := sys.files[name]; ok {
			return fakeInfo{name: name, mode: mode}, nil
		}
		return nil, fs.ErrNotExist
	}
	c.lstat = func(name string) (fs.FileInfo, error) {
		if _, ok := sys.links[name]; ok {
			return fakeInfo{name: name, mode: fs.ModeSymlink}, nil
		}
		return c.stat(name)
	}
	c.readlink = func(name string) (string, error) {
		if target, ok := sys.links[name]; ok {
			return target, nil
		}
		return "", fs.ErrInvalid
	}
	c.readFile = func(name string) ([]byte, error) {
		if sys.osRelease == "" {
			return nil, fs.ErrPermission
		}
		return []byte(sys.osRelease), nil
	}
	c.setuidRoot = func(name string) (bool, error) {
		ok, found := sys.setuid[name]
		if !found {
			return false, fs.ErrNotExist
		}
		return ok, nil
	}
	return c
}

const debianRelease = `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
ID=debian
HOME_URL="https://www.debian.org/"
`

func TestCheckMTR_LinuxNotInstalledDebian(t *testing.T) {
	c := newChecker(platform.Linux, fakeSystem{osRelease: debianRelease}, &fakeRunner{})

	status := c.CheckMTR(context.Background())

	if status.State != NotInstalled {
		t.Fatalf("State = %v, want %v", status.State, NotInstalled)
	}
	if status.Installed {
		t.Error("Installed = true, want false")
	}
	if !strings.Contains(status.Remediation, "apt-get install -y mtr") {
		t.Errorf("Remediation = %q, want apt-get command", status.Remediation)
	}
	if !errors.Is(status.Err(), ErrToolNotInstalled) {
		t.Errorf("Err() = %v, want ErrToolNotInstalled", status.Err())
	}
}

func TestCheckMTR_LinuxOSReleaseUnreadable(t *testing.T) {
	sys := fakeSystem{path: map[string]string{"dnf": "/usr/bin/dnf"}}
	c := newChecker(platform.Linux, sys, &fakeRunner{})

	status := c.CheckMTR(context.Background())

	if status.State != NotInstalled {
		t.Fatalf("State = %v, want %v", status.State, NotInstalled)
	}
	if !strings.Contains(status.Remediation, "dnf install -y mtr") {
		t.Errorf("Remediation = %q, want dnf command", status.Remediation)
	}
}

func TestCheckTraceroute_LinuxUnknownDistro(t *testing.T) {
	c := newChecker(platform.Linux, fakeSystem{}, &fakeRunner{})

	status := c.CheckTraceroute(context.Background())

	if status.State != NotInstalled {
		t.Fatalf("State = %v, want %v", status.State, NotInstalled)
	}
	for _, want := range []string{"apt-get", "dnf", "pacman", "zypper", "apk"} {
		if !strings.Contains(status.Remediation, want) {
			t.Errorf("Remediation missing %q:\n%s", want, status.Remediation)
		}
	}
}

func TestCheckMTR_LinuxReady(t *testing.T) {
	r := &fakeRunner{out: &runner.Output{Stdout: "mtr 0.95\n"}}
	c := newChecker(platform.Linux, fakeSystem{path: map[string]string{"mtr": "/usr/bin/mtr"}}, r)

	status := c.CheckMTR(context.Background())

	if status.State != Ready {
		t.Fatalf("State = %v, want %v (error %q)", status.State, Ready, status.Error)
	}
	if status.Path != "/usr/bin/mtr" {
		t.Errorf("Path = %q, want /usr/bin/mtr", status.Path)
	}
	if status.Version != "mtr 0.95" {
		t.Errorf("Version = %q, want %q", status.Version, "mtr 0.95")
	}
	if len(r.calls) != 1 || r.calls[0] != "/usr/bin/mtr --version" {
		t.Errorf("runner calls = %v", r.calls)
	}
}

func TestCheckMTR_LinuxFoundInSbin(t *testing.T) {
	sys := fakeSystem{files: map[string]fs.FileMode{"/usr/sbin/mtr": 0o755}}
	c := newChecker(platform.Linux, sys, &fakeRunner{out: &runner.Output{}})

	status := c.CheckMTR(context.Background())

	if status.State != Ready {
		t.Fatalf("State = %v, want %v", status.State, Ready)
	}
	if status.Path != "/usr/sbin/mtr" {
		t.Errorf("Path = %q, want /usr/sbin/mtr", status.Path)
	}
}

func TestCheckMTR_LinuxNotExecutable(t *testing.T) {
	sys := fakeSystem{files: map[string]fs.FileMode{"/usr/bin/mtr": 0o644}}
	c := newChecker(platform.Linux, sys, &fakeRunner{})

	status := c.CheckMTR(context.Background())

	if status.State != PermissionError {
		t.Fatalf("State = %v, want %v", status.State, PermissionError)
	}
	if !strings.Contains(status.Remediation, "chmod +x /usr/bin/mtr") {
		t.Errorf("Remediation = %q", status.Remediation)
	}
}

func TestCheckMTR_VersionProbe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want State
	}{
		{"non-zero exit", &runner.ProcessError{Kind: runner.KindNonZeroExit, Err: errors.New("exit status 1")}, Ready},
		{"spawn failure", &runner.ProcessError{Kind: runner.KindSpawnFailure, Err: errors.New("exec format error")}, CheckError},
		{"timeout", &runner.ProcessError{Kind: runner.KindTimeout, Err: errors.New("killed")}, CheckError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{out: &runner.Output{Stderr: "usage: mtr"}, err: tt.err}
			c := newChecker(platform.Linux, fakeSystem{path: map[string]string{"mtr": "/usr/bin/mtr"}}, r)

			status := c.CheckMTR(context.Background())
			if status.State != tt.want {
				t.Errorf("State = %v, want %v", status.State, tt.want)
			}
			if tt.want == CheckError && status.Error == "" {
				t.Error("Error is empty for check_error")
			}
		})
	}
}

func TestCheckMTR_UnexpectedLookupError(t *testing.T) {
	c := newChecker(platform.Linux, fakeSystem{}, &fakeRunner{})
	c.lookPath = func(string) (string, error) { return "", errors.New("io failure") }

	status := c.CheckMTR(context.Background())
	if status.State != CheckError {
		t.Errorf("State = %v, want %v", status.State, CheckError)
	}
}

func TestCheckMTR_Darwin(t *testing.T) {
	tests := []struct {
		name       string
		sys        fakeSystem
		wantState  State
		wantPerm   bool
		wantRemedy string
	}{
		{
			name:       "not installed",
			sys:        fakeSystem{},
			wantState:  NotInstalled,
			wantRemedy: "brew install mtr",
		},
		{
			name: "setuid through relative symlink",
			sys: fakeSystem{
				files:  map[string]fs.FileMode{"/opt/homebrew/sbin/mtr": 0o755},
				links:  map[string]string{"/opt/homebrew/sbin/mtr": "../Cellar/mtr/0.95/sbin/mtr"},
				setuid: map[string]bool{"/opt/homebrew/Cellar/mtr/0.95/sbin/mtr": true},
			},
			wantState: Ready,
			wantPerm:  true,
		},
		{
			name: "not setuid",
			sys: fakeSystem{
				path:   map[string]string{"mtr": "/usr/local/sbin/mtr"},
				setuid: map[string]bool{"/usr/local/sbin/mtr": false},
			},
			wantState:  PermissionRequired,
			wantRemedy: "password prompt",
		},
		{
			name: "permission check fails",
			sys: fakeSystem{
				path: map[string]string{"mtr": "/usr/local/sbin/mtr"},
			},
			wantState:  PermissionRequired,
			wantRemedy: "chmod u+s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(platform.Darwin, tt.sys, &fakeRunner{out: &runner.Output{}})

			status := c.CheckMTR(context.Background())
			if status.State != tt.wantState {
				t.Errorf("State = %v, want %v", status.State, tt.wantState)
			}
			if status.HasPermission != tt.wantPerm {
				t.Errorf("HasPermission = %v, want %v", status.HasPermission, tt.wantPerm)
			}
			if tt.wantRemedy != "" && !strings.Contains(status.Remediation, tt.wantRemedy) {
				t.Errorf("Remediation = %q, want substring %q", status.Remediation, tt.wantRemedy)
			}
		})
	}
}

func TestBuiltinTools(t *testing.T) {
	tests := []struct {
		os       platform.OS
		check    func(*Checker, context.Context) Status
		wantTool string
	}{
		{platform.Windows, (*Checker).CheckMTR, "pathping"},
		{platform.Windows, (*Checker).CheckTraceroute, "tracert"},
		{platform.Darwin, (*Checker).CheckTraceroute, "traceroute"},
	}

	for _, tt := range tests {
		r := &fakeRunner{}
		c := newChecker(tt.os, fakeSystem{}, r)
		status := tt.check(c, context.Background())

		if status.Tool != tt.wantTool {
			t.Errorf("%v: Tool = %q, want %q", tt.os, status.Tool, tt.wantTool)
		}
		if status.State != Ready || !status.Installed || !status.HasPermission {
			t.Errorf("%v %s: status = %+v, want ready", tt.os, tt.wantTool, status)
		}
		if len(r.calls) != 0 {
			t.Errorf("%v %s: unexpected runner calls %v", tt.os, tt.wantTool, r.calls)
		}
	}
}

func TestStatusUsable(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{Ready, true},
		{PermissionRequired, true},
		{NotInstalled, false},
		{PermissionError, false},
		{CheckError, false},
	}
	for _, tt := range tests {
		if got := (Status{State: tt.state}).Usable(); got != tt.want {
			t.Errorf("Usable(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
