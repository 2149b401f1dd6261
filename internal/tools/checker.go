package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
	"github.com/KilimcininKorOglu/netscope/internal/runner"
)

// VersionTimeout bounds the --version probe of a found binary.
const VersionTimeout = 5 * time.Second

var (
	homebrewDirs = []string{"/opt/homebrew/sbin", "/opt/homebrew/bin", "/usr/local/sbin", "/usr/local/bin"}
	linuxDirs    = []string{"/usr/sbin", "/usr/bin", "/usr/local/sbin", "/usr/local/bin", "/sbin", "/bin"}
)

// Config holds checker dependencies.
type Config struct {
	// Platform selects the detection rules. Defaults to the running OS.
	Platform platform.OS

	// Runner executes the version probe. Defaults to runner.New.
	Runner runner.Runner

	Logger *slog.Logger
}

// DefaultConfig returns a configuration for the running system.
func DefaultConfig() Config {
	return Config{
		Platform: platform.Current(),
		Runner:   runner.New(runner.DefaultConfig()),
	}
}

// Checker probes tool availability. Nothing is cached between calls.
type Checker struct {
	os     platform.OS
	runner runner.Runner
	logger *slog.Logger

	lookPath   func(string) (string, error)
	stat       func(string) (fs.FileInfo, error)
	lstat      func(string) (fs.FileInfo, error)
	readlink   func(string) (string, error)
	readFile   func(string) ([]byte, error)
	setuidRoot func(string) (bool, error)
}

// New creates a checker bound to the real filesystem.
func New(cfg Config) *Checker {
	if cfg.Runner == nil {
		cfg.Runner = runner.New(runner.DefaultConfig())
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Checker{
		os:         cfg.Platform,
		runner:     cfg.Runner,
		logger:     cfg.Logger,
		lookPath:   exec.LookPath,
		stat:       os.Stat,
		lstat:      os.Lstat,
		readlink:   os.Readlink,
		readFile:   os.ReadFile,
		setuidRoot: setuidRoot,
	}
}

// CheckMTR reports whether mtr (pathping on Windows) can be used.
func (c *Checker) CheckMTR(ctx context.Context) Status {
	switch c.os {
	case platform.Windows:
		return c.builtin("pathping")
	case platform.Darwin:
		return c.checkDarwinMTR(ctx)
	case platform.Linux:
		return c.checkLinux(ctx, "mtr")
	default:
		return unsupported("mtr", c.os)
	}
}

// CheckTraceroute reports whether traceroute (tracert on Windows) can be used.
func (c *Checker) CheckTraceroute(ctx context.Context) Status {
	switch c.os {
	case platform.Windows:
		return c.builtin("tracert")
	case platform.Darwin:
		return c.builtin("traceroute")
	case platform.Linux:
		return c.checkLinux(ctx, "traceroute")
	default:
		return unsupported("traceroute", c.os)
	}
}

// CheckAll runs every check, in display order.
func (c *Checker) CheckAll(ctx context.Context) []Status {
	return []Status{c.CheckMTR(ctx), c.CheckTraceroute(ctx)}
}

func (c *Checker) builtin(tool string) Status {
	return Status{
		Tool:          tool,
		Installed:     true,
		HasPermission: true,
		State:         Ready,
		Path:          tool,
		Remediation:   permissionHint(c.os, tool),
	}
}

func unsupported(tool string, os platform.OS) Status {
	return Status{
		Tool:        tool,
		State:       CheckError,
		Remediation: "Use Linux, macOS or Windows.",
		Error:       fmt.Sprintf("unsupported platform: %s", os),
	}
}

func (c *Checker) checkLinux(ctx context.Context, tool string) Status {
	status := Status{Tool: tool}

	path, err := c.find(tool, linuxDirs)
	switch {
	case errors.Is(err, ErrToolNotInstalled):
		status.State = NotInstalled
		status.Remediation = InstallCommand(c.DetectDistro(), tool)
		return status
	case errors.Is(err, fs.ErrPermission):
		status.Installed = true
		status.Path = path
		status.State = PermissionError
		status.Remediation = fmt.Sprintf("sudo chmod +x %s", path)
		return status
	case err != nil:
		status.State = CheckError
		status.Error = err.Error()
		return status
	}

	status.Installed = true
	status.HasPermission = true
	status.Path = path
	return c.probeVersion(ctx, status)
}

func (c *Checker) checkDarwinMTR(ctx context.Context) Status {
	status := Status{Tool: "mtr"}

	path, err := c.find("mtr", homebrewDirs)
	switch {
	case errors.Is(err, ErrToolNotInstalled):
		status.State = NotInstalled
		status.Remediation = "brew install mtr"
		return status
	case errors.Is(err, fs.ErrPermission):
		status.Installed = true
		status.Path = path
		status.State = PermissionError
		status.Remediation = fmt.Sprintf("sudo chmod +x %s", path)
		return status
	case err != nil:
		status.State = CheckError
		status.Error = err.Error()
		return status
	}

	status.Installed = true
	status.Path = path

	target := c.resolveLink(path)
	ok, err := c.setuidRoot(target)
	if err != nil {
		c.logger.Debug("setuid check failed", "path", target, "error", err)
	}
	if ok {
		status.HasPermission = true
	} else {
		status.Remediation = "mtr needs raw socket access; a password prompt will appear when the test runs. " +
			fmt.Sprintf("To avoid it: sudo chown root %s && sudo chmod u+s %s", target, target)
	}

	status = c.probeVersion(ctx, status)
	if status.State == Ready && !ok {
		status.State = PermissionRequired
	}
	return status
}

// find searches PATH and then dirs. It returns ErrToolNotInstalled when
// nothing exists, fs.ErrPermission with the path when a file exists but
// is not executable, and any other error as is.
func (c *Checker) find(tool string, dirs []string) (string, error) {
	path, err := c.lookPath(tool)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, exec.ErrNotFound) && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, fs.ErrPermission) {
		return "", fmt.Errorf("lookup %s: %w", tool, err)
	}

	var denied string
	for _, dir := range dirs {
		candidate := filepath.Join(dir, tool)
		info, err := c.stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if info.Mode().Perm()&0o111 != 0 {
			return candidate, nil
		}
		if denied == "" {
			denied = candidate
		}
	}

	if denied != "" {
		return denied, fs.ErrPermission
	}
	return "", ErrToolNotInstalled
}

// resolveLink follows one level of symlink. Relative targets are resolved
// against the link's directory.
func (c *Checker) resolveLink(path string) string {
	info, err := c.lstat(path)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return path
	}
	target, err := c.readlink(path)
	if err != nil {
		return path
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target
}

// probeVersion runs "<tool> --version". Tools that reject the flag still
// count as ready; only a launch failure or a hang is a check error.
func (c *Checker) probeVersion(ctx context.Context, status Status) Status {
	out, err := c.runner.Run(ctx, status.Path, []string{"--version"}, VersionTimeout)
	if err != nil && !runner.IsNonZeroExit(err) {
		status.State = CheckError
		status.Error = err.Error()
		return status
	}

	if out != nil {
		status.Version = firstLine(out.CombinedText())
	}
	status.State = Ready
	if status.Remediation == "" {
		status.Remediation = permissionHint(c.os, status.Tool)
	}
	return status
}

func permissionHint(os platform.OS, tool string) string {
	switch os {
	case platform.Windows:
		return fmt.Sprintf("%s is built in; run the terminal as administrator if it reports access errors.", tool)
	case platform.Darwin:
		return "A password prompt will appear if elevated privileges are needed."
	default:
		return ""
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
