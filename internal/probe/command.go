package probe

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KilimcininKorOglu/netscope/internal/platform"
)

// Command is an external command line.
type Command struct {
	Name string
	Args []string
}

// String returns the command as it would be typed in a shell.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// commandParams is the union of the options a builder may read.
type commandParams struct {
	Binary  string
	Count   int
	Size    int
	MaxHops int
	Timeout time.Duration

	// Elevate wraps the macOS mtr command in an administrator prompt.
	Elevate bool
}

type commandKey struct {
	os   platform.OS
	kind Kind
}

type commandBuilder func(target string, p commandParams) Command

// commandTable maps each platform and test kind to its command line.
var commandTable = map[commandKey]commandBuilder{
	{platform.Windows, KindPing}: windowsPing,
	{platform.Linux, KindPing}:   linuxPing,
	{platform.Darwin, KindPing}:  darwinPing,

	{platform.Windows, KindMTR}: windowsPathping,
	{platform.Linux, KindMTR}:   unixMTR,
	{platform.Darwin, KindMTR}:  darwinMTR,

	{platform.Windows, KindTraceroute}: windowsTracert,
	{platform.Linux, KindTraceroute}:   unixTraceroute,
	{platform.Darwin, KindTraceroute}:  unixTraceroute,
}

// validateCommandTable checks that every supported platform has a builder
// for every command-backed kind.
func validateCommandTable(table map[commandKey]commandBuilder) error {
	for _, os := range platform.All() {
		for kind := KindPing; kind <= KindTraceroute; kind++ {
			if !kind.usesCommand() {
				continue
			}
			if table[commandKey{os, kind}] == nil {
				return fmt.Errorf("%w: %s on %s", ErrMissingCommand, kind, os)
			}
		}
	}
	return nil
}

func buildCommand(table map[commandKey]commandBuilder, os platform.OS, kind Kind, target string, p commandParams) (Command, error) {
	build := table[commandKey{os, kind}]
	if build == nil {
		return Command{}, fmt.Errorf("%w: %s on %s", ErrMissingCommand, kind, os)
	}
	return build(target, p), nil
}

func windowsPing(target string, p commandParams) Command {
	size := p.Size
	if size <= 0 {
		size = DefaultPingSize
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	return Command{Name: "ping", Args: []string{
		"-n", itoa(p.Count),
		"-l", itoa(size),
		"-w", itoa(int(timeout.Milliseconds())),
		target,
	}}
}

// linuxPing passes -W in whole seconds.
func linuxPing(target string, p commandParams) Command {
	args := []string{"-c", itoa(p.Count)}
	if p.Size > 0 {
		args = append(args, "-s", itoa(p.Size))
	}
	if p.Timeout > 0 {
		args = append(args, "-W", itoa(int(math.Ceil(p.Timeout.Seconds()))))
	}
	return Command{Name: "ping", Args: append(args, target)}
}

// darwinPing passes -W in milliseconds, as BSD ping expects.
func darwinPing(target string, p commandParams) Command {
	args := []string{"-c", itoa(p.Count)}
	if p.Size > 0 {
		args = append(args, "-s", itoa(p.Size))
	}
	if p.Timeout > 0 {
		args = append(args, "-W", itoa(int(p.Timeout.Milliseconds())))
	}
	return Command{Name: "ping", Args: append(args, target)}
}

func windowsPathping(target string, p commandParams) Command {
	return Command{Name: "pathping", Args: []string{
		"-n",
		"-q", itoa(p.Count),
		"-h", itoa(p.MaxHops),
		target,
	}}
}

func mtrArgs(target string, p commandParams) []string {
	return []string{
		"-r",
		"-c", itoa(p.Count),
		"-s", itoa(p.Size),
		"-m", itoa(p.MaxHops),
		"-n",
		target,
	}
}

func unixMTR(target string, p commandParams) Command {
	return Command{Name: binaryOr(p.Binary, "mtr"), Args: mtrArgs(target, p)}
}

func darwinMTR(target string, p commandParams) Command {
	mtr := Command{Name: binaryOr(p.Binary, "mtr"), Args: mtrArgs(target, p)}
	if !p.Elevate {
		return mtr
	}
	script := fmt.Sprintf("do shell script %q with administrator privileges", mtr.String())
	return Command{Name: "osascript", Args: []string{"-e", script}}
}

func windowsTracert(target string, p commandParams) Command {
	return Command{Name: "tracert", Args: []string{
		"-h", itoa(p.MaxHops),
		"-w", itoa(int(p.Timeout.Milliseconds())),
		target,
	}}
}

func unixTraceroute(target string, p commandParams) Command {
	wait := int(math.Ceil(p.Timeout.Seconds()))
	if wait < 1 {
		wait = 1
	}
	return Command{Name: binaryOr(p.Binary, "traceroute"), Args: []string{
		"-m", itoa(p.MaxHops),
		"-w", itoa(wait),
		"-q", "1",
		"-n",
		target,
	}}
}

func binaryOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
