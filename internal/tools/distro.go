package tools

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// Distro is a Linux distribution family, used to pick install commands.
type Distro string

const (
	Debian        Distro = "debian"
	RedHat        Distro = "redhat"
	Arch          Distro = "arch"
	SUSE          Distro = "suse"
	Alpine        Distro = "alpine"
	UnknownDistro Distro = "unknown"
)

var osReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

// familyByID maps os-release ID / ID_LIKE tokens to a family.
var familyByID = map[string]Distro{
	"debian":              Debian,
	"ubuntu":              Debian,
	"linuxmint":           Debian,
	"pop":                 Debian,
	"raspbian":            Debian,
	"kali":                Debian,
	"rhel":                RedHat,
	"fedora":              RedHat,
	"centos":              RedHat,
	"rocky":               RedHat,
	"almalinux":           RedHat,
	"amzn":                RedHat,
	"ol":                  RedHat,
	"arch":                Arch,
	"manjaro":             Arch,
	"endeavouros":         Arch,
	"suse":                SUSE,
	"opensuse":            SUSE,
	"opensuse-leap":       SUSE,
	"opensuse-tumbleweed": SUSE,
	"sles":                SUSE,
	"alpine":              Alpine,
}

// packageManagers is probed in order when os-release is unavailable.
var packageManagers = []struct {
	binary string
	family Distro
}{
	{"apt-get", Debian},
	{"dnf", RedHat},
	{"yum", RedHat},
	{"pacman", Arch},
	{"zypper", SUSE},
	{"apk", Alpine},
}

// ParseOSRelease returns the family described by an os-release file.
// ID is checked before the ID_LIKE entries.
func ParseOSRelease(data []byte) Distro {
	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return UnknownDistro
	}

	ids := strings.Fields(strings.ToLower(env["ID"] + " " + env["ID_LIKE"]))
	for _, id := range ids {
		if family, ok := familyByID[id]; ok {
			return family
		}
	}
	return UnknownDistro
}

// DetectDistro identifies the Linux family from os-release, falling back
// to probing for a known package manager.
func (c *Checker) DetectDistro() Distro {
	for _, path := range osReleasePaths {
		data, err := c.readFile(path)
		if err != nil {
			continue
		}
		if family := ParseOSRelease(data); family != UnknownDistro {
			return family
		}
		break
	}

	for _, pm := range packageManagers {
		if _, err := c.lookPath(pm.binary); err == nil {
			c.logger.Debug("distro detected from package manager", "binary", pm.binary)
			return pm.family
		}
	}
	return UnknownDistro
}

// InstallCommand returns the shell command that installs pkg on family.
func InstallCommand(family Distro, pkg string) string {
	switch family {
	case Debian:
		return fmt.Sprintf("sudo apt-get install -y %s", pkg)
	case RedHat:
		return fmt.Sprintf("sudo dnf install -y %s (or: sudo yum install -y %s)", pkg, pkg)
	case Arch:
		return fmt.Sprintf("sudo pacman -S --noconfirm %s", pkg)
	case SUSE:
		return fmt.Sprintf("sudo zypper install -y %s", pkg)
	case Alpine:
		return fmt.Sprintf("sudo apk add %s", pkg)
	default:
		return strings.Join([]string{
			fmt.Sprintf("Debian/Ubuntu: sudo apt-get install -y %s", pkg),
			fmt.Sprintf("Fedora/RHEL:   sudo dnf install -y %s", pkg),
			fmt.Sprintf("Arch:          sudo pacman -S %s", pkg),
			fmt.Sprintf("openSUSE:      sudo zypper install %s", pkg),
			fmt.Sprintf("Alpine:        sudo apk add %s", pkg),
		}, "\n")
	}
}
