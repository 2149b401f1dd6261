package tools

import (
	"strings"
	"testing"
)

func TestParseOSRelease(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Distro
	}{
		{"debian", "ID=debian\n", Debian},
		{"ubuntu quoted", "NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n", Debian},
		{"rocky via id_like", "ID=\"rocky\"\nID_LIKE=\"rhel centos fedora\"\n", RedHat},
		{"unknown id, known like", "ID=mydistro\nID_LIKE=arch\n", Arch},
		{"opensuse", "ID=\"opensuse-tumbleweed\"\nID_LIKE=\"opensuse suse\"\n", SUSE},
		{"alpine", "ID=alpine\nVERSION_ID=3.20.0\n", Alpine},
		{"uppercase value", "ID=Fedora\n", RedHat},
		{"nothing known", "ID=nixos\n", UnknownDistro},
		{"empty", "", UnknownDistro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOSRelease([]byte(tt.data)); got != tt.want {
				t.Errorf("ParseOSRelease() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstallCommand(t *testing.T) {
	tests := []struct {
		family Distro
		want   string
	}{
		{Debian, "sudo apt-get install -y traceroute"},
		{RedHat, "sudo dnf install -y traceroute"},
		{Arch, "sudo pacman -S --noconfirm traceroute"},
		{SUSE, "sudo zypper install -y traceroute"},
		{Alpine, "sudo apk add traceroute"},
	}
	for _, tt := range tests {
		if got := InstallCommand(tt.family, "traceroute"); !strings.HasPrefix(got, tt.want) {
			t.Errorf("InstallCommand(%v) = %q, want prefix %q", tt.family, got, tt.want)
		}
	}

	if got := InstallCommand(UnknownDistro, "mtr"); strings.Count(got, "\n") != 4 {
		t.Errorf("InstallCommand(unknown) should list five families, got:\n%s", got)
	}
}
