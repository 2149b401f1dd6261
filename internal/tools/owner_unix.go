//go:build linux || darwin || freebsd || netbsd || openbsd

package tools

import "golang.org/x/sys/unix"

// setuidRoot reports whether path is owned by root and has the setuid bit.
func setuidRoot(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, err
	}
	return st.Uid == 0 && st.Mode&unix.S_ISUID != 0, nil
}
