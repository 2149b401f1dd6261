//go:build windows

package runner

import "os/exec"

// configureProcessGroup kills the direct child on cancellation. pathping
// and tracert do not spawn helpers.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
}
