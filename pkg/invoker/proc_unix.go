//go:build !windows

package invoker

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts Maven in its own process group so a timeout
// kills the JVM and any forked children, which would otherwise keep the
// output pipes open.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
