//go:build windows

package invoker

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
