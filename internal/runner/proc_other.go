//go:build !unix

package runner

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}

// killTree on platforms without process groups can only kill the direct
// child.
func killTree(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
