package executor

import (
	"bytes"
	"context"
	"os/exec"
)

// runShellCommand hands the resolved line to the shell so pipes and
// redirects in execute templates keep working.
func runShellCommand(ctx context.Context, command string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
