package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/hbray/voxterm/internal/logger"
)

// oneshotTimeout caps a single prompted run.
const oneshotTimeout = 2 * time.Minute

// RunOnce executes the agent with a single prompt (`claude -p <command>`) as
// an independent process sharing the real terminal. No PTY, no conversation
// state between calls.
func RunOnce(ctx context.Context, path, command string) error {
	runCtx, cancel := context.WithTimeout(ctx, oneshotTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, "-p", command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	logger.Info("agent: one-shot run", "path", path, "command", command)
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("command timed out after %s", oneshotTimeout)
		}
		return fmt.Errorf("run %s: %w", path, err)
	}
	return nil
}
