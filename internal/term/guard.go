// Package term owns raw-mode entry and the guaranteed restore of the real
// terminal's attributes on every exit path.
package term

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/term"

	"github.com/hbray/voxterm/internal/logger"
)

// Guard captures the terminal state once and restores it exactly once.
// Acquire/Release pairs are safe to call from deferred cleanup and from a
// signal path at the same time.
type Guard struct {
	fd int

	mu       sync.Mutex
	saved    *term.State
	acquired bool
}

// NewGuard creates a guard for the given terminal file descriptor
// (normally os.Stdin's).
func NewGuard(fd int) *Guard {
	return &Guard{fd: fd}
}

// IsTerminal reports whether the guarded descriptor is a real terminal.
func (g *Guard) IsTerminal() bool {
	return term.IsTerminal(g.fd)
}

// Acquire snapshots the current attributes and switches to raw mode so each
// keystroke is delivered immediately, with no line buffering or local echo.
// Calling it twice without a Release is an error.
func (g *Guard) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquired {
		return fmt.Errorf("terminal already in raw mode")
	}
	state, err := term.MakeRaw(g.fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	g.saved = state
	g.acquired = true
	return nil
}

// Release restores the snapshot taken by Acquire. Idempotent. Restoration
// failures are logged, never escalated: the process is on its way out, so a
// last-resort `stty sane` is issued instead.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.acquired {
		return
	}
	g.acquired = false
	if err := term.Restore(g.fd, g.saved); err != nil {
		logger.Warn("term: restore failed, resetting", "error", err)
		resetTerminal()
	}
	g.saved = nil
}

// resetTerminal shells out to stty to force the terminal back to a usable
// state when attribute restoration itself fails.
func resetTerminal() {
	cmd := exec.Command("stty", "sane")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}
