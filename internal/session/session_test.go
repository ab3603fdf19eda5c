package session

import (
	"errors"
	"io"
	"os"
	"testing"
	"time"
)

// newTestSession wires a session to a pipe stdin (kept open so the keyboard
// relay blocks like it would on a real terminal) and discards output.
func newTestSession(t *testing.T, command string, args ...string) *Session {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return New(Config{
		Command:      command,
		Args:         args,
		ExitCommand:  "/exit",
		PollInterval: 50 * time.Millisecond,
		SettleDelay:  time.Millisecond,
		GracePeriod:  250 * time.Millisecond,
		Stdin:        r,
		Stdout:       io.Discard,
	})
}

func startOrSkip(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Start(); err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
}

func TestSessionChildExitSignalsStop(t *testing.T) {
	s := newTestSession(t, "sh", "-c", "exit 7")
	startOrSkip(t, s)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not observe child exit")
	}

	res := s.Stop()
	if res.Code != 7 {
		t.Errorf("exit code = %d, want 7", res.Code)
	}
	if s.State() != Stopped {
		t.Errorf("state = %v, want %v", s.State(), Stopped)
	}
}

func TestSessionStopIdempotent(t *testing.T) {
	// cat ignores /exit and must be escalated to SIGTERM
	s := newTestSession(t, "cat")
	startOrSkip(t, s)

	first := s.Stop()
	second := s.Stop()
	if first != second {
		t.Errorf("Stop results differ: %+v vs %+v", first, second)
	}
	if s.State() != Stopped {
		t.Errorf("state = %v, want %v", s.State(), Stopped)
	}
}

func TestSessionStopReturnsPromptly(t *testing.T) {
	s := newTestSession(t, "cat")
	startOrSkip(t, s)

	start := time.Now()
	s.Stop()
	elapsed := time.Since(start)

	// one grace period for /exit being ignored, then SIGTERM kills cat;
	// allow generous scheduling slack
	if elapsed > 3*time.Second {
		t.Errorf("Stop took %v", elapsed)
	}
}

func TestSessionStartupError(t *testing.T) {
	s := newTestSession(t, "/nonexistent/voxterm-test-binary")
	err := s.Start()
	if err == nil {
		s.Stop()
		t.Fatal("expected startup error")
	}
	var startupErr *StartupError
	if !errors.As(err, &startupErr) {
		t.Errorf("error type = %T, want *StartupError", err)
	}
	if s.State() != Stopped {
		t.Errorf("state after failed start = %v, want %v", s.State(), Stopped)
	}
}

func TestSessionStopBeforeStart(t *testing.T) {
	s := newTestSession(t, "cat")
	res := s.Stop()
	if res.Code != -1 {
		t.Errorf("exit code = %d, want -1", res.Code)
	}
	if s.State() != Stopped {
		t.Errorf("state = %v, want %v", s.State(), Stopped)
	}
}

func TestSessionDoubleStart(t *testing.T) {
	s := newTestSession(t, "cat")
	startOrSkip(t, s)
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Error("second Start did not fail")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		NotStarted: "not_started",
		Running:    "running",
		Stopping:   "stopping",
		Stopped:    "stopped",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
