// Package session runs a child CLI attached to a pseudo-terminal and merges
// keyboard bytes and injected voice commands into its input stream while
// relaying its output verbatim to the real screen. One session per process.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/muesli/cancelreader"

	"github.com/hbray/voxterm/internal/logger"
)

// State is the session lifecycle position.
type State int32

const (
	NotStarted State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// StartupError wraps PTY allocation or child spawn failures. When Start
// returns one, no descriptors are retained.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string { return "startup: " + e.Err.Error() }
func (e *StartupError) Unwrap() error { return e.Err }

// ExitResult is the child's collected exit status.
type ExitResult struct {
	Code int
}

// Config holds everything needed to run a session.
type Config struct {
	Command string   // resolved child binary path
	Args    []string // child arguments
	Dir     string   // working directory ("" = inherit)
	Env     []string // environment (nil = inherit)

	ExitCommand  string        // shutdown directive typed into the child, e.g. "/exit"
	PollInterval time.Duration // bound on time-to-observe a cleared running flag
	CharDelay    time.Duration // injector inter-character delay
	SettleDelay  time.Duration // injector pause before the carriage return
	GracePeriod  time.Duration // wait before escalating to SIGTERM on stop

	Rows, Cols uint16 // initial PTY size (0,0 = pty default)

	Stdin  io.Reader // defaults to os.Stdin
	Stdout io.Writer // defaults to os.Stdout
}

// Session owns the PTY master and the child process. The master has exactly
// one reader (the output relay); the keyboard relay and the injector share it
// as writers, serialized by writeMu at logical-write granularity.
type Session struct {
	ID  string
	cfg Config

	cmd  *exec.Cmd
	ptmx *os.File

	state   atomic.Int32
	running atomic.Bool

	stopCh     chan struct{}
	signalOnce sync.Once
	stopOnce   sync.Once
	result     ExitResult

	writeMu       sync.Mutex
	directiveSent atomic.Bool

	injector  *Injector
	keyReader cancelreader.CancelReader
	waitCh    chan int
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedAt time.Time
}

// New creates a session in the NotStarted state.
func New(cfg Config) *Session {
	if cfg.ExitCommand == "" {
		cfg.ExitCommand = "/exit"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 50 * time.Millisecond
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = 3 * time.Second
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	return &Session{
		ID:       uuid.New().String()[:8],
		cfg:      cfg,
		stopCh:   make(chan struct{}),
		injector: newInjector(cfg.ExitCommand, cfg.CharDelay, cfg.SettleDelay),
	}
}

// Injector exposes the command queue for voice producers.
func (s *Session) Injector() *Injector { return s.injector }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Done is closed once the session is stopping; the caller should then call
// Stop to collect the exit result.
func (s *Session) Done() <-chan struct{} { return s.stopCh }

// Start allocates the PTY pair, spawns the child bound to it as its
// controlling terminal, and launches the output relay, keyboard relay, and
// command injector loops.
func (s *Session) Start() error {
	if !s.state.CompareAndSwap(int32(NotStarted), int32(Running)) {
		return fmt.Errorf("session already started")
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Env = s.cfg.Env
	cmd.Dir = s.cfg.Dir

	var ptmx *os.File
	var err error
	if s.cfg.Rows > 0 && s.cfg.Cols > 0 {
		ptmx, err = pty.StartWithSize(cmd, &pty.Winsize{Rows: s.cfg.Rows, Cols: s.cfg.Cols})
	} else {
		ptmx, err = pty.Start(cmd)
	}
	if err != nil {
		s.state.Store(int32(Stopped))
		return &StartupError{fmt.Errorf("start pty: %w", err)}
	}

	keyReader, err := cancelreader.NewReader(s.cfg.Stdin)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		ptmx.Close()
		s.state.Store(int32(Stopped))
		return &StartupError{fmt.Errorf("keyboard reader: %w", err)}
	}

	s.cmd = cmd
	s.ptmx = ptmx
	s.keyReader = keyReader
	s.startedAt = time.Now()
	s.running.Store(true)

	logger.Info("session: started", "id", s.ID, "command", s.cfg.Command, "pid", cmd.Process.Pid)

	// Reap in the background so the exit status is ready whenever Stop asks.
	s.waitCh = make(chan int, 1)
	go func() {
		code := 0
		if err := cmd.Wait(); err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				code = -1
			}
		}
		s.waitCh <- code
	}()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.injector.bind(ptmx, &s.writeMu, ctx, s.stopCh, func() { go s.Stop() }, s.claimDirective)

	s.wg.Add(3)
	go s.outputRelay()
	go s.keyboardRelay()
	go func() {
		defer s.wg.Done()
		s.injector.run()
	}()

	return nil
}

// outputRelay moves child output to the real screen unmodified. A feeder
// goroutine owns the blocking master reads; the loop here observes the stop
// channel within PollInterval even when no data arrives. EOF or a read error
// on the master means the child exited — the normal termination path.
func (s *Session) outputRelay() {
	defer s.wg.Done()

	data := make(chan []byte)
	go func() {
		buf := make([]byte, 4096)
		firstByte := true
		for {
			n, err := s.ptmx.Read(buf)
			if n > 0 {
				if firstByte {
					logger.Debug("session: first output", "id", s.ID, "after", time.Since(s.startedAt).Round(time.Millisecond))
					firstByte = false
				}
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case data <- chunk:
				case <-s.stopCh:
					return
				}
			}
			if err != nil {
				close(data)
				return
			}
		}
	}()

	for {
		select {
		case <-s.stopCh:
			return
		case chunk, ok := <-data:
			if !ok {
				logger.Debug("session: child output closed", "id", s.ID)
				s.signalStop()
				return
			}
			// verbatim and unbuffered — control sequences must render live
			s.cfg.Stdout.Write(chunk)
		case <-time.After(s.cfg.PollInterval):
			if !s.running.Load() {
				return
			}
		}
	}
}

// keyboardRelay forwards raw keystrokes to the child. The cancelreader is
// cancelled when the session stops, so the blocked read returns promptly.
func (s *Session) keyboardRelay() {
	defer s.wg.Done()
	buf := make([]byte, 1024)
	for s.running.Load() {
		n, err := s.keyReader.Read(buf)
		if n > 0 {
			s.writeMu.Lock()
			_, werr := s.ptmx.Write(buf[:n])
			s.writeMu.Unlock()
			if werr != nil {
				s.signalStop()
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// signalStop flips the session into Stopping and wakes every loop. Safe to
// call from any loop or from Stop; only the first call acts.
func (s *Session) signalStop() {
	s.signalOnce.Do(func() {
		s.running.Store(false)
		s.state.CompareAndSwap(int32(Running), int32(Stopping))
		close(s.stopCh)
		if s.cancel != nil {
			s.cancel()
		}
		if s.keyReader != nil {
			s.keyReader.Cancel()
		}
	})
}

// claimDirective returns true for exactly one caller: whoever writes the
// shutdown directive. Stop and the injector's sentinel path both try.
func (s *Session) claimDirective() bool {
	return s.directiveSent.CompareAndSwap(false, true)
}

// Stop shuts the session down and collects the child's exit status. It is
// idempotent: later calls return the result of the first. The sequence is
// clear the running flag, type the shutdown directive, wait the grace
// period, escalate to SIGTERM and finally SIGKILL, then reap.
func (s *Session) Stop() ExitResult {
	s.stopOnce.Do(func() {
		if State(s.state.Load()) == NotStarted {
			s.state.Store(int32(Stopped))
			s.result = ExitResult{Code: -1}
			return
		}

		s.running.Store(false)
		s.state.CompareAndSwap(int32(Running), int32(Stopping))

		if s.claimDirective() {
			s.writeMu.Lock()
			io.WriteString(s.ptmx, s.cfg.ExitCommand+"\r")
			s.writeMu.Unlock()
		}

		code := s.awaitExit()
		s.signalStop()
		s.ptmx.Close()
		s.wg.Wait()

		s.state.Store(int32(Stopped))
		s.result = ExitResult{Code: code}
		logger.Info("session: stopped", "id", s.ID, "code", code)
	})
	return s.result
}

func (s *Session) awaitExit() int {
	select {
	case code := <-s.waitCh:
		return code
	case <-time.After(s.cfg.GracePeriod):
	}

	logger.Warn("session: grace period elapsed, sending SIGTERM", "id", s.ID)
	if s.cmd.Process != nil {
		s.cmd.Process.Signal(syscall.SIGTERM)
	}
	select {
	case code := <-s.waitCh:
		return code
	case <-time.After(s.cfg.GracePeriod):
	}

	logger.Warn("session: child ignored SIGTERM, killing", "id", s.ID)
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	return <-s.waitCh
}

// Resize changes the PTY dimensions to match the real terminal.
func (s *Session) Resize(rows, cols uint16) {
	if State(s.state.Load()) != Running {
		return
	}
	pty.Setsize(s.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}
