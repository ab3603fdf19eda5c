package session

import (
	"context"
	"io"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hbray/voxterm/internal/logger"
)

// exitSentinel is the reserved queue value that requests shutdown. It carries
// no payload; the NUL prefix keeps it out of the space of real commands.
const exitSentinel = "\x00exit"

const queueDepth = 64

// Injector drains a FIFO of voice commands and types them into the child at
// human speed. The child's line editor drops or mis-renders bulk pastes, so
// each character is written on its own with a paced delay, then a settle
// pause before the terminating carriage return.
type Injector struct {
	queue chan string

	exitCommand string
	settleDelay time.Duration
	limiter     *rate.Limiter

	// bound by the owning session before the drain loop starts
	mu             *sync.Mutex
	w              io.Writer
	ctx            context.Context
	stopCh         <-chan struct{}
	requestStop    func()
	claimDirective func() bool
}

func newInjector(exitCommand string, charDelay, settleDelay time.Duration) *Injector {
	inj := &Injector{
		queue:       make(chan string, queueDepth),
		exitCommand: exitCommand,
		settleDelay: settleDelay,
	}
	if charDelay > 0 {
		inj.limiter = rate.NewLimiter(rate.Every(charDelay), 1)
	}
	return inj
}

func (j *Injector) bind(w io.Writer, mu *sync.Mutex, ctx context.Context, stopCh <-chan struct{}, requestStop func(), claimDirective func() bool) {
	j.w = w
	j.mu = mu
	j.ctx = ctx
	j.stopCh = stopCh
	j.requestStop = requestStop
	j.claimDirective = claimDirective
}

// Enqueue appends a command to the queue. Safe for concurrent producers;
// arrival order is preserved. Returns false if the command is empty or the
// queue is full — producers must never block on a stalled child.
func (j *Injector) Enqueue(command string) bool {
	if command == "" || command == exitSentinel {
		return false
	}
	select {
	case j.queue <- command:
		return true
	default:
		logger.Warn("injector: queue full, dropping command")
		return false
	}
}

// EnqueueExit posts the shutdown sentinel.
func (j *Injector) EnqueueExit() {
	select {
	case j.queue <- exitSentinel:
	default:
	}
}

// run is the drain loop. On the sentinel it types the shutdown directive and
// requests session stop; those are the last bytes the child sees before any
// termination signal.
func (j *Injector) run() {
	for {
		select {
		case <-j.stopCh:
			return
		case cmd := <-j.queue:
			if cmd == exitSentinel {
				j.writeDirective()
				j.requestStop()
				return
			}
			j.typeCommand(cmd)
		}
	}
}

// typeCommand holds the shared write lock for the whole command so no other
// writer's bytes land between its characters.
func (j *Injector) typeCommand(cmd string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	logger.Debug("injector: typing command", "len", len(cmd))
	for i := 0; i < len(cmd); i++ {
		if j.limiter != nil {
			if err := j.limiter.Wait(j.ctx); err != nil {
				return
			}
		}
		if _, err := j.w.Write([]byte{cmd[i]}); err != nil {
			logger.Warn("injector: write failed", "error", err)
			return
		}
	}
	select {
	case <-j.stopCh:
		return
	case <-time.After(j.settleDelay):
	}
	if _, err := j.w.Write([]byte{'\r'}); err != nil {
		logger.Warn("injector: write failed", "error", err)
	}
}

func (j *Injector) writeDirective() {
	if !j.claimDirective() {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := io.WriteString(j.w, j.exitCommand+"\r"); err != nil {
		logger.Warn("injector: exit directive write failed", "error", err)
	}
}
