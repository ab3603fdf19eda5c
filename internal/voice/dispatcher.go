package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/hbray/voxterm/internal/logger"
)

// exitToken inside an utterance that also carries a wake phrase requests
// session shutdown ("claude exit").
const exitToken = "exit"

// Transcriber is the speech-to-text boundary: one blocking call per
// utterance. Empty or whitespace-only results are legal and ignored.
type Transcriber interface {
	NextUtterance(ctx context.Context) (string, error)
}

// Action classifies what the dispatcher did with an utterance.
type Action int

const (
	ActionNone Action = iota
	ActionCommand
	ActionArmed
	ActionExit
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionCommand:
		return "command"
	case ActionArmed:
		return "armed"
	case ActionExit:
		return "exit"
	}
	return "unknown"
}

// Dispatcher pulls utterances from the transcriber and feeds extracted
// commands to the session's injector. When a wake phrase is spoken alone it
// arms a listening latch: the next utterance, verbatim, becomes the command.
type Dispatcher struct {
	stt     Transcriber
	enqueue func(string)
	exit    func()
	onEvent func(heard, command string, action Action) // optional, e.g. history recording

	mu        sync.Mutex
	matcher   *Matcher
	listening bool
}

// NewDispatcher wires a transcriber to an injector. enqueue posts a command;
// exit requests session shutdown.
func NewDispatcher(stt Transcriber, matcher *Matcher, enqueue func(string), exit func()) *Dispatcher {
	return &Dispatcher{stt: stt, matcher: matcher, enqueue: enqueue, exit: exit}
}

// OnEvent registers an observer for handled utterances.
func (d *Dispatcher) OnEvent(fn func(heard, command string, action Action)) {
	d.onEvent = fn
}

// SetMatcher swaps the wake-phrase matcher, e.g. after a config reload.
func (d *Dispatcher) SetMatcher(m *Matcher) {
	d.mu.Lock()
	d.matcher = m
	d.mu.Unlock()
}

// Run loops on the transcriber until ctx is cancelled or the transcriber
// fails. Loop exit is cooperative: the blocking utterance call honors ctx.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		text, err := d.stt.NextUtterance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		d.Handle(text)
	}
}

// Handle processes a single utterance and reports the action taken.
func (d *Dispatcher) Handle(text string) Action {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ActionNone
	}

	d.mu.Lock()
	matcher := d.matcher
	armed := d.listening
	d.mu.Unlock()

	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, exitToken) && matcher.ContainsWake(trimmed) {
		logger.Info("voice: exit requested", "heard", trimmed)
		d.emit(trimmed, "", ActionExit)
		d.exit()
		return ActionExit
	}

	command, matched := matcher.Extract(trimmed)
	switch {
	case matched && command != "":
		logger.Info("voice: command", "command", command)
		d.setListening(false)
		d.enqueue(command)
		d.emit(trimmed, command, ActionCommand)
		return ActionCommand
	case matched:
		// wake phrase alone: capture the next utterance verbatim
		logger.Info("voice: listening for command")
		d.setListening(true)
		d.emit(trimmed, "", ActionArmed)
		return ActionArmed
	case armed:
		logger.Info("voice: latched command", "command", trimmed)
		d.setListening(false)
		d.enqueue(trimmed)
		d.emit(trimmed, trimmed, ActionCommand)
		return ActionCommand
	}
	return ActionNone
}

func (d *Dispatcher) setListening(v bool) {
	d.mu.Lock()
	d.listening = v
	d.mu.Unlock()
}

func (d *Dispatcher) emit(heard, command string, action Action) {
	if d.onEvent != nil {
		d.onEvent(heard, command, action)
	}
}
