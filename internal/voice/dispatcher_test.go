package voice

import (
	"context"
	"errors"
	"testing"
)

type scriptedTranscriber struct {
	utterances []string
}

func (s *scriptedTranscriber) NextUtterance(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(s.utterances) == 0 {
		return "", errors.New("script exhausted")
	}
	text := s.utterances[0]
	s.utterances = s.utterances[1:]
	return text, nil
}

type capture struct {
	commands []string
	exits    int
}

func newTestDispatcher(utterances ...string) (*Dispatcher, *capture) {
	cap := &capture{}
	d := NewDispatcher(
		&scriptedTranscriber{utterances: utterances},
		NewMatcher(testPhrases, testFillers),
		func(cmd string) { cap.commands = append(cap.commands, cmd) },
		func() { cap.exits++ },
	)
	return d, cap
}

func TestDispatcherDirectCommand(t *testing.T) {
	d, cap := newTestDispatcher()

	if got := d.Handle("claude please list files"); got != ActionCommand {
		t.Fatalf("action = %v, want %v", got, ActionCommand)
	}
	if len(cap.commands) != 1 || cap.commands[0] != "list files" {
		t.Errorf("commands = %v, want [list files]", cap.commands)
	}
}

func TestDispatcherListeningLatch(t *testing.T) {
	d, cap := newTestDispatcher()

	if got := d.Handle("hey claude"); got != ActionArmed {
		t.Fatalf("action = %v, want %v", got, ActionArmed)
	}
	if got := d.Handle("list files"); got != ActionCommand {
		t.Fatalf("action = %v, want %v", got, ActionCommand)
	}
	if len(cap.commands) != 1 || cap.commands[0] != "list files" {
		t.Fatalf("commands = %v, want exactly [list files]", cap.commands)
	}

	// latch cleared: an unrelated utterance is ignored now
	if got := d.Handle("another thing"); got != ActionNone {
		t.Errorf("action = %v, want %v", got, ActionNone)
	}
	if len(cap.commands) != 1 {
		t.Errorf("commands = %v, want exactly one", cap.commands)
	}
}

func TestDispatcherExit(t *testing.T) {
	d, cap := newTestDispatcher()

	if got := d.Handle("claude exit"); got != ActionExit {
		t.Fatalf("action = %v, want %v", got, ActionExit)
	}
	if cap.exits != 1 {
		t.Errorf("exits = %d, want 1", cap.exits)
	}
	if len(cap.commands) != 0 {
		t.Errorf("commands = %v, want none", cap.commands)
	}
}

func TestDispatcherExitNeedsWakePhrase(t *testing.T) {
	d, cap := newTestDispatcher()

	// "exit" without a wake phrase is not a shutdown request
	if got := d.Handle("exit the editor"); got != ActionNone {
		t.Errorf("action = %v, want %v", got, ActionNone)
	}
	if cap.exits != 0 {
		t.Errorf("exits = %d, want 0", cap.exits)
	}
}

func TestDispatcherIgnoresBlank(t *testing.T) {
	d, cap := newTestDispatcher()

	for _, in := range []string{"", "   ", "\t\n"} {
		if got := d.Handle(in); got != ActionNone {
			t.Errorf("%q: action = %v, want %v", in, got, ActionNone)
		}
	}
	if len(cap.commands) != 0 || cap.exits != 0 {
		t.Errorf("blank utterances caused side effects: %+v", cap)
	}
}

func TestDispatcherRunSequence(t *testing.T) {
	d, cap := newTestDispatcher("hey claude", "list files")

	// script exhaustion ends the loop
	if err := d.Run(context.Background()); err == nil {
		t.Fatal("expected error when transcriber fails")
	}
	if len(cap.commands) != 1 || cap.commands[0] != "list files" {
		t.Errorf("commands = %v, want exactly [list files]", cap.commands)
	}
}

func TestDispatcherRunHonorsContext(t *testing.T) {
	d, _ := newTestDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDispatcherSetMatcher(t *testing.T) {
	d, cap := newTestDispatcher()

	d.SetMatcher(NewMatcher([]string{"computer"}, nil))

	if got := d.Handle("claude list files"); got != ActionNone {
		t.Errorf("old phrase still matches after SetMatcher: %v", got)
	}
	if got := d.Handle("computer list files"); got != ActionCommand {
		t.Errorf("new phrase does not match: %v", got)
	}
	if len(cap.commands) != 1 || cap.commands[0] != "list files" {
		t.Errorf("commands = %v, want [list files]", cap.commands)
	}
}
