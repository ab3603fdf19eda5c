package voice

import (
	"testing"
)

var testPhrases = []string{"claude", "hey claude", "ok claude", "hi claude"}
var testFillers = []string{"please", "can you", "could you", "would you"}

func TestExtractCommandAfterPhrase(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	cmd, matched := m.Extract("claude list files")
	if !matched {
		t.Fatal("expected a wake-phrase match")
	}
	if cmd != "list files" {
		t.Errorf("command = %q, want %q", cmd, "list files")
	}
}

func TestExtractStripsFiller(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	cases := map[string]string{
		"claude please list files":     "list files",
		"claude, please list files":    "list files",
		"claude can you list files":    "list files",
		"Claude could you list files":  "list files",
		"hey claude would you help me": "help me",
	}
	for in, want := range cases {
		cmd, matched := m.Extract(in)
		if !matched {
			t.Errorf("%q: expected match", in)
			continue
		}
		if cmd != want {
			t.Errorf("%q: command = %q, want %q", in, cmd, want)
		}
	}
}

func TestExtractFillerNeedsWordBoundary(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	// "pleased" must not lose its "please" prefix
	cmd, matched := m.Extract("claude pleased to meet you")
	if !matched {
		t.Fatal("expected match")
	}
	if cmd != "pleased to meet you" {
		t.Errorf("command = %q, want %q", cmd, "pleased to meet you")
	}
}

func TestExtractPhraseAlone(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	for _, in := range []string{"claude", "Hey Claude", "claude, please"} {
		cmd, matched := m.Extract(in)
		if !matched {
			t.Errorf("%q: expected match", in)
			continue
		}
		if cmd != "" {
			t.Errorf("%q: command = %q, want empty", in, cmd)
		}
	}
}

func TestExtractNoPhrase(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	if _, matched := m.Extract("list the files"); matched {
		t.Error("expected no match without a wake phrase")
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	cmd, matched := m.Extract("CLAUDE List Files")
	if !matched {
		t.Fatal("expected match")
	}
	// trailing text keeps its original case
	if cmd != "List Files" {
		t.Errorf("command = %q, want %q", cmd, "List Files")
	}
}

func TestPhrasePriorityLongestFirst(t *testing.T) {
	// configured shortest-first; matching must still prefer "hey claude"
	m := NewMatcher([]string{"claude", "hey claude"}, nil)

	got := m.Phrases()
	want := []string{"hey claude", "claude"}
	if len(got) != len(want) {
		t.Fatalf("phrases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("phrases = %v, want %v", got, want)
		}
	}

	// the longer phrase consumes its own prefix: the command must not
	// retain part of the wake phrase
	cmd, matched := m.Extract("hey claude run tests")
	if !matched || cmd != "run tests" {
		t.Errorf("Extract = %q, %v; want %q, true", cmd, matched, "run tests")
	}
}

func TestContainsWake(t *testing.T) {
	m := NewMatcher(testPhrases, testFillers)

	if !m.ContainsWake("I said Claude exit") {
		t.Error("expected wake phrase detection")
	}
	if m.ContainsWake("nothing to see here") {
		t.Error("unexpected wake phrase detection")
	}
}
