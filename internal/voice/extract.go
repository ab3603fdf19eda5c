// Package voice turns transcribed utterances into session commands.
package voice

import (
	"sort"
	"strings"
)

// Matcher performs wake-phrase extraction against a fixed phrase list.
// Phrases are matched case-insensitively in longest-first order, so a phrase
// that is a substring of another ("claude" inside "hey claude") can never
// shadow the longer one regardless of configuration order.
type Matcher struct {
	phrases []string // lowercased, sorted longest-first
	fillers []string // lowercased leading filler words to strip
}

// NewMatcher builds a matcher from configured wake phrases and filler words.
func NewMatcher(phrases, fillers []string) *Matcher {
	m := &Matcher{}
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			m.phrases = append(m.phrases, p)
		}
	}
	// stable: equal-length phrases keep their configured order
	sort.SliceStable(m.phrases, func(i, j int) bool {
		return len(m.phrases[i]) > len(m.phrases[j])
	})
	for _, f := range fillers {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			m.fillers = append(m.fillers, f)
		}
	}
	return m
}

// Phrases returns the match order, longest first.
func (m *Matcher) Phrases() []string {
	return append([]string(nil), m.phrases...)
}

// ContainsWake reports whether any wake phrase occurs in the utterance.
func (m *Matcher) ContainsWake(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range m.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Extract finds the first wake phrase (in priority order) and returns the
// trailing text as the command, with leading commas, whitespace, and a single
// filler word ("please", "can you", ...) stripped. matched is false when no
// phrase occurs; matched with an empty command means the phrase was spoken
// alone and the caller should arm the listening latch.
func (m *Matcher) Extract(text string) (command string, matched bool) {
	lower := strings.ToLower(text)
	for _, p := range m.phrases {
		idx := strings.Index(lower, p)
		if idx < 0 {
			continue
		}
		tail := text[idx+len(p):]
		return m.stripLead(tail), true
	}
	return "", false
}

// stripLead removes leading punctuation/space and at most one filler word.
func (m *Matcher) stripLead(s string) string {
	s = strings.TrimLeft(s, ", \t")
	lower := strings.ToLower(s)
	for _, f := range m.fillers {
		if !strings.HasPrefix(lower, f) {
			continue
		}
		rest := s[len(f):]
		// word boundary: filler must end the string or be followed by a separator
		if rest != "" && rest[0] != ' ' && rest[0] != ',' && rest[0] != '\t' {
			continue
		}
		s = strings.TrimLeft(rest, ", \t")
		break
	}
	return strings.TrimSpace(s)
}
