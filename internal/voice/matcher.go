// Package voice turns speech transcripts into scored game actions.
package voice

import (
	"sort"
	"strings"
	"unicode"

	"github.com/aaronzipp/voice-party/internal/game"
)

// Match scores, highest specificity first
const (
	ScoreFullPhrase  = 2.0
	ScorePartial     = 1.5
	ScoreTriggerWord = 1.0
	ScoreFuzzyPrefix = 0.8

	fuzzyConfidencePenalty = 0.9
	fuzzyMinCoverage       = 0.6
)

// MatchKind says how a transcript matched
type MatchKind string

const (
	KindFullPhrase  MatchKind = "full_phrase"
	KindPartial     MatchKind = "partial"
	KindTriggerWord MatchKind = "trigger_word"
	KindFuzzyPrefix MatchKind = "fuzzy_prefix"
	KindGeneric     MatchKind = "generic"
)

// Transcript is one finalized line from a speech-to-text stream
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ScoredAction is the result of classifying a transcript. Score is the force
// multiplier; generic vocabulary hits carry a zero score.
type ScoredAction struct {
	Command    string    `json:"command"`
	Kind       MatchKind `json:"kind"`
	Bucket     Bucket    `json:"bucket"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
}

type alias struct {
	text  string
	words []string
	entry *vocabEntry
}

// Matcher classifies transcripts. It holds no mutable state and is safe for
// concurrent use.
type Matcher struct {
	thresholds map[Bucket]float64
	aliases    []alias // longest first
}

// NewMatcher builds a matcher over the fixed vocabulary
func NewMatcher() *Matcher {
	m := &Matcher{thresholds: DefaultThresholds}
	for i := range vocabulary {
		e := &vocabulary[i]
		for _, a := range e.Aliases {
			m.aliases = append(m.aliases, alias{text: a, words: strings.Fields(a), entry: e})
		}
	}
	sort.SliceStable(m.aliases, func(i, j int) bool {
		if len(m.aliases[i].words) != len(m.aliases[j].words) {
			return len(m.aliases[i].words) > len(m.aliases[j].words)
		}
		return len(m.aliases[i].text) > len(m.aliases[j].text)
	})
	return m
}

// Match classifies one transcript from the player assigned triggerWord. It
// returns false when nothing matched or the match fell below its threshold.
func (m *Matcher) Match(t Transcript, triggerWord string) (ScoredAction, bool) {
	text := Normalize(t.Text)
	if text == "" {
		return ScoredAction{}, false
	}
	if word := Normalize(triggerWord); word != "" {
		if action, ok := matchAssigned(text, word, t.Confidence); ok {
			return action, true
		}
	}
	return m.matchGeneric(text, t.Confidence)
}

func matchAssigned(text, word string, confidence float64) (ScoredAction, bool) {
	action := ScoredAction{Command: word, Bucket: BucketDynamic, Confidence: confidence}

	if phrase, ok := game.PhraseFor(word); ok {
		if strings.Contains(text, phrase) {
			action.Kind, action.Score = KindFullPhrase, ScoreFullPhrase
			return action, true
		}
		words := strings.Fields(phrase)
		if n := len(words); n >= 3 {
			lastTwo := words[n-2] + " " + words[n-1]
			firstTwo := words[0] + " " + words[1]
			if strings.Contains(text, lastTwo) ||
				(strings.Contains(text, firstTwo) && strings.Contains(text, word)) {
				action.Kind, action.Score = KindPartial, ScorePartial
				return action, true
			}
		}
	}

	if strings.Contains(text, word) {
		action.Kind, action.Score = KindTriggerWord, ScoreTriggerWord
		return action, true
	}

	// truncated transcription, e.g. "wif" for "wifi"
	if len(word) >= 3 && len(text) >= 2 && strings.HasPrefix(word, text) &&
		float64(len(text))/float64(len(word)) >= fuzzyMinCoverage {
		action.Kind, action.Score = KindFuzzyPrefix, ScoreFuzzyPrefix
		action.Confidence = confidence * fuzzyConfidencePenalty
		return action, true
	}
	return ScoredAction{}, false
}

func (m *Matcher) matchGeneric(text string, confidence float64) (ScoredAction, bool) {
	hit := m.lookup(text)
	if hit == nil {
		return ScoredAction{}, false
	}
	if confidence < m.thresholds[hit.Bucket] {
		return ScoredAction{}, false
	}
	return ScoredAction{
		Command:    hit.Command,
		Kind:       KindGeneric,
		Bucket:     hit.Bucket,
		Confidence: confidence,
	}, true
}

// lookup finds the vocabulary entry for text: an exact alias first, then the
// longest alias present as whole words, so "go left" never resolves to "go".
func (m *Matcher) lookup(text string) *vocabEntry {
	for _, a := range m.aliases {
		if a.text == text {
			return a.entry
		}
	}
	words := strings.Fields(text)
	for _, a := range m.aliases {
		if containsWords(words, a.words) {
			return a.entry
		}
	}
	return nil
}

func containsWords(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, w := range needle {
			if haystack[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

// Normalize lower-cases text, strips punctuation and collapses whitespace
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'':
			return unicode.ToLower(r)
		case unicode.IsSpace(r), unicode.IsPunct(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
