package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAssignedWord(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name       string
		text       string
		wantOK     bool
		wantKind   MatchKind
		wantScore  float64
		confidence float64
	}{
		{name: "full phrase", text: "pandas hack wifi", wantOK: true, wantKind: KindFullPhrase, wantScore: 2.0, confidence: 0.9},
		{name: "full phrase inside chatter", text: "okay PANDAS hack wifi!!", wantOK: true, wantKind: KindFullPhrase, wantScore: 2.0, confidence: 0.9},
		{name: "last two words", text: "hack wifi", wantOK: true, wantKind: KindPartial, wantScore: 1.5, confidence: 0.9},
		{name: "first two words and trigger", text: "pandas hack the wifi", wantOK: true, wantKind: KindPartial, wantScore: 1.5, confidence: 0.9},
		{name: "trigger word", text: "wifi", wantOK: true, wantKind: KindTriggerWord, wantScore: 1.0, confidence: 0.9},
		{name: "fuzzy prefix", text: "wif", wantOK: true, wantKind: KindFuzzyPrefix, wantScore: 0.8, confidence: 0.81},
		{name: "unrelated word", text: "gravity", wantOK: false},
		{name: "prefix too short", text: "w", wantOK: false},
		{name: "empty", text: "  ...  ", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			action, ok := m.Match(Transcript{Text: tc.text, Confidence: 0.9}, "wifi")
			require.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantKind, action.Kind)
			assert.InDelta(t, tc.wantScore, action.Score, 1e-9)
			assert.InDelta(t, tc.confidence, action.Confidence, 1e-9)
			assert.Equal(t, BucketDynamic, action.Bucket)
			assert.Equal(t, "wifi", action.Command)
		})
	}
}

func TestMatchDynamicIgnoresThresholds(t *testing.T) {
	m := NewMatcher()
	action, ok := m.Match(Transcript{Text: "wifi", Confidence: 0.1}, "wifi")
	require.True(t, ok)
	assert.InDelta(t, 0.1, action.Confidence, 1e-9)
}

func TestMatchFuzzyCoverage(t *testing.T) {
	m := NewMatcher()
	// "spa" covers 3/9 of "spaghetti", under the 60% floor
	_, ok := m.Match(Transcript{Text: "spa", Confidence: 1}, "spaghetti")
	assert.False(t, ok)

	action, ok := m.Match(Transcript{Text: "spaghe", Confidence: 1}, "spaghetti")
	require.True(t, ok)
	assert.Equal(t, KindFuzzyPrefix, action.Kind)
}

func TestMatchGenericVocabulary(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name       string
		text       string
		confidence float64
		wantOK     bool
		command    string
		bucket     Bucket
	}{
		{name: "exact movement", text: "left", confidence: 0.8, wantOK: true, command: "left", bucket: BucketMovement},
		{name: "movement below threshold", text: "left", confidence: 0.69, wantOK: false},
		{name: "action needs 0.8", text: "jump", confidence: 0.75, wantOK: false},
		{name: "action at threshold", text: "jump now", confidence: 0.8, wantOK: true, command: "jump", bucket: BucketAction},
		{name: "game bucket", text: "heave", confidence: 0.6, wantOK: true, command: "heave", bucket: BucketGame},
		{name: "longer alias wins over go", text: "please go left", confidence: 0.9, wantOK: true, command: "left", bucket: BucketMovement},
		{name: "whole words only", text: "gopher", confidence: 0.9, wantOK: false},
		{name: "bare go", text: "go", confidence: 0.9, wantOK: true, command: "go", bucket: BucketGame},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			action, ok := m.Match(Transcript{Text: tc.text, Confidence: tc.confidence}, "wifi")
			require.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, KindGeneric, action.Kind)
			assert.Equal(t, tc.command, action.Command)
			assert.Equal(t, tc.bucket, action.Bucket)
			assert.Zero(t, action.Score)
		})
	}
}

func TestMatchWithoutTriggerWord(t *testing.T) {
	m := NewMatcher()
	_, ok := m.Match(Transcript{Text: "pandas hack wifi", Confidence: 1}, "")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "pandas hack wifi", Normalize("  Pandas, HACK\twifi! "))
	assert.Equal(t, "don't stop", Normalize("Don't stop."))
}
