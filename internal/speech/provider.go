// Package speech manages per-player speech-to-text streams. The recognizer
// itself is external; Provider is the seam it plugs into.
package speech

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aaronzipp/voice-party/internal/voice"
)

// Provider opens one recognition stream per player
type Provider interface {
	Open(ctx context.Context, playerID string) (Stream, error)
}

// Stream is a live recognition session. Transcripts is closed when the
// stream ends.
type Stream interface {
	Send(frame []byte) error
	Transcripts() <-chan voice.Transcript
	Close() error
}

// TextProvider treats every frame as an already finalized UTF-8 transcript.
// It stands in for a real recognizer during development and in tests.
type TextProvider struct{}

// Open implements Provider
func (TextProvider) Open(ctx context.Context, playerID string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &textStream{out: make(chan voice.Transcript, 16)}, nil
}

type textStream struct {
	mu     sync.Mutex
	out    chan voice.Transcript
	closed bool
}

func (s *textStream) Send(frame []byte) error {
	if !utf8.Valid(frame) {
		return ErrMalformedFrame
	}
	text := strings.TrimSpace(string(frame))
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	select {
	case s.out <- voice.Transcript{Text: text, Confidence: 1.0}:
	default:
	}
	return nil
}

func (s *textStream) Transcripts() <-chan voice.Transcript {
	return s.out
}

func (s *textStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	return nil
}
