package agent

import (
	"sync"

	"github.com/harlanhaskins/claude-agent-go/pkg/models"
)

// Stream is the lazy message sequence produced by one query. Messages
// arrive in causal order; the channel closes when the exchange finishes,
// is cancelled, or fails. After close, Err reports the terminal provider
// or attachment error, if any; cancellation and normal completion leave
// it nil.
type Stream struct {
	ch  chan models.Message
	mu  sync.Mutex
	err error
}

func newStream() *Stream {
	return &Stream{ch: make(chan models.Message)}
}

func closedStream() *Stream {
	s := newStream()
	close(s.ch)
	return s
}

// Messages returns the channel of streamed messages.
func (s *Stream) Messages() <-chan models.Message { return s.ch }

// Err returns the terminal error, valid after Messages is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
