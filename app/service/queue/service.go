package queue

import (
	"context"
	"log/slog"
	"sync"
	"varconf/app/model"

	"github.com/samber/do"
)

const bufferSize = 64

var _ do.Shutdownable = (*Service)(nil)

type Service struct {
	mu     sync.RWMutex
	closed bool
	queue  chan Message
}

type Message struct {
	SessionID string
	Decision  model.Decision
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan Message, bufferSize),
	}, nil
}

// Add enqueues the decision, waiting for room until ctx is done. It reports
// false when the queue is closed or ctx ends first.
func (s *Service) Add(ctx context.Context, sessionID string, decision model.Decision) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.queue <- Message{SessionID: sessionID, Decision: decision}:
		return true
	case <-ctx.Done():
		slog.Warn("Decision dropped", "session", sessionID, "error", ctx.Err())
		return false
	}
}

func (s *Service) Channel() <-chan Message {
	return s.queue
}

// Close stops accepting messages once pending Add calls return. Consumers
// drain what is buffered.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	close(s.queue)
}

func (s *Service) Shutdown() error {
	s.Close()

	return nil
}
