// Package mock provides an in-memory email sender for tests.
package mock

import (
	"context"
	"sync"

	"github.com/DukeRupert/multitenancy/internal/email"
)

// Message is a recorded email.
type Message struct {
	Campaign string
	To       string
	Name     string
}

// Sender records every message instead of sending it.
type Sender struct {
	mu sync.Mutex

	// Configurable responses for testing
	Error error

	// Call tracking for testing
	Messages []Message
}

func New() *Sender {
	return &Sender{}
}

func (s *Sender) SendNoEventIngestionFollowUp(ctx context.Context, to, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Error != nil {
		return s.Error
	}
	s.Messages = append(s.Messages, Message{
		Campaign: "no_event_ingestion_follow_up",
		To:       to,
		Name:     name,
	})
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *Sender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.Messages...)
}

var _ email.Sender = (*Sender)(nil)
