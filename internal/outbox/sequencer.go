// Package outbox serializes outbound chat messages. One goroutine drains a
// queue of reply sequences, so message order is preserved even when several
// conversations complete concurrently.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sender delivers a single text message to a conversation.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, text string) error
}

type job struct {
	conversationID string
	messages       []string
}

// Sequencer queues multi-part replies and sends them one message at a time
// with a minimum gap between consecutive messages.
type Sequencer struct {
	sender Sender
	gap    time.Duration
	queue  chan job
	done   chan struct{}

	sleep func(time.Duration) // stubbed in tests
}

// NewSequencer starts the drain goroutine. Close must be called to flush and
// stop it.
func NewSequencer(sender Sender, gap time.Duration) (*Sequencer, error) {
	if sender == nil {
		return nil, errors.New("outbox: sender must not be nil")
	}
	if gap < 0 {
		gap = 0
	}
	s := &Sequencer{
		sender: sender,
		gap:    gap,
		queue:  make(chan job, 128),
		done:   make(chan struct{}),
		sleep:  time.Sleep,
	}
	go s.run()
	return s, nil
}

// Send enqueues one logical reply. The messages are delivered in order,
// after everything enqueued before them.
func (s *Sequencer) Send(ctx context.Context, conversationID string, msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	select {
	case s.queue <- job{conversationID: conversationID, messages: msgs}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting replies, waits for the queue to drain and returns.
func (s *Sequencer) Close() {
	close(s.queue)
	<-s.done
}

func (s *Sequencer) run() {
	defer close(s.done)
	for j := range s.queue {
		for i, msg := range j.messages {
			if i > 0 {
				s.sleep(s.gap)
			}
			if err := s.sender.SendMessage(context.Background(), j.conversationID, msg); err != nil {
				slog.Error("outbox: send failed", "conversationId", j.conversationID, "err", err)
			}
		}
	}
}
