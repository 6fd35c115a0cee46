package message

import (
	"log/slog"
	"sync"
)

// LogSender writes messages to slog. Used for players without a live connection.
type LogSender struct {
	Player string
}

// SendMessage logs msg with the player name attached.
func (s LogSender) SendMessage(msg Message) {
	slog.Info("player message",
		"player", s.Player,
		"severity", msg.Severity.String(),
		"text", msg.Text)
}

// Outbox buffers messages in memory until drained.
// Safe for concurrent use.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
}

// NewOutbox creates an empty Outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// SendMessage appends msg to the outbox.
func (o *Outbox) SendMessage(msg Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
}

// Messages returns a copy of the buffered messages.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Drain returns the buffered messages and empties the outbox.
func (o *Outbox) Drain() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.messages
	o.messages = nil
	return out
}

// Len returns the number of buffered messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}
