// Package delivery defines how announcements reach a chat channel.
package delivery

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// ErrDeliveryFailed is matched by every failed send
var ErrDeliveryFailed = errors.New("delivery failed")

// Sender posts one message to a channel. The subject is the topic or
// title of the message, the body is Markdown.
type Sender interface {
	SendMessage(ctx context.Context, channel, subject, body string) error
}

// Error describes a failed send
type Error struct {
	Backend string
	Channel string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s delivery to %q failed: %v", e.Backend, e.Channel, e.Err)
}

// Unwrap returns the backend error
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrDeliveryFailed
func (e *Error) Is(target error) bool { return target == ErrDeliveryFailed }

// Failed wraps a backend error as a delivery failure
func Failed(backend, channel string, err error) error {
	return &Error{Backend: backend, Channel: channel, Err: err}
}

// Console writes messages to a writer instead of a chat service
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a sender that prints to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// SendMessage prints the message framed by its channel and subject
func (c *Console) SendMessage(ctx context.Context, channel, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return Failed("console", channel, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "=== %s > %s ===\n%s\n\n", channel, subject, body); err != nil {
		return Failed("console", channel, err)
	}
	return nil
}
