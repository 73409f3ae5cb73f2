// Package mail carries the notification boundary. The engine builds a
// Message per event and hands it to a Dispatcher; rendering and delivery
// live on the other side of that interface.
package mail

import "context"

// Kind identifies the template a consumer should render.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
	KindAdminSignup   Kind = "admin_signup"
)

// Message is one notification to deliver.
type Message struct {
	Kind    Kind   `json:"kind"`
	To      string `json:"to"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject,omitempty"`
	// Link is the action URL for verification and reset messages.
	Link string `json:"link,omitempty"`
}

// Dispatcher delivers messages. Send returning an error means the message
// was not accepted for delivery; the caller decides whether that fails the
// surrounding operation.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// NoOp discards every message.
type NoOp struct{}

func (NoOp) Send(context.Context, Message) error { return nil }

// Channel pushes messages onto a buffered channel, mainly for tests and
// in-process consumers. Send fails when the buffer is full.
type Channel struct {
	C chan Message
}

// NewChannel returns a Channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{C: make(chan Message, buffer)}
}

func (d *Channel) Send(ctx context.Context, msg Message) error {
	select {
	case d.C <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}
