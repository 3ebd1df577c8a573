package external

import "context"

// SendInput is the provider-agnostic description of one outbound email.
// Bodies arrive fully rendered; providers only transmit.
type SendInput struct {
	ToAddress string
	ToName    string
	Subject   string
	BodyHTML  string
}

// EmailProvider transmits a rendered email and returns the provider-side
// message ID when one is available.
type EmailProvider interface {
	Send(ctx context.Context, input SendInput) (string, error)
}
