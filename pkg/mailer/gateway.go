package mailer

import "context"

// Gateway is the outbound mail contract the core depends on. Send
// returns nil only when the transport confirmed the request; a failure
// carries the transport's reason so callers that care (the forgot flow)
// can propagate it verbatim.
type Gateway interface {
	Send(ctx context.Context, recipient, subject, text string) error
}
