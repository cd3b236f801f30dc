// Package transport performs the actual message delivery. The campaign
// loop depends only on the Transport interface; SMTP and the Gmail API are
// swappable implementations.
package transport

import "context"

// Message is one outbound email
type Message struct {
	From           string
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// Transport sends messages. Implementations classify failures with the
// pkg/errors taxonomy so the campaign loop can tell transient trouble
// (retry) from structural rejection (fail the item).
type Transport interface {
	Send(ctx context.Context, msg Message) error
}
