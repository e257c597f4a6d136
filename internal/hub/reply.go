//go:generate go run go.uber.org/mock/mockgen -source=reply.go -destination=../mocks/mock_reply_generator.go -package=mocks
package hub

import "context"

// ReplyGenerator produces the assistant reply for a user message. The hub
// treats it as a capability so the echo policy can be swapped for a richer
// responder without touching the protocol state machine.
type ReplyGenerator interface {
	Generate(ctx context.Context, content string) (string, error)
}

// EchoReply is the deterministic default responder.
type EchoReply struct{}

func (EchoReply) Generate(_ context.Context, content string) (string, error) {
	return "echo: " + content, nil
}
