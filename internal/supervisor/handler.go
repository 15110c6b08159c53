package supervisor

// Message is an opaque, length-delimited byte payload produced/consumed
// by the caller and the child. The supervisor never interprets its
// contents beyond framing it.
type Message []byte

// MessageHandler is the single sink for inbound messages and terminal
// failures. OnMessage is invoked once per inbound frame, in receive
// order. OnError is invoked at most once, exactly once per Supervisor
// that ever starts running, with a *RetryableError or
// *IrrecoverableError.
//
// OnMessage must not panic in the ordinary course of business: a panic
// is recovered and logged, never fatal, but recovering from a handler
// panic is a safety net, not a sanctioned way to signal failure.
type MessageHandler interface {
	OnMessage(Message)
	OnError(error)
}
