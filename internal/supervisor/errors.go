package supervisor

import (
	"errors"
	"fmt"
)

// ErrShutdown is returned synchronously by Add once the supervisor has
// latched into shutdown, distinct from the RetryableError/IrrecoverableError
// taxonomy delivered to MessageHandler.OnError.
var ErrShutdown = errors.New("supervisor: shutdown; add rejected")

// RetryableError is delivered to MessageHandler.OnError for failures
// terminal to this Supervisor instance but where the caller may
// construct a new one (channel I/O, protocol violations, child exit with
// a non-1 code, or a caller-initiated Destroy).
type RetryableError struct {
	Msg   string
	Cause error
}

func (e *RetryableError) Error() string { return formatError(e.Msg, e.Cause) }
func (e *RetryableError) Unwrap() error { return e.Cause }

// IrrecoverableError is delivered to MessageHandler.OnError for failures
// that signal the caller should stop reconstructing this supervisor
// (pipe provisioning failure, spawn/connect failure, child exit code 1).
type IrrecoverableError struct {
	Msg   string
	Cause error
}

func (e *IrrecoverableError) Error() string { return formatError(e.Msg, e.Cause) }
func (e *IrrecoverableError) Unwrap() error { return e.Cause }

func formatError(msg string, cause error) string {
	if cause != nil {
		return fmt.Sprintf("%s: %v", msg, cause)
	}
	return msg
}
