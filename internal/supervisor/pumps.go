package supervisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/edirooss/kpl-child-supervisor/internal/credentials"
)

// sendLoop takes messages off the outbound queue in arrival order and
// writes them to the child. Any I/O failure is fatal and retryable.
func (s *Supervisor) sendLoop() {
	for {
		msg, ok := s.outbound.Take()
		if !ok {
			return
		}
		if err := s.writer.Write(msg); err != nil {
			s.fail("send loop I/O failure", err, true)
			return
		}
	}
}

// receiveLoop reads one frame at a time and enqueues it for dispatch in
// receive order. The payload is copied out of the codec's reused buffer
// before enqueuing, since that buffer is overwritten on the next Read.
func (s *Supervisor) receiveLoop() {
	for {
		payload, err := s.reader.Read()
		if err != nil {
			if s.shutdown.Load() {
				return
			}
			s.fail("receive loop I/O failure", err, true)
			return
		}

		msg := make(Message, len(payload))
		copy(msg, payload)
		if !s.inbound.Put(msg) {
			return
		}
	}
}

// dispatchLoop hands inbound messages to the handler in receive order.
// A handler panic is recovered and logged, never fatal.
func (s *Supervisor) dispatchLoop() {
	for {
		msg, ok := s.inbound.Take()
		if !ok {
			return
		}
		s.safeDispatch(msg)
	}
}

func (s *Supervisor) safeDispatch(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler.OnMessage panicked", zap.Any("panic", r))
		}
	}()
	s.handler.OnMessage(msg)
}

// credentialRefreshLoop enqueues a primary and a metrics SetCredentials
// message every refresh cycle, interleaved into the same outbound queue
// as user traffic so the child observes refreshes in strict arrival
// order. Runtime errors are logged; the loop never calls fail itself.
//
// The outer !shutdown check ends the loop between cycles; a context
// cancelled during the sleep (teardown cancels it) ends the loop at once
// without waiting for that check.
func (s *Supervisor) credentialRefreshLoop(ctx context.Context) {
	for !s.shutdown.Load() {
		if err := s.refreshCredentialsOnce(ctx); err != nil {
			s.log.Warn("credential refresh failed", zap.Error(err))
		}

		timer := time.NewTimer(s.cfg.CredentialsRefreshDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Supervisor) refreshCredentialsOnce(ctx context.Context) error {
	primary, err := s.cfg.Credentials.Primary.Credentials(ctx)
	if err != nil {
		return err
	}
	s.outbound.Put(credentials.New(primary, false).Encode())

	metrics := primary
	if s.cfg.Credentials.Metrics != nil {
		metrics, err = s.cfg.Credentials.Metrics.Credentials(ctx)
		if err != nil {
			return err
		}
	}
	s.outbound.Put(credentials.New(metrics, true).Encode())
	return nil
}
