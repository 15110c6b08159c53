package supervisor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/edirooss/kpl-child-supervisor/internal/pipe"
	"github.com/edirooss/kpl-child-supervisor/pkg/frame"
)

const (
	connectRetryInterval = 100 * time.Millisecond
	connectDeadline      = 2 * time.Second
)

// connect opens the read side of the in-pipe and the write side of the
// out-pipe, retrying with a fixed backoff for up to connectDeadline. On
// POSIX these opens block until the child opens the opposite end, which
// is why this must run concurrently with (or shortly after) child spawn.
func (s *Supervisor) connect(ctx context.Context) error {
	deadline := time.Now().Add(connectDeadline)
	var lastErr error

	for {
		in, out, err := s.tryConnect(ctx)
		if err == nil {
			s.inFile = in
			s.outFile = out
			s.reader = frame.NewReader(in, s.cfg.ReceiveBufferCap)
			s.writer = frame.NewWriter(out, s.cfg.ReceiveBufferCap)
			return nil
		}

		lastErr = err
		if time.Now().After(deadline) {
			return fmt.Errorf("channel connector: exhausted retries: %w", lastErr)
		}
		time.Sleep(connectRetryInterval)
	}
}

// tryConnect attempts a single connection, closing any partially-opened
// channel before returning an error.
func (s *Supervisor) tryConnect(ctx context.Context) (io.ReadCloser, io.WriteCloser, error) {
	in, err := pipe.OpenRead(ctx, s.paths.In)
	if err != nil {
		return nil, nil, fmt.Errorf("open in-pipe: %w", err)
	}

	out, err := pipe.OpenWrite(ctx, s.paths.Out)
	if err != nil {
		_ = in.Close()
		return nil, nil, fmt.Errorf("open out-pipe: %w", err)
	}

	return in, out, nil
}
