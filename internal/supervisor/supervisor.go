// Package supervisor implements the core of this module: ownership of a
// long-lived native child process's lifecycle, a bidirectional
// length-prefixed framed transport over a pair of pipes, message pumps
// between an in-process producer API and the child, periodic credential
// refresh, and a single, clean transition into terminal failure.
package supervisor

import (
	"context"
	"io"
	"os/exec"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/kpl-child-supervisor/internal/logstream"
	"github.com/edirooss/kpl-child-supervisor/internal/pipe"
	"github.com/edirooss/kpl-child-supervisor/internal/queue"
	"github.com/edirooss/kpl-child-supervisor/pkg/frame"
)

// arbiterGrace bounds how long the Failure Arbiter waits for loops to
// finish cooperatively before proceeding with teardown regardless.
const arbiterGrace = 1 * time.Second

// Supervisor owns one child process and its transport for its entire
// lifetime. A Supervisor is used exactly once: once shutdown latches,
// construct a new one (New) to retry.
type Supervisor struct {
	log     *zap.Logger
	cfg     Config
	handler MessageHandler

	outbound *queue.Queue[Message]
	inbound  *queue.Queue[Message]

	shutdown atomic.Bool

	cmd       *exec.Cmd // nil in the pre-made-pipes testing path without a mock child
	childDone chan struct{}

	paths       pipe.Paths
	pipeCleanup func()

	inFile  io.ReadCloser
	outFile io.WriteCloser
	reader  *frame.Reader
	writer  *frame.Writer

	stdoutBuf, stderrBuf       *logstream.RingBuffer
	stdoutReader, stderrReader *logstream.Reader

	group  *errgroup.Group
	cancel context.CancelFunc
}

func newSupervisor(log *zap.Logger, cfg Config, handler MessageHandler, paths pipe.Paths, pipeCleanup func()) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	if pipeCleanup == nil {
		pipeCleanup = func() {}
	}
	return &Supervisor{
		log:         log,
		cfg:         cfg,
		handler:     handler,
		outbound:    queue.New[Message](),
		inbound:     queue.New[Message](),
		paths:       paths,
		pipeCleanup: pipeCleanup,
	}
}

// New validates cfg, provisions pipes, spawns the child, connects the
// transport, and starts all message pumps. If cfg is invalid it returns a
// nil Supervisor and the validation error, and handler.OnError is not
// called. On any later startup fatal it returns a non-nil Supervisor that
// has already latched into shutdown, together with the underlying error;
// handler.OnError receives that error wrapped in an *IrrecoverableError.
func New(ctx context.Context, log *zap.Logger, cfg Config, handler MessageHandler) (*Supervisor, error) {
	if cfg.ReceiveBufferCap == 0 {
		cfg.ReceiveBufferCap = frame.MaxPayloadSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := newSupervisor(log, cfg, handler, pipe.Paths{}, nil)

	factory := pipe.NewFactory()
	paths, cleanup, err := factory.Create(cfg.WorkDir)
	if err != nil {
		s.fail("failed to create pipes", err, false)
		return s, err
	}
	s.paths = paths
	s.pipeCleanup = cleanup

	primary, err := cfg.Credentials.Primary.Credentials(ctx)
	if err != nil {
		s.fail("failed to obtain initial primary credentials", err, false)
		return s, err
	}
	metrics := primary
	if cfg.Credentials.Metrics != nil {
		metrics, err = cfg.Credentials.Metrics.Credentials(ctx)
		if err != nil {
			s.fail("failed to obtain initial metrics credentials", err, false)
			return s, err
		}
	}

	if err := s.launch(primary, metrics); err != nil {
		s.fail("failed to spawn child process", err, false)
		return s, err
	}
	s.childDone = make(chan struct{})

	if err := s.connect(ctx); err != nil {
		s.fail("failed to connect channels", err, false)
		return s, err
	}

	s.startPumps()
	return s, nil
}

// NewForTesting binds a Supervisor to pre-made pipe paths without
// spawning a child, per the protected-constructor testing path: the
// caller is responsible for having provisioned paths (e.g. via
// pipe.NewFactory().Create) and, optionally, for having already started
// a mock child process that speaks the frame protocol over them. When
// mockChild is non-nil, its exit is observed exactly like a real child's.
func NewForTesting(log *zap.Logger, cfg Config, handler MessageHandler, paths pipe.Paths, mockChild *exec.Cmd) (*Supervisor, error) {
	if cfg.ReceiveBufferCap == 0 {
		cfg.ReceiveBufferCap = frame.MaxPayloadSize
	}

	s := newSupervisor(log, cfg, handler, paths, nil)
	if mockChild != nil {
		s.cmd = mockChild
		s.childDone = make(chan struct{})
	}

	if err := s.connect(context.Background()); err != nil {
		s.fail("failed to connect channels", err, false)
		return s, err
	}

	s.startPumps()
	return s, nil
}

// startPumps launches the four message pumps plus, when present, the log
// readers and the child waiter, all sharing one cancellation edge.
func (s *Supervisor) startPumps() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { s.sendLoop(); return nil })
	g.Go(func() error { s.receiveLoop(); return nil })
	g.Go(func() error { s.dispatchLoop(); return nil })
	g.Go(func() error { s.credentialRefreshLoop(ctx); return nil })
	if s.stdoutReader != nil {
		g.Go(func() error { s.stdoutReader.Run(); return nil })
	}
	if s.stderrReader != nil {
		g.Go(func() error { s.stderrReader.Run(); return nil })
	}
	if s.cmd != nil {
		g.Go(func() error { s.waitChild(); return nil })
	}
	s.group = g
}

// fail is the Failure Arbiter's single entry point. It is guarded by a
// compare-and-swap on shutdown: only the first caller across any number
// of concurrent fatal events performs teardown and invokes
// handler.OnError — every later caller returns immediately (I1, I4).
//
// Teardown itself runs on a separate goroutine so that a pump loop
// calling fail from inside s.group can return and exit promptly instead
// of blocking inside fail while s.group.Wait() waits on that very
// goroutine to finish.
func (s *Supervisor) fail(message string, cause error, retryable bool) {
	if !s.shutdown.CompareAndSwap(false, true) {
		return
	}
	go s.teardown(message, cause, retryable)
}

func (s *Supervisor) teardown(message string, cause error, retryable bool) {
	if s.stdoutReader != nil {
		s.stdoutReader.PrepareForShutdown()
	}
	if s.stderrReader != nil {
		s.stderrReader.PrepareForShutdown()
	}

	if s.cmd != nil && s.cmd.Process != nil {
		terminateChild(s.cmd.Process.Pid, s.childDone)
	}

	s.outbound.Close()
	s.inbound.Close()
	if s.cancel != nil {
		s.cancel()
	}

	if s.group != nil {
		done := make(chan struct{})
		go func() { _ = s.group.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(arbiterGrace):
			s.log.Warn("loops did not finish within grace period; proceeding with teardown")
		}
	}

	if s.inFile != nil {
		_ = s.inFile.Close()
	}
	if s.outFile != nil {
		_ = s.outFile.Close()
	}
	s.pipeCleanup()

	var final error
	if retryable {
		final = &RetryableError{Msg: message, Cause: cause}
	} else {
		final = &IrrecoverableError{Msg: message, Cause: cause}
	}
	s.handler.OnError(final)
}

// Add enqueues msg for delivery to the child, in arrival order. It
// rejects synchronously once the supervisor has latched into shutdown.
func (s *Supervisor) Add(msg Message) error {
	if s.shutdown.Load() {
		return ErrShutdown
	}
	if !s.outbound.Put(msg) {
		return ErrShutdown
	}
	return nil
}

// Destroy triggers the Failure Arbiter with a retryable "Destroy is
// called" error. Idempotent: calling it any number of times results in
// exactly one handler.OnError call.
func (s *Supervisor) Destroy() {
	s.fail("Destroy is called", nil, true)
}

// QueueSize reports the current outbound queue depth.
func (s *Supervisor) QueueSize() int { return s.outbound.Len() }

// Pid reports the child's process ID, if one was ever spawned.
func (s *Supervisor) Pid() (int64, bool) {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0, false
	}
	return int64(s.cmd.Process.Pid), true
}

// InPipePath returns the filesystem path (or named-pipe name) of the
// in-pipe, for diagnostics.
func (s *Supervisor) InPipePath() string { return s.paths.In }

// OutPipePath returns the filesystem path (or named-pipe name) of the
// out-pipe, for diagnostics.
func (s *Supervisor) OutPipePath() string { return s.paths.Out }

// Executable returns the configured child executable path.
func (s *Supervisor) Executable() string { return s.cfg.Executable }

// WorkDir returns the configured pipe working directory.
func (s *Supervisor) WorkDir() string { return s.cfg.WorkDir }

// TailStdout returns up to n of the most recent child stdout lines.
func (s *Supervisor) TailStdout(n int) []string {
	if s.stdoutBuf == nil {
		return nil
	}
	return s.stdoutBuf.Read(n)
}

// TailStderr returns up to n of the most recent child stderr lines.
func (s *Supervisor) TailStderr(n int) []string {
	if s.stderrBuf == nil {
		return nil
	}
	return s.stderrBuf.Read(n)
}
