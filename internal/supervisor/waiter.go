package supervisor

import "fmt"

// waitChild blocks until the child exits, then classifies the exit as a
// fatal event. Exit code 1 is irrecoverable; any other code (including a
// Wait error with no process state) is retryable. If shutdown has
// already latched by the time the child exits, this is an expected exit
// from the Failure Arbiter's own termination and is not re-reported.
func (s *Supervisor) waitChild() {
	waitErr := s.cmd.Wait()
	close(s.childDone)

	if s.shutdown.Load() {
		return
	}

	code := -1
	if s.cmd.ProcessState != nil {
		code = s.cmd.ProcessState.ExitCode()
	}

	retryable := code != 1
	msg := fmt.Sprintf("child process exited with code %d", code)
	s.fail(msg, waitErr, retryable)
}
