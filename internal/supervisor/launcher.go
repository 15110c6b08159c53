package supervisor

import (
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/edirooss/kpl-child-supervisor/internal/credentials"
	"github.com/edirooss/kpl-child-supervisor/internal/logstream"
	"github.com/edirooss/kpl-child-supervisor/pkg/childargs"
)

// launch assembles the child's argv, spawns it with an augmented
// environment, and creates its stdout/stderr log readers (startPumps
// runs them).
func (s *Supervisor) launch(primary, metrics credentials.Credentials) error {
	argv := childargs.NewBuilder(s.cfg.Executable).
		WithString("-o", s.paths.Out).
		WithString("-i", s.paths.In).
		WithHex("-c", s.cfg.ConfigPayload).
		WithHex("-k", credentials.New(primary, false).Encode()).
		WithHex("-w", credentials.New(metrics, true).Encode()).
		WithFlag("-t").
		BuildArgv()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = mergeEnv(os.Environ(), s.cfg.Env)
	setPlatformProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn failed: %w", err)
	}

	s.cmd = cmd
	s.stdoutBuf = new(logstream.RingBuffer)
	s.stderrBuf = new(logstream.RingBuffer)
	s.stdoutReader = logstream.NewReader(func(line string) { s.log.Info(line) }, s.stdoutBuf, stdout)
	s.stderrReader = logstream.NewReader(func(line string) { s.log.Warn(line) }, s.stderrBuf, stderr)

	s.log.Info("child process spawned", zap.Int("pid", cmd.Process.Pid), zap.Strings("argv", argv))
	return nil
}

// mergeEnv merges overrides into base, with overrides taking precedence.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := append([]string{}, base...)
	for k, v := range overrides {
		out = append(out, k+"="+v)
	}
	return out
}
