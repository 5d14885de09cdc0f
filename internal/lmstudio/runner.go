package lmstudio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"mvdan.cc/sh/v3/shell"
)

// ErrCLINotFound means the CLI executable is not on PATH.
var ErrCLINotFound = errors.New("LM Studio CLI not found in PATH")

// Runner runs the server CLI. Command is the CLI argv prefix, e.g. ["lms"].
type Runner interface {
	// Run waits for the command and returns its stdout.
	Run(ctx context.Context, command []string, args ...string) (string, error)

	// Start launches the command in the background without waiting for it.
	Start(command []string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *zap.Logger
}

var _ Runner = (*ExecRunner)(nil)

// SplitCommand splits a configured CLI string using shell word rules.
func SplitCommand(cli string) ([]string, error) {
	fields, err := shell.Fields(cli, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid CLI command %q: %w", cli, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("CLI command is empty")
	}
	return fields, nil
}

func (r *ExecRunner) Run(ctx context.Context, command []string, args ...string) (string, error) {
	argv := append(append([]string{}, command[1:]...), args...)
	cmd := exec.CommandContext(ctx, command[0], argv...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger().Debug("running CLI", zap.String("command", command[0]), zap.Strings("args", argv))

	err := cmd.Run()
	if err != nil {
		return stdout.String(), wrapExecError(ctx, command[0], err, stderr.String())
	}
	return stdout.String(), nil
}

func (r *ExecRunner) Start(command []string, args ...string) error {
	argv := append(append([]string{}, command[1:]...), args...)
	cmd := exec.Command(command[0], argv...)
	cmd.SysProcAttr = detachedProcAttr()

	if err := cmd.Start(); err != nil {
		return wrapExecError(context.Background(), command[0], err, "")
	}

	r.logger().Debug("CLI started in background",
		zap.String("command", command[0]),
		zap.Strings("args", argv),
		zap.Int("pid", cmd.Process.Pid))

	// Reap the child so it does not linger as a zombie.
	go func() {
		_ = cmd.Wait()
	}()

	return nil
}

func (r *ExecRunner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func wrapExecError(ctx context.Context, name string, err error, stderr string) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrCLINotFound, name)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s timed out: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(stderr); msg != "" {
			return fmt.Errorf("%s exited with code %d: %s", name, exitErr.ExitCode(), msg)
		}
		return fmt.Errorf("%s exited with code %d: %w", name, exitErr.ExitCode(), err)
	}

	return fmt.Errorf("failed to run %s: %w", name, err)
}
