package radio

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// DefaultCommandTimeout is the timeout applied to a radio command
// when the caller does not specify one.
const DefaultCommandTimeout = 5 * time.Second

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

// Run runs the command, bounded by the context deadline.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}

	cmdline := strings.Join(append([]string{name}, args...), " ")

	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return nil, fault.Wrap(ErrToolMissing,
			fctx.With(ctx, "command", cmdline),
			ftag.With(KindToolMissing),
			fmsg.With(err.Error()),
		)

	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return out, fault.Wrap(ErrTimeout,
			fctx.With(ctx, "command", cmdline),
			ftag.With(KindTimeout),
			fmsg.With("Command did not complete in time"),
		)
	}

	return out, fault.Wrap(ErrCommandFailed,
		fctx.With(ctx,
			"command", cmdline,
			"stderr", strings.TrimSpace(stderr.String()),
		),
		ftag.With(KindCommandFailed),
		fmsg.With(err.Error()),
	)
}

// command is a single invocation of a radio control utility.
type command struct {
	runner  Runner
	tool    string
	args    []string
	timeout time.Duration
}

// run runs the command with its timeout applied.
func (c command) run(ctx context.Context) (string, error) {
	if c.tool == "" {
		return "", fault.Wrap(ErrToolMissing,
			fctx.With(ctx, "args", strings.Join(c.args, " ")),
			ftag.With(KindToolMissing),
		)
	}

	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := c.runner.Run(ctx, c.tool, c.args...)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}
