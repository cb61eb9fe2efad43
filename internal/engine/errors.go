package engine

import (
	"context"
	"errors"
	"net"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
)

// Failure kinds reported on host states.
const (
	KindUnreachable   = "unreachable"
	KindTimeout       = "timeout"
	KindInvalidConfig = "invalid_config"
)

// callError carries the failing operation, the errdefs class and the
// underlying cause.
type callError struct {
	op    string
	class error
	err   error
}

func (e *callError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *callError) Unwrap() []error {
	return []error{e.class, e.err}
}

// classify wraps err with the errdefs class callers switch on. ctx is the
// per-call context, whose expiry marks the call as timed out.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *callError
	if errors.As(err, &ce) {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &callError{op: op, class: context.DeadlineExceeded, err: err}
	case errors.Is(err, context.Canceled):
		return &callError{op: op, class: context.Canceled, err: err}
	case cerrdefs.IsNotFound(err):
		return &callError{op: op, class: cerrdefs.ErrNotFound, err: err}
	case cerrdefs.IsInvalidArgument(err):
		return &callError{op: op, class: cerrdefs.ErrInvalidArgument, err: err}
	default:
		return &callError{op: op, class: cerrdefs.ErrUnavailable, err: err}
	}
}

// Kind labels a failure for display: timeout, invalid_config or unreachable.
func Kind(err error) string {
	switch {
	case cerrdefs.IsDeadlineExceeded(err):
		return KindTimeout
	case cerrdefs.IsInvalidArgument(err):
		return KindInvalidConfig
	default:
		return KindUnreachable
	}
}

// Suggestion maps a connection failure to a troubleshooting hint.
func Suggestion(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "is the docker daemon running"):
		return "Docker daemon may not be running or the port may be incorrect"
	case cerrdefs.IsDeadlineExceeded(err), strings.Contains(msg, "timeout"):
		return "Network connectivity issue or Docker daemon is not responding"
	case strings.Contains(msg, "permission denied"):
		return "Check Docker socket permissions or TLS certificate configuration"
	case strings.Contains(msg, "no such file"):
		return "Docker socket path may be incorrect"
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "tls"), strings.Contains(msg, "x509"):
		return "Check TLS certificate configuration and paths"
	case strings.Contains(msg, "ssh:"), strings.Contains(msg, "known_hosts"), strings.Contains(msg, "knownhosts"):
		return "Check SSH access with `ssh <host> docker version`; keys must be loaded (ssh-add -l) and the host present in known_hosts"
	case cerrdefs.IsInvalidArgument(err):
		return "Check the host address, scheme and certificate path"
	default:
		return "Check Docker daemon configuration and network connectivity"
	}
}
