// Package failure carries the tagged failure reasons shared by both tools.
// Every pipeline stage returns a *Error instead of printing and carrying on,
// so the command decides whether to halt and which exit code to use.
package failure

import (
	"errors"
	"fmt"
)

type Reason int

const (
	Unknown Reason = iota
	NetworkError
	NoMatch
	NotFound
	InstallFailed
	Unsupported
)

func (r Reason) String() string {
	switch r {
	case NetworkError:
		return "network error"
	case NoMatch:
		return "no match"
	case NotFound:
		return "not found"
	case InstallFailed:
		return "install failed"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// sentinels for errors.Is
var (
	ErrNetwork       = &Error{Reason: NetworkError}
	ErrNoMatch       = &Error{Reason: NoMatch}
	ErrNotFound      = &Error{Reason: NotFound}
	ErrInstallFailed = &Error{Reason: InstallFailed}
	ErrUnsupported   = &Error{Reason: Unsupported}
)

type Error struct {
	Reason Reason
	Op     string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	default:
		return e.Reason.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same reason, so the package sentinels work
// regardless of Op and Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Reason == e.Reason
}

func Network(op string, err error) error {
	return &Error{Reason: NetworkError, Op: op, Err: err}
}

func NoMatchf(op, format string, args ...any) error {
	return &Error{Reason: NoMatch, Op: op, Err: fmt.Errorf(format, args...)}
}

func NotFoundf(op, format string, args ...any) error {
	return &Error{Reason: NotFound, Op: op, Err: fmt.Errorf(format, args...)}
}

func Unsupportedf(op, format string, args ...any) error {
	return &Error{Reason: Unsupported, Op: op, Err: fmt.Errorf(format, args...)}
}

// ReasonOf returns the reason of the first *Error in err's chain.
func ReasonOf(err error) Reason {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return Unknown
}

// ExitCode maps an error to the process exit status used by the commands.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch ReasonOf(err) {
	case NoMatch, NotFound:
		return 2
	case NetworkError:
		return 3
	case InstallFailed:
		return 4
	case Unsupported:
		return 5
	default:
		return 1
	}
}
