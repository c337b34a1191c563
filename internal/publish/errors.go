package publish

import (
	"fmt"
	"strings"
)

// Typed publish errors enabling structured handling without string parsing
// upstream.

type AuthError struct {
	Op     string
	Remote string
	Err    error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.Remote, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op     string
	Remote string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s remote not found %s: %v", e.Op, e.Remote, e.Err)
}
func (e *NotFoundError) Unwrap() error { return e.Err }

type DivergedError struct {
	Op     string
	Remote string
	Branch string
	Err    error
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("%s remote diverged %s@%s: %v", e.Op, e.Remote, e.Branch, e.Err)
}
func (e *DivergedError) Unwrap() error { return e.Err }

// classifyError wraps transport failures into typed variants when possible.
func classifyError(op, remote, branch string, err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "authentication failed") ||
		strings.Contains(l, "authorization") ||
		strings.Contains(l, "invalid credentials") ||
		strings.Contains(l, "could not read username"):
		return &AuthError{Op: op, Remote: remote, Err: err}
	case strings.Contains(l, "repository not found") ||
		strings.Contains(l, "repository does not exist"):
		return &NotFoundError{Op: op, Remote: remote, Err: err}
	case strings.Contains(l, "non-fast-forward") || strings.Contains(l, "diverged"):
		return &DivergedError{Op: op, Remote: remote, Branch: branch, Err: err}
	default:
		return err
	}
}

// isRetryable reports whether an error is transient enough to retry. Auth
// and not-found failures never are.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "connection reset"),
		strings.Contains(l, "connection refused"),
		strings.Contains(l, "remote hung up"),
		strings.Contains(l, "timeout"),
		strings.Contains(l, "i/o timeout"),
		strings.Contains(l, "temporary"),
		strings.Contains(l, "no route to host"),
		strings.Contains(l, "too many requests"):
		return true
	}
	return false
}
