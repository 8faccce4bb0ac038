// Package apperr classifies backend and local errors into the categories
// the client reacts to: retryable network failures, terminal permission and
// validation errors, and everything in between.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is the error category.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindOffline    Kind = "offline"
	KindServer     Kind = "server"
	KindPermission Kind = "permission"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindUnknown    Kind = "unknown"
)

// Error is a classified error with an optional user-facing message.
type Error struct {
	Kind Kind
	// Op is the logical operation that failed, e.g. "timer.start".
	Op string
	// Message is a user-facing description, when the backend supplied one.
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the classified kind of err, falling back to heuristic
// classification for untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	// Untyped backend errors carry their category in the message. This
	// mirrors the original client's string-based classification.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "offline"), strings.Contains(msg, "no internet"):
		return KindOffline
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return KindTimeout
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection"):
		return KindNetwork
	case strings.Contains(msg, "server error"), strings.Contains(msg, "internal error"), strings.Contains(msg, "unavailable"):
		return KindServer
	case strings.Contains(msg, "permission"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "forbidden"), strings.Contains(msg, "not authorized"):
		return KindPermission
	case strings.Contains(msg, "validation"), strings.Contains(msg, "invalid"):
		return KindValidation
	case strings.Contains(msg, "not found"):
		return KindNotFound
	case strings.Contains(msg, "conflict"), strings.Contains(msg, "already running"):
		return KindConflict
	}
	return KindUnknown
}

// Retryable reports whether an error of this kind is worth retrying.
// Permission, validation, not-found and conflict errors are terminal.
func Retryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindTimeout, KindOffline, KindServer:
		return true
	}
	return false
}

// IsRetryable reports whether err should be retried.
func IsRetryable(err error) bool {
	return Retryable(KindOf(err))
}

// IsPermission reports whether err is a permission error.
func IsPermission(err error) bool {
	return KindOf(err) == KindPermission
}

// UserMessage derives a user-facing message from err. Structured messages
// from the backend win; otherwise a generic fallback per category.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}

	switch KindOf(err) {
	case KindOffline:
		return "You appear to be offline. Changes will not be saved."
	case KindTimeout, KindNetwork:
		return "Connection problem. Please try again."
	case KindServer:
		return "The server is having trouble. Please try again later."
	case KindPermission:
		return "You don't have permission to do that."
	case KindValidation:
		return "That request was invalid."
	case KindNotFound:
		return "The requested item no longer exists."
	case KindConflict:
		return "That conflicts with the current state. Refresh and try again."
	}
	return "Something went wrong. Please try again."
}
