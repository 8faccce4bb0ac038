package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_TypedError(t *testing.T) {
	err := New(KindPermission, "workspace.switch_org", "not allowed")
	assert.Equal(t, KindPermission, KindOf(err))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, KindPermission, KindOf(wrapped))
}

func TestKindOf_ContextDeadline(t *testing.T) {
	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
}

func TestKindOf_MessageHeuristics(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"client is offline", KindOffline},
		{"request timed out", KindTimeout},
		{"network unreachable", KindNetwork},
		{"connection refused", KindNetwork},
		{"internal error", KindServer},
		{"service unavailable", KindServer},
		{"permission denied", KindPermission},
		{"unauthorized", KindPermission},
		{"not authorized to manage org", KindPermission},
		{"validation failed: projectId", KindValidation},
		{"invalid argument", KindValidation},
		{"timer not found", KindNotFound},
		{"timer already running", KindConflict},
		{"something exploded", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(errors.New(tt.msg)))
		})
	}
}

func TestRetryable(t *testing.T) {
	retryable := []Kind{KindNetwork, KindTimeout, KindOffline, KindServer}
	terminal := []Kind{KindPermission, KindValidation, KindNotFound, KindConflict, KindUnknown}

	for _, k := range retryable {
		assert.True(t, Retryable(k), "kind %s should be retryable", k)
	}
	for _, k := range terminal {
		assert.False(t, Retryable(k), "kind %s should be terminal", k)
	}
}

func TestUserMessage_StructuredWins(t *testing.T) {
	err := New(KindValidation, "timer.start", "Pick a project first")
	assert.Equal(t, "Pick a project first", UserMessage(err))
}

func TestUserMessage_Fallbacks(t *testing.T) {
	assert.Contains(t, UserMessage(errors.New("network down")), "Connection problem")
	assert.Contains(t, UserMessage(errors.New("permission denied")), "permission")
	assert.Contains(t, UserMessage(errors.New("weird")), "Something went wrong")
	assert.Equal(t, "", UserMessage(nil))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "timer.stop: boom", Wrap(KindServer, "timer.stop", errors.New("boom")).Error())
	assert.Equal(t, "nope", New(KindPermission, "", "nope").Error())
	assert.Equal(t, string(KindUnknown), (&Error{Kind: KindUnknown}).Error())
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	assert.True(t, errors.Is(Wrap(KindNetwork, "op", inner), inner))
}
