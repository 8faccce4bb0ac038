package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// fakeSleeper records requested delays without waiting.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	return ctx.Err()
}

// recordingNotifier counts error notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (r *recordingNotifier) Success(string)                           {}
func (r *recordingNotifier) Interrupt(string)                         {}
func (r *recordingNotifier) BreakStarted()                            {}
func (r *recordingNotifier) BreakEnded()                              {}
func (r *recordingNotifier) BudgetWarning(string, types.BudgetReport) {}

func (r *recordingNotifier) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	sl := &fakeSleeper{}
	p := Default()
	p.Sleep = sl.sleep

	attempts := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sl.delays)
}

func TestDo_TwoNetworkFailuresThenSuccess(t *testing.T) {
	sl := &fakeSleeper{}
	p := Default()
	p.Sleep = sl.sleep

	attempts := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		if attempts <= 2 {
			return errors.New("network unreachable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sl.delays)
}

func TestDo_DelaysCappedAtMaxDelay(t *testing.T) {
	sl := &fakeSleeper{}
	p := Policy{
		MaxRetries: 5,
		BaseDelay:  4 * time.Second,
		MaxDelay:   10 * time.Second,
		Sleep:      sl.sleep,
	}

	netErr := apperr.New(apperr.KindNetwork, "test", "")
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		return netErr
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}, sl.delays)
}

func TestDo_ExhaustionReturnsLastError(t *testing.T) {
	sl := &fakeSleeper{}
	p := Default()
	p.Sleep = sl.sleep

	attempts := 0
	last := errors.New("network flake 4")
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		if attempts == 4 {
			return last
		}
		return errors.New("network flake")
	})

	assert.Equal(t, last, err)
	assert.Equal(t, 4, attempts) // 1 initial + 3 retries
	assert.Len(t, sl.delays, 3)
}

func TestDo_TerminalErrorNotRetried(t *testing.T) {
	sl := &fakeSleeper{}
	n := &recordingNotifier{}
	p := Default()
	p.Sleep = sl.sleep
	p.Notifier = n

	perm := apperr.New(apperr.KindPermission, "workspace.switch_org", "not allowed")
	attempts := 0
	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		return perm
	})

	assert.Equal(t, perm, errorsUnwrapAll(err))
	assert.Equal(t, 1, attempts)
	assert.Empty(t, sl.delays)
	assert.Equal(t, []string{"not allowed"}, n.errors)
}

func TestDo_ExhaustionNotifies(t *testing.T) {
	sl := &fakeSleeper{}
	n := &recordingNotifier{}
	p := Default()
	p.Sleep = sl.sleep
	p.Notifier = n

	err := p.Do(context.Background(), "test", func(ctx context.Context) error {
		return errors.New("connection reset")
	})

	require.Error(t, err)
	require.Len(t, n.errors, 1)
	assert.Contains(t, n.errors[0], "Connection problem")
}

func TestDo_OnRetryHookObservesAttempts(t *testing.T) {
	sl := &fakeSleeper{}
	p := Default()
	p.Sleep = sl.sleep

	var hookAttempts []int
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		hookAttempts = append(hookAttempts, attempt)
	}

	_ = p.Do(context.Background(), "test", func(ctx context.Context) error {
		return errors.New("timeout")
	})

	assert.Equal(t, []int{0, 1, 2}, hookAttempts)
}

func TestForHeartbeat_CapsRetries(t *testing.T) {
	sl := &fakeSleeper{}
	n := &recordingNotifier{}
	p := Default()
	p.MaxRetries = 10
	p.Sleep = sl.sleep
	p.Notifier = n

	hb := p.ForHeartbeat()

	attempts := 0
	err := hb.Do(context.Background(), "timer.heartbeat", func(ctx context.Context) error {
		attempts++
		return errors.New("network blip")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // 1 initial + 2 retries
	// Heartbeat failures never become notifications.
	assert.Empty(t, n.errors)
}

func TestDo_ContextCancelStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Default()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}

	boom := errors.New("network down")
	attempts := 0
	err := p.Do(ctx, "test", func(ctx context.Context) error {
		attempts++
		return boom
	})

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, attempts)
}

// errorsUnwrapAll unwraps to the innermost error for identity comparison.
func errorsUnwrapAll(err error) error {
	for {
		u := errors.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
}
