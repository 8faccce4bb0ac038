// Package retry wraps backend calls with bounded exponential-backoff retry.
// Retryable and terminal errors are told apart by apperr; terminal errors
// abort immediately, retryable ones wait baseDelay*2^attempt (capped) between
// attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/notify"
)

const (
	// DefaultMaxRetries is the default number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the initial interval for exponential backoff.
	DefaultBaseDelay = time.Second
	// DefaultMaxDelay caps the interval between attempts.
	DefaultMaxDelay = 10 * time.Second
	// HeartbeatMaxRetries bounds background heartbeat chatter regardless of
	// the configured maximum.
	HeartbeatMaxRetries = 2
)

// Policy configures retry behavior for one class of operations.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// Notifier, when set, surfaces a non-blocking notification for
	// terminal user-relevant failures.
	Notifier notify.Notifier

	// OnRetry is called before each wait with the zero-based attempt
	// index, the computed delay and the error that triggered the retry.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep waits for d or until ctx is done. Defaults to a timer-based
	// wait; tests inject a fake.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the default policy.
func Default() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
	}
}

// ForHeartbeat derives a policy for heartbeat-class operations: retries are
// capped at HeartbeatMaxRetries and failures never become notifications.
func (p Policy) ForHeartbeat() Policy {
	hb := p
	if hb.MaxRetries > HeartbeatMaxRetries {
		hb.MaxRetries = HeartbeatMaxRetries
	}
	hb.Notifier = nil
	return hb
}

// newBackOff builds the interval sequence baseDelay*2^attempt capped at
// MaxDelay. Randomization is off so the sequence is deterministic.
func (p Policy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.MaxElapsedTime = 0
	b.RandomizationFactor = 0
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithMaxRetries(b, uint64(p.MaxRetries))
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn, retrying retryable failures per the policy. Terminal errors
// are returned immediately. After retry exhaustion the last error is
// returned. op names the logical call for logging.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}

	bo := p.newBackOff()

	var lastErr error
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := apperr.KindOf(err)
		if !apperr.Retryable(kind) {
			logging.Warn().
				Str("op", op).
				Str("kind", string(kind)).
				Err(err).
				Msg("terminal error, not retrying")
			p.notifyTerminal(err)
			return err
		}

		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			break
		}

		logging.Debug().
			Str("op", op).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("retrying after failure")

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := p.sleep(ctx, delay); serr != nil {
			return lastErr
		}
	}

	logging.Warn().Str("op", op).Err(lastErr).Msg("retries exhausted")
	p.notifyTerminal(lastErr)
	return lastErr
}

func (p Policy) notifyTerminal(err error) {
	if p.Notifier == nil {
		return
	}
	p.Notifier.Error(apperr.UserMessage(err))
}
