// Package timer owns the single active timing session: start, stop and
// reset, periodic heartbeats, interrupt acknowledgment, pomodoro phase
// edges and budget thresholds. The backend is the source of truth; this
// controller projects it and sequences the client side effects around it.
package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/backend"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/budget"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/clock"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/notify"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/retry"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/workspace"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// SessionState is the controller's view of the active session.
type SessionState string

const (
	StateIdle              SessionState = "idle"
	StateRunning           SessionState = "running"
	StateAwaitingInterrupt SessionState = "awaiting-interrupt"
)

// DefaultHeartbeatInterval is the cadence the backend expects liveness
// signals at while a session runs.
const DefaultHeartbeatInterval = 30 * time.Second

// DefaultElapsedInterval is the display refresh cadence.
const DefaultElapsedInterval = time.Second

// Options tunes the controller's drivers. Zero values take the defaults;
// tests shrink the intervals.
type Options struct {
	HeartbeatInterval time.Duration
	ElapsedInterval   time.Duration
	Now               func() time.Time
}

// previousObservation is the retained prior state used for edge detection.
// It is updated only after each comparison, never before.
type previousObservation struct {
	awaitingAck bool
	phase       types.PomodoroPhase
	hasPhase    bool
}

// Controller drives the timing session state machine.
type Controller struct {
	client    backend.Client
	policy    retry.Policy
	hbPolicy  retry.Policy
	workspace *workspace.Manager
	notifier  notify.Notifier
	bus       *event.Bus
	opts      Options

	mu          sync.Mutex
	current     *types.RunningTimer
	prev        previousObservation
	watchCancel func()
	watchDone   chan struct{}
	hbCancel    context.CancelFunc
	hbDone      chan struct{}
	torndown    bool

	// budgetMu guards the tick-path state so that stopping the elapsed
	// driver under mu can never deadlock against a tick in flight.
	budgetMu   sync.Mutex
	project    *types.Project
	budgetRank int

	elapsed  atomic.Int64
	netError atomic.Bool

	elapsedTicker *clock.Ticker

	unsubSwitched func()
}

// NewController wires a controller. Call Init to begin observing.
func NewController(client backend.Client, policy retry.Policy, ws *workspace.Manager, notifier notify.Notifier, bus *event.Bus, opts Options) *Controller {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.ElapsedInterval <= 0 {
		opts.ElapsedInterval = DefaultElapsedInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{
		client:    client,
		policy:    policy,
		hbPolicy:  policy.ForHeartbeat(),
		workspace: ws,
		notifier:  notifier,
		bus:       bus,
		opts:      opts,
	}
	c.elapsedTicker = clock.NewTicker(opts.ElapsedInterval, opts.Now)
	return c
}

// Init subscribes to the running-timer projection for the active scope and
// registers the forced-stop hook for workspace changes.
func (c *Controller) Init(ctx context.Context) error {
	c.workspace.OnScopeChange(func(hookCtx context.Context, old, next types.WorkspaceScope) {
		c.forceStopForScopeChange(hookCtx, old)
	})

	// Re-subscribe against the new tenant once a switch has committed.
	c.unsubSwitched = c.bus.Subscribe(event.WorkspaceSwitched, func(e event.Event) {
		if err := c.rewatch(context.Background()); err != nil {
			logging.Error().Err(err).Msg("failed to re-subscribe after workspace switch")
		}
	})

	if err := c.rewatch(ctx); err != nil {
		return err
	}

	// Synchronous initial fetch so callers see the live session state as
	// soon as Init returns, without racing the subscription.
	scope := c.workspace.Scope()
	var t *types.RunningTimer
	err := c.policy.Do(ctx, "timer.get", func(ctx context.Context) error {
		var err error
		t, err = c.client.RunningTimer(ctx, scope)
		return err
	})
	if err != nil {
		return err
	}
	c.observe(t)
	return nil
}

// rewatch replaces the live subscription with one for the current scope.
func (c *Controller) rewatch(ctx context.Context) error {
	scope := c.workspace.Scope()

	ch, cancel, err := c.client.WatchRunningTimer(ctx, scope)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.torndown {
		c.mu.Unlock()
		cancel()
		return nil
	}
	oldCancel := c.watchCancel
	oldDone := c.watchDone

	done := make(chan struct{})
	c.watchCancel = cancel
	c.watchDone = done
	c.mu.Unlock()

	if oldCancel != nil {
		oldCancel()
		<-oldDone
	}

	go func() {
		defer close(done)
		for t := range ch {
			c.observe(t)
		}
	}()
	return nil
}

// State returns the session state derived from the latest observation.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.current == nil:
		return StateIdle
	case c.current.AwaitingInterruptAck:
		return StateAwaitingInterrupt
	default:
		return StateRunning
	}
}

// Current returns the latest observed timer projection, nil when idle.
func (c *Controller) Current() *types.RunningTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Elapsed returns the locally derived elapsed seconds of the session.
func (c *Controller) Elapsed() int64 {
	return c.elapsed.Load()
}

// NetworkError reports whether the last heartbeat failed.
func (c *Controller) NetworkError() bool {
	return c.netError.Load()
}

// StartTimer begins a new session on the given project. The backend rejects
// a start while another timer runs.
func (c *Controller) StartTimer(ctx context.Context, projectID, category string, pomodoro bool) error {
	scope := c.workspace.Scope()
	err := c.policy.Do(ctx, "timer.start", func(ctx context.Context) error {
		return c.client.Start(ctx, backend.StartRequest{
			ProjectID: projectID,
			Category:  category,
			Pomodoro:  pomodoro,
			Scope:     scope,
		})
	})
	if err != nil {
		return err
	}

	c.bus.Publish(event.Event{
		Type: event.TimerStarted,
		Data: event.TimerStartedData{ProjectID: projectID, Category: category, Pomodoro: pomodoro},
	})
	return nil
}

// StopTimer finalizes the session as a completed entry. A stop with no
// running timer is a no-op.
func (c *Controller) StopTimer(ctx context.Context) error {
	return c.endSession(ctx, false, false)
}

// ResetTimer discards the session without recording elapsed time. A reset
// with no running timer is a no-op.
func (c *Controller) ResetTimer(ctx context.Context) error {
	return c.endSession(ctx, true, false)
}

func (c *Controller) endSession(ctx context.Context, reset, forced bool) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return nil
	}

	scope := c.workspace.Scope()
	return c.endSessionScoped(ctx, scope, cur, reset, forced)
}

func (c *Controller) endSessionScoped(ctx context.Context, scope types.WorkspaceScope, cur *types.RunningTimer, reset, forced bool) error {
	op := "timer.stop"
	call := c.client.Stop
	evType := event.TimerStopped
	if reset {
		op = "timer.reset"
		call = c.client.Reset
		evType = event.TimerReset
	}

	err := c.policy.Do(ctx, op, func(ctx context.Context) error {
		return call(ctx, scope)
	})
	if err != nil {
		return err
	}

	c.bus.Publish(event.Event{
		Type: evType,
		Data: event.TimerStoppedData{
			ProjectID:      cur.ProjectID,
			ElapsedSeconds: c.elapsed.Load(),
			Forced:         forced,
		},
	})
	return nil
}

// AcknowledgeInterrupt resolves a pending interrupt prompt. Continue keeps
// the session running with the due timestamp advanced; declining finalizes
// it.
func (c *Controller) AcknowledgeInterrupt(ctx context.Context, shouldContinue bool) error {
	scope := c.workspace.Scope()
	return c.policy.Do(ctx, "timer.ack_interrupt", func(ctx context.Context) error {
		return c.client.AckInterrupt(ctx, shouldContinue, scope)
	})
}

// forceStopForScopeChange stops a live session against the scope it was
// started in. Elapsed time must never land in the wrong tenant, so this is
// unconditional whenever a timer exists.
func (c *Controller) forceStopForScopeChange(ctx context.Context, old types.WorkspaceScope) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return
	}

	logging.Info().
		Str("projectID", cur.ProjectID).
		Str("oldScope", string(old.Kind)).
		Msg("workspace changing, stopping active session")

	if err := c.endSessionScoped(ctx, old, cur, false, true); err != nil {
		logging.Error().Err(err).Msg("forced stop failed")
	}

	// The subscription for the old scope will deliver the removal; clear
	// eagerly so reads under the new scope never see the stale session.
	c.observe(nil)
}

// observe ingests one value from the live subscription.
func (c *Controller) observe(t *types.RunningTimer) {
	c.mu.Lock()
	prev := c.current
	c.current = t

	switch {
	case prev == nil && t != nil:
		c.sessionBeganLocked(t)
	case prev != nil && t == nil:
		c.sessionEndedLocked()
	case prev != nil && t != nil && prev.ID != t.ID:
		// Replaced by a different session without an observed gap.
		c.sessionEndedLocked()
		c.sessionBeganLocked(t)
	}

	if t != nil {
		c.detectEdgesLocked(t)
	} else {
		c.prev = previousObservation{}
	}
	c.mu.Unlock()
}

// sessionBeganLocked starts the per-session drivers: the 1-second elapsed
// refresh and the heartbeat loop with its immediate first beat.
func (c *Controller) sessionBeganLocked(t *types.RunningTimer) {
	start := t.StartTime()
	c.elapsed.Store(clock.Elapsed(start, c.opts.Now()))
	c.budgetMu.Lock()
	c.project = nil
	c.budgetRank = 0
	c.budgetMu.Unlock()

	c.elapsedTicker.Start(start, c.onElapsedTick)

	hbCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.hbCancel = cancel
	c.hbDone = done
	go c.heartbeatLoop(hbCtx, done)

	go c.loadProject(t.ProjectID)
}

// sessionEndedLocked cancels both drivers. Both waits are deterministic:
// once this returns no further tick or heartbeat fires.
func (c *Controller) sessionEndedLocked() {
	c.elapsedTicker.Stop()
	if c.hbCancel != nil {
		c.hbCancel()
		<-c.hbDone
		c.hbCancel = nil
		c.hbDone = nil
	}
	c.elapsed.Store(0)
	c.budgetMu.Lock()
	c.project = nil
	c.budgetRank = 0
	c.budgetMu.Unlock()
}

// detectEdgesLocked compares the observation against the retained previous
// values and fires edge side effects. The cells update only after the
// comparison.
func (c *Controller) detectEdgesLocked(t *types.RunningTimer) {
	// Interrupt acknowledgment rising edge. Sessions without a scheduled
	// interrupt never alert.
	if t.AwaitingInterruptAck && !c.prev.awaitingAck && t.InterruptEnabled() {
		go c.notifier.Interrupt(t.ID)
	}
	c.prev.awaitingAck = t.AwaitingInterruptAck

	// Pomodoro phase edge: only between two defined, different values.
	if t.PomodoroPhase != "" {
		if c.prev.hasPhase && c.prev.phase != t.PomodoroPhase {
			from, to := c.prev.phase, t.PomodoroPhase
			go c.firePhaseChange(from, to)
		}
		c.prev.phase = t.PomodoroPhase
		c.prev.hasPhase = true
	}
}

func (c *Controller) firePhaseChange(from, to types.PomodoroPhase) {
	switch {
	case from == types.PhaseWork && to == types.PhaseBreak:
		c.notifier.BreakStarted()
	case from == types.PhaseBreak && to == types.PhaseWork:
		c.notifier.BreakEnded()
	}
}

// onElapsedTick runs on the 1-second cadence while a session is live.
func (c *Controller) onElapsedTick(elapsed int64) {
	c.elapsed.Store(elapsed)
	c.checkBudget(elapsed)
}

var budgetRanks = map[types.BudgetStatus]int{
	types.BudgetNone:     0,
	types.BudgetSafe:     0,
	types.BudgetWarning:  1,
	types.BudgetCritical: 2,
}

// checkBudget fires the budget-warning signal once per escalation.
func (c *Controller) checkBudget(elapsed int64) {
	c.budgetMu.Lock()
	p := c.project
	reported := c.budgetRank
	c.budgetMu.Unlock()
	if p == nil || !p.HasBudget() {
		return
	}

	report := budget.Evaluate(*p, elapsed)
	rank := budgetRanks[report.Status]
	if rank <= reported {
		return
	}

	c.budgetMu.Lock()
	if rank <= c.budgetRank {
		c.budgetMu.Unlock()
		return
	}
	c.budgetRank = rank
	c.budgetMu.Unlock()

	c.notifier.BudgetWarning(p.ID, report)
}

// loadProject fetches the project snapshot used for budget evaluation.
func (c *Controller) loadProject(projectID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scope := c.workspace.Scope()
	var p *types.Project
	err := c.policy.Do(ctx, "project.get", func(ctx context.Context) error {
		var err error
		p, err = c.client.Project(ctx, projectID, scope)
		return err
	})
	if err != nil {
		logging.Warn().Err(err).Str("projectID", projectID).Msg("failed to load project for budget tracking")
		return
	}

	c.mu.Lock()
	live := c.current != nil && c.current.ProjectID == projectID
	c.mu.Unlock()
	if live {
		c.budgetMu.Lock()
		c.project = p
		c.budgetMu.Unlock()
	}
}

// heartbeatLoop emits one heartbeat immediately and then on the configured
// cadence until the session ends. Failures are swallowed: they flip the
// network-error flag and publish a transient event, nothing more.
func (c *Controller) heartbeatLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	c.beat(ctx)
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.beat(ctx)
		}
	}
}

func (c *Controller) beat(ctx context.Context) {
	scope := c.workspace.Scope()
	err := c.hbPolicy.Do(ctx, "timer.heartbeat", func(ctx context.Context) error {
		return c.client.Heartbeat(ctx, scope)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.netError.Store(true)
		logging.Warn().Err(err).Msg("heartbeat failed")
		c.bus.Publish(event.Event{
			Type: event.TimerNetworkError,
			Data: event.TimerNetworkErrorData{Op: "timer.heartbeat", Message: err.Error()},
		})
		return
	}
	c.netError.Store(false)
}

// Teardown cancels the subscription and both drivers. No tick, heartbeat
// or observation fires after it returns.
func (c *Controller) Teardown() {
	if c.unsubSwitched != nil {
		c.unsubSwitched()
	}

	c.mu.Lock()
	c.torndown = true
	cancel := c.watchCancel
	done := c.watchDone
	c.watchCancel = nil
	c.watchDone = nil
	c.sessionEndedLocked()
	c.current = nil
	c.prev = previousObservation{}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
