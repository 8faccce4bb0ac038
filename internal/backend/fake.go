package backend

import (
	"context"
	"sync"
	"time"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// Fake is an in-memory backend used by tests and by the CLI when no backend
// URL is configured. Errors can be scripted per method and every call is
// recorded.
type Fake struct {
	mu sync.Mutex

	timer       *types.RunningTimer
	projects    map[string]*types.Project
	memberships []types.Membership
	activeOrg   string

	// errs maps a method name ("Start", "Heartbeat", ...) to errors
	// returned on successive calls; nil entries mean success.
	errs map[string][]error

	calls []string

	watchers []chan *types.RunningTimer
}

// NewFake creates an empty fake backend.
func NewFake() *Fake {
	return &Fake{
		projects: make(map[string]*types.Project),
		errs:     make(map[string][]error),
	}
}

// FailWith queues errors for successive calls of method.
func (f *Fake) FailWith(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = append(f.errs[method], errs...)
}

// Calls returns the recorded call sequence.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

// SetProject seeds a project snapshot.
func (f *Fake) SetProject(p *types.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.ID] = p
}

// SetMemberships seeds the user's memberships.
func (f *Fake) SetMemberships(ms ...types.Membership) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberships = ms
}

// SetTimer replaces the running timer and notifies watchers, mimicking a
// backend-side mutation observed through the live subscription.
func (f *Fake) SetTimer(t *types.RunningTimer) {
	f.mu.Lock()
	f.timer = t
	watchers := make([]chan *types.RunningTimer, len(f.watchers))
	copy(watchers, f.watchers)
	f.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- t:
		default:
		}
	}
}

// Timer returns the current running timer.
func (f *Fake) Timer() *types.RunningTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timer
}

// record logs the call and pops the next scripted error for method.
func (f *Fake) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)

	queue := f.errs[method]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.errs[method] = queue[1:]
	return err
}

func (f *Fake) RunningTimer(ctx context.Context, scope types.WorkspaceScope) (*types.RunningTimer, error) {
	if err := f.record("RunningTimer"); err != nil {
		return nil, err
	}
	return f.Timer(), nil
}

func (f *Fake) WatchRunningTimer(ctx context.Context, scope types.WorkspaceScope) (<-chan *types.RunningTimer, func(), error) {
	if err := f.record("WatchRunningTimer"); err != nil {
		return nil, nil, err
	}

	ch := make(chan *types.RunningTimer, 16)

	f.mu.Lock()
	f.watchers = append(f.watchers, ch)
	cur := f.timer
	f.mu.Unlock()

	ch <- cur

	cancel := func() {
		f.mu.Lock()
		for i, w := range f.watchers {
			if w == ch {
				f.watchers = append(f.watchers[:i], f.watchers[i+1:]...)
				close(ch)
				break
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel, nil
}

func (f *Fake) Start(ctx context.Context, req StartRequest) error {
	if err := f.record("Start"); err != nil {
		return err
	}
	if f.Timer() != nil {
		return apperr.New(apperr.KindConflict, "timer.start", "timer already running")
	}
	f.SetTimer(&types.RunningTimer{
		ID:        "timer-" + req.ProjectID,
		ProjectID: req.ProjectID,
		Category:  req.Category,
		StartedAt: time.Now().UnixMilli(),
		Pomodoro:  req.Pomodoro,
	})
	return nil
}

func (f *Fake) Stop(ctx context.Context, scope types.WorkspaceScope) error {
	if err := f.record("Stop"); err != nil {
		return err
	}
	f.SetTimer(nil)
	return nil
}

func (f *Fake) Reset(ctx context.Context, scope types.WorkspaceScope) error {
	if err := f.record("Reset"); err != nil {
		return err
	}
	f.SetTimer(nil)
	return nil
}

func (f *Fake) Heartbeat(ctx context.Context, scope types.WorkspaceScope) error {
	return f.record("Heartbeat")
}

func (f *Fake) AckInterrupt(ctx context.Context, cont bool, scope types.WorkspaceScope) error {
	if err := f.record("AckInterrupt"); err != nil {
		return err
	}
	t := f.Timer()
	if t == nil {
		return nil
	}
	if !cont {
		f.SetTimer(nil)
		return nil
	}
	next := time.Now().Add(25 * time.Minute).UnixMilli()
	updated := *t
	updated.AwaitingInterruptAck = false
	updated.NextInterruptAt = &next
	f.SetTimer(&updated)
	return nil
}

func (f *Fake) Project(ctx context.Context, projectID string, scope types.WorkspaceScope) (*types.Project, error) {
	if err := f.record("Project"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "project.get", "project not found")
	}
	return p, nil
}

func (f *Fake) ListMemberships(ctx context.Context) ([]types.Membership, error) {
	if err := f.record("ListMemberships"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberships, nil
}

func (f *Fake) CurrentMembership(ctx context.Context) (*types.Membership, error) {
	if err := f.record("CurrentMembership"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.memberships {
		if f.memberships[i].Organization.ID == f.activeOrg {
			return &f.memberships[i], nil
		}
	}
	return nil, nil
}

func (f *Fake) SetActiveOrganization(ctx context.Context, orgID string) error {
	if err := f.record("SetActiveOrganization"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeOrg = orgID
	return nil
}

func (f *Fake) EnsurePersonalWorkspace(ctx context.Context) error {
	return f.record("EnsurePersonalWorkspace")
}

func (f *Fake) Close() error {
	return nil
}
