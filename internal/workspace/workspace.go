// Package workspace owns the active tenant scope: personal versus team,
// the selected organization, and the persisted preference. Scope switches
// are optimistic with wholesale rollback and are single-flight.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/backend"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/notify"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/prefs"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/retry"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// State is the manager's lifecycle state.
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateLoadingPreference State = "loading-preference"
	StateReady             State = "ready"
)

// ErrSwitchInProgress is returned when a switch is requested while another
// one is still running. Concurrent switches are rejected, not queued.
var ErrSwitchInProgress = errors.New("workspace switch already in progress")

// ErrNotReady is returned for operations before Init completes.
var ErrNotReady = errors.New("workspace manager not initialized")

// ErrNoTeamMemberships is returned when a team switch is requested but the
// user belongs to no organization.
var ErrNoTeamMemberships = errors.New("no team memberships")

// ScopeStore is the slice of the preference store the manager needs.
type ScopeStore interface {
	ScopePreference(ctx context.Context) (types.ScopeKind, error)
	SetScopePreference(ctx context.Context, kind types.ScopeKind) error
}

// ScopeChangeHook runs after a switch is accepted but before the new scope
// becomes visible to reads. The timer controller uses it to force-stop a
// running session against the old scope.
type ScopeChangeHook func(ctx context.Context, old, next types.WorkspaceScope)

// Manager owns the active workspace scope.
type Manager struct {
	store    ScopeStore
	client   backend.Client
	policy   retry.Policy
	notifier notify.Notifier
	bus      *event.Bus

	mu          sync.Mutex
	state       State
	scope       types.WorkspaceScope
	switching   bool
	permDenied  bool
	lastError   string
	memberships []types.Membership
	hooks       []ScopeChangeHook
}

// NewManager creates a manager. Call Init before use.
func NewManager(store ScopeStore, client backend.Client, policy retry.Policy, notifier notify.Notifier, bus *event.Bus) *Manager {
	return &Manager{
		store:    store,
		client:   client,
		policy:   policy,
		notifier: notifier,
		bus:      bus,
		state:    StateUninitialized,
	}
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Scope returns the active workspace scope.
func (m *Manager) Scope() types.WorkspaceScope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scope
}

// Switching reports whether a switch is in flight.
func (m *Manager) Switching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switching
}

// PermissionDenied reports whether the last organization switch failed with
// a permission error.
func (m *Manager) PermissionDenied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permDenied
}

// LastError returns the user-facing message of the last failed switch.
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// Memberships returns the memberships loaded at Init.
func (m *Manager) Memberships() []types.Membership {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Membership, len(m.memberships))
	copy(out, m.memberships)
	return out
}

// OnScopeChange registers a hook invoked on every accepted switch, before
// the new scope is visible to reads. Must be called before Init completes
// handing the manager to concurrent users.
func (m *Manager) OnScopeChange(hook ScopeChangeHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Init loads the persisted preference and resolves the startup scope:
// a persisted value wins (legacy encodings upgraded by the store); with no
// preference the first team membership is preferred over personal; a team
// preference without memberships falls back to personal.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return fmt.Errorf("init called in state %s", m.state)
	}
	m.state = StateLoadingPreference
	m.mu.Unlock()

	var memberships []types.Membership
	err := m.policy.Do(ctx, "workspace.list_memberships", func(ctx context.Context) error {
		var err error
		memberships, err = m.client.ListMemberships(ctx)
		return err
	})
	if err != nil {
		m.mu.Lock()
		m.state = StateUninitialized
		m.mu.Unlock()
		return fmt.Errorf("failed to load memberships: %w", err)
	}

	pref, prefErr := m.store.ScopePreference(ctx)
	if prefErr != nil && !errors.Is(prefErr, prefs.ErrNotFound) {
		logging.Warn().Err(prefErr).Msg("unreadable scope preference, using defaults")
	}

	scope := resolveStartupScope(pref, prefErr == nil, memberships)
	if scope.IsTeam() {
		// Prefer the backend's active organization when it is still a
		// valid membership.
		if cur, err := m.client.CurrentMembership(ctx); err == nil && cur != nil {
			if hasOrg(memberships, cur.Organization.ID) {
				scope.OrgID = cur.Organization.ID
			}
		}
	} else {
		if err := m.client.EnsurePersonalWorkspace(ctx); err != nil {
			logging.Warn().Err(err).Msg("failed to ensure personal workspace")
		}
	}

	m.mu.Lock()
	m.scope = scope
	m.memberships = memberships
	m.state = StateReady
	m.mu.Unlock()

	logging.Info().
		Str("kind", string(scope.Kind)).
		Str("orgID", scope.OrgID).
		Int("memberships", len(memberships)).
		Msg("workspace manager ready")
	return nil
}

// Teardown returns the manager to its uninitialized state.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateUninitialized
	m.switching = false
}

// resolveStartupScope picks the scope for startup. hasPref means a persisted
// preference was readable.
func resolveStartupScope(pref types.ScopeKind, hasPref bool, memberships []types.Membership) types.WorkspaceScope {
	if len(memberships) == 0 {
		return types.Personal()
	}
	if hasPref && pref == types.ScopePersonal {
		return types.Personal()
	}
	// Either an explicit team preference or no preference at all: team
	// wins when memberships exist.
	return types.Team(memberships[0].Organization.ID)
}

func hasOrg(memberships []types.Membership, orgID string) bool {
	for _, mem := range memberships {
		if mem.Organization.ID == orgID {
			return true
		}
	}
	return false
}

// SwitchWorkspace changes the personal/team selection. Switching to the
// current kind is a no-op; a switch while another is in flight is rejected
// with ErrSwitchInProgress. The new scope is applied optimistically before
// the preference is persisted, and rolled back wholesale on failure.
func (m *Manager) SwitchWorkspace(ctx context.Context, target types.ScopeKind) error {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return ErrNotReady
	}
	if m.switching {
		m.mu.Unlock()
		return ErrSwitchInProgress
	}
	if m.scope.Kind == target {
		m.mu.Unlock()
		return nil
	}

	var newScope types.WorkspaceScope
	if target == types.ScopeTeam {
		if len(m.memberships) == 0 {
			m.mu.Unlock()
			return ErrNoTeamMemberships
		}
		newScope = types.Team(m.memberships[0].Organization.ID)
	} else {
		newScope = types.Personal()
	}

	prev := m.scope
	m.switching = true
	hooks := append([]ScopeChangeHook(nil), m.hooks...)
	m.mu.Unlock()

	// Reads still observe the old scope while hooks run, so a running
	// session is stopped against the tenant it was started in.
	for _, hook := range hooks {
		hook(ctx, prev, newScope)
	}

	m.mu.Lock()
	m.scope = newScope // optimistic
	m.mu.Unlock()

	if err := m.store.SetScopePreference(ctx, target); err != nil {
		m.mu.Lock()
		m.scope = prev // wholesale rollback
		m.switching = false
		m.lastError = apperr.UserMessage(err)
		m.mu.Unlock()

		logging.Error().Err(err).Str("target", string(target)).Msg("workspace switch failed")
		m.notifier.Error(fmt.Sprintf("Could not switch workspace: %s", apperr.UserMessage(err)))
		m.bus.PublishSync(event.Event{
			Type: event.WorkspaceSwitchFail,
			Data: event.WorkspaceSwitchFailData{Target: newScope, Message: apperr.UserMessage(err)},
		})
		return fmt.Errorf("failed to persist workspace scope: %w", err)
	}

	m.mu.Lock()
	m.switching = false
	m.lastError = ""
	m.mu.Unlock()

	m.notifier.Success(fmt.Sprintf("Switched to %s workspace", target))
	m.bus.PublishSync(event.Event{
		Type: event.WorkspaceSwitched,
		Data: event.WorkspaceSwitchedData{From: prev, To: newScope},
	})
	return nil
}

// SwitchOrganization changes the active organization within the team scope.
// The backend call is retried per the policy; a permission error sets the
// permission flag and falls the scope back to personal.
func (m *Manager) SwitchOrganization(ctx context.Context, orgID string) error {
	m.mu.Lock()
	if m.state != StateReady {
		m.mu.Unlock()
		return ErrNotReady
	}
	if m.switching {
		m.mu.Unlock()
		return ErrSwitchInProgress
	}
	if m.scope.IsTeam() && m.scope.OrgID == orgID {
		m.mu.Unlock()
		return nil
	}

	prev := m.scope
	newScope := types.Team(orgID)
	m.switching = true
	m.permDenied = false
	hooks := append([]ScopeChangeHook(nil), m.hooks...)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx, prev, newScope)
	}

	m.mu.Lock()
	m.scope = newScope // optimistic
	m.mu.Unlock()

	err := m.policy.Do(ctx, "workspace.set_active_org", func(ctx context.Context) error {
		return m.client.SetActiveOrganization(ctx, orgID)
	})
	if err != nil {
		msg := apperr.UserMessage(err)
		perm := apperr.IsPermission(err)

		m.mu.Lock()
		if perm {
			// Not allowed into that organization at all: personal is
			// the only safe place to land.
			m.scope = types.Personal()
			m.permDenied = true
		} else {
			m.scope = prev
		}
		m.switching = false
		m.lastError = msg
		m.mu.Unlock()

		if perm {
			if perr := m.store.SetScopePreference(ctx, types.ScopePersonal); perr != nil {
				logging.Warn().Err(perr).Msg("failed to persist personal fallback")
			}
		}

		logging.Error().Err(err).Str("orgID", orgID).Bool("permission", perm).Msg("organization switch failed")
		m.notifier.Error(msg)
		m.bus.PublishSync(event.Event{
			Type: event.WorkspaceSwitchFail,
			Data: event.WorkspaceSwitchFailData{Target: newScope, Message: msg, Permission: perm},
		})
		return err
	}

	if err := m.store.SetScopePreference(ctx, types.ScopeTeam); err != nil {
		logging.Warn().Err(err).Msg("failed to persist scope preference after org switch")
	}

	m.mu.Lock()
	m.switching = false
	m.lastError = ""
	m.mu.Unlock()

	m.notifier.Success("Switched organization")
	m.bus.PublishSync(event.Event{
		Type: event.WorkspaceSwitched,
		Data: event.WorkspaceSwitchedData{From: prev, To: newScope},
	})
	return nil
}
