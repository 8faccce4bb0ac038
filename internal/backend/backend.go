// Package backend defines the remote backend boundary: the fixed set of
// query, mutation and subscription calls the client core consumes. The
// backend owns all timer and workspace records; the client only projects
// them.
package backend

import (
	"context"

	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// StartRequest carries the parameters of a timer start call.
type StartRequest struct {
	ProjectID string               `json:"projectID"`
	Category  string               `json:"category,omitempty"`
	Pomodoro  bool                 `json:"pomodoro,omitempty"`
	Scope     types.WorkspaceScope `json:"scope"`
}

// Client is the backend call surface. All methods are safe for concurrent
// use. Mutations fail with classified errors (see apperr); the backend
// enforces the single-running-timer invariant on Start.
type Client interface {
	// RunningTimer returns the active timer for the scope, or nil.
	RunningTimer(ctx context.Context, scope types.WorkspaceScope) (*types.RunningTimer, error)

	// WatchRunningTimer subscribes to live updates of the running timer
	// for the scope. The returned channel receives the current value
	// immediately and then every change, nil meaning no active timer.
	// The cancel func ends the subscription and closes the channel.
	WatchRunningTimer(ctx context.Context, scope types.WorkspaceScope) (<-chan *types.RunningTimer, func(), error)

	// Start begins a new timing session. Fails if one is already running.
	Start(ctx context.Context, req StartRequest) error

	// Stop finalizes the session as a completed entry. Idempotent when no
	// timer is running.
	Stop(ctx context.Context, scope types.WorkspaceScope) error

	// Reset discards the session without recording time. Idempotent when
	// no timer is running.
	Reset(ctx context.Context, scope types.WorkspaceScope) error

	// Heartbeat proves the client is still actively timing. Must be
	// called at least every 30 seconds while a session runs.
	Heartbeat(ctx context.Context, scope types.WorkspaceScope) error

	// AckInterrupt resolves a pending interrupt prompt.
	AckInterrupt(ctx context.Context, cont bool, scope types.WorkspaceScope) error

	// Project returns a project snapshot for budget evaluation.
	Project(ctx context.Context, projectID string, scope types.WorkspaceScope) (*types.Project, error)

	// ListMemberships returns the user's team memberships.
	ListMemberships(ctx context.Context) ([]types.Membership, error)

	// CurrentMembership returns the active membership, or nil when the
	// user has no active organization.
	CurrentMembership(ctx context.Context) (*types.Membership, error)

	// SetActiveOrganization switches the backend's active organization.
	SetActiveOrganization(ctx context.Context, orgID string) error

	// EnsurePersonalWorkspace makes sure the personal workspace exists.
	EnsurePersonalWorkspace(ctx context.Context) error

	// Close releases the underlying connection, if any.
	Close() error
}
