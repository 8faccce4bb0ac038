package event

import "github.com/Kieransaunders/iTimedIT-sub000/pkg/types"

// TimerStartedData is the data for timer.started events.
type TimerStartedData struct {
	ProjectID string `json:"projectID"`
	Category  string `json:"category,omitempty"`
	Pomodoro  bool   `json:"pomodoro,omitempty"`
}

// TimerStoppedData is the data for timer.stopped and timer.reset events.
type TimerStoppedData struct {
	ProjectID      string `json:"projectID,omitempty"`
	ElapsedSeconds int64  `json:"elapsedSeconds"`
	// Forced is set when the stop was triggered by a workspace change
	// rather than a user action.
	Forced bool `json:"forced,omitempty"`
}

// TimerInterruptData is the data for timer.interrupt events.
type TimerInterruptData struct {
	TimerID string `json:"timerID"`
}

// TimerPhaseChangedData is the data for timer.phase_changed events.
type TimerPhaseChangedData struct {
	From types.PomodoroPhase `json:"from"`
	To   types.PomodoroPhase `json:"to"`
}

// TimerBudgetWarningData is the data for timer.budget_warning events.
type TimerBudgetWarningData struct {
	ProjectID string             `json:"projectID"`
	Report    types.BudgetReport `json:"report"`
}

// TimerNetworkErrorData is the data for timer.network_error events.
type TimerNetworkErrorData struct {
	Op      string `json:"op"`
	Message string `json:"message"`
}

// WorkspaceSwitchedData is the data for workspace.switched events.
type WorkspaceSwitchedData struct {
	From types.WorkspaceScope `json:"from"`
	To   types.WorkspaceScope `json:"to"`
}

// WorkspaceSwitchFailData is the data for workspace.switch_failed events.
type WorkspaceSwitchFailData struct {
	Target  types.WorkspaceScope `json:"target"`
	Message string               `json:"message"`
	// Permission is set when the failure was a permission error, which
	// also forces a fallback to the personal scope.
	Permission bool `json:"permission,omitempty"`
}

// NotificationData is the data for notify.success and notify.error events.
type NotificationData struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// PrefsReloadedData is the data for prefs.reloaded events.
type PrefsReloadedData struct {
	Path string `json:"path"`
}
