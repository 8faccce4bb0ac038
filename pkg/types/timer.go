// Package types provides the core data types shared across the iTimedIT client.
package types

import "time"

// PomodoroPhase is the current phase of a pomodoro session.
type PomodoroPhase string

const (
	PhaseWork  PomodoroPhase = "work"
	PhaseBreak PomodoroPhase = "break"
)

// RunningTimer is the client's read-only projection of the single active
// timing session. The backend owns the record; the client only caches it
// and derives elapsed time locally.
type RunningTimer struct {
	ID                   string        `json:"id"`
	ProjectID            string        `json:"projectID"`
	Category             string        `json:"category,omitempty"`
	StartedAt            int64         `json:"startedAt"` // unix millis
	Pomodoro             bool          `json:"pomodoro,omitempty"`
	PomodoroPhase        PomodoroPhase `json:"pomodoroPhase,omitempty"`
	NextInterruptAt      *int64        `json:"nextInterruptAt,omitempty"` // unix millis
	AwaitingInterruptAck bool          `json:"awaitingInterruptAck"`
}

// StartTime returns the session start as a time.Time.
func (t *RunningTimer) StartTime() time.Time {
	return time.UnixMilli(t.StartedAt)
}

// InterruptEnabled reports whether the backend has an interrupt scheduled
// for this session.
func (t *RunningTimer) InterruptEnabled() bool {
	return t != nil && t.NextInterruptAt != nil
}
