// Package notify defines the notification side effects the core emits.
// Sound, haptic and toast rendering live outside the core; they subscribe
// to the event bus and react to what is published here.
package notify

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// Notifier receives user-relevant signals from the core. Implementations
// must not block; the core calls these inline on its own goroutines.
type Notifier interface {
	// Success surfaces a non-blocking success notification.
	Success(message string)
	// Error surfaces a non-blocking error notification.
	Error(message string)
	// Interrupt fires the interrupt-prompt alert (sound/vibration).
	Interrupt(timerID string)
	// BreakStarted fires when a pomodoro work phase flips to break.
	BreakStarted()
	// BreakEnded fires when a pomodoro break phase flips back to work.
	BreakEnded()
	// BudgetWarning fires when a project crosses a budget threshold.
	BudgetWarning(projectID string, report types.BudgetReport)
}

// BusNotifier publishes notifications on an event bus and logs them.
type BusNotifier struct {
	bus *event.Bus
}

// NewBusNotifier creates a notifier backed by the given bus.
func NewBusNotifier(bus *event.Bus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func (n *BusNotifier) Success(message string) {
	logging.Info().Str("message", message).Msg("notification")
	n.bus.Publish(event.Event{
		Type: event.NotifySuccess,
		Data: event.NotificationData{ID: newID(), Message: message},
	})
}

func (n *BusNotifier) Error(message string) {
	logging.Warn().Str("message", message).Msg("error notification")
	n.bus.Publish(event.Event{
		Type: event.NotifyError,
		Data: event.NotificationData{ID: newID(), Message: message},
	})
}

func (n *BusNotifier) Interrupt(timerID string) {
	logging.Info().Str("timerID", timerID).Msg("interrupt alert")
	n.bus.Publish(event.Event{
		Type: event.TimerInterrupt,
		Data: event.TimerInterruptData{TimerID: timerID},
	})
}

func (n *BusNotifier) BreakStarted() {
	n.bus.Publish(event.Event{
		Type: event.TimerPhaseChanged,
		Data: event.TimerPhaseChangedData{From: types.PhaseWork, To: types.PhaseBreak},
	})
}

func (n *BusNotifier) BreakEnded() {
	n.bus.Publish(event.Event{
		Type: event.TimerPhaseChanged,
		Data: event.TimerPhaseChangedData{From: types.PhaseBreak, To: types.PhaseWork},
	})
}

func (n *BusNotifier) BudgetWarning(projectID string, report types.BudgetReport) {
	logging.Info().
		Str("projectID", projectID).
		Str("status", string(report.Status)).
		Float64("usagePercent", report.UsagePercent).
		Msg("budget warning")
	n.bus.Publish(event.Event{
		Type: event.TimerBudgetWarning,
		Data: event.TimerBudgetWarningData{ProjectID: projectID, Report: report},
	})
}

// Nop is a Notifier that does nothing.
type Nop struct{}

func (Nop) Success(string)                           {}
func (Nop) Error(string)                             {}
func (Nop) Interrupt(string)                         {}
func (Nop) BreakStarted()                            {}
func (Nop) BreakEnded()                              {}
func (Nop) BudgetWarning(string, types.BudgetReport) {}
