/*
Package event provides a type-safe pub/sub event system for the iTimedIT
client core.

The core components (timer session controller, workspace context manager)
publish events here; presentation-layer collaborators (screens, sound and
haptic playback, local notifications) subscribe without direct dependencies
on the core.

# Architecture

The package is built on top of watermill's gochannel for infrastructure while
maintaining direct-call semantics to preserve type information. It provides
both synchronous and asynchronous publishing.

# Event Types

Timer events:
  - timer.started: a timing session started
  - timer.stopped: a session finalized as a completed entry
  - timer.reset: a session discarded without recording time
  - timer.interrupt: backend scheduled an interrupt prompt (rising edge)
  - timer.phase_changed: pomodoro phase flipped (work/break)
  - timer.budget_warning: project crossed a budget threshold
  - timer.network_error: transient backend failure (heartbeat class)

Workspace events:
  - workspace.switched: active scope changed (published synchronously so the
    forced-stop ordering is observable by subscribers)
  - workspace.switch_failed: optimistic switch rolled back

Notification events:
  - notify.success, notify.error: non-blocking user notifications

Prefs events:
  - prefs.reloaded: the persisted preference file changed on disk

# Usage

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.TimerStarted, func(e event.Event) {
	    data := e.Data.(event.TimerStartedData)
	    // react
	})
	defer unsubscribe()

Buses are value-injected; each app wiring owns one instance and closes it
on teardown.

# Publishing Semantics

  - Publish delivers asynchronously, one goroutine per subscriber per event.
  - PublishSync calls all subscribers in the current goroutine before
    returning; use it where ordering matters (workspace.switched).
*/
package event
