package prefs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/event"
)

func TestWatcherPublishesOnExternalWrite(t *testing.T) {
	s := newTestStore(t)
	bus := event.NewBus()
	defer bus.Close()

	w, err := NewWatcher(s, bus)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	got := make(chan event.Event, 4)
	unsub := bus.Subscribe(event.PrefsReloaded, func(e event.Event) {
		got <- e
	})
	defer unsub()

	// Simulate another process rewriting the preference.
	require.NoError(t, s.Put(context.Background(), "workspace_scope", "personal"))

	select {
	case e := <-got:
		data := e.Data.(event.PrefsReloadedData)
		require.Contains(t, data.Path, "workspace_scope.json")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for prefs.reloaded event")
	}
}

func TestWatcherStopIdempotent(t *testing.T) {
	s := newTestStore(t)
	bus := event.NewBus()
	defer bus.Close()

	w, err := NewWatcher(s, bus)
	require.NoError(t, err)
	w.Start()

	require.NoError(t, w.Stop())
	_ = w.Stop() // second stop must not panic or block
}
