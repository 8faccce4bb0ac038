package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// wsTestServer is a minimal backend: it answers subscribe/unsubscribe and
// lets tests push timer.changed frames at will.
type wsTestServer struct {
	*httptest.Server

	mu      sync.Mutex
	conn    *websocket.Conn
	handler func(req request) *response
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()

	s := &wsTestServer{}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sync" {
			t.Errorf("expected path /api/v1/sync, got %s", r.URL.Path)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		for {
			var req request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			resp := &response{ID: req.ID}
			s.mu.Lock()
			if s.handler != nil {
				if h := s.handler(req); h != nil {
					resp = h
					resp.ID = req.ID
				}
			}
			s.mu.Unlock()
			s.write(resp)
		}
	}))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *wsTestServer) write(resp *response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.WriteJSON(resp)
	}
}

func (s *wsTestServer) pushTimer(subID string, timer *types.RunningTimer) {
	raw, _ := json.Marshal(timerPush{SubscriptionID: subID, Timer: timer})
	s.write(&response{Method: pushRunningTimerChanged, Result: raw})
}

func (s *wsTestServer) setHandler(h func(req request) *response) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

func dialTest(t *testing.T, s *wsTestServer) *WSClient {
	t.Helper()
	c, err := Dial(Options{BaseURL: s.URL, CallTimeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestWSClientCallRoundTrip(t *testing.T) {
	s := newWSTestServer(t)
	s.setHandler(func(req request) *response {
		if req.Method != methodRunningTimer {
			return nil
		}
		raw, _ := json.Marshal(&types.RunningTimer{ID: "t1", ProjectID: "p1"})
		return &response{Result: raw}
	})
	c := dialTest(t, s)

	got, err := c.RunningTimer(context.Background(), types.Personal())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.ID)
}

func TestWSClientWireErrorClassified(t *testing.T) {
	s := newWSTestServer(t)
	s.setHandler(func(req request) *response {
		return &response{Error: &wireError{Kind: "conflict", Message: "already running"}}
	})
	c := dialTest(t, s)

	err := c.Start(context.Background(), StartRequest{ProjectID: "p1", Scope: types.Personal()})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestWSClientWatchDeliversPushes(t *testing.T) {
	s := newWSTestServer(t)
	s.setHandler(func(req request) *response {
		if req.Method != methodSubscribe {
			return nil
		}
		return &response{Result: json.RawMessage(`{"subscriptionID":"sub1"}`)}
	})
	c := dialTest(t, s)

	ch, cancel, err := c.WatchRunningTimer(context.Background(), types.Personal())
	require.NoError(t, err)
	defer cancel()

	s.pushTimer("sub1", &types.RunningTimer{ID: "t1", ProjectID: "p1"})
	select {
	case got := <-ch:
		require.NotNil(t, got)
		assert.Equal(t, "t1", got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("push not delivered")
	}

	// Pushes for unknown subscriptions are dropped, not misrouted.
	s.pushTimer("ghost", &types.RunningTimer{ID: "t2"})
	s.pushTimer("sub1", nil)
	select {
	case got := <-ch:
		assert.Nil(t, got)
	case <-time.After(2 * time.Second):
		t.Fatal("push not delivered")
	}
}

func TestWSClientCancelDuringPushFlood(t *testing.T) {
	s := newWSTestServer(t)
	s.setHandler(func(req request) *response {
		if req.Method != methodSubscribe {
			return nil
		}
		return &response{Result: json.RawMessage(`{"subscriptionID":"sub1"}`)}
	})
	c := dialTest(t, s)

	ch, cancel, err := c.WatchRunningTimer(context.Background(), types.Personal())
	require.NoError(t, err)

	// Flood pushes while the subscription is torn down. Delivery must never
	// hit the channel after cancel closes it.
	floodDone := make(chan struct{})
	go func() {
		defer close(floodDone)
		for i := 0; i < 500; i++ {
			s.pushTimer("sub1", &types.RunningTimer{ID: "t1", ProjectID: "p1"})
		}
	}()
	go func() {
		// Drain until cancel closes the channel so the buffer never
		// forces drops to mask the teardown path.
		for range ch {
		}
	}()

	time.Sleep(2 * time.Millisecond)
	cancel()
	<-floodDone

	// The channel is closed exactly once and stays closed.
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestWSClientCloseFailsInFlightCalls(t *testing.T) {
	s := newWSTestServer(t)
	s.setHandler(func(req request) *response {
		if req.Method == methodSubscribe {
			return &response{Result: json.RawMessage(`{"subscriptionID":"sub1"}`)}
		}
		return nil
	})
	c := dialTest(t, s)

	ch, _, err := c.WatchRunningTimer(context.Background(), types.Personal())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	_, open := <-ch
	assert.False(t, open)

	err = c.Heartbeat(context.Background(), types.Personal())
	assert.Equal(t, apperr.KindOffline, apperr.KindOf(err))
}
