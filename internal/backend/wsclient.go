package backend

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// Options configures the websocket backend client.
type Options struct {
	// BaseURL is the backend URL, e.g. "https://backend.example.com".
	BaseURL string
	// AuthToken is sent in the connection handshake.
	AuthToken string
	// CallTimeout bounds how long a single call waits for its reply.
	// Defaults to 30s. The retry policy layers on top of this.
	CallTimeout time.Duration
}

// WSClient talks to the backend over a single websocket connection. Calls
// are correlated by request ID; the backend pushes running-timer changes to
// active subscriptions.
type WSClient struct {
	opts Options

	connMu sync.Mutex
	conn   *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan *response

	subsMu sync.Mutex
	subs   map[string]chan *types.RunningTimer

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the backend and starts the read loop.
func Dial(opts Options) (*WSClient, error) {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 30 * time.Second
	}

	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	scheme := "ws"
	if u.Scheme == "https" || u.Scheme == "wss" {
		scheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s/api/v1/sync", scheme, u.Host)

	header := http.Header{}
	if opts.AuthToken != "" {
		header.Set("Authorization", "Bearer "+opts.AuthToken)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, "backend.dial", err)
	}

	c := &WSClient{
		opts:    opts,
		conn:    conn,
		pending: make(map[string]chan *response),
		subs:    make(map[string]chan *types.RunningTimer),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	logging.Info().Str("url", wsURL).Msg("connected to backend")
	return c, nil
}

// Close shuts the connection down and fails all in-flight calls.
func (c *WSClient) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		c.failPending()
		c.closeSubs()
	})
	return nil
}

func newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// call sends one request and decodes the reply into result (which may be
// nil for void calls).
func (c *WSClient) call(ctx context.Context, method string, params any, result any) error {
	id := newRequestID()

	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		raw = b
	}

	respCh := make(chan *response, 1)
	c.pendingMu.Lock()
	c.pending[id] = respCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	c.connMu.Lock()
	conn := c.conn
	if conn == nil {
		c.connMu.Unlock()
		return apperr.New(apperr.KindOffline, method, "not connected")
	}
	err := conn.WriteJSON(request{ID: id, Method: method, Params: raw})
	c.connMu.Unlock()
	if err != nil {
		return apperr.Wrap(apperr.KindNetwork, method, err)
	}

	timeout := time.NewTimer(c.opts.CallTimeout)
	defer timeout.Stop()

	select {
	case resp, ok := <-respCh:
		if !ok {
			return apperr.New(apperr.KindNetwork, method, "connection lost")
		}
		if resp.Error != nil {
			return resp.Error.toAppError(method)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to unmarshal result: %w", err)
			}
		}
		return nil
	case <-timeout.C:
		return apperr.New(apperr.KindTimeout, method, "")
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return apperr.New(apperr.KindNetwork, method, "client closed")
	}
}

func (c *WSClient) readLoop() {
	for {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()
		if conn == nil {
			return
		}

		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			select {
			case <-c.done:
			default:
				logging.Warn().Err(err).Msg("backend connection lost")
			}
			c.failPending()
			c.closeSubs()
			return
		}

		switch {
		case resp.ID != "":
			c.pendingMu.Lock()
			if ch, ok := c.pending[resp.ID]; ok {
				ch <- &resp
			}
			c.pendingMu.Unlock()
		case resp.Method == pushRunningTimerChanged:
			c.dispatchPush(resp.Result)
		}
	}
}

// timerPush is the payload of a timer.changed push.
type timerPush struct {
	SubscriptionID string              `json:"subscriptionID"`
	Timer          *types.RunningTimer `json:"timer"`
}

func (c *WSClient) dispatchPush(raw json.RawMessage) {
	var push timerPush
	if err := json.Unmarshal(raw, &push); err != nil {
		logging.Warn().Err(err).Msg("malformed timer push")
		return
	}

	// Send while holding subsMu so a concurrent cancel cannot close the
	// channel between lookup and send. The select never blocks, so the
	// lock is held only briefly.
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	ch, ok := c.subs[push.SubscriptionID]
	if !ok {
		return
	}

	select {
	case ch <- push.Timer:
	default:
		// Subscriber is behind; drop the stale value. The next push
		// carries the full current state, not a delta.
	}
}

func (c *WSClient) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *WSClient) closeSubs() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// scopeParams is the common scope payload of timer calls.
type scopeParams struct {
	Scope types.WorkspaceScope `json:"scope"`
}

func (c *WSClient) RunningTimer(ctx context.Context, scope types.WorkspaceScope) (*types.RunningTimer, error) {
	var t *types.RunningTimer
	if err := c.call(ctx, methodRunningTimer, scopeParams{Scope: scope}, &t); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *WSClient) WatchRunningTimer(ctx context.Context, scope types.WorkspaceScope) (<-chan *types.RunningTimer, func(), error) {
	var result struct {
		SubscriptionID string `json:"subscriptionID"`
	}
	if err := c.call(ctx, methodSubscribe, scopeParams{Scope: scope}, &result); err != nil {
		return nil, nil, err
	}

	ch := make(chan *types.RunningTimer, 8)
	c.subsMu.Lock()
	c.subs[result.SubscriptionID] = ch
	c.subsMu.Unlock()

	cancel := func() {
		c.subsMu.Lock()
		if cur, ok := c.subs[result.SubscriptionID]; ok {
			close(cur)
			delete(c.subs, result.SubscriptionID)
		}
		c.subsMu.Unlock()

		// Best effort; the backend also reaps dead subscriptions.
		cctx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = c.call(cctx, methodUnsubscribe, result, nil)
	}
	return ch, cancel, nil
}

func (c *WSClient) Start(ctx context.Context, req StartRequest) error {
	return c.call(ctx, methodStart, req, nil)
}

func (c *WSClient) Stop(ctx context.Context, scope types.WorkspaceScope) error {
	return c.call(ctx, methodStop, scopeParams{Scope: scope}, nil)
}

func (c *WSClient) Reset(ctx context.Context, scope types.WorkspaceScope) error {
	return c.call(ctx, methodReset, scopeParams{Scope: scope}, nil)
}

func (c *WSClient) Heartbeat(ctx context.Context, scope types.WorkspaceScope) error {
	return c.call(ctx, methodHeartbeat, scopeParams{Scope: scope}, nil)
}

func (c *WSClient) AckInterrupt(ctx context.Context, cont bool, scope types.WorkspaceScope) error {
	params := struct {
		Continue bool                 `json:"continue"`
		Scope    types.WorkspaceScope `json:"scope"`
	}{Continue: cont, Scope: scope}
	return c.call(ctx, methodAckInterrupt, params, nil)
}

func (c *WSClient) Project(ctx context.Context, projectID string, scope types.WorkspaceScope) (*types.Project, error) {
	params := struct {
		ProjectID string               `json:"projectID"`
		Scope     types.WorkspaceScope `json:"scope"`
	}{ProjectID: projectID, Scope: scope}

	var p *types.Project
	if err := c.call(ctx, methodProject, params, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *WSClient) ListMemberships(ctx context.Context) ([]types.Membership, error) {
	var ms []types.Membership
	if err := c.call(ctx, methodListMemberships, nil, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

func (c *WSClient) CurrentMembership(ctx context.Context) (*types.Membership, error) {
	var m *types.Membership
	if err := c.call(ctx, methodCurrentMembership, nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *WSClient) SetActiveOrganization(ctx context.Context, orgID string) error {
	params := struct {
		OrgID string `json:"orgID"`
	}{OrgID: orgID}
	return c.call(ctx, methodSetActiveOrg, params, nil)
}

func (c *WSClient) EnsurePersonalWorkspace(ctx context.Context) error {
	return c.call(ctx, methodEnsurePersonal, nil, nil)
}
