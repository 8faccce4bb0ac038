package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/apperr"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

func TestFakeStartStopLifecycle(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	scope := types.Personal()

	cur, err := f.RunningTimer(ctx, scope)
	require.NoError(t, err)
	assert.Nil(t, cur)

	require.NoError(t, f.Start(ctx, StartRequest{ProjectID: "p1", Scope: scope}))

	cur, err = f.RunningTimer(ctx, scope)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "p1", cur.ProjectID)

	// Starting while running is backend-enforced.
	err = f.Start(ctx, StartRequest{ProjectID: "p2", Scope: scope})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, f.Stop(ctx, scope))
	cur, err = f.RunningTimer(ctx, scope)
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestFakeWatchDeliversMutations(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ch, cancel, err := f.WatchRunningTimer(ctx, types.Personal())
	require.NoError(t, err)
	defer cancel()

	// Initial value is the current state.
	assert.Nil(t, <-ch)

	f.SetTimer(&types.RunningTimer{ID: "t1", ProjectID: "p1"})
	got := <-ch
	require.NotNil(t, got)
	assert.Equal(t, "t1", got.ID)

	f.SetTimer(nil)
	assert.Nil(t, <-ch)
}

func TestFakeWatchCancelClosesChannel(t *testing.T) {
	f := NewFake()

	ch, cancel, err := f.WatchRunningTimer(context.Background(), types.Personal())
	require.NoError(t, err)
	<-ch

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestFakeScriptedErrors(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	boom := apperr.New(apperr.KindServer, "timer.heartbeat", "")

	f.FailWith("Heartbeat", boom, boom)

	assert.Error(t, f.Heartbeat(ctx, types.Personal()))
	assert.Error(t, f.Heartbeat(ctx, types.Personal()))
	assert.NoError(t, f.Heartbeat(ctx, types.Personal()))
	assert.Equal(t, 3, f.CallCount("Heartbeat"))
}

func TestFakeAckInterrupt(t *testing.T) {
	f := NewFake()
	ctx := context.Background()
	scope := types.Personal()

	due := time.Now().UnixMilli()
	f.SetTimer(&types.RunningTimer{
		ID:                   "t1",
		ProjectID:            "p1",
		NextInterruptAt:      &due,
		AwaitingInterruptAck: true,
	})

	// Continue: prompt resolved, due timestamp advanced.
	require.NoError(t, f.AckInterrupt(ctx, true, scope))
	cur := f.Timer()
	require.NotNil(t, cur)
	assert.False(t, cur.AwaitingInterruptAck)
	require.NotNil(t, cur.NextInterruptAt)
	assert.Greater(t, *cur.NextInterruptAt, due)

	// Decline: session finalized.
	cur.AwaitingInterruptAck = true
	f.SetTimer(cur)
	require.NoError(t, f.AckInterrupt(ctx, false, scope))
	assert.Nil(t, f.Timer())
}

func TestFakeMemberships(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	ms, err := f.ListMemberships(ctx)
	require.NoError(t, err)
	assert.Empty(t, ms)

	f.SetMemberships(types.Membership{
		ID:           "m1",
		Organization: types.Organization{ID: "org1", Name: "Acme"},
		Role:         "member",
	})

	cur, err := f.CurrentMembership(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	require.NoError(t, f.SetActiveOrganization(ctx, "org1"))
	cur, err = f.CurrentMembership(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, "org1", cur.Organization.ID)
}

func TestFakeProject(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	_, err := f.Project(ctx, "ghost", types.Personal())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	f.SetProject(&types.Project{ID: "p1", Name: "Client work"})
	p, err := f.Project(ctx, "p1", types.Personal())
	require.NoError(t, err)
	assert.Equal(t, "Client work", p.Name)
}
