package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stewardship/internal/accessgroup/models"
	"stewardship/internal/accessgroup/service"
	"stewardship/internal/accessgroup/store"
	dirservice "stewardship/internal/directory/service"
	dirstore "stewardship/internal/directory/store"
	id "stewardship/pkg/domain"
	"stewardship/pkg/platform/tx"
	"stewardship/pkg/requestcontext"
	"stewardship/pkg/testutil"
)

func TestRunOnceArchivesExpiredGroups(t *testing.T) {
	now := testutil.FixedNow
	directory := dirservice.New(dirstore.NewInMemory())
	actor, err := directory.RegisterActor(context.Background(), dirservice.RegisterActorCommand{Name: "Maya"})
	require.NoError(t, err)
	groups := service.New(store.NewInMemory(), directory, tx.NewShardedRunner(time.Second))

	at := func(ts time.Time) context.Context {
		return requestcontext.WithActorID(requestcontext.WithTime(context.Background(), ts), actor.ID)
	}
	expiry := now.Add(24 * time.Hour)
	g, err := groups.Create(at(now), service.CreateCommand{
		Name:      "Auditors",
		Type:      models.TypeTemporary,
		ExpiresAt: &expiry,
		Members:   []id.ActorID{actor.ID},
	})
	require.NoError(t, err)

	w, err := New(groups)
	require.NoError(t, err)

	n, err := w.RunOnce(at(now))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = w.RunOnce(at(expiry))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := groups.Get(at(expiry), g.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestNewRequiresExpirer(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

type countingExpirer struct {
	calls int
}

func (c *countingExpirer) ExpireDue(context.Context) (int, error) {
	c.calls++
	return 0, nil
}

func TestStartSweepsUntilCancelled(t *testing.T) {
	expirer := &countingExpirer{}
	w, err := New(expirer, WithInterval(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Start(ctx), context.DeadlineExceeded)
	assert.Positive(t, expirer.calls)
}
