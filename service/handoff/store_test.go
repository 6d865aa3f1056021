package handoff

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulepro/server/service/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func TestSelectionRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	snapshot := session.PractitionerSnapshot{
		Name:      "Dr. Asha Mehta",
		Phone:     "9876543210",
		PhotoPath: "/images/asha-mehta.png",
	}

	require.NoError(t, store.Save(ctx, 7, snapshot))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}

func TestSelectionOverwrite(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, session.PractitionerSnapshot{Name: "Dr. Asha Mehta"}))
	require.NoError(t, store.Save(ctx, 7, session.PractitionerSnapshot{Name: "Dr. Rohan Iyer"}))

	got, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rohan Iyer", got.Name)
}

func TestSelectionIsolatedPerPatient(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, session.PractitionerSnapshot{Name: "Dr. Asha Mehta"}))

	_, err := store.Get(ctx, 8)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSelectionMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSelectionClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, session.PractitionerSnapshot{Name: "Dr. Asha Mehta"}))
	require.NoError(t, store.Clear(ctx, 7))

	_, err := store.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNoSelection)

	// Clearing again is a no-op.
	assert.NoError(t, store.Clear(ctx, 7))
}

func TestSelectionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 7, session.PractitionerSnapshot{Name: "Dr. Asha Mehta"}))

	mr.FastForward(selectionTTL + time.Minute)

	_, err := store.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNoSelection)
}
