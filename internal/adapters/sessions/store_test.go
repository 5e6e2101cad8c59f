package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clkhoo5211/aphorism/internal/adapters/sessions"
	"github.com/clkhoo5211/aphorism/internal/domain"
	"github.com/clkhoo5211/aphorism/internal/ports"
)

func openSQLite(t *testing.T) *sessions.SQLiteStore {
	t.Helper()
	store, err := sessions.OpenSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T) map[string]ports.SessionStore {
	return map[string]ports.SessionStore{
		"memory": sessions.NewMemoryStore(),
		"sqlite": openSQLite(t),
	}
}

func testSession(id string, updated time.Time) ports.Session {
	return ports.Session{
		ID:        id,
		CatalogID: "rider_waite",
		Deck: []ports.CardRef{
			{ID: "0", Reversed: true},
			{ID: "13"},
			{ID: "77", Reversed: true},
		},
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestSessionStore_Lifecycle(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Create(ctx, testSession("01JTEST", now)))

			got, err := store.Get(ctx, "01JTEST")
			require.NoError(t, err)
			require.Equal(t, "rider_waite", got.CatalogID)
			require.Len(t, got.Deck, 3)
			require.True(t, got.Deck[0].Reversed)
			require.Equal(t, "13", got.Deck[1].ID)
			require.True(t, got.UpdatedAt.Equal(now))

			got.Deck = got.Deck[1:]
			got.Draws = 1
			got.UpdatedAt = now.Add(time.Minute)
			require.NoError(t, store.Save(ctx, got))

			again, err := store.Get(ctx, "01JTEST")
			require.NoError(t, err)
			require.Len(t, again.Deck, 2)
			require.Equal(t, 1, again.Draws)
			require.True(t, again.UpdatedAt.Equal(now.Add(time.Minute)))

			require.NoError(t, store.Delete(ctx, "01JTEST"))
			_, err = store.Get(ctx, "01JTEST")
			require.ErrorIs(t, err, domain.ErrSessionNotFound)
		})
	}
}

func TestSessionStore_NotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			require.ErrorIs(t, err, domain.ErrSessionNotFound)
			require.ErrorIs(t, store.Save(ctx, testSession("missing", time.Now())), domain.ErrSessionNotFound)
			require.ErrorIs(t, store.Delete(ctx, "missing"), domain.ErrSessionNotFound)
		})
	}
}

func TestSessionStore_Prune(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Create(ctx, testSession("old", now.Add(-2*time.Hour))))
			require.NoError(t, store.Create(ctx, testSession("fresh", now)))

			n, err := store.Prune(ctx, now.Add(-time.Hour))
			require.NoError(t, err)
			require.Equal(t, 1, n)

			_, err = store.Get(ctx, "old")
			require.ErrorIs(t, err, domain.ErrSessionNotFound)
			_, err = store.Get(ctx, "fresh")
			require.NoError(t, err)
		})
	}
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := sessions.OpenSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, first.Create(ctx, testSession("01JKEEP", time.Now())))
	require.NoError(t, first.Close())

	second, err := sessions.OpenSQLite(dir)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "01JKEEP")
	require.NoError(t, err)
	require.Len(t, got.Deck, 3)
}

func TestMemoryStore_DoesNotAliasDeck(t *testing.T) {
	store := sessions.NewMemoryStore()
	ctx := context.Background()
	sess := testSession("alias", time.Now())

	require.NoError(t, store.Create(ctx, sess))
	sess.Deck[0].ID = "mutated"

	got, err := store.Get(ctx, "alias")
	require.NoError(t, err)
	require.Equal(t, "0", got.Deck[0].ID)
}
