package tokens

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	saved := testToken{AccessToken: "abc", RefreshToken: "def", ExpiresAt: 1735689600}
	require.NoError(t, store.Save(ctx, "strava", saved))

	var loaded testToken
	require.NoError(t, store.Load(ctx, "strava", &loaded))
	assert.Equal(t, saved, loaded)
}

func TestSaveReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, "strava", testToken{AccessToken: "old"}))
	require.NoError(t, store.Save(ctx, "strava", testToken{AccessToken: "new"}))

	var loaded testToken
	require.NoError(t, store.Load(ctx, "strava", &loaded))
	assert.Equal(t, "new", loaded.AccessToken)
}

func TestLoadMissingService(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	var loaded testToken
	err := store.Load(ctx, "stryd", &loaded)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestServicesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, "strava", testToken{AccessToken: "s1"}))
	require.NoError(t, store.Save(ctx, "stryd", testToken{AccessToken: "s2"}))

	var strava, stryd testToken
	require.NoError(t, store.Load(ctx, "strava", &strava))
	require.NoError(t, store.Load(ctx, "stryd", &stryd))
	assert.Equal(t, "s1", strava.AccessToken)
	assert.Equal(t, "s2", stryd.AccessToken)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, "strava", testToken{AccessToken: "abc"}))
	require.NoError(t, store.Delete(ctx, "strava"))

	var loaded testToken
	assert.ErrorIs(t, store.Load(ctx, "strava", &loaded), ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, store.Delete(ctx, "strava"))
}
