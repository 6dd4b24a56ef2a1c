// Package storetest holds the behaviour every store.KV driver must share.
package storetest

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/bartab-console/internal/console/store"
	"github.com/stretchr/testify/require"
)

// RunKV exercises kv against the store.KV contract. kv must start empty.
func RunKV(t *testing.T, kv store.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "a", "1"))
		v, err := kv.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, "1", v)

		require.NoError(t, kv.Set(ctx, "a", "2"))
		v, err = kv.Get(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, "2", v)
	})

	t.Run("delete many", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "x", "1"))
		require.NoError(t, kv.Set(ctx, "y", "2"))
		require.NoError(t, kv.Set(ctx, "keep", "3"))

		require.NoError(t, kv.Delete(ctx, "x", "y", "never-set"))

		_, err := kv.Get(ctx, "x")
		require.ErrorIs(t, err, store.ErrNotFound)
		_, err = kv.Get(ctx, "y")
		require.ErrorIs(t, err, store.ErrNotFound)

		v, err := kv.Get(ctx, "keep")
		require.NoError(t, err)
		require.Equal(t, "3", v)
	})

	t.Run("delete nothing", func(t *testing.T) {
		require.NoError(t, kv.Delete(ctx))
	})

	t.Run("session round trip", func(t *testing.T) {
		ss := store.NewSessionStore(kv)
		pair, principal := SamplePair(), SamplePrincipal()

		require.True(t, ss.Save(ctx, pair, principal))

		snap, ok := ss.Load(ctx)
		require.True(t, ok)
		require.Equal(t, pair, snap.Credentials)
		require.Equal(t, principal.ID, snap.Principal.ID)
		require.Equal(t, principal.Role, snap.Principal.Role)

		ss.Clear(ctx)
		_, ok = ss.Load(ctx)
		require.False(t, ok)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, kv.Ping(ctx))
	})
}
