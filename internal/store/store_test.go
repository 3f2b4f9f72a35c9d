package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s BlobStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "wellness-gauntlet-data", []byte(`{"v":1}`)))
	require.NoError(t, s.Put(ctx, "wellness-gauntlet-data", []byte(`{"v":2}`)))

	got, err := s.Get(ctx, "wellness-gauntlet-data")
	require.NoError(t, err)
	require.JSONEq(t, `{"v":2}`, string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Contains(t, keys, "wellness-gauntlet-data")

	require.NoError(t, s.Delete(ctx, "wellness-gauntlet-data"))
	require.ErrorIs(t, s.Delete(ctx, "wellness-gauntlet-data"), ErrNotFound)

	_, err = s.Get(ctx, "wellness-gauntlet-data")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreCopiesBuffers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", buf))
	buf[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gauntlet.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gauntlet.db")

	first, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Put(ctx, "k", []byte("persisted")))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "persisted", string(got))
}

func TestFirestoreStoreAgainstEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "gauntlet-test")
	require.NoError(t, err)

	s := NewFirestoreStore(client, "gauntlet_state_test")
	defer s.Close()
	exerciseStore(t, s)
}
