package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/session/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreEntityUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.ActiveEntity(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.SetActiveEntity(ctx, "s1", "client42"))
	require.NoError(t, store.SetActiveEntity(ctx, "s1", "client7"))

	id, err = store.ActiveEntity(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "client7", id, "last write wins")
}

func TestStoreMessagesOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendMessage(ctx, "s1", core.RoleHuman, "first"))
	require.NoError(t, store.AppendMessage(ctx, "s1", core.RoleAI, "second"))
	require.NoError(t, store.AppendMessage(ctx, "s1", core.RoleHuman, "third"))
	require.NoError(t, store.AppendMessage(ctx, "s2", core.RoleHuman, "elsewhere"))

	msgs, err := store.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
	assert.Equal(t, "s1", msgs[0].SessionID)

	msgs, err = store.Messages(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetActiveEntity(ctx, "s1", "client42"))
	require.NoError(t, store.AppendMessage(ctx, "s1", core.RoleHuman, "hello"))
	require.NoError(t, store.Close())

	reopened, err := sqlite.NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	id, err := reopened.ActiveEntity(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "client42", id)

	msgs, err := reopened.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}
