package memory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johanWP/DevSkillTracker/internal/persistence"
)

func TestStore_Documents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	_, err := store.GetByKey(ctx, "devs", "missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.SetByKey(ctx, "devs", "b", json.RawMessage(`{"name":"B"}`)))
	require.NoError(t, store.SetByKey(ctx, "devs", "a", json.RawMessage(`{"name":"A"}`)))
	require.NoError(t, store.SetByKey(ctx, "devs", "a", json.RawMessage(`{"name":"A2"}`)))

	docs, err := store.ListAll(ctx, "devs")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Key)
	assert.JSONEq(t, `{"name":"A2"}`, string(docs[0].Data))

	err = store.CreateByKey(ctx, "devs", "a", json.RawMessage(`{}`))
	require.ErrorIs(t, err, persistence.ErrAlreadyExists)
	require.NoError(t, store.CreateByKey(ctx, "devs", "c", json.RawMessage(`{}`)))

	empty, err := store.ListAll(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_Fail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	store.Fail(errors.New("network down"))

	_, err := store.ListAll(ctx, "devs")
	require.ErrorIs(t, err, persistence.ErrBackendUnavailable)
	require.ErrorIs(t, store.SetByKey(ctx, "devs", "a", nil), persistence.ErrBackendUnavailable)

	store.Fail(nil)
	_, err = store.ListAll(ctx, "devs")
	require.NoError(t, err)
}

func TestStore_Credentials(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()

	require.NoError(t, store.PutCredential(ctx, persistence.Credential{UID: "u1", Email: " Admin@Example.com", PasswordHash: "h"}))
	credential, err := store.GetCredential(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", credential.UID)
	assert.Equal(t, "admin@example.com", credential.Email)

	_, err = store.GetCredential(ctx, "nobody@example.com")
	require.ErrorIs(t, err, persistence.ErrNotFound)
	require.Error(t, store.PutCredential(ctx, persistence.Credential{}))
}

func TestStore_Sessions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateSession(ctx, persistence.Session{Token: "t1", UID: "u1", CreatedAt: base, ExpiresAt: base.Add(time.Hour)}))
	require.NoError(t, store.CreateSession(ctx, persistence.Session{Token: "t2", UID: "u2", CreatedAt: base.Add(time.Minute), ExpiresAt: base.Add(2 * time.Hour)}))
	require.ErrorIs(t, store.CreateSession(ctx, persistence.Session{Token: "t1"}), persistence.ErrAlreadyExists)

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "t1", sessions[0].Token)

	expired, err := store.DeleteExpiredSessions(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, "t1", expired[0].Token)

	_, err = store.GetSession(ctx, "t1")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, store.DeleteSession(ctx, "t2"))
	require.ErrorIs(t, store.DeleteSession(ctx, "t2"), persistence.ErrNotFound)
}

func TestStore_WorksWithTypedCollections(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	developers := persistence.NewDevelopers(store)

	require.NoError(t, developers.Create(ctx, persistence.Developer{ID: "a@example.com", Email: "a@example.com", Name: "A"}))
	require.ErrorIs(t, developers.Create(ctx, persistence.Developer{ID: "a@example.com"}), persistence.ErrAlreadyExists)

	catalog := persistence.NewCatalog(store)
	_, found, err := catalog.SkillsCatalog(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}
