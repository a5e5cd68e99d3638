package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryService_CreateDeveloper(t *testing.T) {
	t.Parallel()

	t.Run("normalizes email and keys the record by it", func(t *testing.T) {
		t.Parallel()
		repo := newFakeDeveloperRepo()
		svc := NewDirectoryService(repo)

		created, err := svc.CreateDeveloper(context.Background(), DeveloperInput{
			Name:   "John Doe",
			Email:  " JOHN.DOE@TEST.COM ",
			Role:   "Frontend Developer",
			Active: true,
			Skills: []Skill{{Name: "React", Proficiency: 4}},
		})
		require.NoError(t, err)
		assert.Equal(t, "john.doe@test.com", created.ID)
		assert.Equal(t, "john.doe@test.com", created.Email)

		stored, err := repo.GetDeveloper(context.Background(), "john.doe@test.com")
		require.NoError(t, err)
		assert.Equal(t, created, stored)

		exists, err := svc.DeveloperExists(context.Background(), "John.Doe@Test.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("upserts on repeated email", func(t *testing.T) {
		t.Parallel()
		repo := newFakeDeveloperRepo()
		svc := NewDirectoryService(repo)

		_, err := svc.CreateDeveloper(context.Background(), DeveloperInput{Name: "First", Email: "dup@example.com"})
		require.NoError(t, err)
		_, err = svc.CreateDeveloper(context.Background(), DeveloperInput{Name: "Second", Email: "DUP@example.com"})
		require.NoError(t, err)

		developers, err := svc.ListDevelopers(context.Background())
		require.NoError(t, err)
		require.Len(t, developers, 1)
		assert.Equal(t, "Second", developers[0].Name)
	})

	t.Run("rejects blank email", func(t *testing.T) {
		t.Parallel()
		repo := newFakeDeveloperRepo()
		svc := NewDirectoryService(repo)

		_, err := svc.CreateDeveloper(context.Background(), DeveloperInput{Name: "No Email", Email: "  "})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "email")
		assert.Zero(t, repo.writes())
	})

	t.Run("tags backend failures", func(t *testing.T) {
		t.Parallel()
		repo := newFakeDeveloperRepo()
		repo.putErr = errors.New("connection reset")
		metrics := &recordingMetrics{}
		svc := NewDirectoryService(repo, WithMetrics(metrics))

		_, err := svc.CreateDeveloper(context.Background(), DeveloperInput{Name: "X", Email: "x@example.com"})
		require.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Equal(t, []string{"create"}, metrics.storeErrors)
	})
}

func TestDirectoryService_CreateDeveloperIfAbsent(t *testing.T) {
	t.Parallel()

	repo := newFakeDeveloperRepo()
	svc := NewDirectoryService(repo)

	_, err := svc.CreateDeveloperIfAbsent(context.Background(), DeveloperInput{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateDeveloperIfAbsent(context.Background(), DeveloperInput{Name: "B", Email: " A@EXAMPLE.COM"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	stored, err := repo.GetDeveloper(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "A", stored.Name)

	repo.insertErr = errors.New("disk full")
	_, err = svc.CreateDeveloperIfAbsent(context.Background(), DeveloperInput{Name: "C", Email: "c@example.com"})
	require.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestDirectoryService_ListDevelopers(t *testing.T) {
	t.Parallel()

	t.Run("returns stored developers", func(t *testing.T) {
		t.Parallel()
		repo := newFakeDeveloperRepo()
		repo.developers["a@example.com"] = Developer{ID: "a@example.com", Email: "a@example.com", Name: "A"}
		repo.developers["b@example.com"] = Developer{ID: "b@example.com", Email: "b@example.com", Name: "B"}

		developers, err := NewDirectoryService(repo).ListDevelopers(context.Background())
		require.NoError(t, err)
		assert.Len(t, developers, 2)
	})

	t.Run("wraps backend failures", func(t *testing.T) {
		t.Parallel()
		repo := newFakeDeveloperRepo()
		repo.listErr = errors.New("unavailable")
		metrics := &recordingMetrics{}

		developers, err := NewDirectoryService(repo, WithMetrics(metrics)).ListDevelopers(context.Background())
		require.ErrorIs(t, err, ErrStoreUnavailable)
		assert.Nil(t, developers)
		assert.Equal(t, []string{"list"}, metrics.storeErrors)
	})
}

func TestDirectoryService_DeveloperExists(t *testing.T) {
	t.Parallel()

	repo := newFakeDeveloperRepo()
	svc := NewDirectoryService(repo)

	exists, err := svc.DeveloperExists(context.Background(), "missing@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = svc.DeveloperExists(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, exists)

	repo.getErr = errors.New("timeout")
	_, err = svc.DeveloperExists(context.Background(), "any@example.com")
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
