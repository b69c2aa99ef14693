package profile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmarket/taskmarket/internal/profile"
	"github.com/taskmarket/taskmarket/internal/profile/repositoryimpl"
	"github.com/taskmarket/taskmarket/pkg/cerr"
	"github.com/taskmarket/taskmarket/pkg/storage"
)

func newService(t *testing.T) *profile.Service {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return profile.NewService(repositoryimpl.NewYAMLRepository(store))
}

func TestService_CreateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.CreateProfile(ctx, "alice", "Alice", []string{"translation"})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Account)
	assert.Equal(t, uint32(0), created.Reputation)

	has, err := svc.HasProfile(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasProfile(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = svc.CreateProfile(ctx, "alice", "Alice again", nil)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
}

func TestService_Credits(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	_, err := svc.CreateProfile(ctx, "bob", "Bob", nil)
	require.NoError(t, err)

	require.NoError(t, svc.AddReputation(ctx, "bob"))
	require.NoError(t, svc.AddReputation(ctx, "bob"))
	require.NoError(t, svc.AddToCompletedWork(ctx, "bob", "task-1"))

	p, err := svc.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), p.Reputation)
	assert.Equal(t, []string{"task-1"}, p.CompletedTasks)

	// Crediting an unknown account surfaces the repository error.
	require.Error(t, svc.AddReputation(ctx, "nobody"))
}
