package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenfell/server/internal/storage/postgres"
	"github.com/ravenfell/server/internal/testutil"
)

func TestAccountRepository_CreateAndAuthenticate(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("viewer")
	acct, err := repo.Create(ctx, name, "hunter22")
	require.NoError(t, err)
	assert.Equal(t, name, acct.Username)
	assert.Equal(t, postgres.RolePlayer, acct.Role)
	assert.NotEqual(t, "hunter22", acct.PasswordHash)

	got, err := repo.Authenticate(ctx, name, "hunter22")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)

	_, err = repo.Authenticate(ctx, name, "wrong")
	assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)

	_, err = repo.Authenticate(ctx, uniqueName("nobody"), "hunter22")
	assert.ErrorIs(t, err, postgres.ErrAccountNotFound)
}

func TestAccountRepository_DuplicateUsername(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	name := uniqueName("dupe")
	_, err := repo.Create(ctx, name, "password123")
	require.NoError(t, err)

	_, err = repo.Create(ctx, name, "password456")
	assert.ErrorIs(t, err, postgres.ErrAccountExists)
}

func TestAccountRepository_Twitch(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	twitchID := uniqueName("tw")
	acct, err := repo.CreateFromTwitch(ctx, twitchID, uniqueName("streamer"))
	require.NoError(t, err)
	assert.Equal(t, twitchID, acct.TwitchID)
	assert.Empty(t, acct.PasswordHash)

	got, err := repo.GetByTwitchID(ctx, twitchID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)

	// Twitch accounts have no local password to authenticate with.
	_, err = repo.Authenticate(ctx, acct.Username, "")
	assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)

	_, err = repo.CreateFromTwitch(ctx, twitchID, uniqueName("other"))
	assert.ErrorIs(t, err, postgres.ErrAccountExists)
}

func TestAccountRepository_SetRole(t *testing.T) {
	repo := postgres.NewAccountRepository(testutil.NewPool(t))
	ctx := context.Background()

	acct, err := repo.Create(ctx, uniqueName("mod"), "password123")
	require.NoError(t, err)

	require.NoError(t, repo.SetRole(ctx, acct.ID, postgres.RoleModerator))

	got, err := repo.GetByUsername(ctx, acct.Username)
	require.NoError(t, err)
	assert.Equal(t, postgres.RoleModerator, got.Role)

	assert.ErrorIs(t, repo.SetRole(ctx, acct.ID, "wizard"), postgres.ErrInvalidRole)
}
