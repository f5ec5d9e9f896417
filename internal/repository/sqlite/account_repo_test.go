package sqlite

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/repository"
)

func newTestRepo(t *testing.T) repository.AccountRepository {
	t.Helper()

	db, err := NewDB(context.Background(), DefaultConfig(":memory:"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	return NewAccountRepository(db)
}

func testAccount(id, email string) *domain.Account {
	return domain.NewAccount(id, "Mike", email, "bcrypt-hash", 30)
}

func TestAccountRepo_CreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := testAccount("id1", "mike@example.com")
	require.NoError(t, repo.Create(ctx, account))

	byID, err := repo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, "mike@example.com", byID.Email)
	require.Equal(t, "bcrypt-hash", byID.SecretHash)
	require.Empty(t, byID.Tokens)

	byEmail, err := repo.GetByEmail(ctx, "mike@example.com")
	require.NoError(t, err)
	require.Equal(t, "id1", byEmail.ID)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAccountRepo_DuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testAccount("id1", "mike@example.com")))
	err := repo.Create(ctx, testAccount("id2", "mike@example.com"))
	require.ErrorIs(t, err, repository.ErrDuplicate)

	exists, err := repo.ExistsByEmail(ctx, "mike@example.com")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "other@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestAccountRepo_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	account := testAccount("id1", "mike@example.com")
	require.NoError(t, repo.Create(ctx, account))

	account.Name = "Michael"
	account.Email = "michael@example.com"
	account.SecretHash = "new-hash"
	require.NoError(t, repo.Update(ctx, account))

	got, err := repo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, "Michael", got.Name)
	require.Equal(t, "michael@example.com", got.Email)
	require.Equal(t, "new-hash", got.SecretHash)

	require.ErrorIs(t, repo.Update(ctx, testAccount("missing", "x@y.com")), repository.ErrNotFound)
}

func TestAccountRepo_Tokens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testAccount("id1", "mike@example.com")))

	require.NoError(t, repo.AddToken(ctx, "id1", "tok-a"))
	require.NoError(t, repo.AddToken(ctx, "id1", "tok-b"))

	got, err := repo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, []string{"tok-a", "tok-b"}, got.Tokens)

	require.NoError(t, repo.RemoveToken(ctx, "id1", "tok-a"))
	got, err = repo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, []string{"tok-b"}, got.Tokens)

	require.NoError(t, repo.ClearTokens(ctx, "id1"))
	got, err = repo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Empty(t, got.Tokens)

	require.ErrorIs(t, repo.AddToken(ctx, "missing", "tok"), repository.ErrNotFound)
}

func TestAccountRepo_DeleteCascadesTokens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testAccount("id1", "mike@example.com")))
	require.NoError(t, repo.AddToken(ctx, "id1", "tok-a"))
	require.NoError(t, repo.AddToken(ctx, "id1", "tok-b"))

	require.NoError(t, repo.Delete(ctx, "id1"))

	_, err := repo.GetByID(ctx, "id1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Re-creating the account must come back with no leftover tokens.
	require.NoError(t, repo.Create(ctx, testAccount("id1", "mike@example.com")))
	got, err := repo.GetByID(ctx, "id1")
	require.NoError(t, err)
	require.Empty(t, got.Tokens)

	require.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrNotFound)
}

func TestAccountRepo_Avatar(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testAccount("id1", "mike@example.com")))

	// Same ErrNotFound for no-avatar and unknown account.
	_, err := repo.GetAvatar(ctx, "id1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetAvatar(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	data := []byte{1, 2, 3, 4}
	require.NoError(t, repo.SetAvatar(ctx, "id1", data))

	got, err := repo.GetAvatar(ctx, "id1")
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, repo.ClearAvatar(ctx, "id1"))
	_, err = repo.GetAvatar(ctx, "id1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.ErrorIs(t, repo.SetAvatar(ctx, "missing", data), repository.ErrNotFound)
}

func TestAccountRepo_List(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"id1", "id2", "id3"} {
		require.NoError(t, repo.Create(ctx, testAccount(id, id+"@example.com")))
	}

	result, err := repo.List(ctx, repository.ListOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Equal(t, int64(3), result.Total)
	require.Len(t, result.Items, 2)
}
