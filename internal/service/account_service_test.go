package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/mail"
	"github.com/prn-tf/atlas-accounts/internal/repository/memory"
)

// recordingNotifier captures dispatched messages for assertions.
type recordingNotifier struct {
	messages []mail.Message
}

func (n *recordingNotifier) Dispatch(msg mail.Message) {
	n.messages = append(n.messages, msg)
}

func newAccountService(t *testing.T) (*AccountService, *memory.AccountRepository, *recordingNotifier) {
	t.Helper()
	repo := memory.NewAccountRepository()
	notifier := &recordingNotifier{}
	return NewAccountService(repo, notifier, zerolog.Nop()), repo, notifier
}

func TestAccountService_Create(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateAccountInput
		wantErr error
	}{
		{
			name:    "success",
			input:   CreateAccountInput{Name: "Andrew", Email: "a@x.com", Password: "pass9999"},
			wantErr: nil,
		},
		{
			name:    "email normalized",
			input:   CreateAccountInput{Name: "Mike", Email: "  Mike@Example.COM ", Password: "pass9999"},
			wantErr: nil,
		},
		{
			name:    "empty name",
			input:   CreateAccountInput{Name: "", Email: "a@x.com", Password: "pass9999"},
			wantErr: domain.ErrInvalidName,
		},
		{
			name:    "bad email shape",
			input:   CreateAccountInput{Name: "Andrew", Email: "not-an-email", Password: "pass9999"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "short password",
			input:   CreateAccountInput{Name: "Andrew", Email: "a@x.com", Password: "short"},
			wantErr: domain.ErrInvalidPassword,
		},
		{
			name:    "negative age",
			input:   CreateAccountInput{Name: "Andrew", Email: "a@x.com", Password: "pass9999", Age: -1},
			wantErr: domain.ErrInvalidAge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAccountService(t)

			account, err := svc.Create(context.Background(), tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, account.ID)
			require.Equal(t, tt.input.Name, account.Name)
			require.Equal(t, domain.NormalizeEmail(tt.input.Email), account.Email)
			require.Empty(t, account.Tokens)

			// Hash is one-way derived, never the plaintext.
			require.NotEqual(t, tt.input.Password, account.SecretHash)
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(tt.input.Password)))
		})
	}
}

func TestAccountService_Create_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateAccountInput{Name: "Andrew", Email: "a@x.com", Password: "pass9999"})
	require.NoError(t, err)

	// Same address modulo normalization.
	_, err = svc.Create(ctx, CreateAccountInput{Name: "Other", Email: "A@X.com", Password: "pass9999"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestAccountService_Create_StoredRecord(t *testing.T) {
	svc, repo, _ := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAccountInput{Name: "Andrew", Email: "a@x.com", Password: "pass9999"})
	require.NoError(t, err)

	stored, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, stored.ID)
	require.Equal(t, "Andrew", stored.Name)
}

func TestAccountService_Create_SendsWelcomeMail(t *testing.T) {
	svc, _, notifier := newAccountService(t)

	_, err := svc.Create(context.Background(), CreateAccountInput{Name: "Andrew", Email: "a@x.com", Password: "pass9999"})
	require.NoError(t, err)

	require.Len(t, notifier.messages, 1)
	require.Equal(t, "a@x.com", notifier.messages[0].To)
	require.Contains(t, notifier.messages[0].Body, "Andrew")
}

func TestAccountService_Authenticate(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAccountInput{Name: "Mike", Email: "mike@example.com", Password: "pass9999"})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		account, err := svc.Authenticate(ctx, "mike@example.com", "pass9999")
		require.NoError(t, err)
		require.Equal(t, created.ID, account.ID)
	})

	t.Run("email normalized before lookup", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, " MIKE@example.com ", "pass9999")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "mike@example.com", "wrongpass")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email fails with the same error", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "unknown@x.com", "pass9999")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAccountService_Update(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		wantErr error
		check   func(t *testing.T, a *domain.Account)
	}{
		{
			name:   "name and age",
			fields: map[string]any{"name": "Michael", "age": float64(30)},
			check: func(t *testing.T, a *domain.Account) {
				require.Equal(t, "Michael", a.Name)
				require.Equal(t, 30, a.Age)
			},
		},
		{
			name:   "email normalized",
			fields: map[string]any{"email": " New@Example.COM "},
			check: func(t *testing.T, a *domain.Account) {
				require.Equal(t, "new@example.com", a.Email)
			},
		},
		{
			name:    "unknown field rejects whole request",
			fields:  map[string]any{"name": "Michael", "height": 180},
			wantErr: domain.ErrUnknownField,
		},
		{
			name:    "bad email shape",
			fields:  map[string]any{"email": "nope"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "short password",
			fields:  map[string]any{"password": "short"},
			wantErr: domain.ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAccountService(t)
			ctx := context.Background()

			created, err := svc.Create(ctx, CreateAccountInput{Name: "Mike", Email: "mike@example.com", Password: "pass9999"})
			require.NoError(t, err)

			updated, err := svc.Update(ctx, created.ID, tt.fields)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				// The account must be unchanged after a rejected update.
				reloaded, err := svc.GetByID(ctx, created.ID)
				require.NoError(t, err)
				require.Equal(t, created.Name, reloaded.Name)
				require.Equal(t, created.Email, reloaded.Email)
				require.Equal(t, created.SecretHash, reloaded.SecretHash)
				return
			}
			require.NoError(t, err)
			tt.check(t, updated)
		})
	}
}

func TestAccountService_Update_RehashesPassword(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAccountInput{Name: "Mike", Email: "mike@example.com", Password: "pass9999"})
	require.NoError(t, err)
	oldHash := created.SecretHash

	updated, err := svc.Update(ctx, created.ID, map[string]any{"password": "newpass9999"})
	require.NoError(t, err)

	require.NotEqual(t, oldHash, updated.SecretHash)
	require.NotEqual(t, "newpass9999", updated.SecretHash)

	_, err = svc.Authenticate(ctx, "mike@example.com", "newpass9999")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "mike@example.com", "pass9999")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountService_Update_NotFound(t *testing.T) {
	svc, _, _ := newAccountService(t)

	_, err := svc.Update(context.Background(), "missing", map[string]any{"name": "X"})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_Delete(t *testing.T) {
	svc, _, notifier := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAccountInput{Name: "Mike", Email: "mike@example.com", Password: "pass9999"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, deleted.ID)

	_, err = svc.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	// Welcome + farewell.
	require.Len(t, notifier.messages, 2)
	require.Contains(t, notifier.messages[1].Body, "Goodbye")

	_, err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_Avatar(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateAccountInput{Name: "Mike", Email: "mike@example.com", Password: "pass9999"})
	require.NoError(t, err)

	// Account without an avatar and unknown account report the same error.
	_, err = svc.GetAvatar(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrAvatarNotFound)
	_, err = svc.GetAvatar(ctx, "unknown-id")
	require.ErrorIs(t, err, domain.ErrAvatarNotFound)

	data := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, svc.SetAvatar(ctx, created.ID, data))

	got, err := svc.GetAvatar(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NoError(t, svc.ClearAvatar(ctx, created.ID))
	_, err = svc.GetAvatar(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrAvatarNotFound)
}

func TestAccountSerializationOmitsSecrets(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	account, err := svc.Create(ctx, CreateAccountInput{Name: "Mike", Email: "mike@example.com", Password: "pass9999"})
	require.NoError(t, err)
	account.Tokens = []string{"some-token"}
	account.Avatar = []byte("png-bytes")

	out, err := json.Marshal(account)
	require.NoError(t, err)

	body := string(out)
	require.False(t, strings.Contains(body, "secret"), "serialized account leaks secret hash: %s", body)
	require.False(t, strings.Contains(body, "some-token"), "serialized account leaks tokens: %s", body)
	require.False(t, strings.Contains(body, account.SecretHash), "serialized account leaks hash value")
	require.Contains(t, body, "mike@example.com")
}
