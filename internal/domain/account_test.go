package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a@x.com", "a@x.com"},
		{"  a@x.com  ", "a@x.com"},
		{"Mike@Example.COM", "mike@example.com"},
		{"\tUser@Domain.Org\n", "user@domain.org"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}

func TestValidEmail(t *testing.T) {
	require.True(t, ValidEmail("a@x.com"))
	require.True(t, ValidEmail("user.name+tag@example.co.uk"))
	require.False(t, ValidEmail("not-an-email"))
	require.False(t, ValidEmail(""))
	require.False(t, ValidEmail("@x.com"))
}

func TestAccountHasToken(t *testing.T) {
	account := NewAccount("id1", "Mike", "mike@example.com", "hash", 0)
	require.False(t, account.HasToken("t1"))

	account.Tokens = append(account.Tokens, "t1", "t2")
	require.True(t, account.HasToken("t1"))
	require.True(t, account.HasToken("t2"))
	require.False(t, account.HasToken("t3"))

	// Exact string match only.
	require.False(t, account.HasToken("t"))
}

func TestAccountJSONHidesSensitiveFields(t *testing.T) {
	account := NewAccount("id1", "Mike", "mike@example.com", "bcrypt-hash", 30)
	account.Tokens = []string{"tok-a", "tok-b"}
	account.Avatar = []byte("raw-png")

	out, err := json.Marshal(account)
	require.NoError(t, err)

	body := string(out)
	require.NotContains(t, body, "bcrypt-hash")
	require.NotContains(t, body, "tok-a")
	require.False(t, strings.Contains(body, "avatar"), "avatar bytes belong to their own endpoint: %s", body)
	require.Contains(t, body, `"id":"id1"`)
	require.Contains(t, body, `"name":"Mike"`)
	require.Contains(t, body, `"age":30`)
}
