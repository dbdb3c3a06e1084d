package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", 60)

	token, err := svc.GenerateToken("admin@example.com", "admin")
	require.NoError(t, err)

	email, role, err := svc.ParseAuthContext(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)
	assert.Equal(t, "admin", role)
}

func TestParseRejectsBadTokens(t *testing.T) {
	svc := NewService("secret", 60)

	_, _, err := svc.ParseAuthContext("not-a-token")
	assert.Error(t, err)

	// Token signed with a different secret.
	other := NewService("other-secret", 60)
	token, err := other.GenerateToken("admin@example.com", "admin")
	require.NoError(t, err)
	_, _, err = svc.ParseAuthContext(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService("secret", -1)
	token, err := svc.GenerateToken("admin@example.com", "admin")
	require.NoError(t, err)
	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}
