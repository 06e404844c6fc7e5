package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminUser() *User {
	return &User{ID: 7, Email: "admin@test.local", Role: RoleAdmin, IsActive: true}
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", time.Hour)

	token, err := issuer.Issue(adminUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin@test.local", claims.Email)
	assert.Equal(t, string(RoleAdmin), claims.RoleName)
}

func TestTokenVerifyBearerPrefix(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", time.Hour)
	token, err := issuer.Issue(adminUser())
	require.NoError(t, err)

	claims, err := issuer.Verify("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
}

func TestTokenIssueRejectsNonAdmin(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", time.Hour)

	for _, role := range []Role{RoleCustomer, RoleInspector, RoleWorkshop, RoleAccountant} {
		_, err := issuer.Issue(&User{ID: 1, Email: "x@test.local", Role: role})
		assert.ErrorIs(t, err, ErrNotAdmin, string(role))
	}
	_, err := issuer.Issue(nil)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestTokenVerifyExpired(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", time.Nanosecond)
	token, err := issuer.Issue(adminUser())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenVerifyWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", time.Hour).Issue(adminUser())
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifyGarbage(t *testing.T) {
	issuer := NewTokenIssuer("super-secret", time.Hour)

	for _, raw := range []string{"", "Bearer ", "not.a.token"} {
		_, err := issuer.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
