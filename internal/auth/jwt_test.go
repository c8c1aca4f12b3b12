package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/housecheck/internal/domain"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		Role: string(domain.RoleHouseWatcher),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "pm-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestParseTokenReturnsActor(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, secret, validClaims())

	claims, err := ParseToken(secret, "pm-identity", token)
	require.NoError(t, err)
	assert.Equal(t, domain.Actor{UserID: "user-1", Role: domain.RoleHouseWatcher}, claims.Actor())
}

func TestParseTokenWithoutIssuerCheck(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, secret, validClaims())

	_, err := ParseToken(secret, "", token)
	assert.NoError(t, err)
}

func TestParseTokenRejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims())},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, secret, func() Claims {
			c := validClaims()
			c.Issuer = "someone-else"
			return c
		}())},
		{"expired", sign(t, jwt.SigningMethodHS256, secret, expired)},
		{"no subject", sign(t, jwt.SigningMethodHS256, secret, noSubject)},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, secret, validClaims())},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(secret, "pm-identity", tt.token)
			assert.Error(t, err)
		})
	}
}
