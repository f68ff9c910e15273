package auth_test

import (
	"testing"
	"time"

	auth "github.com/clinware/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAccess(t *testing.T) {
	service := auth.NewTokenService(testConfig(), nil)
	identity := newTestIdentity()

	token, expiresAt, err := service.IssueAccess(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.WithinDuration(t, time.Now().Add(auth.DefaultAccessTokenTTL), expiresAt, 5*time.Second)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), claims.Subject())
	assert.Equal(t, identity.ID(), claims.UserID())
	assert.Equal(t, "testuser", claims.Username())
	assert.Equal(t, "test@example.com", claims.Email())
	assert.Equal(t, "admin", claims.Role())
	assert.Equal(t, auth.TokenUseAccess, claims.Use())
	assert.WithinDuration(t, expiresAt, claims.Expires(), time.Second)
}

func TestIssueRefresh(t *testing.T) {
	service := auth.NewTokenService(testConfig(), nil)
	userID := uuid.New().String()

	token, expiresAt, err := service.IssueRefresh(userID)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(auth.DefaultRefreshTokenTTL), expiresAt, 5*time.Second)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, auth.TokenUseRefresh, claims.Use())
	// refresh tokens carry only the uid
	assert.Empty(t, claims.Username())
	assert.Empty(t, claims.Email())
	assert.Empty(t, claims.Role())
}

func TestValidate(t *testing.T) {
	service := auth.NewTokenService(testConfig(), nil)

	t.Run("expired token", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   uuid.New().String(),
				Audience:  jwt.ClaimStrings{"test:audience"},
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}

		token, err := service.SignClaims(claims)
		require.NoError(t, err)

		_, err = service.Validate(token)
		require.Error(t, err)
		assert.True(t, auth.IsTokenExpiredError(err))
		assert.True(t, goerrors.Is(err, auth.ErrTokenExpired))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
		assert.False(t, auth.IsTokenExpiredError(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := auth.NewTokenService(&auth.SimpleConfig{
			SigningKey: "a-different-key",
			Issuer:     "test-issuer",
			Audience:   []string{"test:audience"},
		}, nil)

		token, _, err := other.IssueAccess(newTestIdentity())
		require.NoError(t, err)

		_, err = service.Validate(token)
		require.Error(t, err)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := auth.NewTokenService(&auth.SimpleConfig{
			SigningKey: "test-signing-key",
			Issuer:     "someone-else",
			Audience:   []string{"test:audience"},
		}, nil)

		token, _, err := other.IssueAccess(newTestIdentity())
		require.NoError(t, err)

		_, err = service.Validate(token)
		require.Error(t, err)
	})

	t.Run("tokens carry unique jti", func(t *testing.T) {
		identity := newTestIdentity()

		a, _, err := service.IssueAccess(identity)
		require.NoError(t, err)
		b, _, err := service.IssueAccess(identity)
		require.NoError(t, err)

		parse := func(raw string) *auth.JWTClaims {
			parsed, err := jwt.ParseWithClaims(raw, &auth.JWTClaims{}, func(t *jwt.Token) (any, error) {
				return []byte("test-signing-key"), nil
			})
			require.NoError(t, err)
			return parsed.Claims.(*auth.JWTClaims)
		}

		assert.NotEqual(t, parse(a).RegisteredClaims.ID, parse(b).RegisteredClaims.ID)
	})
}
