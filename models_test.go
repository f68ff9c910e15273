package auth_test

import (
	"testing"
	"time"

	auth "github.com/clinware/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestRefreshTokenIsLive(t *testing.T) {
	now := time.Now()

	t.Run("nil record", func(t *testing.T) {
		var record *auth.RefreshToken
		assert.False(t, record.IsLive(now))
	})

	t.Run("live record", func(t *testing.T) {
		record := &auth.RefreshToken{ExpiresAt: now.Add(time.Hour)}
		assert.True(t, record.IsLive(now))
	})

	t.Run("revoked record", func(t *testing.T) {
		record := &auth.RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}
		assert.False(t, record.IsLive(now))
	})

	t.Run("expired record", func(t *testing.T) {
		record := &auth.RefreshToken{ExpiresAt: now.Add(-time.Second)}
		assert.False(t, record.IsLive(now))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		record := &auth.RefreshToken{ExpiresAt: now}
		assert.False(t, record.IsLive(now))
	})
}
