package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// TokenPair carries the credentials minted at login. RefreshToken and its
// expiry are absent when the authenticator runs a blacklist-only session
// strategy; the pointer keeps the zero timestamp out of the JSON payload.
type TokenPair struct {
	AccessToken      string     `json:"access_token"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}

// Authenticator holds methods to deal with the session lifecycle
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, userID string) (Identity, error)
	ClaimsFromToken(token string) (AuthClaims, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetContextKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetRefreshCookieName() string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords. Implementations run the
// hash off the caller's dispatch path; the context bounds the wait.
type PasswordAuthenticator interface {
	HashPassword(ctx context.Context, password string) (string, error)
	ComparePasswordAndHash(ctx context.Context, password, hash string) error
}

// TokenService mints and validates signed tokens. Validation is a pure
// cryptographic check, it never consults session state.
type TokenService interface {
	IssueAccess(identity Identity) (string, time.Time, error)
	IssueRefresh(userID string) (string, time.Time, error)
	Validate(token string) (AuthClaims, error)
}

// SessionStore is the single enforcement point for logout. Both revocation
// strategies (refresh-token registry, access-token blacklist) implement this
// capability set. Every write must be visible to subsequent reads from any
// goroutine before the call returns.
type SessionStore interface {
	// Persist records a freshly issued refresh token. Blacklist strategies
	// treat this as a no-op since they only track revoked access tokens.
	Persist(ctx context.Context, record *RefreshToken) error
	// IsLive reports whether the presented token is still usable. Registry
	// strategies require a live record; blacklist strategies only require
	// absence from the blacklist.
	IsLive(ctx context.Context, token string) (bool, error)
	// Revoke invalidates the token. Revocation is monotonic and idempotent:
	// revoking an absent or already revoked token succeeds as a no-op.
	// expiresAt bounds blacklist growth, entries die with the token itself.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	// Prune discards entries whose token passed its own expiry.
	Prune(ctx context.Context, now time.Time) (int64, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
