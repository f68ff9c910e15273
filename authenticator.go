package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RevocationStrategy selects how logout is enforced.
type RevocationStrategy int

const (
	// StrategyRefreshRegistry persists refresh tokens and revokes them at
	// logout; access tokens age out on their own short TTL.
	StrategyRefreshRegistry RevocationStrategy = iota
	// StrategyBlacklist issues only access tokens and blacklists the
	// presented token at logout.
	StrategyBlacklist
)

type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	sessions     SessionStore
	strategy     RevocationStrategy
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator wired to the given identity
// provider, token service and session store.
func NewAuthenticator(provider IdentityProvider, cfg Config, sessions SessionStore) *Auther {
	return &Auther{
		provider:     provider,
		tokenService: NewTokenService(cfg, defLogger{}),
		sessions:     sessions,
		strategy:     StrategyRefreshRegistry,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the default token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// WithStrategy selects the revocation strategy. The session store must
// match: a registry store for StrategyRefreshRegistry, a blacklist store
// for StrategyBlacklist.
func (s *Auther) WithStrategy(strategy RevocationStrategy) *Auther {
	s.strategy = strategy
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// SessionStore returns the session store so guards can share the same
// revocation view.
func (s *Auther) SessionStore() SessionStore {
	return s.sessions
}

// Strategy returns the active revocation strategy.
func (s *Auther) Strategy() RevocationStrategy {
	return s.strategy
}

var _ Authenticator = (*Auther)(nil)

// Login verifies the credentials and mints a token pair. In the blacklist
// strategy only the access token is issued.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, err
	}

	accessToken, accessExpiresAt, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		return nil, err
	}

	pair := &TokenPair{
		AccessToken:     accessToken,
		AccessExpiresAt: accessExpiresAt,
	}

	if s.strategy == StrategyRefreshRegistry {
		refreshToken, refreshExpiresAt, err := s.tokenService.IssueRefresh(identity.ID())
		if err != nil {
			return nil, err
		}

		userID, err := uuid.Parse(identity.ID())
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "identity id is not a uuid")
		}

		record := &RefreshToken{
			UserID:    userID,
			Token:     refreshToken,
			ExpiresAt: refreshExpiresAt,
		}

		if err := s.sessions.Persist(ctx, record); err != nil {
			s.logger.Error("Login failed to persist refresh token", "error", err)
			return nil, err
		}

		pair.RefreshToken = refreshToken
		pair.RefreshExpiresAt = &refreshExpiresAt
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"identifier": identifier,
	})

	return pair, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// refresh token itself is not rotated: until logout or its 7 day expiry the
// same token keeps working, which also means a captured token stays
// replayable for that window. Rotation would require an atomic
// check-and-invalidate so only one of two racing calls wins; the current
// contract deliberately lets concurrent refreshes succeed independently.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenService.Validate(refreshToken)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventRefreshDenied, ActorRef{Type: "unknown"}, "", map[string]any{
			"error": err.Error(),
		})
		return "", err
	}

	if claims.Use() != TokenUseRefresh {
		return "", ErrTokenMalformed.Clone().WithMetadata(map[string]any{
			"token_use": claims.Use(),
		})
	}

	live, err := s.sessions.IsLive(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	if !live {
		s.emitAuthEvent(ctx, ActivityEventRefreshDenied, ActorRef{Type: "user"}, claims.UserID(), nil)
		return "", ErrTokenRevoked
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, claims.UserID())
	if err != nil {
		if goerrors.Is(err, ErrIdentityNotFound) {
			// The account vanished after issuance; the token is dead weight.
			return "", ErrTokenRevoked
		}
		return "", err
	}

	accessToken, _, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefreshed, s.actorFromIdentity(identity), identity.ID(), nil)

	return accessToken, nil
}

// Logout invalidates the presented token: the refresh record in the
// registry strategy, the access token in the blacklist strategy. Logout is
// idempotent, an absent, expired, or already revoked token still succeeds.
// Registry logouts leave already issued access tokens valid until their own
// short expiry; that window is the documented trade-off of the design.
func (s *Auther) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.tokenService.Validate(token)
	if err != nil {
		// Expired or malformed tokens cannot authenticate anything, there
		// is nothing left to revoke.
		s.logger.Debug("Logout with dead token", "error", err)
		return nil
	}

	if err := s.sessions.Revoke(ctx, token, claims.Expires()); err != nil {
		s.logger.Error("Logout failed to revoke token", "error", err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: claims.UserID(), Type: "user"}, claims.UserID(), nil)

	return nil
}

// CurrentUser resolves the identity for an already authenticated caller.
func (s *Auther) CurrentUser(ctx context.Context, userID string) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, userID)
	if err != nil {
		s.logger.Error("CurrentUser find identity error", "error", err)
		return nil, err
	}

	return identity, nil
}

// ClaimsFromToken validates the raw token and returns its claims.
func (s *Auther) ClaimsFromToken(raw string) (AuthClaims, error) {
	return s.tokenService.Validate(raw)
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}
