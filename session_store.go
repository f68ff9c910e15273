package auth

import (
	"context"
	"time"
)

// RefreshRegistryStore is the dual-token session strategy: refresh tokens
// are persisted at login and revoked at logout; access tokens are never
// stored and simply age out.
type RefreshRegistryStore struct {
	tokens RefreshTokens
}

var _ SessionStore = (*RefreshRegistryStore)(nil)

func NewRefreshRegistryStore(tokens RefreshTokens) *RefreshRegistryStore {
	return &RefreshRegistryStore{tokens: tokens}
}

func (s *RefreshRegistryStore) Persist(ctx context.Context, record *RefreshToken) error {
	_, err := s.tokens.Persist(ctx, record)
	return err
}

func (s *RefreshRegistryStore) IsLive(ctx context.Context, token string) (bool, error) {
	record, err := s.tokens.FindLive(ctx, token, time.Now())
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

func (s *RefreshRegistryStore) Revoke(ctx context.Context, token string, _ time.Time) error {
	return s.tokens.Revoke(ctx, token, time.Now())
}

func (s *RefreshRegistryStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	return s.tokens.Purge(ctx, now)
}

// BlacklistStore is the single-token session strategy: nothing is stored at
// login, and logout blacklists the presented access token until its own
// expiry passes.
type BlacklistStore struct {
	tokens RevokedTokens
}

var _ SessionStore = (*BlacklistStore)(nil)

func NewBlacklistStore(tokens RevokedTokens) *BlacklistStore {
	return &BlacklistStore{tokens: tokens}
}

// Persist is a no-op: the blacklist only tracks revoked access tokens.
func (s *BlacklistStore) Persist(ctx context.Context, record *RefreshToken) error {
	return nil
}

// IsLive treats absence from the blacklist as live; signature and expiry
// checks remain the token service's job.
func (s *BlacklistStore) IsLive(ctx context.Context, token string) (bool, error) {
	revoked, err := s.tokens.Contains(ctx, token)
	if err != nil {
		return false, err
	}
	return !revoked, nil
}

func (s *BlacklistStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return s.tokens.Insert(ctx, token, expiresAt)
}

func (s *BlacklistStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	return s.tokens.Prune(ctx, now)
}
