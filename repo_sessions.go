package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokens owns the refresh token registry rows.
type RefreshTokens interface {
	repository.Repository[*RefreshToken]

	Persist(ctx context.Context, record *RefreshToken) (*RefreshToken, error)
	FindLive(ctx context.Context, token string, now time.Time) (*RefreshToken, error)
	Revoke(ctx context.Context, token string, now time.Time) error
	Purge(ctx context.Context, now time.Time) (int64, error)
}

type refreshTokens struct {
	repository.Repository[*RefreshToken]
	db *bun.DB
}

var _ RefreshTokens = (*refreshTokens)(nil)

func NewRefreshTokensRepository(db *bun.DB) RefreshTokens {
	repo := repository.NewRepository[*RefreshToken](db, repository.ModelHandlers[*RefreshToken]{
		NewRecord: func() *RefreshToken { return &RefreshToken{} },
		GetID: func(r *RefreshToken) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *RefreshToken, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "token"
		},
	})

	return &refreshTokens{
		Repository: repo,
		db:         db,
	}
}

func (r *refreshTokens) Persist(ctx context.Context, record *RefreshToken) (*RefreshToken, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	created, err := r.Repository.Create(ctx, record)
	if err != nil {
		return nil, translateStorageError(err, map[string]any{
			"user_id": record.UserID.String(),
		})
	}

	return created, nil
}

// FindLive returns the record only when it is unrevoked and unexpired.
func (r *refreshTokens) FindLive(ctx context.Context, token string, now time.Time) (*RefreshToken, error) {
	record := &RefreshToken{}
	err := r.db.NewSelect().Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.revoked = ?", false).
		Where("?TableAlias.expires_at > ?", now).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, translateStorageError(err, nil)
	}

	return record, nil
}

// Revoke flips revoked to true for the matching record. The flag is
// monotonic: the WHERE clause never un-revokes, and revoking an absent or
// already revoked token is a successful no-op.
func (r *refreshTokens) Revoke(ctx context.Context, token string, now time.Time) error {
	_, err := r.db.NewUpdate().Model((*RefreshToken)(nil)).
		Set("revoked = ?", true).
		Set("revoked_at = ?", now).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.revoked = ?", false).
		Exec(ctx)

	if err != nil {
		return translateStorageError(err, nil)
	}

	return nil
}

// Purge removes records that expired before now; they can never be live
// again regardless of revocation state.
func (r *refreshTokens) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().Model((*RefreshToken)(nil)).
		Where("?TableAlias.expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, translateStorageError(err, nil)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// RevokedTokens owns the access token blacklist rows.
type RevokedTokens interface {
	Insert(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
	Prune(ctx context.Context, now time.Time) (int64, error)
}

type revokedTokens struct {
	db *bun.DB
}

var _ RevokedTokens = (*revokedTokens)(nil)

func NewRevokedTokensRepository(db *bun.DB) RevokedTokens {
	return &revokedTokens{db: db}
}

// Insert blacklists the token. Re-inserting an existing token is a no-op so
// repeated logouts stay idempotent.
func (r *revokedTokens) Insert(ctx context.Context, token string, expiresAt time.Time) error {
	record := &RevokedToken{
		ID:        uuid.New(),
		Token:     token,
		ExpiresAt: expiresAt,
	}

	_, err := r.db.NewInsert().Model(record).
		On("CONFLICT (token) DO NOTHING").
		Exec(ctx)

	if err != nil {
		return translateStorageError(err, nil)
	}

	return nil
}

func (r *revokedTokens) Contains(ctx context.Context, token string) (bool, error) {
	exists, err := r.db.NewSelect().Model((*RevokedToken)(nil)).
		Where("?TableAlias.token = ?", token).
		Exists(ctx)
	if err != nil {
		return false, translateStorageError(err, nil)
	}
	return exists, nil
}

// Prune drops entries whose token passed its own expiry; the signature check
// rejects those tokens without the blacklist.
func (r *revokedTokens) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().Model((*RevokedToken)(nil)).
		Where("?TableAlias.expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, translateStorageError(err, nil)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
