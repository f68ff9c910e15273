package auth_test

import (
	"context"
	"sync"
	"testing"

	auth "github.com/clinware/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{
			name:     "valid password",
			password: "password123",
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  auth.ErrNoEmptyString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := auth.HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.True(t, goerrors.Is(err, tt.wantErr))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)
			assert.NoError(t, auth.ComparePasswordAndHash(tt.password, hash))
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, auth.ComparePasswordAndHash("password123", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("wrong-password", hash)
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, auth.ErrMismatchedHashAndPassword))
	})
}

func TestRandomPasswordHash(t *testing.T) {
	a := auth.RandomPasswordHash()
	b := auth.RandomPasswordHash()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestHasherPool(t *testing.T) {
	ctx := context.Background()

	t.Run("hash and compare through the pool", func(t *testing.T) {
		hasher := auth.NewHasher(0, 2)
		defer hasher.Close()

		hash, err := hasher.HashPassword(ctx, "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)

		assert.NoError(t, hasher.ComparePasswordAndHash(ctx, "password123", hash))

		err = hasher.ComparePasswordAndHash(ctx, "wrong", hash)
		assert.True(t, goerrors.Is(err, auth.ErrMismatchedHashAndPassword))
	})

	t.Run("empty password never reaches the pool", func(t *testing.T) {
		hasher := auth.NewHasher(0, 1)
		defer hasher.Close()

		_, err := hasher.HashPassword(ctx, "")
		assert.True(t, goerrors.Is(err, auth.ErrNoEmptyString))
	})

	t.Run("concurrent dispatch", func(t *testing.T) {
		hasher := auth.NewHasher(0, 2)
		defer hasher.Close()

		var wg sync.WaitGroup
		errs := make([]error, 8)

		for i := 0; i < len(errs); i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				hash, err := hasher.HashPassword(ctx, "concurrent-password")
				if err == nil {
					err = hasher.ComparePasswordAndHash(ctx, "concurrent-password", hash)
				}
				errs[i] = err
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		hasher := auth.NewHasher(0, 1)
		defer hasher.Close()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := hasher.HashPassword(cancelled, "password123")
		require.Error(t, err)
	})

	t.Run("closed pool rejects new work", func(t *testing.T) {
		hasher := auth.NewHasher(0, 1)
		hasher.Close()

		_, err := hasher.HashPassword(ctx, "password123")
		require.Error(t, err)
	})
}
