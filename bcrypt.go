package auth

import (
	"context"
	"errors"
	"runtime"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. bcrypt's comparison is constant time with respect to
// the password bytes.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}

type hashJob struct {
	run func()
}

// Hasher runs bcrypt work on a bounded pool of workers so the CPU heavy
// hashing never executes on a request dispatch path. The bcrypt digest
// encodes its own cost, so raising the cost later leaves old hashes
// verifiable.
type Hasher struct {
	cost int
	jobs chan hashJob
	done chan struct{}
}

var _ PasswordAuthenticator = (*Hasher)(nil)

// NewHasher creates a Hasher with the given cost. Zero or negative cost
// falls back to the package default; zero workers sizes the pool to the
// available CPUs.
func NewHasher(cost, workers int) *Hasher {
	if cost <= 0 {
		cost = passwordHashCost()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	h := &Hasher{
		cost: cost,
		jobs: make(chan hashJob),
		done: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go h.worker()
	}

	return h
}

func (h *Hasher) worker() {
	for {
		select {
		case job := <-h.jobs:
			job.run()
		case <-h.done:
			return
		}
	}
}

// Close stops the worker pool. In-flight jobs finish; callers waiting to
// dispatch observe context cancellation.
func (h *Hasher) Close() {
	close(h.done)
}

// HashPassword dispatches the hash to the pool and awaits the result.
func (h *Hasher) HashPassword(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	type result struct {
		digest string
		err    error
	}

	out := make(chan result, 1)
	err := h.dispatch(ctx, func() {
		digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		out <- result{digest: string(digest), err: err}
	})
	if err != nil {
		return "", err
	}

	select {
	case res := <-out:
		if res.err != nil {
			return "", goerrors.Wrap(res.err, goerrors.CategoryInternal, "failed to hash password")
		}
		return res.digest, nil
	case <-ctx.Done():
		return "", goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "password hashing cancelled")
	}
}

// ComparePasswordAndHash dispatches the comparison to the pool and awaits
// the result.
func (h *Hasher) ComparePasswordAndHash(ctx context.Context, password, hash string) error {
	out := make(chan error, 1)
	err := h.dispatch(ctx, func() {
		out <- ComparePasswordAndHash(password, hash)
	})
	if err != nil {
		return err
	}

	select {
	case err := <-out:
		return err
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "password comparison cancelled")
	}
}

func (h *Hasher) dispatch(ctx context.Context, run func()) error {
	select {
	case h.jobs <- hashJob{run: run}:
		return nil
	case <-h.done:
		return goerrors.New("hasher pool is closed", goerrors.CategoryOperation)
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "hasher pool dispatch cancelled")
	}
}
