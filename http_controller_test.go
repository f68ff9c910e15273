package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/clinware/go-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// MockHTTPAuthenticator implements auth.HTTPAuthenticator
type MockHTTPAuthenticator struct {
	mock.Mock
}

func (m *MockHTTPAuthenticator) Login(ctx router.Context, payload auth.LoginPayload) (*auth.TokenPair, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *MockHTTPAuthenticator) Refresh(ctx router.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockHTTPAuthenticator) Logout(ctx router.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHTTPAuthenticator) ProtectedRoute(cfg auth.Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return hf
	}
}

func (m *MockHTTPAuthenticator) AdminRoute(cfg auth.Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return hf
	}
}

type controllerFixture struct {
	controller *auth.AuthController
	auther     *MockHTTPAuthenticator
	db         *bun.DB
	handled    *error
}

func newControllerFixture(t *testing.T) controllerFixture {
	t.Helper()

	db := setupTestDB(t)
	auther := new(MockHTTPAuthenticator)
	handled := new(error)

	controller := auth.NewAuthController(func(c *auth.AuthController) *auth.AuthController {
		c.Repo = auth.NewRepositoryManager(db)
		c.Auther = auther
		c.Config = testConfig()
		c.ErrorHandler = func(ctx router.Context, err error) error {
			*handled = err
			return nil
		}
		return c
	})

	return controllerFixture{controller: controller, auther: auther, db: db, handled: handled}
}

func TestLoginPost(t *testing.T) {
	t.Run("returns the token pair", func(t *testing.T) {
		fx := newControllerFixture(t)

		refreshExpiresAt := time.Now().Add(7 * 24 * time.Hour)
		pair := &auth.TokenPair{
			AccessToken:      "access",
			RefreshToken:     "refresh",
			AccessExpiresAt:  time.Now().Add(15 * time.Minute),
			RefreshExpiresAt: &refreshExpiresAt,
		}

		mc := new(MockContext)
		mc.On("Bind", mock.AnythingOfType("*auth.LoginRequest")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*auth.LoginRequest)
				payload.Identifier = "test@example.com"
				payload.Password = "password123"
			}).Return(nil)
		mc.On("JSON", router.StatusOK, pair).Return(nil)

		fx.auther.On("Login", mc, mock.MatchedBy(func(p auth.LoginPayload) bool {
			return p.GetIdentifier() == "test@example.com" && p.GetPassword() == "password123"
		})).Return(pair, nil).Once()

		require.NoError(t, fx.controller.LoginPost(mc))
		assert.NoError(t, *fx.handled)
		mc.AssertExpectations(t)
	})

	t.Run("missing credentials fail validation", func(t *testing.T) {
		fx := newControllerFixture(t)

		mc := new(MockContext)
		mc.On("Bind", mock.AnythingOfType("*auth.LoginRequest")).Return(nil)

		require.NoError(t, fx.controller.LoginPost(mc))
		require.Error(t, *fx.handled)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(*fx.handled, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)

		fx.auther.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("login failure reaches the error handler", func(t *testing.T) {
		fx := newControllerFixture(t)

		mc := new(MockContext)
		mc.On("Bind", mock.AnythingOfType("*auth.LoginRequest")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*auth.LoginRequest)
				payload.Identifier = "test@example.com"
				payload.Password = "wrong"
			}).Return(nil)

		fx.auther.On("Login", mc, mock.Anything).
			Return(nil, auth.ErrMismatchedHashAndPassword).Once()

		require.NoError(t, fx.controller.LoginPost(mc))
		assert.True(t, goerrors.Is(*fx.handled, auth.ErrMismatchedHashAndPassword))
	})
}

func TestRefreshPost(t *testing.T) {
	fx := newControllerFixture(t)

	mc := new(MockContext)
	mc.On("Bind", mock.AnythingOfType("*auth.RefreshRequest")).
		Run(func(args mock.Arguments) {
			payload := args.Get(0).(*auth.RefreshRequest)
			payload.RefreshToken = "the-refresh-token"
		}).Return(nil)
	mc.On("JSON", router.StatusOK, map[string]string{"access_token": "new-access"}).Return(nil)

	fx.auther.On("Refresh", mc, "the-refresh-token").Return("new-access", nil).Once()

	require.NoError(t, fx.controller.RefreshPost(mc))
	mc.AssertExpectations(t)
}

func TestLogOutRoute(t *testing.T) {
	fx := newControllerFixture(t)

	mc := new(MockContext)
	mc.On("JSON", router.StatusOK, map[string]string{"message": "logged out"}).Return(nil)

	fx.auther.On("Logout", mc).Return(nil).Once()

	require.NoError(t, fx.controller.LogOut(mc))
	mc.AssertExpectations(t)
}

func TestRegistrationCreate(t *testing.T) {
	t.Run("creates the user", func(t *testing.T) {
		fx := newControllerFixture(t)

		mc := new(MockContext)
		mc.On("Bind", mock.AnythingOfType("*auth.RegisterUserMessage")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*auth.RegisterUserMessage)
				payload.Username = "alice"
				payload.Email = "alice@example.com"
				payload.Password = "password123"
			}).Return(nil)
		mc.On("Context").Return(context.Background())
		mc.On("JSON", router.StatusCreated, mock.MatchedBy(func(u *auth.User) bool {
			return u.Username == "alice" && u.PasswordHash != "password123"
		})).Return(nil)

		require.NoError(t, fx.controller.RegistrationCreate(mc))
		assert.NoError(t, *fx.handled)
		mc.AssertExpectations(t)
	})

	t.Run("invalid payload is rejected", func(t *testing.T) {
		fx := newControllerFixture(t)

		mc := new(MockContext)
		mc.On("Bind", mock.AnythingOfType("*auth.RegisterUserMessage")).
			Run(func(args mock.Arguments) {
				payload := args.Get(0).(*auth.RegisterUserMessage)
				payload.Email = "alice@example.com"
				payload.Password = "abc"
			}).Return(nil)
		mc.On("Context").Return(context.Background())

		require.NoError(t, fx.controller.RegistrationCreate(mc))
		require.Error(t, *fx.handled)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(*fx.handled, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	})
}

func TestMeShow(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		fx := newControllerFixture(t)
		user := seedUser(t, fx.db, "me-user", "me@example.com", "password123")

		claims := &auth.JWTClaims{UID: user.ID.String(), UserRole: string(auth.RoleMember)}

		mc := new(MockContext)
		mc.On("Locals", "user").Return(claims)
		mc.On("Context").Return(context.Background())
		mc.On("JSON", router.StatusOK, mock.MatchedBy(func(u *auth.User) bool {
			return u.ID == user.ID
		})).Return(nil)

		require.NoError(t, fx.controller.MeShow(mc))
		assert.NoError(t, *fx.handled)
		mc.AssertExpectations(t)
	})

	t.Run("missing claims are rejected", func(t *testing.T) {
		fx := newControllerFixture(t)

		mc := new(MockContext)
		mc.On("Locals", "user").Return(nil)

		require.NoError(t, fx.controller.MeShow(mc))
		assert.True(t, goerrors.Is(*fx.handled, auth.ErrUnableToMapClaims))
	})
}

func TestUsersIndex(t *testing.T) {
	fx := newControllerFixture(t)
	seedUser(t, fx.db, "first", "first@example.com", "password123")
	seedUser(t, fx.db, "second", "second@example.com", "password123")

	mc := new(MockContext)
	mc.On("Context").Return(context.Background())
	mc.On("JSON", router.StatusOK, mock.MatchedBy(func(body map[string]any) bool {
		return body["count"] == 2
	})).Return(nil)

	require.NoError(t, fx.controller.UsersIndex(mc))
	mc.AssertExpectations(t)
}
