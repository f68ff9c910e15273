package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/clinware/go-auth/middleware/jwtware"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// LoginPayload carries the credentials of a login request.
type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
}

// HTTPAuthenticator adapts the Authenticator to router semantics: cookies,
// locals, and middleware wiring.
type HTTPAuthenticator interface {
	Login(ctx router.Context, payload LoginPayload) (*TokenPair, error)
	Refresh(ctx router.Context, refreshToken string) (string, error)
	Logout(ctx router.Context) error
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	AdminRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = defaultErrHandler

	return a, nil
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

// ProtectedRoute guards a route group with the JWT middleware. The session
// store is consulted for revocation before any claim is honored, when the
// authenticator's strategy keeps a record of presented tokens.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: a.guardErrorHandler(errorHandler),
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:        cfg.GetAuthScheme(),
			ContextKey:        cfg.GetContextKey(),
			TokenLookup:       cfg.GetTokenLookup(),
			TokenValidator:    guardValidator{auth: a.auth},
			RevocationChecker: a.revocationChecker(),
		})(hf)
	}
}

// AdminRoute is ProtectedRoute plus a minimum-role gate.
func (a *RouteAuthenticator) AdminRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: a.guardErrorHandler(errorHandler),
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:        cfg.GetAuthScheme(),
			ContextKey:        cfg.GetContextKey(),
			TokenLookup:       cfg.GetTokenLookup(),
			TokenValidator:    guardValidator{auth: a.auth},
			RevocationChecker: a.revocationChecker(),
			MinimumRole:       string(RoleAdmin),
		})(hf)
	}
}

// Login verifies the payload credentials and, when the strategy issues one,
// plants the refresh token in an HTTP-only cookie scoped to the refresh TTL.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (*TokenPair, error) {
	pair, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return nil, err
	}

	if pair.RefreshToken != "" && pair.RefreshExpiresAt != nil {
		a.setRefreshCookie(ctx, pair.RefreshToken, *pair.RefreshExpiresAt)
	}

	return pair, nil
}

// Refresh exchanges the refresh token for a new access token. An explicit
// token wins over the cookie so API clients without cookie jars still work.
func (a *RouteAuthenticator) Refresh(ctx router.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		refreshToken = ctx.Cookies(a.cfg.GetRefreshCookieName())
	}

	if refreshToken == "" {
		return "", ErrTokenMalformed
	}

	return a.auth.Refresh(ctx.Context(), refreshToken)
}

// Logout revokes whatever token material the request carries: the bearer
// token the guard stored in locals and the refresh cookie. Both paths are
// idempotent, so a logout with nothing left to revoke still succeeds.
func (a *RouteAuthenticator) Logout(ctx router.Context) error {
	if raw := jwtware.RawTokenFromLocals(ctx, ""); raw != "" {
		if err := a.auth.Logout(ctx.Context(), raw); err != nil {
			return err
		}
	}

	if cookie := ctx.Cookies(a.cfg.GetRefreshCookieName()); cookie != "" {
		if err := a.auth.Logout(ctx.Context(), cookie); err != nil {
			return err
		}
	}

	a.clearRefreshCookie(ctx)
	return nil
}

// MakeClientRouteAuthErrorHandler builds a guard error handler; when optional
// is true the request proceeds unauthenticated instead of failing.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		richErr := translateGuardError(err)

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

// guardErrorHandler normalizes middleware failures before they reach the
// caller's error handler, so sentinel errors from the token guard map to
// 401/403 responses instead of falling through as internal errors. A nil
// handler falls back to the authenticator's own.
func (a *RouteAuthenticator) guardErrorHandler(next func(router.Context, error) error) func(router.Context, error) error {
	if next == nil {
		next = func(c router.Context, err error) error {
			return a.ErrorHandler(c, err)
		}
	}
	next = a.logErrHandler(next)
	return func(c router.Context, err error) error {
		return next(c, translateGuardError(err))
	}
}

// translateGuardError lifts the guard's sentinel errors into the taxonomy.
func translateGuardError(err error) *goerrors.Error {
	switch {
	case goerrors.Is(err, jwtware.ErrTokenRevoked):
		return ErrTokenRevoked
	case goerrors.Is(err, jwtware.ErrAccessDenied):
		return goerrors.Wrap(err, goerrors.CategoryAuthz, "insufficient role").
			WithCode(goerrors.CodeForbidden)
	case IsTokenExpiredError(err):
		return ErrTokenExpired
	case IsMalformedError(err):
		return ErrTokenMalformed
	default:
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid authentication token").
			WithCode(goerrors.CodeUnauthorized)
	}
}

func (a *RouteAuthenticator) setRefreshCookie(c router.Context, val string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetRefreshCookieName(),
		Value:    val,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

func (a *RouteAuthenticator) clearRefreshCookie(c router.Context) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetRefreshCookieName(),
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Strict",
	})
}

func (a *RouteAuthenticator) revocationChecker() jwtware.RevocationChecker {
	type strategist interface {
		Strategy() RevocationStrategy
		SessionStore() SessionStore
	}

	s, ok := a.auth.(strategist)
	if !ok || s.Strategy() != StrategyBlacklist {
		// Registry strategies keep no record of access tokens; liveness
		// checks there would reject every bearer token.
		return nil
	}

	store := s.SessionStore()
	if store == nil {
		return nil
	}

	return func(ctx context.Context, token string) (bool, error) {
		return store.IsLive(ctx, token)
	}
}

// guardValidator bridges the middleware's validator contract to the
// Authenticator without an import cycle.
type guardValidator struct {
	auth Authenticator
}

func (g guardValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := g.auth.ClaimsFromToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := statusForError(richErr)

	message := richErr.Message
	if status >= http.StatusInternalServerError {
		// Internal detail stays in the logs.
		message = "An unexpected server error occurred"
	}

	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"message":   message,
			"text_code": richErr.TextCode,
		},
	})
}

func statusForError(richErr *goerrors.Error) int {
	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return router.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return router.StatusInternalServerError
	}
}

// logErrHandler wraps an error handler with structured logging of the rich
// error metadata.
func (a *RouteAuthenticator) logErrHandler(next func(router.Context, error) error) func(router.Context, error) error {
	return func(c router.Context, err error) error {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			a.Logger.Info(
				"Middleware error handler",
				"error", richErr.Message,
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		}
		return next(c, err)
	}
}
