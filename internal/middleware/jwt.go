package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pfolio/portfolio-api/internal/service"
	"github.com/pfolio/portfolio-api/internal/utils"
)

// TokenVerifier checks a session token, including the sign-out denylist.
type TokenVerifier interface {
	VerifyClaims(ctx context.Context, token string) (utils.SessionClaims, error)
}

// JWTAuth rejects requests without a valid bearer token. On success the
// token's subject, email and role are stored on the context (see
// CurrentIdentity).
func JWTAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if ok, err := authenticate(c, v, raw); !ok {
				return err
			}
			return next(c)
		}
	}
}

// OptionalJWT authenticates the request when a bearer token is present and
// lets anonymous requests through untouched. A token that is present but
// invalid is still rejected.
func OptionalJWT(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return next(c)
			}
			if ok, err := authenticate(c, v, raw); !ok {
				return err
			}
			return next(c)
		}
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(auth[len(prefix):])
	return raw, raw != ""
}

// authenticate stores the verified claims on c. When it reports false the
// response has already been decided and err is what the middleware returns.
func authenticate(c echo.Context, v TokenVerifier, raw string) (bool, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	claims, err := v.VerifyClaims(ctx, raw)
	switch {
	case err == nil:
		setIdentity(c, claims)
		return true, nil
	case errors.Is(err, service.ErrTokenExpired):
		return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token expired"})
	case errors.Is(err, service.ErrInvalidToken):
		return false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
	default:
		return false, echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}
