package middleware

// identity.go holds the context keys JWTAuth fills and the accessors
// handlers and other middleware use to read them back.

import (
	"github.com/labstack/echo/v4"

	"github.com/pfolio/portfolio-api/internal/model"
	"github.com/pfolio/portfolio-api/internal/utils"
)

const (
	ctxUserID = "user_id"
	ctxClaims = "claims"
)

// CurrentIdentity returns the identity JWTAuth stored on c. ok is false on
// unauthenticated requests.
func CurrentIdentity(c echo.Context) (model.Identity, bool) {
	claims, ok := c.Get(ctxClaims).(utils.SessionClaims)
	if !ok {
		return model.Identity{}, false
	}
	return claims.Identity(), true
}

func setIdentity(c echo.Context, claims utils.SessionClaims) {
	c.Set(ctxClaims, claims)
	c.Set(ctxUserID, claims.Subject)
}

// userID returns the authenticated subject or "anon".
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
