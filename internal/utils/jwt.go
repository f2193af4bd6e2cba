package utils

// Session tokens are HS256 JWTs. They are self-contained: verifying one never
// touches the credential store, which means a token cannot be withdrawn
// before its exp by the verifier alone. Sign-out therefore records the jti in
// the revoked_tokens denylist, and callers that must honour sign-out check
// that list after ParseSessionToken succeeds.

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pfolio/portfolio-api/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims is the payload of a session token. Subject holds the user id.
type SessionClaims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity embedded in the claims.
func (c SessionClaims) Identity() model.Identity {
	return model.Identity{ID: c.Subject, Email: c.Email, Role: c.Role}
}

// SessionToken is a signed token along with its id and expiry.
type SessionToken struct {
	Token string
	JTI   string
	Exp   time.Time
}

// NewSessionToken signs an HS256 JWT carrying id's claims that expires ttl
// after now.
func NewSessionToken(secret string, id model.Identity, ttl time.Duration, now time.Time) (SessionToken, error) {
	if secret == "" {
		return SessionToken{}, errors.New("empty signing secret")
	}
	now = now.UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := SessionClaims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, JTI: jti, Exp: exp}, nil
}

// ParseSessionToken checks raw's signature and expiry against now and
// returns its claims. It fails with ErrTokenExpired once now >= exp and with
// ErrInvalidToken for anything undecodable, unsigned, or signed with another
// key or algorithm.
func ParseSessionToken(secret, raw string, now time.Time) (SessionClaims, error) {
	var claims SessionClaims
	if raw == "" {
		return claims, ErrInvalidToken
	}
	tok, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, ErrInvalidToken
	}
	if !tok.Valid || claims.Subject == "" || claims.ID == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}
