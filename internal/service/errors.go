// Package service holds the auth core: credential checks, session token
// issuance and verification, password change and admin provisioning.
package service

import (
	"errors"
	"fmt"

	"github.com/pfolio/portfolio-api/internal/utils"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenExpired       = utils.ErrTokenExpired
	ErrInvalidToken       = utils.ErrInvalidToken
	ErrTokenRevoked       = fmt.Errorf("token revoked: %w", utils.ErrInvalidToken)
	ErrPasswordTooWeak    = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
	ErrStoreUnavailable   = errors.New("store unavailable")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
