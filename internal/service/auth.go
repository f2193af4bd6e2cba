package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/metrics"
	"github.com/pfolio/portfolio-api/internal/model"
	"github.com/pfolio/portfolio-api/internal/queue"
	"github.com/pfolio/portfolio-api/internal/repository"
	"github.com/pfolio/portfolio-api/internal/utils"
)

// CredentialStore is the slice of the user repository the auth core needs.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// Revocations is the sign-out denylist.
type Revocations interface {
	Revoke(ctx context.Context, jti, userID string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// EventPublisher receives audit events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// AuthOptions carries the knobs of the auth core.
type AuthOptions struct {
	Secret            string
	SessionTTL        time.Duration
	BcryptCost        int
	AdminEmail        string
	AdminTempPassword string // random when empty
}

// AuthService implements the four auth operations plus sign-out. It holds no
// per-request state; every call talks to the store on its own.
type AuthService struct {
	users   CredentialStore
	revoked Revocations    // optional
	events  EventPublisher // optional
	metrics *metrics.Auth  // optional
	log     logging.Logger
	opts    AuthOptions
	now     func() time.Time

	// dummyHash is compared against for unknown emails. It uses the same
	// cost as stored hashes.
	dummyHash []byte
}

// NewAuthService wires the auth core. revoked, events and m may be nil.
func NewAuthService(users CredentialStore, revoked Revocations, events EventPublisher, m *metrics.Auth, log logging.Logger, opts AuthOptions) *AuthService {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{
		users:   users,
		revoked: revoked,
		events:  events,
		metrics: m,
		log:     log,
		opts:    opts,
		now:     time.Now,

		dummyHash: utils.NewDummyHash(opts.BcryptCost),
	}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.Identity
}

// Login checks email/password and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.Login("invalid_credentials")
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(s.dummyHash, password)
			s.loginFailed(ctx, "", email)
			return LoginResult{}, ErrInvalidCredentials
		}
		s.metrics.Login("error")
		return LoginResult{}, storeErr("get user by email", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.loginFailed(ctx, u.ID, email)
		return LoginResult{}, ErrInvalidCredentials
	}

	id := u.Identity()
	tok, err := utils.NewSessionToken(s.opts.Secret, id, s.opts.SessionTTL, s.now())
	if err != nil {
		s.metrics.Login("error")
		return LoginResult{}, err
	}
	s.metrics.Login("success")
	s.log.Info(ctx, "login succeeded", "user_id", id.ID)
	s.publish(ctx, queue.EventLoginSucceeded, id.ID, id.Email)
	return LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: id}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email string) {
	s.metrics.Login("invalid_credentials")
	s.log.Warn(ctx, "login failed", "email", email)
	s.publish(ctx, queue.EventLoginFailed, userID, email)
}

// ParseToken verifies token's signature and expiry. It is a pure function of
// the token, the secret and the clock.
func (s *AuthService) ParseToken(token string) (utils.SessionClaims, error) {
	return utils.ParseSessionToken(s.opts.Secret, token, s.now())
}

// Verify parses token and then rejects it if it was signed out.
func (s *AuthService) Verify(ctx context.Context, token string) (model.Identity, error) {
	claims, err := s.VerifyClaims(ctx, token)
	if err != nil {
		return model.Identity{}, err
	}
	return claims.Identity(), nil
}

// VerifyClaims is Verify returning the full claims.
func (s *AuthService) VerifyClaims(ctx context.Context, token string) (utils.SessionClaims, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			s.metrics.Verification("expired")
		} else {
			s.metrics.Verification("invalid")
		}
		return utils.SessionClaims{}, err
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.metrics.Verification("error")
			return utils.SessionClaims{}, storeErr("check revocation", err)
		}
		if revoked {
			s.metrics.Verification("revoked")
			return utils.SessionClaims{}, ErrTokenRevoked
		}
	}
	s.metrics.Verification("ok")
	return claims, nil
}

// Logout denylists token until its natural expiry. Signing out with a token
// that has already expired succeeds without touching the store.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.ParseToken(token)
	if errors.Is(err, ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.revoked == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.Subject, claims.ExpiresAt.Time); err != nil {
		return storeErr("revoke token", err)
	}
	s.log.Info(ctx, "session revoked", "user_id", claims.Subject)
	s.publish(ctx, queue.EventLogout, claims.Subject, claims.Email)
	return nil
}

// ChangePassword replaces userID's password after re-checking the current
// one. Existing session tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if userID == "" {
		s.metrics.PasswordChange("user_not_found")
		return ErrUserNotFound
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.PasswordChange("user_not_found")
			return ErrUserNotFound
		}
		s.metrics.PasswordChange("error")
		return storeErr("get user by id", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, currentPassword) {
		s.metrics.PasswordChange("invalid_credentials")
		s.log.Warn(ctx, "password change rejected: wrong current password", "user_id", userID)
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(newPassword); err != nil {
		s.metrics.PasswordChange("weak_password")
		return err
	}

	hash, err := utils.HashPassword(newPassword, s.opts.BcryptCost)
	if err != nil {
		s.metrics.PasswordChange("error")
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.PasswordChange("user_not_found")
			return ErrUserNotFound
		}
		s.metrics.PasswordChange("error")
		return storeErr("update password hash", err)
	}
	s.metrics.PasswordChange("success")
	s.log.Info(ctx, "password changed", "user_id", userID)
	s.publish(ctx, queue.EventPasswordChanged, userID, u.Email)
	return nil
}

// SeedResult reports what Seed did. TemporaryPassword is only set when the
// admin was created by this call.
type SeedResult struct {
	Created           bool
	AlreadyExists     bool
	User              model.Identity
	TemporaryPassword string
}

// Seed provisions the admin identity once. Later calls, including ones that
// lose an insert race, report the existing identity and change nothing.
func (s *AuthService) Seed(ctx context.Context) (SeedResult, error) {
	email := model.NormalizeEmail(s.opts.AdminEmail)
	if email == "" {
		return SeedResult{}, errors.New("admin email is not configured")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.metrics.Seed("already_exists")
		s.log.Info(ctx, "admin user already exists", "user_id", existing.ID)
		return SeedResult{AlreadyExists: true, User: existing.Identity()}, nil
	case !errors.Is(err, repository.ErrNotFound):
		s.metrics.Seed("error")
		return SeedResult{}, storeErr("get user by email", err)
	}

	temp := s.opts.AdminTempPassword
	if temp == "" {
		if temp, err = randomPassword(); err != nil {
			return SeedResult{}, err
		}
	}
	hash, err := utils.HashPassword(temp, s.opts.BcryptCost)
	if err != nil {
		s.metrics.Seed("error")
		return SeedResult{}, err
	}
	u := model.User{ID: uuid.NewString(), Email: email, PasswordHash: hash, Role: model.RoleAdmin}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			winner, gerr := s.users.GetByEmail(ctx, email)
			if gerr != nil {
				s.metrics.Seed("error")
				return SeedResult{}, storeErr("get user by email", gerr)
			}
			s.metrics.Seed("already_exists")
			return SeedResult{AlreadyExists: true, User: winner.Identity()}, nil
		}
		s.metrics.Seed("error")
		return SeedResult{}, storeErr("create user", err)
	}

	s.metrics.Seed("created")
	s.log.Info(ctx, "admin user created", "user_id", u.ID, "email", u.Email)
	s.publish(ctx, queue.EventAdminProvisioned, u.ID, u.Email)
	return SeedResult{Created: true, User: u.Identity(), TemporaryPassword: temp}, nil
}

func (s *AuthService) publish(ctx context.Context, typ, userID, email string) {
	if s.events == nil {
		return
	}
	ev := queue.AuthEvent{Type: typ, UserID: userID, Email: email, OccurredAt: s.now().UTC()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn(ctx, "auth event not published", "type", typ, "err", err)
	}
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
