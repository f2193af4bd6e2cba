// Package session is the client side of sign-in: it keeps the session token
// in durable storage, restores it on start by asking the server to verify
// it, and gates privileged views on the verified role.
package session

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/pfolio/portfolio-api/internal/client/api"
	"github.com/pfolio/portfolio-api/internal/model"
)

// MinPasswordLength mirrors the server's policy so obvious mistakes are
// caught before a round trip. The server still enforces it.
const MinPasswordLength = 8

type State int

const (
	Uninitialized State = iota
	Restoring
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Restoring:
		return "restoring"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

var (
	ErrNotAuthenticated  = errors.New("not signed in")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrPasswordTooShort  = errors.New("password too short")
	ErrAlreadyRestored   = errors.New("session already restored")
	ErrRestoreInProgress = errors.New("session restore in progress")
)

// API is the part of the server API the manager calls.
type API interface {
	Login(ctx context.Context, email, password string) (api.LoginResult, error)
	Verify(ctx context.Context, token string) (model.Identity, error)
	ChangePassword(ctx context.Context, token, userID, currentPassword, newPassword string) error
	Logout(ctx context.Context, token string) error
}

// Snapshot is a consistent view of the session. Identity is non-nil only
// in the Authenticated state.
type Snapshot struct {
	State    State
	Identity *model.Identity
	Loading  bool
}

// Manager owns the client session state. It is safe for concurrent use;
// network calls run without holding the lock. Every transition bumps gen, so
// a restore whose verification was overtaken by a sign-in or sign-out drops
// its result.
type Manager struct {
	api    API
	store  TokenStore
	notify Notifier

	mu       sync.Mutex
	state    State
	identity *model.Identity
	token    string
	loading  bool
	gen      uint64
}

// NewManager returns a manager in the Uninitialized state with loading set.
// Call Restore once at start-up.
func NewManager(a API, store TokenStore, n Notifier) *Manager {
	if n == nil {
		n = NotifierFunc(func(Notification) {})
	}
	return &Manager{api: a, store: store, notify: n, state: Uninitialized, loading: true}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{State: m.state, Loading: m.loading}
	if m.identity != nil {
		id := *m.identity
		s.Identity = &id
	}
	return s
}

// Token returns the current session token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return ""
	}
	return m.token
}

// Restore replays verification of the persisted token. A token the server
// rejects is removed from storage. When the server cannot be reached the
// token is kept for the next start, but the session stays signed out.
// A sign-in or sign-out that happens while the token is being verified wins.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Uninitialized {
		m.mu.Unlock()
		return ErrAlreadyRestored
	}
	token, err := m.store.Load()
	if err != nil {
		m.finish(Unauthenticated, nil, "")
		m.mu.Unlock()
		m.notify.Notify(failure("Session check failed", "Could not read the saved session on this device."))
		return err
	}
	if token == "" {
		m.finish(Unauthenticated, nil, "")
		m.mu.Unlock()
		return nil
	}
	m.state = Restoring
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	id, err := m.api.Verify(ctx, token)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return nil
	}
	if err == nil {
		m.finish(Authenticated, &id, token)
		m.mu.Unlock()
		return nil
	}
	m.finish(Unauthenticated, nil, "")
	if errors.Is(err, api.ErrUnauthorized) {
		cerr := m.store.Clear()
		m.mu.Unlock()
		return cerr
	}
	m.mu.Unlock()
	m.notify.Notify(failure("Session check failed", "Could not reach the server to restore your session."))
	return err
}

// finish must be called with mu held.
func (m *Manager) finish(s State, id *model.Identity, token string) {
	m.state = s
	m.identity = id
	m.token = token
	m.loading = false
	m.gen++
}

// SignIn exchanges credentials for a session token and persists it. Signing
// in before Restore skips the restore.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	m.mu.Lock()
	switch m.state {
	case Restoring:
		m.mu.Unlock()
		return ErrRestoreInProgress
	case Uninitialized:
		m.finish(Unauthenticated, nil, "")
	}
	m.mu.Unlock()

	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.notify.Notify(failure("Login Failed", describe(err, "Please check your credentials and try again.")))
		return err
	}

	m.mu.Lock()
	if err := m.store.Save(res.Token); err != nil {
		m.mu.Unlock()
		m.notify.Notify(failure("Login Failed", "Could not store the session on this device."))
		return err
	}
	id := res.User
	m.finish(Authenticated, &id, res.Token)
	m.mu.Unlock()

	m.notify.Notify(Notification{Title: "Login Successful", Description: "Welcome back!"})
	return nil
}

// SignOut forgets the session locally and asks the server to revoke the
// token. A failed revocation does not keep the user signed in. A saved token
// that was never restored is revoked too.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	if token == "" {
		token, _ = m.store.Load()
	}
	m.finish(Unauthenticated, nil, "")
	err := m.store.Clear()
	m.mu.Unlock()

	if token != "" {
		_ = m.api.Logout(ctx, token)
	}
	if err != nil {
		m.notify.Notify(failure("Error", "Failed to sign out"))
		return err
	}
	m.notify.Notify(Notification{Title: "Signed out", Description: "You have been signed out successfully"})
	return nil
}

// ChangePassword checks the confirmation and the length policy locally,
// then asks the server to change the signed-in user's password.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword, confirm string) error {
	m.mu.Lock()
	if m.state != Authenticated || m.identity == nil {
		m.mu.Unlock()
		m.notify.Notify(failure("Not signed in", "Sign in again to change your password."))
		return ErrNotAuthenticated
	}
	token, userID := m.token, m.identity.ID
	m.mu.Unlock()

	if newPassword != confirm {
		m.notify.Notify(failure("Passwords do not match", "Please make sure both password fields match"))
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		m.notify.Notify(failure("Password too short", "Password must be at least 8 characters long"))
		return ErrPasswordTooShort
	}

	if err := m.api.ChangePassword(ctx, token, userID, currentPassword, newPassword); err != nil {
		m.notify.Notify(failure("Password change failed", describe(err, "Please try again.")))
		return err
	}
	m.notify.Notify(Notification{Title: "Password updated", Description: "Your password has been updated successfully"})
	return nil
}

// describe prefers the server's message and falls back for transport
// failures, whose text is not meant for users.
func describe(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
