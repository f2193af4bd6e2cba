package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_StartsLoading(t *testing.T) {
	m := NewManager(newFakeAPI(), &MemoryTokenStore{}, nil)
	s := m.Snapshot()
	assert.Equal(t, Uninitialized, s.State)
	assert.True(t, s.Loading)
	assert.Nil(t, s.Identity)
}

func TestRestore_NoToken(t *testing.T) {
	m := NewManager(newFakeAPI(), &MemoryTokenStore{}, nil)
	require.NoError(t, m.Restore(context.Background()))

	s := m.Snapshot()
	assert.Equal(t, Unauthenticated, s.State)
	assert.False(t, s.Loading)
	assert.ErrorIs(t, m.Restore(context.Background()), ErrAlreadyRestored)
}

func TestRestore_AfterRestartWithValidToken(t *testing.T) {
	ctx := context.Background()
	fake := newFakeAPI()
	store := &MemoryTokenStore{}

	first := NewManager(fake, store, nil)
	require.NoError(t, first.Restore(ctx))
	require.NoError(t, first.SignIn(ctx, admin.Email, "TempPass123!"))
	token := first.Token()
	require.NotEmpty(t, token)

	// a new process with the same storage
	second := NewManager(fake, store, nil)
	require.NoError(t, second.Restore(ctx))

	s := second.Snapshot()
	assert.Equal(t, Authenticated, s.State)
	assert.False(t, s.Loading)
	require.NotNil(t, s.Identity)
	assert.Equal(t, admin, *s.Identity)
	assert.Equal(t, token, second.Token())
}

func TestRestore_RejectedTokenIsRemoved(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save("stale-token"))
	m := NewManager(newFakeAPI(), store, nil)

	require.NoError(t, m.Restore(context.Background()))

	assert.Equal(t, Unauthenticated, m.Snapshot().State)
	stored, _ := store.Load()
	assert.Empty(t, stored)
}

func TestRestore_ServerUnreachableKeepsToken(t *testing.T) {
	fake := newFakeAPI()
	fake.verifyErr = errors.New("dial tcp: connection refused")
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save("maybe-good"))
	rec := &recorder{}
	m := NewManager(fake, store, rec)

	err := m.Restore(context.Background())
	assert.Error(t, err)
	assert.Equal(t, Unauthenticated, m.Snapshot().State)
	assert.False(t, m.Snapshot().Loading)
	stored, _ := store.Load()
	assert.Equal(t, "maybe-good", stored)
	assert.Equal(t, []string{"Session check failed"}, rec.titles())
}

func TestSignIn_Failure(t *testing.T) {
	rec := &recorder{}
	store := &MemoryTokenStore{}
	m := NewManager(newFakeAPI(), store, rec)
	require.NoError(t, m.Restore(context.Background()))

	err := m.SignIn(context.Background(), admin.Email, "wrong")
	require.Error(t, err)
	assert.Equal(t, Unauthenticated, m.Snapshot().State)
	stored, _ := store.Load()
	assert.Empty(t, stored)

	require.Len(t, rec.notes, 1)
	assert.Equal(t, "Login Failed", rec.notes[0].Title)
	assert.Equal(t, "Invalid email or password", rec.notes[0].Description)
	assert.True(t, rec.notes[0].Destructive)
}

func TestSignIn_StorageFailure(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newFakeAPI(), &brokenStore{}, rec)
	require.NoError(t, m.Restore(context.Background()))

	assert.Error(t, m.SignIn(context.Background(), admin.Email, "TempPass123!"))
	assert.Equal(t, Unauthenticated, m.Snapshot().State)
	assert.Equal(t, []string{"Login Failed"}, rec.titles())
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	fake := newFakeAPI()
	store := &MemoryTokenStore{}
	rec := &recorder{}
	m := NewManager(fake, store, rec)
	require.NoError(t, m.Restore(ctx))
	require.NoError(t, m.SignIn(ctx, admin.Email, "TempPass123!"))
	token := m.Token()

	require.NoError(t, m.SignOut(ctx))

	s := m.Snapshot()
	assert.Equal(t, Unauthenticated, s.State)
	assert.Nil(t, s.Identity)
	assert.Empty(t, m.Token())
	stored, _ := store.Load()
	assert.Empty(t, stored)
	assert.Equal(t, []string{token}, fake.loggedOut)
	assert.Equal(t, []string{"Login Successful", "Signed out"}, rec.titles())

	// the revoked token no longer restores
	leftover := &MemoryTokenStore{}
	require.NoError(t, leftover.Save(token))
	next := NewManager(fake, leftover, nil)
	require.NoError(t, next.Restore(ctx))
	assert.Equal(t, Unauthenticated, next.Snapshot().State)
}

func TestChangePassword_LocalChecks(t *testing.T) {
	ctx := context.Background()
	fake := newFakeAPI()
	rec := &recorder{}
	m := NewManager(fake, &MemoryTokenStore{}, rec)

	assert.ErrorIs(t, m.ChangePassword(ctx, "x", "long-enough", "long-enough"), ErrNotAuthenticated)

	require.NoError(t, m.Restore(ctx))
	require.NoError(t, m.SignIn(ctx, admin.Email, "TempPass123!"))

	assert.ErrorIs(t, m.ChangePassword(ctx, "TempPass123!", "long-enough", "long-enougH"), ErrPasswordMismatch)
	assert.ErrorIs(t, m.ChangePassword(ctx, "TempPass123!", "short", "short"), ErrPasswordTooShort)
	assert.Zero(t, fake.changes, "local checks must not reach the server")

	assert.Equal(t, []string{"Not signed in", "Login Successful", "Passwords do not match", "Password too short"}, rec.titles())
}

func TestChangePassword_ServerOutcome(t *testing.T) {
	ctx := context.Background()
	fake := newFakeAPI()
	rec := &recorder{}
	m := NewManager(fake, &MemoryTokenStore{}, rec)
	require.NoError(t, m.Restore(ctx))
	require.NoError(t, m.SignIn(ctx, admin.Email, "TempPass123!"))

	err := m.ChangePassword(ctx, "wrong-current", "brand-new-pass", "brand-new-pass")
	require.Error(t, err)
	last := rec.notes[len(rec.notes)-1]
	assert.Equal(t, "Password change failed", last.Title)
	assert.Equal(t, "Current password is incorrect", last.Description)

	require.NoError(t, m.ChangePassword(ctx, "TempPass123!", "brand-new-pass", "brand-new-pass"))
	assert.Equal(t, "Password updated", rec.notes[len(rec.notes)-1].Title)
	assert.Equal(t, "brand-new-pass", fake.password)
	assert.Equal(t, Authenticated, m.Snapshot().State, "changing the password keeps the session")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "restoring", Restoring.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSignOut_DuringRestoreStaysSignedOut(t *testing.T) {
	ctx := context.Background()
	fake := newFakeAPI()
	res, err := fake.Login(ctx, admin.Email, "TempPass123!")
	require.NoError(t, err)
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save(res.Token))

	gated := newGatedAPI(fake, "verify")
	m := NewManager(gated, store, nil)
	done := make(chan error, 1)
	go func() { done <- m.Restore(ctx) }()

	<-gated.entered
	assert.Equal(t, Restoring, m.Snapshot().State)
	require.NoError(t, m.SignOut(ctx))
	close(gated.release)
	require.NoError(t, <-done)

	s := m.Snapshot()
	assert.Equal(t, Unauthenticated, s.State)
	assert.Nil(t, s.Identity)
	assert.Empty(t, m.Token())
	stored, _ := store.Load()
	assert.Empty(t, stored)
	assert.Equal(t, []string{res.Token}, fake.loggedOut)
}

func TestRestore_DuringSignInDoesNotClobberNewSession(t *testing.T) {
	ctx := context.Background()
	fake := newFakeAPI()
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save("tok-stale"))

	gated := newGatedAPI(fake, "login")
	m := NewManager(gated, store, nil)
	done := make(chan error, 1)
	go func() { done <- m.SignIn(ctx, admin.Email, "TempPass123!") }()

	<-gated.entered
	assert.ErrorIs(t, m.Restore(ctx), ErrAlreadyRestored)
	close(gated.release)
	require.NoError(t, <-done)

	s := m.Snapshot()
	assert.Equal(t, Authenticated, s.State)
	require.NotNil(t, s.Identity)
	stored, _ := store.Load()
	assert.Equal(t, m.Token(), stored)
	assert.NotEqual(t, "tok-stale", stored)
}

func TestRestore_UnreadableStoreNotifies(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newFakeAPI(), &unreadableStore{}, rec)

	assert.Error(t, m.Restore(context.Background()))
	assert.Equal(t, Unauthenticated, m.Snapshot().State)
	assert.False(t, m.Snapshot().Loading)
	assert.Equal(t, []string{"Session check failed"}, rec.titles())
}
