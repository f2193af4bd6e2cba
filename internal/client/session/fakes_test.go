package session

import (
	"context"
	"errors"
	"sync"

	"github.com/pfolio/portfolio-api/internal/client/api"
	"github.com/pfolio/portfolio-api/internal/model"
)

var admin = model.Identity{ID: "u-1", Email: "admin@site.dev", Role: model.RoleAdmin}

// fakeAPI accepts one password and the tokens it issued.
type fakeAPI struct {
	mu        sync.Mutex
	password  string
	user      model.Identity
	valid     map[string]bool
	verifyErr error
	loggedOut []string
	changes   int
	issued    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{password: "TempPass123!", user: admin, valid: map[string]bool{}}
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (api.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if email != f.user.Email || password != f.password {
		return api.LoginResult{}, &api.Error{Status: 401, Message: "Invalid email or password"}
	}
	f.issued++
	tok := "tok-" + string(rune('a'+f.issued))
	f.valid[tok] = true
	return api.LoginResult{Token: tok, User: f.user}, nil
}

func (f *fakeAPI) Verify(_ context.Context, token string) (model.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return model.Identity{}, f.verifyErr
	}
	if !f.valid[token] {
		return model.Identity{}, &api.Error{Status: 401, Message: "Invalid token"}
	}
	return f.user, nil
}

func (f *fakeAPI) ChangePassword(_ context.Context, token, userID, current, next string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.valid[token] {
		return &api.Error{Status: 401, Message: "Invalid token"}
	}
	if userID != f.user.ID {
		return &api.Error{Status: 403, Message: "Cannot change another user's password"}
	}
	if current != f.password {
		return &api.Error{Status: 401, Message: "Current password is incorrect"}
	}
	f.password = next
	f.changes++
	return nil
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.valid, token)
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Title)
	}
	return out
}

type brokenStore struct{ MemoryTokenStore }

func (b *brokenStore) Save(string) error { return errors.New("disk full") }

// gatedAPI blocks Verify or Login until release is closed, so tests can run
// other transitions while a call is in flight.
type gatedAPI struct {
	*fakeAPI
	gate    string
	entered chan struct{}
	release chan struct{}
}

func newGatedAPI(fake *fakeAPI, gate string) *gatedAPI {
	return &gatedAPI{fakeAPI: fake, gate: gate, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedAPI) wait(call string) {
	if g.gate != call {
		return
	}
	close(g.entered)
	<-g.release
}

func (g *gatedAPI) Verify(ctx context.Context, token string) (model.Identity, error) {
	g.wait("verify")
	return g.fakeAPI.Verify(ctx, token)
}

func (g *gatedAPI) Login(ctx context.Context, email, password string) (api.LoginResult, error) {
	g.wait("login")
	return g.fakeAPI.Login(ctx, email, password)
}

type unreadableStore struct{ MemoryTokenStore }

func (u *unreadableStore) Load() (string, error) { return "", errors.New("permission denied") }
