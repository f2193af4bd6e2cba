package handler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/model"
	"github.com/pfolio/portfolio-api/internal/repository"
	"github.com/pfolio/portfolio-api/internal/service"
)

const (
	testSecret = "handler-secret"
	adminEmail = "admin@site.dev"
	tempPass   = "TempPass123!"
)

var errDown = errors.New("dial tcp 10.0.0.5:3306: connection refused")

type memUsers struct {
	mu   sync.Mutex
	byID map[string]model.User
	err  error
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.User{}, m.err
	}
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, e := range m.byID {
		if e.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	m.byID[id] = u
	return nil
}

type memRevocations struct {
	mu   sync.Mutex
	jtis map[string]bool
}

func (r *memRevocations) Revoke(_ context.Context, jti, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jtis[jti] = true
	return nil
}

func (r *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jtis[jti], nil
}

func newAuth() (*service.AuthService, *memUsers) {
	users := &memUsers{byID: map[string]model.User{}}
	revoked := &memRevocations{jtis: map[string]bool{}}
	svc := service.NewAuthService(users, revoked, nil, nil, logging.Nop(), service.AuthOptions{
		Secret:            testSecret,
		SessionTTL:        time.Hour,
		BcryptCost:        bcrypt.MinCost,
		AdminEmail:        adminEmail,
		AdminTempPassword: tempPass,
	})
	return svc, users
}

type memProfile struct {
	p   *model.Profile
	err error
}

func (m *memProfile) Get(context.Context) (model.Profile, error) {
	if m.err != nil {
		return model.Profile{}, m.err
	}
	if m.p == nil {
		return model.Profile{}, repository.ErrNotFound
	}
	return *m.p, nil
}

func (m *memProfile) Save(_ context.Context, p model.Profile) error {
	if m.err != nil {
		return m.err
	}
	p.UpdatedAt = time.Now().UTC()
	m.p = &p
	return nil
}

type memContact struct{ c *model.Contact }

func (m *memContact) Get(context.Context) (model.Contact, error) {
	if m.c == nil {
		return model.Contact{}, repository.ErrNotFound
	}
	return *m.c, nil
}

func (m *memContact) Save(_ context.Context, c model.Contact) error {
	m.c = &c
	return nil
}

type memProjects struct {
	mu     sync.Mutex
	rows   map[uint64]model.Project
	nextID uint64
}

func newMemProjects() *memProjects { return &memProjects{rows: map[uint64]model.Project{}} }

func (m *memProjects) List(context.Context) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Project, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (m *memProjects) GetByID(_ context.Context, id uint64) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return model.Project{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memProjects) Create(_ context.Context, p model.Project) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = p
	return p, nil
}

func (m *memProjects) Update(_ context.Context, p model.Project) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return model.Project{}, repository.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	m.rows[p.ID] = p
	return p, nil
}

func (m *memProjects) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type countingPurger struct{ calls int }

func (p *countingPurger) Purge(context.Context) (int, error) {
	p.calls++
	return 0, nil
}
