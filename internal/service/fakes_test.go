package service

import (
	"context"
	"sync"
	"time"

	"github.com/pfolio/portfolio-api/internal/model"
	"github.com/pfolio/portfolio-api/internal/queue"
	"github.com/pfolio/portfolio-api/internal/repository"
)

type memUsers struct {
	mu      sync.Mutex
	byID    map[string]model.User
	getErr  error
	updates int

	// beforeCreate runs once before the first Create, simulating a
	// concurrent seeder winning the race.
	beforeCreate func(m *memUsers)
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]model.User{}} }

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return model.User{}, m.getErr
	}
	email = model.NormalizeEmail(email)
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
	if m.getErr != nil {
		return model.User{}, m.getErr
	}
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		m.mu.Unlock()
		hook(m)
		m.mu.Lock()
	}
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == model.NormalizeEmail(u.Email) {
			return repository.ErrEmailExists
		}
	}
	u.Email = model.NormalizeEmail(u.Email)
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
	m.updates++
	return nil
}

func (m *memUsers) hashOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].PasswordHash
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memRevocations struct {
	mu   sync.Mutex
	jtis map[string]time.Time
}

func newMemRevocations() *memRevocations { return &memRevocations{jtis: map[string]time.Time{}} }

func (r *memRevocations) Revoke(_ context.Context, jti, _ string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jtis[jti] = exp
	return nil
}

func (r *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jtis[jti]
	return ok, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.AuthEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
