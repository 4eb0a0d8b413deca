package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
)

var errAuditDown = errors.New("audit log unavailable")

// In-memory repositories for service tests. WithTx returns the
// repository itself; the service skips real transactions when it has
// no database handle.

type memMemberRepo struct {
	mu      sync.Mutex
	members map[string]*domain.Member
	seq     int
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{members: make(map[string]*domain.Member)}
}

func (r *memMemberRepo) WithTx(*sql.Tx) domain.MemberRepository { return r }

func (r *memMemberRepo) Create(_ context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.Phone == m.Phone {
			return domain.ErrConflict
		}
		if m.Email != "" && existing.Email == m.Email {
			return domain.ErrConflict
		}
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	r.seq++
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *memMemberRepo) GetByID(_ context.Context, id string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMemberRepo) GetByPhone(_ context.Context, phone string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Phone == phone {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMemberRepo) GetByEmail(_ context.Context, email string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.Email != "" && m.Email == email {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memMemberRepo) Update(_ context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m.ID]; !ok {
		return domain.ErrNotFound
	}
	m.UpdatedAt = time.Now()
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *memMemberRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *memMemberRepo) List(_ context.Context) ([]*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Member, 0, len(r.members))
	for _, m := range r.members {
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memMemberRepo) ListExpiringOn(_ context.Context, day time.Time) ([]*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	var out []*domain.Member
	for _, m := range r.members {
		if !m.ExpiryDate.Before(start) && m.ExpiryDate.Before(end) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
	failing bool
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (r *memAuditRepo) WithTx(*sql.Tx) domain.AuditRepository { return r }

func (r *memAuditRepo) Append(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errAuditDown
	}
	e.CreatedAt = time.Now()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *memAuditRepo) GetByID(_ context.Context, id string) (*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memAuditRepo) List(_ context.Context, limit, offset int) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rev := make([]*domain.AuditEntry, len(r.entries))
	for i, e := range r.entries {
		cp := *e
		rev[len(r.entries)-1-i] = &cp
	}
	if offset >= len(rev) {
		return nil, nil
	}
	rev = rev[offset:]
	if limit > 0 && limit < len(rev) {
		rev = rev[:limit]
	}
	return rev, nil
}

func (r *memAuditRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memAuditRepo) all() []*domain.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return domain.ErrConflict
		}
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}
