package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/promptlift-backend/internal/clients/identity"
	redisclient "github.com/yungbote/promptlift-backend/internal/clients/redis"
	types "github.com/yungbote/promptlift-backend/internal/domain"
	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	domainuser "github.com/yungbote/promptlift-backend/internal/domain/user"
	pkgerrors "github.com/yungbote/promptlift-backend/internal/pkg/errors"
)

type fakeUserRepo struct {
	mu          sync.Mutex
	users       map[string]*types.User
	calls       int
	decrements  int
	resets      int
	getErr      error
	createErr   error
	createFirst func(u *types.User)
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*types.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createFirst != nil {
		r.createFirst(user)
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.users[user.ID]; ok {
		return nil, gorm.ErrDuplicatedKey
	}
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *fakeUserRepo) ResetCredits(ctx context.Context, tx *gorm.DB, userID string, amount int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.resets++
	u, ok := r.users[userID]
	if !ok {
		return domainuser.ErrNotFound
	}
	u.CreditsRemaining = amount
	u.LastCreditReset = at
	return nil
}

func (r *fakeUserRepo) DecrementCredit(ctx context.Context, tx *gorm.DB, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	u, ok := r.users[userID]
	if !ok {
		return 0, domainuser.ErrNotFound
	}
	if u.CreditsRemaining <= 0 {
		return 0, pkgerrors.ErrNoCredits
	}
	r.decrements++
	u.CreditsRemaining--
	return u.CreditsRemaining, nil
}

func (r *fakeUserRepo) user(id string) *types.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

type fakeGuideRepo struct {
	mu    sync.Mutex
	rows  map[string]*types.PlatformGuide
	calls int
}

func newFakeGuideRepo() *fakeGuideRepo {
	return &fakeGuideRepo{rows: map[string]*types.PlatformGuide{}}
}

func (r *fakeGuideRepo) Get(ctx context.Context, tx *gorm.DB, platform string) (*types.PlatformGuide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	row, ok := r.rows[platform]
	if !ok {
		return nil, guide.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeGuideRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.PlatformGuide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]*types.PlatformGuide, 0, len(r.rows))
	for _, row := range r.rows {
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeGuideRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.PlatformGuide) (*types.PlatformGuide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	cp := *row
	cp.Version = 1
	if prev, ok := r.rows[row.Platform]; ok {
		cp.Version = prev.Version + 1
	}
	r.rows[row.Platform] = &cp
	out := cp
	return &out, nil
}

func (r *fakeGuideRepo) Delete(ctx context.Context, tx *gorm.DB, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if _, ok := r.rows[platform]; !ok {
		return guide.ErrNotFound
	}
	delete(r.rows, platform)
	return nil
}

// repoStore reads straight from a fakeGuideRepo, like the uncached store.
type repoStore struct {
	repo *fakeGuideRepo
}

func (s repoStore) Get(ctx context.Context, platform string) (*guide.Document, error) {
	row, err := s.repo.Get(ctx, nil, platform)
	if err != nil {
		return nil, err
	}
	return row.Decode()
}

type fakeInvalidator struct {
	mu        sync.Mutex
	platforms []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, platform string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.platforms = append(f.platforms, platform)
	return nil
}

type fakeBus struct {
	mu   sync.Mutex
	msgs []redisclient.GuideInvalidation
}

func (b *fakeBus) Publish(ctx context.Context, msg redisclient.GuideInvalidation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *fakeBus) StartForwarder(ctx context.Context, onMsg func(m redisclient.GuideInvalidation)) error {
	return nil
}

type fakeLookup struct {
	profiles map[string]string
	err      error
}

func (f fakeLookup) LookupUser(ctx context.Context, id string) (*identity.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	email, ok := f.profiles[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return &identity.Profile{ID: id, Email: email}, nil
}

type fakeModel struct {
	mu     sync.Mutex
	calls  int
	reply  string
	err    error
	block  bool
	gotIns string
	gotIn  string
}

func (m *fakeModel) GenerateText(ctx context.Context, instructions string, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.gotIns, m.gotIn = instructions, prompt
	reply, err, block := m.reply, m.err, m.block
	m.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
