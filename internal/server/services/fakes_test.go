package services

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bloombuddy/internal/common"
	"github.com/dmitrijs2005/bloombuddy/internal/dbx"
	"github.com/dmitrijs2005/bloombuddy/internal/server/models"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/plants"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/bloombuddy/internal/server/repositories/users"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeStore backs every fake repository. Transactions are not modelled:
// writes made inside a rolled-back dbx.WithTx stay visible.
type fakeStore struct {
	mu sync.Mutex

	users     map[string]*models.User
	tokens    map[string]*models.RefreshToken
	plants    map[int64]*models.Plant
	reminders map[int64]*models.Reminder
	nextID    int64

	// injected failures
	usersErr        error
	tokensCreateErr error
	tokensDeleteErr error
	remindersErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]*models.User{},
		tokens:    map[string]*models.RefreshToken{},
		plants:    map[int64]*models.Plant{},
		reminders: map[int64]*models.Reminder{},
	}
}

func (s *fakeStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (s *fakeStore) Users(dbx.DBTX) users.Repository             { return fakeUsers{s} }
func (s *fakeStore) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return fakeTokens{s}
}
func (s *fakeStore) Plants(dbx.DBTX) plants.Repository       { return fakePlants{s} }
func (s *fakeStore) Reminders(dbx.DBTX) reminders.Repository { return fakeReminders{s} }

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	if _, ok := f.s.users[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	c := *u
	c.ID = "user-" + u.UserName
	c.CreatedAt = time.Now()
	f.s.users[u.UserName] = &c
	return &c, nil
}

func (f fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	u, ok := f.s.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

type fakeTokens struct{ s *fakeStore }

func (f fakeTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.tokensCreateErr != nil {
		return f.s.tokensCreateErr
	}
	f.s.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f fakeTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (f fakeTokens) Delete(_ context.Context, token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.tokensDeleteErr != nil {
		return f.s.tokensDeleteErr
	}
	delete(f.s.tokens, token)
	return nil
}

func (f fakeTokens) DeleteExpired(_ context.Context, userID string, now time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for k, t := range f.s.tokens {
		if t.UserID == userID && t.Expires.Before(now) {
			delete(f.s.tokens, k)
			n++
		}
	}
	return n, nil
}

type fakePlants struct{ s *fakeStore }

func (f fakePlants) List(_ context.Context, userID string) ([]models.Plant, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.Plant{}
	for _, p := range f.s.plants {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b models.Plant) int { return int(b.ID - a.ID) })
	return out, nil
}

func (f fakePlants) Get(_ context.Context, userID string, id int64) (*models.Plant, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.plants[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (f fakePlants) Create(_ context.Context, p *models.Plant) (*models.Plant, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c := *p
	c.ID = f.s.id()
	c.CreatedAt = time.Now()
	f.s.plants[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakePlants) Update(_ context.Context, p *models.Plant) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur, ok := f.s.plants[p.ID]
	if !ok || cur.UserID != p.UserID {
		return common.ErrorNotFound
	}
	c := *p
	f.s.plants[p.ID] = &c
	return nil
}

func (f fakePlants) Delete(_ context.Context, userID string, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.plants[id]
	if !ok || p.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.s.plants, id)
	for rid, r := range f.s.reminders {
		if r.PlantID == id {
			delete(f.s.reminders, rid)
		}
	}
	return nil
}

type fakeReminders struct{ s *fakeStore }

func (f fakeReminders) list(userID string, keep func(models.Reminder) bool) []models.Reminder {
	out := []models.Reminder{}
	for _, r := range f.s.reminders {
		if r.UserID == userID && keep(*r) {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b models.Reminder) int {
		if c := a.DueDate.Compare(b.DueDate.Time); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out
}

func (f fakeReminders) List(_ context.Context, userID string) ([]models.Reminder, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.remindersErr != nil {
		return nil, f.s.remindersErr
	}
	return f.list(userID, func(models.Reminder) bool { return true }), nil
}

func (f fakeReminders) ListByPlant(_ context.Context, userID string, plantID int64) ([]models.Reminder, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.list(userID, func(r models.Reminder) bool { return r.PlantID == plantID }), nil
}

func (f fakeReminders) Get(_ context.Context, userID string, id int64) (*models.Reminder, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.reminders[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *r
	return &c, nil
}

func (f fakeReminders) Create(_ context.Context, r *models.Reminder) (*models.Reminder, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.remindersErr != nil {
		return nil, f.s.remindersErr
	}
	p, ok := f.s.plants[r.PlantID]
	if !ok || p.UserID != r.UserID {
		return nil, common.ErrorNotFound
	}
	c := *r
	c.ID = f.s.id()
	c.CreatedAt = time.Now()
	f.s.reminders[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeReminders) update(userID string, id int64, fn func(*models.Reminder)) (*models.Reminder, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.reminders[id]
	if !ok || r.UserID != userID {
		return nil, common.ErrorNotFound
	}
	fn(r)
	c := *r
	return &c, nil
}

func (f fakeReminders) SetCompleted(_ context.Context, userID string, id int64, completed bool) (*models.Reminder, error) {
	return f.update(userID, id, func(r *models.Reminder) { r.IsCompleted = completed })
}

func (f fakeReminders) Toggle(_ context.Context, userID string, id int64) (*models.Reminder, error) {
	return f.update(userID, id, func(r *models.Reminder) { r.IsCompleted = !r.IsCompleted })
}

func (f fakeReminders) Delete(_ context.Context, userID string, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.reminders[id]
	if !ok || r.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.s.reminders, id)
	return nil
}
