package services

import (
	"classcrew/internal/models"
	"classcrew/internal/repository"
	"context"
	"errors"
	"sync"
	"time"
)

// fakeStore keeps users, refresh tokens and recovery sessions in memory.
// calls counts every store access so tests can assert that nothing was touched.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int]*models.User
	nextID   int
	refresh  map[int][]string
	sessions map[string]models.RecoverySession
	calls    int

	// conflicts makes the next N session updates fail with ErrConflict.
	conflicts int
	// passwordWriteErr fails the password half of CompleteReset.
	passwordWriteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int]*models.User),
		refresh:  make(map[int][]string),
		sessions: make(map[string]models.RecoverySession),
	}
}

func (f *fakeStore) touch() {
	f.calls++
}

func (f *fakeStore) addUser(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	if u.Role == "" {
		u.Role = "user"
	}
	cp := *u
	f.users[u.ID] = &cp
	return u
}

func (f *fakeStore) sessionsFor(userID int) []models.RecoverySession {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RecoverySession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// --- UserRepo / AccountStore ---

func (f *fakeStore) IsUsernameTaken(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) IsEmailTaken(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	f.addUser(user)
	return nil
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) FindByNameAndPhone(_ context.Context, fullName, phone string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, u := range f.users {
		if u.FullName == fullName && u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpdatePassword(_ context.Context, userID int, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	u, ok := f.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeStore) GetAllUsersPaginated(_ context.Context, limit, offset int) ([]*models.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	var out []*models.User
	for id := 1; id <= f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (f *fakeStore) SaveRefreshToken(_ context.Context, userID int, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.refresh[userID] = append(f.refresh[userID], token)
	return nil
}

func (f *fakeStore) IsRefreshTokenValid(_ context.Context, userID int, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, t := range f.refresh[userID] {
		if t == token {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteRefreshToken(_ context.Context, userID int, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	kept := f.refresh[userID][:0]
	for _, t := range f.refresh[userID] {
		if t != token {
			kept = append(kept, t)
		}
	}
	f.refresh[userID] = kept
	return nil
}

func (f *fakeStore) DeleteRefreshTokens(_ context.Context, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	delete(f.refresh, userID)
	return nil
}

// --- RecoverySessionRepo ---

func (f *fakeStore) DeleteByUserID(_ context.Context, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeStore) Create(_ context.Context, s *models.RecoverySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if _, ok := f.sessions[s.ID]; ok {
		return errors.New("duplicate session id")
	}
	s.Version = 0
	s.CreatedAt = time.Now()
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.RecoverySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStore) GetVerifiedByTokenHash(_ context.Context, tokenHash string) (*models.RecoverySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	for _, s := range f.sessions {
		if s.ResetTokenHash != nil && *s.ResetTokenHash == tokenHash && !s.Used && s.Verified {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) Update(_ context.Context, s *models.RecoverySession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	cur, ok := f.sessions[s.ID]
	if !ok {
		return repository.ErrConflict
	}
	if f.conflicts > 0 {
		f.conflicts--
		return repository.ErrConflict
	}
	if cur.Version != s.Version {
		return repository.ErrConflict
	}
	s.Version++
	f.sessions[s.ID] = *s
	return nil
}

// CompleteReset applies both writes or neither, like the transactional repository.
func (f *fakeStore) CompleteReset(_ context.Context, s *models.RecoverySession, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	cur, ok := f.sessions[s.ID]
	if !ok {
		return repository.ErrConflict
	}
	if f.conflicts > 0 {
		f.conflicts--
		return repository.ErrConflict
	}
	if cur.Version != s.Version || cur.Used {
		return repository.ErrConflict
	}
	u, ok := f.users[s.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if f.passwordWriteErr != nil {
		return f.passwordWriteErr
	}
	u.PasswordHash = passwordHash
	s.Used = true
	s.Version++
	f.sessions[s.ID] = *s
	return nil
}

func (f *fakeStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	var n int64
	for id, s := range f.sessions {
		if s.ExpiresAt.Before(before) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// fakeSender remembers the last code sent to each phone.
type fakeSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newFakeSender() *fakeSender {
	return &fakeSender{codes: make(map[string]string)}
}

func (s *fakeSender) Send(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.codes[phone] = code
	return nil
}

func (s *fakeSender) last(phone string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[phone]
}

// fakeClock is a settable time source shared by the service and the signer.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
