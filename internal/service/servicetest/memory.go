// Package servicetest provides in-memory stores for exercising services and
// handlers without Postgres or Redis.
package servicetest

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"listinghub/internal/models"
	"listinghub/internal/repository"
)

// Clock hands out strictly increasing timestamps so ordering by creation time
// is deterministic.
type Clock struct {
	mu   sync.Mutex
	next time.Time
}

func NewClock() *Clock {
	return &Clock{next: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.next.Add(time.Second)
	return c.next
}

type Users struct {
	mu     sync.Mutex
	clock  *Clock
	nextID int64
	rows   map[int64]models.User
}

func NewUsers(clock *Clock) *Users {
	return &Users{clock: clock, rows: map[int64]models.User{}}
}

func (s *Users) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taken(0, user.Username, user.Email) {
		return repository.ErrDuplicate
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = s.clock.Now()
	user.UpdatedAt = user.CreatedAt
	s.rows[user.ID] = *user
	return nil
}

func (s *Users) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *Users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *Users) GetByID(ctx context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *Users) UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	username, email := u.Username, u.Email
	if patch.Username != nil {
		username = *patch.Username
	}
	if patch.Email != nil {
		email = *patch.Email
	}
	if s.taken(id, username, email) {
		return models.User{}, repository.ErrDuplicate
	}
	u.Username, u.Email = username, email
	if patch.Phone != nil {
		u.Phone = patch.Phone
	}
	if patch.ProfileImage != nil {
		u.ProfileImage = patch.ProfileImage
	}
	u.UpdatedAt = s.clock.Now()
	s.rows[id] = u
	return u, nil
}

// Remove deletes a user, simulating an account that disappeared after its
// token was issued.
func (s *Users) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
}

func (s *Users) taken(self int64, username, email string) bool {
	for id, u := range s.rows {
		if id != self && (u.Username == username || u.Email == email) {
			return true
		}
	}
	return false
}

type Listings struct {
	mu     sync.Mutex
	clock  *Clock
	users  *Users
	nextID int64
	rows   map[int64]models.Listing
}

func NewListings(clock *Clock, users *Users) *Listings {
	return &Listings{clock: clock, users: users, rows: map[int64]models.Listing{}}
}

func (s *Listings) Create(ctx context.Context, listing *models.Listing) error {
	if s.users != nil {
		if _, err := s.users.GetByID(ctx, listing.CreatedBy); err != nil {
			return repository.ErrMissingReference
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	listing.ID = s.nextID
	listing.CreatedAt = s.clock.Now()
	listing.UpdatedAt = listing.CreatedAt
	s.rows[listing.ID] = *listing
	return nil
}

func (s *Listings) GetByID(ctx context.Context, id int64) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rows[id]
	if !ok {
		return models.Listing{}, repository.ErrListingNotFound
	}
	return l, nil
}

func (s *Listings) List(ctx context.Context, q models.ListingQuery) ([]models.Listing, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]models.Listing, 0, len(s.rows))
	for _, l := range s.rows {
		if q.HideExpired && l.Expired(q.Now) {
			continue
		}
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if q.Offset >= total {
		return []models.Listing{}, total, nil
	}
	end := q.Offset + q.Limit
	if end > total {
		end = total
	}
	return all[q.Offset:end], total, nil
}

func (s *Listings) Update(ctx context.Context, id int64, patch models.ListingPatch) (models.Listing, error) {
	if patch.CreatedBy != nil && s.users != nil {
		if _, err := s.users.GetByID(ctx, *patch.CreatedBy); err != nil {
			return models.Listing{}, repository.ErrMissingReference
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rows[id]
	if !ok {
		return models.Listing{}, repository.ErrListingNotFound
	}
	if patch.Empty() {
		return l, nil
	}
	patch.Apply(&l)
	l.UpdatedAt = s.clock.Now()
	s.rows[id] = l
	return l, nil
}

func (s *Listings) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return repository.ErrListingNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *Listings) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// Task is one enqueued job recorded by Queue.
type Task struct {
	Type   string
	Fields map[string]any
}

type Queue struct {
	mu    sync.Mutex
	tasks []Task
	Err   error
}

func (q *Queue) Enqueue(ctx context.Context, taskType string, fields map[string]any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	q.tasks = append(q.tasks, Task{Type: taskType, Fields: fields})
	return nil
}

func (q *Queue) Tasks() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Task(nil), q.tasks...)
}

// Files is an in-memory storage.Store serving keys below Prefix.
type Files struct {
	mu     sync.Mutex
	Prefix string
	data   map[string][]byte
}

func NewFiles() *Files {
	return &Files{Prefix: "/uploads/properties", data: map[string][]byte{}}
}

func (f *Files) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = b
	return nil
}

func (f *Files) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *Files) URL(key string) string {
	return f.Prefix + "/" + key
}

func (f *Files) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, f.Prefix+"/")
	return key, ok && key != ""
}

func (f *Files) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
