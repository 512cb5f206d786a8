package handlers

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stanstork/admingate/internal/models"
	"github.com/stanstork/admingate/internal/repository"
)

// fakeUserRepository keeps users in memory; passwords are stored in clear
// text under PasswordHash.
type fakeUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
	seq   int
}

func newFakeUserRepository(users ...models.User) *fakeUserRepository {
	repo := &fakeUserRepository{users: map[string]models.User{}}
	for _, u := range users {
		u.IsActive = true
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepository) deactivate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	u.IsActive = false
	f.users[userID] = u
}

var _ repository.UserRepository = (*fakeUserRepository)(nil)

func (f *fakeUserRepository) CreateUser(email, password, firstName, lastName string, role models.UserRole) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return models.User{}, repository.ErrUserExists
		}
	}
	f.seq++
	u := models.User{
		ID:           fmt.Sprintf("generated-%d", f.seq),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: password,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepository) AuthenticateUser(email, password string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email != email {
			continue
		}
		if u.PasswordHash != password {
			return models.User{}, repository.ErrInvalidCredentials
		}
		if !u.IsActive {
			return models.User{}, repository.ErrUserInactive
		}
		return u, nil
	}
	return models.User{}, repository.ErrInvalidCredentials
}

func (f *fakeUserRepository) GetUserByID(userID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepository) ListUsers() ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (f *fakeUserRepository) UpdateUserRole(userID string, role models.UserRole) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	u.Role = role
	f.users[userID] = u
	return u, nil
}

func (f *fakeUserRepository) DeleteUser(userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return sql.ErrNoRows
	}
	delete(f.users, userID)
	return nil
}
