package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rjenterprise/poolhub/internal/domain/account"
)

type AccountsRepo struct {
	mu    sync.RWMutex
	items map[string]account.Account
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		items: make(map[string]account.Account),
	}
}

func (r *AccountsRepo) Create(_ context.Context, a account.Account) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == a.Email {
			return account.Account{}, account.ErrEmailTaken
		}
		if existing.Username == a.Username {
			return account.Account{}, account.ErrUsernameTaken
		}
	}

	if a.ID == "" {
		a.ID = newID()
	}
	r.items[a.ID] = a
	return a, nil
}

func (r *AccountsRepo) GetByEmail(_ context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) GetByID(_ context.Context, id string) (account.Account, error) {
	if !validID(id) {
		return account.Account{}, account.ErrInvalidID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *AccountsRepo) UpdatePasswordHash(_ context.Context, id, oldValue, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok || a.PasswordHash != oldValue {
		return account.ErrNotFound
	}
	a.PasswordHash = newHash
	a.UpdatedAt = time.Now().UTC()
	r.items[id] = a
	return nil
}

func (r *AccountsRepo) UpdateRole(_ context.Context, id string, role account.Role) (account.Account, error) {
	if !validID(id) {
		return account.Account{}, account.ErrInvalidID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	a.Role = role
	a.UpdatedAt = time.Now().UTC()
	r.items[id] = a
	return a, nil
}

func (r *AccountsRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.items)), nil
}
