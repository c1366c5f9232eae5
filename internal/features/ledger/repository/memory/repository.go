// Package memory provides an in-memory UserRepository used by tests and by
// local development without a Redis instance.
package memory

import (
	"context"
	"errors"
	"sync"

	"aelon-backend/internal/features/ledger/models"
	"aelon-backend/internal/features/ledger/repository"
)

type userRepository struct {
	mu    sync.Mutex
	users map[string]models.User
	refs  map[string][]string
}

// NewUserRepository returns an empty in-memory record store.
func NewUserRepository() repository.UserRepository {
	return &userRepository{
		users: make(map[string]models.User),
		refs:  make(map[string][]string),
	}
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.TelegramID]; ok {
		return repository.ErrAlreadyExists
	}
	r.users[user.TelegramID] = clone(user)
	return nil
}

func (r *userRepository) Get(_ context.Context, telegramID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(&user)
	return &out, nil
}

func (r *userRepository) Update(_ context.Context, telegramID string, fn func(*models.User) error) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	working := clone(&current)
	if err := fn(&working); err != nil {
		if errors.Is(err, repository.ErrUnchanged) {
			out := clone(&current)
			return &out, nil
		}
		return nil, err
	}

	r.users[telegramID] = clone(&working)
	return &working, nil
}

func (r *userRepository) AddReferral(_ context.Context, referrerID, referredID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.refs[referrerID] {
		if id == referredID {
			return nil
		}
	}
	r.refs[referrerID] = append(r.refs[referrerID], referredID)
	return nil
}

func (r *userRepository) ListReferrals(_ context.Context, referrerID string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.User
	for _, id := range r.refs[referrerID] {
		if user, ok := r.users[id]; ok {
			u := clone(&user)
			out = append(out, &u)
		}
	}
	return out, nil
}

// clone deep-copies a record so callers never share slices or pointers with
// the store.
func clone(u *models.User) models.User {
	out := *u
	out.AirdropClaimed = append([]bool(nil), u.AirdropClaimed...)
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		out.LastLoginAt = &t
	}
	if u.LastClaimedAt != nil {
		t := *u.LastClaimedAt
		out.LastClaimedAt = &t
	}
	if u.FarmingStartTime != nil {
		t := *u.FarmingStartTime
		out.FarmingStartTime = &t
	}
	return out
}
