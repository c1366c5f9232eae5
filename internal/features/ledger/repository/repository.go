package repository

import (
	"context"
	"errors"

	"aelon-backend/internal/features/ledger/models"
)

var (
	// ErrNotFound is returned when no record exists for an identity.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned by Create when the identity is taken.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrUnchanged can be returned from an update function to abort the write
	// while still handing the caller the current record.
	ErrUnchanged = errors.New("record unchanged")
)

// UserRepository is the record store: one mutable document per Telegram identity.
type UserRepository interface {
	// Create stores a brand-new record; it never overwrites an existing one.
	Create(ctx context.Context, user *models.User) error

	Get(ctx context.Context, telegramID string) (*models.User, error)

	// Update applies fn to the current record and persists the result as a
	// single atomic read-modify-write. fn may be retried on contention, so it
	// must be side-effect free; returning an error (other than ErrUnchanged)
	// aborts the write and is passed through.
	Update(ctx context.Context, telegramID string, fn func(*models.User) error) (*models.User, error)

	// AddReferral records that referredID was referred by referrerID.
	AddReferral(ctx context.Context, referrerID, referredID string) error

	// ListReferrals loads the records of every user referred by referrerID.
	ListReferrals(ctx context.Context, referrerID string) ([]*models.User, error)
}
