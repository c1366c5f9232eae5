package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"aelon-backend/internal/features/ledger/models"
	"aelon-backend/internal/features/ledger/repository"
)

// Claim flags must flip exactly once even under concurrent duplicate requests,
// so every mutation goes through WATCH + MULTI/EXEC and retries on contention.
const maxUpdateRetries = 5

type userRepository struct {
	rdb *redis.Client
}

// NewUserRepository stores user documents as JSON at "user:<id>" with a
// "referrals:<id>" set as the referral index.
func NewUserRepository(rdb *redis.Client) repository.UserRepository {
	return &userRepository{rdb: rdb}
}

func userKey(id string) string      { return fmt.Sprintf("user:%s", id) }
func referralsKey(id string) string { return fmt.Sprintf("referrals:%s", id) }

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}

	ok, err := r.rdb.SetNX(ctx, userKey(user.TelegramID), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrAlreadyExists
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, telegramID string) (*models.User, error) {
	raw, err := r.rdb.Get(ctx, userKey(telegramID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, telegramID string, fn func(*models.User) error) (*models.User, error) {
	key := userKey(telegramID)

	var updated *models.User
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return repository.ErrNotFound
			}
			return err
		}

		var user models.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return err
		}

		if err := fn(&user); err != nil {
			if errors.Is(err, repository.ErrUnchanged) {
				updated = &user
				return nil
			}
			return err
		}

		out, err := json.Marshal(&user)
		if err != nil {
			return err
		}
		updated = &user

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.rdb.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("update of %s lost the race %d times", key, maxUpdateRetries)
}

func (r *userRepository) AddReferral(ctx context.Context, referrerID, referredID string) error {
	return r.rdb.SAdd(ctx, referralsKey(referrerID), referredID).Err()
}

func (r *userRepository) ListReferrals(ctx context.Context, referrerID string) ([]*models.User, error) {
	ids, err := r.rdb.SMembers(ctx, referralsKey(referrerID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	raws, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(raws))
	for _, raw := range raws {
		s, ok := raw.(string)
		if !ok {
			// Index entry without a record; skip rather than fail the listing.
			continue
		}
		var user models.User
		if err := json.Unmarshal([]byte(s), &user); err != nil {
			continue
		}
		users = append(users, &user)
	}
	return users, nil
}
