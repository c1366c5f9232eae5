package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "aelon-backend/internal/common/errors"
	"aelon-backend/internal/features/ledger/models"
	"aelon-backend/internal/features/ledger/repository"
)

// Notifier delivers out-of-band messages to users; the bot implements it.
// Delivery is best effort and never fails a ledger operation.
type Notifier interface {
	NotifyReferralBonus(ctx context.Context, referrerID, referredName string, points int64)
}

// NopNotifier is used when no bot is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyReferralBonus(context.Context, string, string, int64) {}

// Service is the reward ledger: it owns every reward-state transition for a
// user record. Handlers and the bot only ever mutate records through it.
type Service struct {
	repo     repository.UserRepository
	rules    *Rules
	notifier Notifier

	// now is swapped out in tests to pin the reference day.
	now func() time.Time
}

func New(repo repository.UserRepository, rules *Rules, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		repo:     repo,
		rules:    rules,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetNotifier installs the notifier after construction. The bot needs the
// service to handle /start, so the two are wired in this order at startup.
func (s *Service) SetNotifier(n Notifier) {
	if n != nil {
		s.notifier = n
	}
}

// dayStart truncates t to its UTC calendar day. Streak continuity is evaluated
// against UTC day boundaries, never the server's local clock.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EnsureAccount looks up the record for telegramID and creates it if absent.
// On creation with a valid referrer the referrer's count is incremented, the
// stepped bonus credited, and a notification dispatched. Self-referral is
// ignored and an unknown referrer is a no-op: the account is still created.
// Existing accounts are returned untouched regardless of the referrer argument.
func (s *Service) EnsureAccount(ctx context.Context, telegramID, firstName, lastName, referrerID string) (*models.User, bool, error) {
	user, err := s.repo.Get(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.NewStorageError("get user", err)
	}

	user = &models.User{
		TelegramID:     telegramID,
		FirstName:      firstName,
		LastName:       lastName,
		AirdropClaimed: make([]bool, len(s.rules.Actions)),
		CreatedAt:      s.now(),
	}
	if referrerID != "" && referrerID != telegramID {
		user.ReferredBy = referrerID
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// Lost a duplicate-/start race; the winner owns the referral.
			existing, getErr := s.repo.Get(ctx, telegramID)
			if getErr != nil {
				return nil, false, apperrors.NewStorageError("get user", getErr)
			}
			return existing, false, nil
		}
		return nil, false, apperrors.NewStorageError("create user", err)
	}

	if user.ReferredBy != "" {
		s.creditReferrer(ctx, user)
	}
	return user, true, nil
}

// creditReferrer applies the referral side effect on the referrer's record.
func (s *Service) creditReferrer(ctx context.Context, referred *models.User) {
	referrerID := referred.ReferredBy

	var bonus int64
	_, err := s.repo.Update(ctx, referrerID, func(u *models.User) error {
		u.ReferralCount++
		bonus = s.rules.ReferralBonus(u.ReferralCount)
		u.Rewards += bonus
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Dead referral links are kept on the record but earn nothing.
			log.Debug().Str("referrer_id", referrerID).Msg("referrer not found, skipping bonus")
			return
		}
		log.Error().Err(err).Str("referrer_id", referrerID).Msg("failed to credit referrer")
		return
	}

	if err := s.repo.AddReferral(ctx, referrerID, referred.TelegramID); err != nil {
		log.Error().Err(err).Str("referrer_id", referrerID).Msg("failed to index referral")
	}
	s.notifier.NotifyReferralBonus(ctx, referrerID, referred.DisplayName(), bonus)
}

// GetProfile returns the record plus point-claim eligibility derived from the
// time since the last claim.
func (s *Service) GetProfile(ctx context.Context, telegramID string) (*models.ProfileResponse, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	canClaim := false
	var remaining int64
	if user.LastClaimedAt == nil {
		canClaim = true
		remaining = int64(s.rules.FarmingDuration.Seconds())
	} else if elapsed := now.Sub(*user.LastClaimedAt); elapsed >= s.rules.FarmingDuration {
		canClaim = true
	} else {
		remaining = int64((s.rules.FarmingDuration - elapsed).Seconds())
	}

	return &models.ProfileResponse{
		ID:            user.TelegramID,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Rewards:       user.Rewards,
		CanClaim:      canClaim,
		TimeRemaining: remaining,
		StreakCount:   user.StreakCount,
		LastLogin:     user.LastLoginAt,
	}, nil
}

// ClaimPoints credits a caller-supplied amount and stamps the claim time. It
// is independent of the farming cycle; a different front-end flow uses it.
func (s *Service) ClaimPoints(ctx context.Context, telegramID string, points int64) (*models.User, error) {
	if points < 0 {
		return nil, apperrors.NewValidationError("points", "must not be negative")
	}

	now := s.now()
	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		u.Rewards += points
		u.LastClaimedAt = &now
		return nil
	})
	return user, s.wrapUpdateErr(err, telegramID, "claim points")
}

// RecordLogin advances the daily login streak. Calling it again on the same
// UTC day changes nothing and earns nothing.
func (s *Service) RecordLogin(ctx context.Context, telegramID string) (*models.LoginResponse, error) {
	today := dayStart(s.now())

	var earned int64
	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		earned = 0
		if u.LastLoginAt != nil {
			last := dayStart(*u.LastLoginAt)
			if last.Equal(today) {
				return repository.ErrUnchanged
			}
			if today.Sub(last) == 24*time.Hour {
				u.StreakCount++
			} else {
				u.StreakCount = 1
			}
		} else {
			u.StreakCount = 1
		}
		u.LastLoginAt = &today
		earned = s.rules.StreakReward(u.StreakCount)
		u.Rewards += earned
		return nil
	})
	if err != nil {
		return nil, s.wrapUpdateErr(err, telegramID, "record login")
	}

	return &models.LoginResponse{
		StreakCount:  user.StreakCount,
		Rewards:      user.Rewards,
		PointsEarned: earned,
	}, nil
}

// GetStreak reports the current streak and whether a login today would advance it.
func (s *Service) GetStreak(ctx context.Context, telegramID string) (*models.StreakResponse, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	canClaim := user.LastLoginAt == nil || !dayStart(*user.LastLoginAt).Equal(dayStart(s.now()))
	return &models.StreakResponse{
		StreakCount: user.StreakCount,
		Rewards:     user.Rewards,
		CanClaim:    canClaim,
	}, nil
}

// StartFarming begins a timed claim cycle.
func (s *Service) StartFarming(ctx context.Context, telegramID string) (*models.User, error) {
	now := s.now()
	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		if u.IsFarming {
			return apperrors.New(apperrors.ErrCodeAlreadyInProgress, "Farming already in progress")
		}
		u.IsFarming = true
		u.FarmingStartTime = &now
		u.FarmingClaimed = false
		return nil
	})
	return user, s.wrapUpdateErr(err, telegramID, "start farming")
}

// FarmingStatus reports the elapsed cycle time. A finished cycle is flipped
// back to idle here, lazily, without crediting; only ClaimFarming pays out.
func (s *Service) FarmingStatus(ctx context.Context, telegramID string) (*models.FarmingStatusResponse, error) {
	now := s.now()

	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		if u.IsFarming && u.FarmingStartTime != nil && now.Sub(*u.FarmingStartTime) >= s.rules.FarmingDuration {
			u.IsFarming = false
			return nil
		}
		return repository.ErrUnchanged
	})
	if err != nil {
		return nil, s.wrapUpdateErr(err, telegramID, "farming status")
	}

	var elapsed int64
	if user.FarmingStartTime != nil {
		elapsed = int64(now.Sub(*user.FarmingStartTime).Seconds())
	}
	return &models.FarmingStatusResponse{
		Rewards:        user.Rewards,
		IsFarming:      user.IsFarming,
		ElapsedSeconds: elapsed,
	}, nil
}

// ClaimFarming completes a finished cycle and credits the fixed reward.
func (s *Service) ClaimFarming(ctx context.Context, telegramID string) (*models.User, error) {
	now := s.now()
	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		if u.FarmingStartTime == nil || now.Sub(*u.FarmingStartTime) < s.rules.FarmingDuration {
			return apperrors.New(apperrors.ErrCodeCycleNotComplete, "Farming cycle not complete")
		}
		u.Rewards += s.rules.FarmingReward
		u.IsFarming = false
		u.FarmingClaimed = true
		u.FarmingStartTime = nil
		u.LastClaimedAt = &now
		return nil
	})
	return user, s.wrapUpdateErr(err, telegramID, "claim farming")
}

// ListReferrals returns the referred accounts along with the caller's
// milestone flags.
func (s *Service) ListReferrals(ctx context.Context, telegramID string) (*models.ReferralsResponse, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	referred, err := s.repo.ListReferrals(ctx, telegramID)
	if err != nil {
		return nil, apperrors.NewStorageError("list referrals", err)
	}

	details := make([]models.ReferralDetail, 0, len(referred))
	for _, r := range referred {
		details = append(details, models.ReferralDetail{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Rewards:   r.Rewards,
		})
	}

	return &models.ReferralsResponse{
		ReferredCount:    len(details),
		ReferralDetails:  details,
		RefRewardClaimed: user.RefRewardClaimed,
	}, nil
}

// ClaimReferralMilestone claims the one-time reward for a milestone tier.
// TODO: enforce MilestoneThresholds[index] <= ReferralCount once product
// confirms the check; claims currently succeed regardless of the count, which
// matches the behavior the front end ships against today.
func (s *Service) ClaimReferralMilestone(ctx context.Context, telegramID string, index int) (*models.User, error) {
	if index < 0 || index >= models.MilestoneTiers {
		return nil, apperrors.NewValidationError("index", "must be between 0 and 4")
	}

	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		if u.RefRewardClaimed[index] {
			return apperrors.New(apperrors.ErrCodeAlreadyClaimed, "Reward already claimed")
		}
		u.RefRewardClaimed[index] = true
		u.Rewards += s.rules.MilestoneRewards[index]
		return nil
	})
	return user, s.wrapUpdateErr(err, telegramID, "claim referral milestone")
}

// ClaimAirdropAction claims the one-off reward mapped to the named action.
func (s *Service) ClaimAirdropAction(ctx context.Context, telegramID, action string) (*models.User, int64, error) {
	index, ok := s.rules.ActionIndex(action)
	if !ok {
		return nil, 0, apperrors.NewValidationError("action", "unknown action").WithDetail("action", action)
	}
	points := s.rules.Actions[index].Points

	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		u.AirdropClaimed = padFlags(u.AirdropClaimed, len(s.rules.Actions))
		if u.AirdropClaimed[index] {
			return apperrors.New(apperrors.ErrCodeAlreadyClaimed, "You have already claimed this airdrop")
		}
		u.AirdropClaimed[index] = true
		u.Rewards += points
		return nil
	})
	if err != nil {
		return nil, 0, s.wrapUpdateErr(err, telegramID, "claim airdrop action")
	}
	return user, points, nil
}

// AirdropStatus returns the one-off action flags and the balance.
func (s *Service) AirdropStatus(ctx context.Context, telegramID string) (*models.AirdropStatusResponse, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return &models.AirdropStatusResponse{
		AirdropClaimed: padFlags(user.AirdropClaimed, len(s.rules.Actions)),
		Rewards:        user.Rewards,
	}, nil
}

// SubmitWallet stores the wallet address exactly once and credits the bonus.
func (s *Service) SubmitWallet(ctx context.Context, telegramID, address string) (*models.User, error) {
	if address == "" {
		return nil, apperrors.NewValidationError("solanaAddress", "is required")
	}

	user, err := s.repo.Update(ctx, telegramID, func(u *models.User) error {
		if u.SolanaAddress != "" {
			return apperrors.New(apperrors.ErrCodeAlreadyLinked, "Solana address already set")
		}
		u.SolanaAddress = address
		u.SolanaClaimed = true
		u.Rewards += s.rules.WalletBonus
		return nil
	})
	return user, s.wrapUpdateErr(err, telegramID, "submit wallet")
}

// WalletInfo returns the stored wallet state.
func (s *Service) WalletInfo(ctx context.Context, telegramID string) (*models.WalletInfoResponse, error) {
	user, err := s.getUser(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return &models.WalletInfoResponse{
		SolanaAddress: user.SolanaAddress,
		SolanaClaimed: user.SolanaClaimed,
	}, nil
}

func (s *Service) getUser(ctx context.Context, telegramID string) (*models.User, error) {
	user, err := s.repo.Get(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUserNotFoundError(telegramID)
		}
		return nil, apperrors.NewStorageError("get user", err)
	}
	return user, nil
}

func (s *Service) wrapUpdateErr(err error, telegramID, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUserNotFoundError(telegramID)
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	return apperrors.NewStorageError(operation, err)
}

// padFlags grows a claimed-flags slice to the configured table size. Records
// created before an action was appended keep their existing indices.
func padFlags(flags []bool, size int) []bool {
	if len(flags) >= size {
		return flags
	}
	out := make([]bool, size)
	copy(out, flags)
	return out
}
