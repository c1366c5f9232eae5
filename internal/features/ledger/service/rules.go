package service

import (
	"time"

	"aelon-backend/internal/common/config"
)

// Rules is the authoritative reward rule set, built once from configuration.
// Earlier deployments hard-coded diverging copies of these tables; keeping them
// in one immutable value resolves that.
type Rules struct {
	StreakTable         []int64
	MilestoneRewards    []int64
	MilestoneThresholds []int64
	BonusTiers          []config.BonusTier
	Actions             []config.ActionReward
	FarmingDuration     time.Duration
	FarmingReward       int64
	WalletBonus         int64

	actionIndex map[string]int
}

// NewRules derives the rule set from configuration.
func NewRules(cfg *config.Config) (*Rules, error) {
	actions, err := cfg.ParseAirdropActions()
	if err != nil {
		return nil, err
	}
	tiers, err := cfg.ParseReferralBonusTiers()
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(actions))
	for i, a := range actions {
		idx[a.Name] = i
	}

	return &Rules{
		StreakTable:         cfg.Rewards.StreakTable,
		MilestoneRewards:    cfg.Rewards.MilestoneRewards,
		MilestoneThresholds: cfg.Rewards.MilestoneThresholds,
		BonusTiers:          tiers,
		Actions:             actions,
		FarmingDuration:     cfg.Rewards.FarmingDuration,
		FarmingReward:       cfg.Rewards.FarmingReward,
		WalletBonus:         cfg.Rewards.WalletBonus,
		actionIndex:         idx,
	}, nil
}

// StreakReward returns the points for the given streak day; days beyond the
// table earn nothing.
func (r *Rules) StreakReward(streak int64) int64 {
	i := streak - 1
	if i < 0 || i >= int64(len(r.StreakTable)) {
		return 0
	}
	return r.StreakTable[i]
}

// ReferralBonus returns the bonus paid to a referrer whose referral count just
// reached total: the highest tier at or below that count.
func (r *Rules) ReferralBonus(total int64) int64 {
	var bonus int64
	for _, t := range r.BonusTiers {
		if total >= t.Count {
			bonus = t.Points
		}
	}
	return bonus
}

// ActionIndex resolves an airdrop action name to its flag position.
func (r *Rules) ActionIndex(name string) (int, bool) {
	i, ok := r.actionIndex[name]
	return i, ok
}
