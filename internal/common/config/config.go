package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds process configuration loaded from environment variables.
// Reward tables are configuration, not code: deployments have shipped with
// diverging literals before, so the env is the single authoritative rule set.
type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"*"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken string `env:"BOT_TOKEN"`
		// Base URL of the mini-app opened by the bot's Launch button.
		WebAppURL string `env:"WEBAPP_URL" envDefault:"https://aelonnextfront.vercel.app"`
		// Enable init-data validation on the API routes.
		InitDataAuth bool `env:"INIT_DATA_AUTH" envDefault:"false"`
		InitDataTTL  int  `env:"INIT_DATA_TTL" envDefault:"86400"`
	}

	Rewards struct {
		// Points for day N of a login streak sit at index N-1; days past the
		// end of the table earn nothing.
		StreakTable []int64 `env:"STREAK_REWARDS" envSeparator:"," envDefault:"100,200,300,400,500,600,700,800,900,1000,1100,1200,1300,1400,1500,1600,1700,1800,1900,2000,2100"`

		// One-time rewards for the five referral milestone tiers.
		MilestoneRewards []int64 `env:"REFERRAL_MILESTONE_REWARDS" envSeparator:"," envDefault:"250,1000,2500,6000,21550"`

		// Referral counts that unlock each milestone tier. Kept alongside the
		// rewards even though claims do not enforce them yet.
		MilestoneThresholds []int64 `env:"REFERRAL_MILESTONE_THRESHOLDS" envSeparator:"," envDefault:"1,5,10,25,50"`

		// Stepped per-referral bonus paid to the referrer, as count:points
		// pairs. The highest tier whose count is <= the referrer's new total
		// applies.
		ReferralBonusTiers string `env:"REFERRAL_BONUS_TIERS" envDefault:"1:500,5:1000,10:2500"`

		// Ordered name:points pairs for one-off airdrop actions. The position
		// of an action is the index of its claimed flag on the user record, so
		// new actions must be appended, never inserted or reordered.
		AirdropActions string `env:"AIRDROP_ACTIONS" envDefault:"buyRaydium:5000,buyTelegram:5000,followTwitter:2500,joinTelegram:2500,visitWebsite:2500"`

		FarmingDuration time.Duration `env:"FARMING_DURATION" envDefault:"8h"`
		FarmingReward   int64         `env:"FARMING_REWARD" envDefault:"1000"`
		WalletBonus     int64         `env:"WALLET_BONUS" envDefault:"2000"`
	}
}

// ActionReward is one entry of the ordered airdrop action table.
type ActionReward struct {
	Name   string
	Points int64
}

// BonusTier is one step of the referral bonus schedule.
type BonusTier struct {
	Count  int64
	Points int64
}

// Load reads the environment (and .env, if present) into a Config.
func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if len(cfg.Rewards.MilestoneRewards) != len(cfg.Rewards.MilestoneThresholds) {
		return nil, fmt.Errorf("milestone rewards (%d) and thresholds (%d) must have the same length",
			len(cfg.Rewards.MilestoneRewards), len(cfg.Rewards.MilestoneThresholds))
	}
	if _, err := cfg.ParseAirdropActions(); err != nil {
		return nil, err
	}
	if _, err := cfg.ParseReferralBonusTiers(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseAirdropActions expands the AIRDROP_ACTIONS value into its ordered table.
func (c *Config) ParseAirdropActions() ([]ActionReward, error) {
	pairs, err := splitPairs(c.Rewards.AirdropActions)
	if err != nil {
		return nil, fmt.Errorf("invalid AIRDROP_ACTIONS: %w", err)
	}
	actions := make([]ActionReward, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if _, dup := seen[p.key]; dup {
			return nil, fmt.Errorf("invalid AIRDROP_ACTIONS: duplicate action %q", p.key)
		}
		seen[p.key] = struct{}{}
		actions = append(actions, ActionReward{Name: p.key, Points: p.value})
	}
	return actions, nil
}

// ParseReferralBonusTiers expands REFERRAL_BONUS_TIERS into an ascending schedule.
func (c *Config) ParseReferralBonusTiers() ([]BonusTier, error) {
	pairs, err := splitPairs(c.Rewards.ReferralBonusTiers)
	if err != nil {
		return nil, fmt.Errorf("invalid REFERRAL_BONUS_TIERS: %w", err)
	}
	tiers := make([]BonusTier, 0, len(pairs))
	var prev int64
	for _, p := range pairs {
		count, err := strconv.ParseInt(p.key, 10, 64)
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid REFERRAL_BONUS_TIERS: bad count %q", p.key)
		}
		if count <= prev {
			return nil, fmt.Errorf("invalid REFERRAL_BONUS_TIERS: counts must be ascending")
		}
		prev = count
		tiers = append(tiers, BonusTier{Count: count, Points: p.value})
	}
	return tiers, nil
}

type pair struct {
	key   string
	value int64
}

func splitPairs(raw string) ([]pair, error) {
	var out []pair
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, val, ok := strings.Cut(item, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("entry %q is not key:points", item)
		}
		points, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil || points < 0 {
			return nil, fmt.Errorf("entry %q has a bad points value", item)
		}
		out = append(out, pair{key: strings.TrimSpace(key), value: points})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no entries")
	}
	return out, nil
}
