package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreakReward(t *testing.T) {
	rules, err := NewRules(testConfig())
	require.NoError(t, err)

	assert.Equal(t, int64(100), rules.StreakReward(1))
	assert.Equal(t, int64(300), rules.StreakReward(3))
	assert.Equal(t, int64(0), rules.StreakReward(4), "days past the table earn nothing")
	assert.Equal(t, int64(0), rules.StreakReward(0))
	assert.Equal(t, int64(0), rules.StreakReward(-1))
}

func TestReferralBonus(t *testing.T) {
	rules, err := NewRules(testConfig())
	require.NoError(t, err)

	cases := []struct {
		total int64
		want  int64
	}{
		{0, 0},
		{1, 500},
		{4, 500},
		{5, 1000},
		{9, 1000},
		{10, 2500},
		{1000, 2500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rules.ReferralBonus(tc.total), "total=%d", tc.total)
	}
}

func TestActionIndex(t *testing.T) {
	rules, err := NewRules(testConfig())
	require.NoError(t, err)

	i, ok := rules.ActionIndex("followTwitter")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, int64(2500), rules.Actions[i].Points)

	_, ok = rules.ActionIndex("unknown")
	assert.False(t, ok)
}

func TestNewRulesRejectsBadTables(t *testing.T) {
	cfg := testConfig()
	cfg.Rewards.AirdropActions = "a:100,a:200"
	_, err := NewRules(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.Rewards.ReferralBonusTiers = "5:1000,1:500"
	_, err = NewRules(cfg)
	require.Error(t, err)
}

func TestNewRulesCopiesDurations(t *testing.T) {
	cfg := testConfig()
	cfg.Rewards.FarmingDuration = 30 * time.Minute
	rules, err := NewRules(cfg)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, rules.FarmingDuration)
}
