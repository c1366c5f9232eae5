package models

import "time"

// MilestoneTiers is the fixed number of referral milestone tiers on a record.
const MilestoneTiers = 5

// User is the single reward-state document kept per Telegram identity.
// It is stored as JSON in Redis under "user:<telegram_id>".
type User struct {
	TelegramID string `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`

	// Rewards only ever grows; no operation debits points.
	Rewards int64 `json:"rewards"`

	// ReferredBy is set at creation time or never.
	ReferredBy       string               `json:"referred_by,omitempty"`
	ReferralCount    int64                `json:"referral_count"`
	RefRewardClaimed [MilestoneTiers]bool `json:"ref_reward_claimed"`

	StreakCount int64      `json:"streak_count"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	LastClaimedAt    *time.Time `json:"last_claimed_at,omitempty"`
	IsFarming        bool       `json:"is_farming"`
	FarmingStartTime *time.Time `json:"farming_start_time,omitempty"`
	FarmingClaimed   bool       `json:"farming_claimed"`

	// AirdropClaimed grows with the configured action table; positions are
	// stable, new actions append.
	AirdropClaimed []bool `json:"airdrop_claimed"`

	SolanaAddress string `json:"solana_address,omitempty"`
	SolanaClaimed bool   `json:"solana_claimed"`

	CreatedAt time.Time `json:"created_at"`
}

// DisplayName joins the first and last name for notifications.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ProfileResponse is returned by GET /api/user/:id.
type ProfileResponse struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Rewards       int64      `json:"rewards"`
	CanClaim      bool       `json:"canClaim"`
	TimeRemaining int64      `json:"timeRemaining"`
	StreakCount   int64      `json:"streakCount"`
	LastLogin     *time.Time `json:"lastlogin"`
}

// LoginResponse is returned by POST /api/user/:id/login.
type LoginResponse struct {
	StreakCount  int64 `json:"streakCount"`
	Rewards      int64 `json:"rewards"`
	PointsEarned int64 `json:"pointsEarned"`
}

// StreakResponse is returned by GET /api/user/:id/streak.
type StreakResponse struct {
	StreakCount int64 `json:"streakCount"`
	Rewards     int64 `json:"rewards"`
	CanClaim    bool  `json:"canClaim"`
}

// FarmingStatusResponse is returned by GET /api/user/:id/get-status.
type FarmingStatusResponse struct {
	Rewards        int64 `json:"rewards"`
	IsFarming      bool  `json:"isFarming"`
	ElapsedSeconds int64 `json:"elapsedSeconds"`
}

// ReferralDetail is one referred account in the referrals listing.
type ReferralDetail struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Rewards   int64  `json:"rewards"`
}

// ReferralsResponse is returned by GET /api/user/referrals/:id.
type ReferralsResponse struct {
	ReferredCount    int                  `json:"referredCount"`
	ReferralDetails  []ReferralDetail     `json:"referralDetails"`
	RefRewardClaimed [MilestoneTiers]bool `json:"refRewardClaimed"`
}

// BalanceResponse carries the new balance after a successful claim.
type BalanceResponse struct {
	Message string `json:"message"`
	Rewards int64  `json:"rewards"`
}

// AirdropStatusResponse is returned by GET /api/user/:id/airdropStatus.
type AirdropStatusResponse struct {
	AirdropClaimed []bool `json:"airdropClaimed"`
	Rewards        int64  `json:"rewards"`
}

// WalletInfoResponse is returned by GET /api/user/:id/solanaInfo.
type WalletInfoResponse struct {
	SolanaAddress string `json:"solanaAddress"`
	SolanaClaimed bool   `json:"solanaClaimed"`
}
