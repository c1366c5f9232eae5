package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aelon-backend/internal/common/config"
	"aelon-backend/internal/common/middleware"
	"aelon-backend/internal/features/ledger/repository/memory"
	"aelon-backend/internal/features/ledger/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Rewards.StreakTable = []int64{100, 200, 300}
	cfg.Rewards.MilestoneRewards = []int64{250, 1000, 2500, 6000, 21550}
	cfg.Rewards.MilestoneThresholds = []int64{1, 5, 10, 25, 50}
	cfg.Rewards.ReferralBonusTiers = "1:500,5:1000,10:2500"
	cfg.Rewards.AirdropActions = "buyRaydium:5000,followTwitter:2500"
	cfg.Rewards.FarmingDuration = 8 * time.Hour
	cfg.Rewards.FarmingReward = 1000
	cfg.Rewards.WalletBonus = 2000

	rules, err := service.NewRules(cfg)
	require.NoError(t, err)
	svc := service.New(memory.NewUserRepository(), rules, nil)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	Register(router.Group("/api/user"), svc)
	return router, svc
}

func mustCreate(t *testing.T, svc *service.Service, id string) {
	t.Helper()
	_, _, err := svc.EnsureAccount(context.Background(), id, "Alice", "A", "")
	require.NoError(t, err)
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetProfile(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	w := doRequest(router, http.MethodGet, "/api/user/u1", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "u1", body["id"])
	assert.Equal(t, "Alice", body["firstName"])
	assert.Equal(t, float64(0), body["rewards"])
	assert.Equal(t, true, body["canClaim"])
}

func TestGetProfileUnknownUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/user/ghost", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USER_NOT_FOUND", errObj["code"])
	assert.NotEmpty(t, body["request_id"])
}

func TestClaimPoints(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	w := doRequest(router, http.MethodPost, "/api/user/u1/claim", `{"points": 150}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Points claimed successfully.", body["message"])
	assert.Equal(t, float64(150), body["rewards"])
}

func TestClaimPointsValidation(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	for _, body := range []string{"", "{}", `{"points": null}`, "not json"} {
		w := doRequest(router, http.MethodPost, "/api/user/u1/claim", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body=%q", body)
	}

	w := doRequest(router, http.MethodPost, "/api/user/u1/claim", `{"points": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndStreak(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	w := doRequest(router, http.MethodPost, "/api/user/u1/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["streakCount"])
	assert.Equal(t, float64(100), body["pointsEarned"])

	// Same-day replay earns nothing but still succeeds.
	w = doRequest(router, http.MethodPost, "/api/user/u1/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["streakCount"])
	assert.Equal(t, float64(0), body["pointsEarned"])

	w = doRequest(router, http.MethodGet, "/api/user/u1/streak", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(1), body["streakCount"])
	assert.Equal(t, false, body["canClaim"])
}

func TestFarmingRoutes(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	w := doRequest(router, http.MethodPost, "/api/user/u1/start-farming", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Farming started", body["message"])
	assert.Equal(t, true, body["isFarming"])

	// A second start while farming is a 400 with the dedicated code.
	w = doRequest(router, http.MethodPost, "/api/user/u1/start-farming", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "ALREADY_IN_PROGRESS", errObj["code"])

	w = doRequest(router, http.MethodGet, "/api/user/u1/get-status", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["isFarming"])

	// The cycle has not elapsed, so the claim is rejected.
	w = doRequest(router, http.MethodPost, "/api/user/u1/claim-tokens", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	errObj = decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "CYCLE_NOT_COMPLETE", errObj["code"])
}

func TestReferralRoutes(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")
	_, _, err := svc.EnsureAccount(context.Background(), "u2", "Bob", "", "u1")
	require.NoError(t, err)

	// The static referrals segment must not be captured by the :id routes.
	w := doRequest(router, http.MethodGet, "/api/user/referrals/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["referredCount"])

	w = doRequest(router, http.MethodPost, "/api/user/u1/claimReferralReward", `{"index": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "Reward claimed successfully", body["message"])

	w = doRequest(router, http.MethodPost, "/api/user/u1/claimReferralReward", `{"index": 0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "ALREADY_CLAIMED", errObj["code"])

	w = doRequest(router, http.MethodPost, "/api/user/u1/claimReferralReward", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAirdropRoutes(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	w := doRequest(router, http.MethodPost, "/api/user/u1/airdropAction", `{"action": "followTwitter"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Points added successfully", body["message"])
	assert.Equal(t, float64(2500), body["rewards"])

	w = doRequest(router, http.MethodPost, "/api/user/u1/airdropAction", `{"action": "followTwitter"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/user/u1/airdropAction", `{"action": "nope"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/user/u1/airdropStatus", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, []any{false, true}, body["airdropClaimed"])
	assert.Equal(t, float64(2500), body["rewards"])
}

func TestWalletRoutes(t *testing.T) {
	router, svc := newTestRouter(t)
	mustCreate(t, svc, "u1")

	w := doRequest(router, http.MethodPost, "/api/user/u1/submitSolanaAddress", `{"solanaAddress": "addr1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Solana address updated successfully", body["message"])
	assert.Equal(t, float64(2000), body["rewards"])

	w = doRequest(router, http.MethodPost, "/api/user/u1/submitSolanaAddress", `{"solanaAddress": "addr2"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errObj := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "ALREADY_LINKED", errObj["code"])

	w = doRequest(router, http.MethodGet, "/api/user/u1/solanaInfo", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, "addr1", body["solanaAddress"])
	assert.Equal(t, true, body["solanaClaimed"])
}
