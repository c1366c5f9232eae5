package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "aelon-backend/internal/common/errors"
	"aelon-backend/internal/features/ledger/models"
	"aelon-backend/internal/features/ledger/service"
)

// Handler exposes the reward ledger over the /api/user route group consumed by
// the mini-app front end.
type Handler struct {
	svc *service.Service
}

// Register mounts the ledger routes on the given group.
func Register(g *gin.RouterGroup, svc *service.Service) {
	h := &Handler{svc: svc}

	// The referrals listing must be registered on its own static segment so it
	// does not get captured by the :id parameter.
	g.GET("/referrals/:id", h.listReferrals)

	g.GET("/:id", h.getProfile)
	g.POST("/:id/claim", h.claimPoints)
	g.POST("/:id/login", h.recordLogin)
	g.GET("/:id/streak", h.getStreak)
	g.POST("/:id/start-farming", h.startFarming)
	g.POST("/:id/claim-tokens", h.claimFarming)
	g.GET("/:id/get-status", h.farmingStatus)
	g.POST("/:id/claimReferralReward", h.claimMilestone)
	g.POST("/:id/airdropAction", h.claimAirdropAction)
	g.GET("/:id/airdropStatus", h.airdropStatus)
	g.POST("/:id/submitSolanaAddress", h.submitWallet)
	g.GET("/:id/solanaInfo", h.walletInfo)
}

func (h *Handler) getProfile(c *gin.Context) {
	profile, err := h.svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type claimPointsRequest struct {
	Points *int64 `json:"points"`
}

func (h *Handler) claimPoints(c *gin.Context) {
	var req claimPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Points == nil {
		_ = c.Error(apperrors.NewValidationError("points", "is required"))
		return
	}

	user, err := h.svc.ClaimPoints(c.Request.Context(), c.Param("id"), *req.Points)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{
		Message: "Points claimed successfully.",
		Rewards: user.Rewards,
	})
}

func (h *Handler) recordLogin(c *gin.Context) {
	resp, err := h.svc.RecordLogin(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getStreak(c *gin.Context) {
	resp, err := h.svc.GetStreak(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) startFarming(c *gin.Context) {
	user, err := h.svc.StartFarming(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Farming started",
		"isFarming":        user.IsFarming,
		"farmingStartTime": user.FarmingStartTime,
	})
}

func (h *Handler) claimFarming(c *gin.Context) {
	user, err := h.svc.ClaimFarming(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{
		Message: "Tokens claimed successfully",
		Rewards: user.Rewards,
	})
}

func (h *Handler) farmingStatus(c *gin.Context) {
	resp, err := h.svc.FarmingStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listReferrals(c *gin.Context) {
	resp, err := h.svc.ListReferrals(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type milestoneRequest struct {
	Index *int `json:"index"`
}

func (h *Handler) claimMilestone(c *gin.Context) {
	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Index == nil {
		_ = c.Error(apperrors.NewValidationError("index", "is required"))
		return
	}

	user, err := h.svc.ClaimReferralMilestone(c.Request.Context(), c.Param("id"), *req.Index)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{
		Message: "Reward claimed successfully",
		Rewards: user.Rewards,
	})
}

type airdropActionRequest struct {
	Action string `json:"action"`
}

func (h *Handler) claimAirdropAction(c *gin.Context) {
	var req airdropActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Action == "" {
		_ = c.Error(apperrors.NewValidationError("action", "is required"))
		return
	}

	_, points, err := h.svc.ClaimAirdropAction(c.Request.Context(), c.Param("id"), req.Action)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{
		Message: "Points added successfully",
		Rewards: points,
	})
}

func (h *Handler) airdropStatus(c *gin.Context) {
	resp, err := h.svc.AirdropStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type submitWalletRequest struct {
	SolanaAddress string `json:"solanaAddress"`
}

func (h *Handler) submitWallet(c *gin.Context) {
	var req submitWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewValidationError("solanaAddress", "is required"))
		return
	}

	user, err := h.svc.SubmitWallet(c.Request.Context(), c.Param("id"), req.SolanaAddress)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BalanceResponse{
		Message: "Solana address updated successfully",
		Rewards: user.Rewards,
	})
}

func (h *Handler) walletInfo(c *gin.Context) {
	resp, err := h.svc.WalletInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
