package http

import (
	"context"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
	"github.com/hypeeconomy/hype-engine/internal/http/middlewares"
	"github.com/hypeeconomy/hype-engine/internal/services/funding"
)

type depositor interface {
	Deposit(ctx context.Context, user *domain.User, amountINR float64) (*funding.DepositResult, error)
}

// WalletHandler exposes the fiat on-ramp: deposits, the cached SOL balance,
// and the deposit ledger.
type WalletHandler struct {
	funding depositor
}

func NewWalletHandler(funding depositor) *WalletHandler {
	return &WalletHandler{funding: funding}
}

func (h *WalletHandler) Root() string {
	return "/wallet"
}

func (h *WalletHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.POST("/deposit", h.deposit)
	private.GET("/balance", h.balance)
	private.GET("/deposits", h.deposits)
}

type depositRequest struct {
	// Deposit amount in INR, converted to SOL at the static rate.
	Amount float64 `json:"amount" binding:"required,gt=0" example:"1000"`
}

func (h *WalletHandler) deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	user := middlewares.CurrentUser(c)
	result, err := h.funding.Deposit(c.Request.Context(), user, req.Amount)
	if err != nil {
		log.Error().Err(err).Str("google_id", user.GoogleID).Msg("deposit failed")
		httputil.WriteError(c, err)
		return
	}
	httputil.Success(c, result)
}

func (h *WalletHandler) balance(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	httputil.Success(c, gin.H{
		"balance":       user.SOLBalance,
		"walletAddress": user.SOLWalletPublicKey,
	})
}

func (h *WalletHandler) deposits(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	history := make([]domain.DepositRecord, len(user.DepositHistory))
	copy(history, user.DepositHistory)
	sort.Slice(history, func(i, j int) bool {
		return history[i].Timestamp.After(history[j].Timestamp)
	})
	httputil.Success(c, history)
}
