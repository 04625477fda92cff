package http

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
	"github.com/hypeeconomy/hype-engine/internal/http/middlewares"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/amm"
)

type poolCreator interface {
	CreatePool(ctx context.Context, channelName string) (*domain.LiquidityPool, error)
}

type poolStore interface {
	TokenByMint(ctx context.Context, mint string) (*domain.CreatorToken, error)
	StorePool(ctx context.Context, channelName string, pool *domain.LiquidityPool) error
}

// PoolHandler creates liquidity pools and exposes the admin re-derivation
// escape hatch for records whose stored pool keys drifted from the PDA.
type PoolHandler struct {
	amm       poolCreator
	store     poolStore
	programID solana.PublicKey
}

func NewPoolHandler(amm poolCreator, store poolStore, programID solana.PublicKey) *PoolHandler {
	return &PoolHandler{amm: amm, store: store, programID: programID}
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.POST("", h.createPool)
	admin.POST("/:mint/rederive", h.rederive)
}

type createPoolRequest struct {
	// Channel whose latest minted token gets the pool.
	ChannelName string `json:"channelName" binding:"required" example:"PewDiePie"`
}

func (h *PoolHandler) createPool(c *gin.Context) {
	var req createPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	user := middlewares.CurrentUser(c)
	pool, err := h.amm.CreatePool(c.Request.Context(), req.ChannelName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.NotFound(c, "no token for channel")
			return
		}
		log.Error().Err(err).
			Str("channel", req.ChannelName).
			Str("google_id", user.GoogleID).
			Msg("pool creation failed")
		httputil.WriteError(c, err)
		return
	}
	httputil.Success(c, pool)
}

// rederive recomputes the PDA-derived pool accounts for a token and
// overwrites the stored record with them.
func (h *PoolHandler) rederive(c *gin.Context) {
	mintParam := c.Param("mint")
	mint, err := solana.PublicKeyFromBase58(mintParam)
	if err != nil {
		httputil.BadRequest(c, "invalid mint address")
		return
	}

	token, err := h.store.TokenByMint(c.Request.Context(), mintParam)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.NotFound(c, "token not found")
			return
		}
		httputil.WriteError(c, err)
		return
	}

	keys, err := amm.DerivePoolAccounts(h.programID, mint)
	if err != nil {
		httputil.WriteError(c, err)
		return
	}

	pool := &domain.LiquidityPool{
		PoolAccount:      keys.Pool.String(),
		PoolTokenAccount: keys.PoolTokenAccount.String(),
		PoolSOLAccount:   keys.PoolSOLAccount.String(),
		CreatedAt:        time.Now().UTC(),
	}
	if token.LiquidityPool != nil {
		pool.CreatedAt = token.LiquidityPool.CreatedAt
	}
	if err := h.store.StorePool(c.Request.Context(), token.ChannelName, pool); err != nil {
		httputil.WriteError(c, err)
		return
	}

	log.Info().Str("mint", mintParam).Str("pool", pool.PoolAccount).Msg("pool accounts rederived")
	httputil.Success(c, pool)
}
