package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
	"github.com/hypeeconomy/hype-engine/internal/http/middlewares"
	"github.com/hypeeconomy/hype-engine/internal/repository"
)

type tokenMinter interface {
	CreateChannelToken(ctx context.Context, user *domain.User) (*domain.CreatorToken, error)
}

type swapper interface {
	Swap(ctx context.Context, user *domain.User, tok *domain.CreatorToken, req domain.SwapRequest) (*domain.SwapResult, error)
}

type tokenReader interface {
	TokenBySymbol(ctx context.Context, symbol string) (*domain.CreatorToken, error)
}

// TokenHandler mints channel tokens and executes swaps against their pools.
type TokenHandler struct {
	factory tokenMinter
	amm     swapper
	tokens  tokenReader
}

func NewTokenHandler(factory tokenMinter, amm swapper, tokens tokenReader) *TokenHandler {
	return &TokenHandler{factory: factory, amm: amm, tokens: tokens}
}

func (h *TokenHandler) Root() string {
	return "/tokens"
}

func (h *TokenHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.POST("", h.createToken)
	private.POST("/:symbol/buy", h.buy)
	private.POST("/:symbol/sell", h.sell)
}

func (h *TokenHandler) createToken(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	token, err := h.factory.CreateChannelToken(c.Request.Context(), user)
	if err != nil {
		log.Error().Err(err).Str("google_id", user.GoogleID).Msg("token creation failed")
		httputil.WriteError(c, err)
		return
	}
	httputil.Success(c, token)
}

type buyRequest struct {
	// SOL spent on the buy, in whole SOL.
	SOLAmount float64 `json:"solAmount" binding:"required,gt=0" example:"0.5"`
}

type sellRequest struct {
	// Tokens sold, in whole tokens.
	TokenAmount float64 `json:"tokenAmount" binding:"required,gt=0" example:"100"`
}

func (h *TokenHandler) buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	h.swap(c, domain.SwapRequest{Direction: domain.SwapSOLToToken, Amount: req.SOLAmount})
}

func (h *TokenHandler) sell(c *gin.Context) {
	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	h.swap(c, domain.SwapRequest{Direction: domain.SwapTokenToSOL, Amount: req.TokenAmount})
}

func (h *TokenHandler) swap(c *gin.Context, req domain.SwapRequest) {
	user := middlewares.CurrentUser(c)
	symbol := c.Param("symbol")

	token, err := h.tokens.TokenBySymbol(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.NotFound(c, "token not found")
			return
		}
		httputil.WriteError(c, err)
		return
	}

	result, err := h.amm.Swap(c.Request.Context(), user, token, req)
	if err != nil {
		log.Error().Err(err).
			Str("symbol", symbol).
			Str("direction", string(req.Direction)).
			Msg("swap failed")
		httputil.WriteError(c, err)
		return
	}
	httputil.Success(c, result)
}
