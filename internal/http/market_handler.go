package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
	"github.com/hypeeconomy/hype-engine/internal/repository"
)

type marketReader interface {
	ListTokens(ctx context.Context) ([]domain.CreatorToken, error)
	TokenBySymbol(ctx context.Context, symbol string) (*domain.CreatorToken, error)
}

// MarketHandler serves the public token market: the list every visitor sees
// and the per-token detail page.
type MarketHandler struct {
	tokens marketReader
}

func NewMarketHandler(tokens marketReader) *MarketHandler {
	return &MarketHandler{tokens: tokens}
}

func (h *MarketHandler) Root() string {
	return "/market"
}

func (h *MarketHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.list)
	pub.GET("/:symbol", h.bySymbol)
}

func (h *MarketHandler) list(c *gin.Context) {
	tokens, err := h.tokens.ListTokens(c.Request.Context())
	if err != nil {
		httputil.InternalError(c, "failed to list tokens")
		return
	}
	if tokens == nil {
		tokens = []domain.CreatorToken{}
	}
	httputil.Success(c, tokens)
}

func (h *MarketHandler) bySymbol(c *gin.Context) {
	token, err := h.tokens.TokenBySymbol(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httputil.NotFound(c, "token not found")
			return
		}
		httputil.InternalError(c, "failed to load token")
		return
	}
	httputil.Success(c, token)
}
