package http

import (
	"context"
	"fmt"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/http/middlewares"
	"github.com/hypeeconomy/hype-engine/internal/repository"
)

type fakeSwapper struct {
	result *domain.SwapResult
	err    error
	last   domain.SwapRequest
}

func (f *fakeSwapper) Swap(_ context.Context, _ *domain.User, _ *domain.CreatorToken, req domain.SwapRequest) (*domain.SwapResult, error) {
	f.last = req
	return f.result, f.err
}

type fakeMinter struct {
	token *domain.CreatorToken
	err   error
}

func (f *fakeMinter) CreateChannelToken(context.Context, *domain.User) (*domain.CreatorToken, error) {
	return f.token, f.err
}

type fakeTokenReader struct {
	tokens map[string]*domain.CreatorToken
}

func (f *fakeTokenReader) TokenBySymbol(_ context.Context, symbol string) (*domain.CreatorToken, error) {
	if tok, ok := f.tokens[symbol]; ok {
		return tok, nil
	}
	return nil, fmt.Errorf("no token with symbol %s: %w", symbol, repository.ErrNotFound)
}

func stubUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.UserContextKey, &domain.User{GoogleID: "g1", Email: "creator@example.com"})
	}
}

func newTokenRouter(h *TokenHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	priv := r.Group("/api/v1/tokens", stubUser())
	h.SetRoutes(r.Group("/api/v1/tokens"), priv, r.Group("/api/v1/admin/tokens"))
	return r
}

func TestBuyExecutesSOLToTokenSwap(t *testing.T) {
	swapper := &fakeSwapper{result: &domain.SwapResult{TxSignature: "sig", SwapType: domain.SwapSOLToToken}}
	reader := &fakeTokenReader{tokens: map[string]*domain.CreatorToken{
		"PEWD": {TokenSymbol: "PEWD", ChannelName: "PewDiePie"},
	}}
	r := newTokenRouter(NewTokenHandler(&fakeMinter{}, swapper, reader))

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/tokens/PEWD/buy", strings.NewReader(`{"solAmount": 0.5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, gohttp.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.SwapSOLToToken, swapper.last.Direction)
	assert.Equal(t, 0.5, swapper.last.Amount)
}

func TestSellExecutesTokenToSOLSwap(t *testing.T) {
	swapper := &fakeSwapper{result: &domain.SwapResult{SwapType: domain.SwapTokenToSOL}}
	reader := &fakeTokenReader{tokens: map[string]*domain.CreatorToken{
		"PEWD": {TokenSymbol: "PEWD"},
	}}
	r := newTokenRouter(NewTokenHandler(&fakeMinter{}, swapper, reader))

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/tokens/PEWD/sell", strings.NewReader(`{"tokenAmount": 100}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, gohttp.StatusOK, rec.Code)
	assert.Equal(t, domain.SwapTokenToSOL, swapper.last.Direction)
	assert.Equal(t, 100.0, swapper.last.Amount)
}

func TestBuyUnknownSymbolIs404(t *testing.T) {
	r := newTokenRouter(NewTokenHandler(&fakeMinter{}, &fakeSwapper{}, &fakeTokenReader{}))

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/tokens/NOPE/buy", strings.NewReader(`{"solAmount": 1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, gohttp.StatusNotFound, rec.Code)
}

func TestBuyRejectsMissingAmount(t *testing.T) {
	swapper := &fakeSwapper{}
	reader := &fakeTokenReader{tokens: map[string]*domain.CreatorToken{"PEWD": {}}}
	r := newTokenRouter(NewTokenHandler(&fakeMinter{}, swapper, reader))

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/tokens/PEWD/buy", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, gohttp.StatusBadRequest, rec.Code)
	assert.Empty(t, swapper.last.Direction)
}

func TestSwapErrorsKeepTheirStatus(t *testing.T) {
	swapper := &fakeSwapper{err: common.NewError(common.KindInsufficientBalance, "not enough SOL")}
	reader := &fakeTokenReader{tokens: map[string]*domain.CreatorToken{"PEWD": {}}}
	r := newTokenRouter(NewTokenHandler(&fakeMinter{}, swapper, reader))

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/tokens/PEWD/buy", strings.NewReader(`{"solAmount": 5}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, gohttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_BALANCE")
}

func TestCreateTokenReturnsMintedToken(t *testing.T) {
	minter := &fakeMinter{token: &domain.CreatorToken{TokenSymbol: "PEWD", MintAddress: "mint"}}
	r := newTokenRouter(NewTokenHandler(minter, &fakeSwapper{}, &fakeTokenReader{}))

	req := httptest.NewRequest(gohttp.MethodPost, "/api/v1/tokens", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, gohttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PEWD")
}
