package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
	"github.com/hypeeconomy/hype-engine/internal/http/middlewares"
)

// ProfileHandler returns the authed user's dashboard document: wallets,
// created tokens, swap and deposit histories.
type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

func (h *ProfileHandler) Root() string {
	return "/profile"
}

func (h *ProfileHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	private.GET("", h.dashboard)
}

func (h *ProfileHandler) dashboard(c *gin.Context) {
	httputil.Success(c, middlewares.CurrentUser(c))
}
