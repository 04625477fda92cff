package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hypeeconomy/hype-engine/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

func BadRequest(c *gin.Context, err string) {
	Error(c, http.StatusBadRequest, err)
}

func InternalError(c *gin.Context, err string) {
	Error(c, http.StatusInternalServerError, err)
}

func NotFound(c *gin.Context, err string) {
	Error(c, http.StatusNotFound, err)
}

func Unauthorized(c *gin.Context, err string) {
	Error(c, http.StatusUnauthorized, err)
}

// StatusOf maps a domain error to its HTTP status. HttpError carries its own
// status; tagged orchestration errors map by kind.
func StatusOf(err error) int {
	var he *common.HttpError
	if errors.As(err, &he) {
		return he.StatusCode
	}

	switch common.KindOf(err) {
	case common.KindSimulationRejected:
		return http.StatusUnprocessableEntity
	case common.KindConfirmationTimeout:
		return http.StatusGatewayTimeout
	case common.KindInsufficientBalance:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err in the standard envelope. Orchestration errors keep
// their kind in the code field so clients can tell a retryable timeout from a
// terminal rejection.
func WriteError(c *gin.Context, err error) {
	resp := Response{Success: false, Error: err.Error()}

	var he *common.HttpError
	if errors.As(err, &he) {
		resp.Error = he.Message
		resp.Code = he.Code
	}
	if kind := common.KindOf(err); kind != common.KindUnknown {
		resp.Code = kind.String()
	}

	c.JSON(StatusOf(err), resp)
}
