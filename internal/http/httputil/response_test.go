package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/common"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"http error keeps its status", common.HTTPErrorNotFound(""), http.StatusNotFound},
		{"simulation rejection", common.NewError(common.KindSimulationRejected, "rejected"), http.StatusUnprocessableEntity},
		{"confirmation timeout", common.NewError(common.KindConfirmationTimeout, "timed out"), http.StatusGatewayTimeout},
		{"insufficient balance", common.NewError(common.KindInsufficientBalance, "broke"), http.StatusBadRequest},
		{"post state inconsistency", common.NewError(common.KindPostStateInconsistent, "drift"), http.StatusInternalServerError},
		{"wallet mismatch", common.NewError(common.KindWalletMismatch, "wrong key"), http.StatusInternalServerError},
		{"plain error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func TestWriteErrorCarriesKindCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	WriteError(c, common.NewError(common.KindConfirmationTimeout, "confirmation deadline exceeded"))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)

	var resp Response
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "CONFIRMATION_TIMEOUT", resp.Code)
	assert.Contains(t, resp.Error, "confirmation deadline exceeded")
}

func TestWriteErrorHTTPErrorShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	WriteError(c, common.HTTPErrorBadRequest("invalid amount"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BAD_REQUEST", resp.Code)
	assert.Equal(t, "invalid amount", resp.Error)
}
