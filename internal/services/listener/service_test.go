package listener

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountResultWithData(t *testing.T, data []byte) *ws.AccountResult {
	t.Helper()
	raw := fmt.Sprintf(`["%s","base64"]`, base64.StdEncoding.EncodeToString(data))
	var d rpc.DataBytesOrJSON
	require.NoError(t, sonic.Unmarshal([]byte(raw), &d))
	res := &ws.AccountResult{}
	res.Value.Data = &d
	return res
}

func TestTokenAmountParsesOffset64(t *testing.T) {
	data := make([]byte, 165) // SPL token account size
	binary.LittleEndian.PutUint64(data[64:72], 123_456_789)

	raw, ok := tokenAmount(accountResultWithData(t, data))
	require.True(t, ok)
	assert.Equal(t, uint64(123_456_789), raw)
}

func TestTokenAmountRejectsShortData(t *testing.T) {
	_, ok := tokenAmount(accountResultWithData(t, make([]byte, 40)))
	assert.False(t, ok)

	_, ok = tokenAmount(&ws.AccountResult{})
	assert.False(t, ok)
}
