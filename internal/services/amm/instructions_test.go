package amm

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
)

func TestInitializePoolData(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	data := initializePoolData(mint)
	require.Len(t, data, 65)
	assert.Equal(t, common.IxInitializePool, data[0])
	assert.Equal(t, mint.Bytes(), data[1:33])
	assert.Equal(t, common.WSOLMint.Bytes(), data[33:65])
}

func TestAddLiquidityData(t *testing.T) {
	// 1,000,000 tokens at 9 decimals and 10 SOL.
	tokenAmount := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000_000))
	lamports := big.NewInt(10 * 1_000_000_000)

	data := addLiquidityData(tokenAmount, lamports)
	require.Len(t, data, 33)
	assert.Equal(t, common.IxAddLiquidity, data[0])

	// 1e15 = 0x00038D7EA4C68000 little-endian.
	assert.Equal(t, []byte{0x00, 0x80, 0xc6, 0xa4, 0x7e, 0x8d, 0x03, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, data[1:17])
	// 1e10 = 0x00000002540BE400 little-endian.
	assert.Equal(t, []byte{0x00, 0xe4, 0x0b, 0x54, 0x02, 0x00, 0x00, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, data[17:33])
}

func TestSwapInstructionData(t *testing.T) {
	data := swapInstructionData(common.IxSwapSOLForToken, big.NewInt(1))
	require.Len(t, data, 17)
	assert.Equal(t, byte(3), data[0])
	assert.Equal(t, byte(1), data[1])
	for _, b := range data[2:] {
		assert.Zero(t, b)
	}
}

func TestAppendU128RoundTrip(t *testing.T) {
	// Above the u64 range to cover the high half.
	v, ok := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128 - 1
	require.True(t, ok)

	out := appendU128(nil, v)
	require.Len(t, out, 16)
	for _, b := range out {
		assert.Equal(t, byte(0xff), b)
	}
}

func TestSwapInstructionAccountOrder(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	user := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	keys, err := DerivePoolAccounts(programID, mint)
	require.NoError(t, err)
	userToken := solana.NewWallet().PublicKey()
	userWSOL := solana.NewWallet().PublicKey()

	ix := NewSwapInstruction(programID, user, keys, userToken, userWSOL, domain.SwapTokenToSOL, big.NewInt(42))
	assert.Equal(t, programID, ix.ProgramID())

	accs := ix.Accounts()
	require.Len(t, accs, 10)

	expected := []solana.PublicKey{
		user, keys.Pool, keys.PoolTokenAccount, keys.PoolSOLAccount,
		user, user, userToken, userWSOL,
		common.TokenProgramID, common.SystemID,
	}
	for i, pk := range expected {
		assert.Equal(t, pk, accs[i].PublicKey, "account %d", i)
	}

	assert.True(t, accs[0].IsSigner)
	assert.False(t, accs[0].IsWritable)
	assert.True(t, accs[1].IsWritable)
	assert.True(t, accs[4].IsSigner)
	assert.True(t, accs[5].IsSigner)
	assert.True(t, accs[6].IsWritable)
	assert.True(t, accs[7].IsWritable)
	assert.False(t, accs[8].IsSigner)
	assert.False(t, accs[9].IsWritable)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, common.IxSwapTokenForSOL, data[0])
}

func TestInitializePoolInstructionPayerIsWritableSigner(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	platform := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	keys, err := DerivePoolAccounts(programID, mint)
	require.NoError(t, err)

	ix := NewInitializePoolInstruction(programID, platform, mint, keys,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())

	accs := ix.Accounts()
	require.Len(t, accs, 10)
	assert.True(t, accs[0].IsSigner)
	assert.True(t, accs[0].IsWritable)
}

func TestAddLiquidityInstructionSplitsAuthorities(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	platform := solana.NewWallet().PublicKey()
	source := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	keys, err := DerivePoolAccounts(programID, mint)
	require.NoError(t, err)

	ix := NewAddLiquidityInstruction(programID, platform, source, keys,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
		big.NewInt(100), big.NewInt(200))

	accs := ix.Accounts()
	require.Len(t, accs, 10)
	assert.Equal(t, platform, accs[0].PublicKey)
	assert.False(t, accs[0].IsWritable)
	assert.Equal(t, source, accs[4].PublicKey, "token leg signed by the source wallet")
	assert.Equal(t, platform, accs[5].PublicKey, "SOL leg signed by the platform wallet")
}
