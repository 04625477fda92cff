package amm

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
)

// The AMM program reads a 1-byte tag followed by zero, one or two
// little-endian u128 amounts. Pool initialization instead carries the two
// mints so the program can record the pair.

func initializePoolData(tokenMint solana.PublicKey) []byte {
	data := make([]byte, 0, 1+32+32)
	data = append(data, common.IxInitializePool)
	data = append(data, tokenMint.Bytes()...)
	data = append(data, common.WSOLMint.Bytes()...)
	return data
}

func addLiquidityData(tokenAmount, lamports *big.Int) []byte {
	data := make([]byte, 0, 1+16+16)
	data = append(data, common.IxAddLiquidity)
	data = appendU128(data, tokenAmount)
	data = appendU128(data, lamports)
	return data
}

func swapInstructionData(tag uint8, amount *big.Int) []byte {
	data := make([]byte, 0, 1+16)
	data = append(data, tag)
	data = appendU128(data, amount)
	return data
}

func appendU128(dst []byte, v *big.Int) []byte {
	var buf [16]byte
	v.FillBytes(buf[:])
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return append(dst, buf[:]...)
}

// ammAccounts is the 10-account shape every AMM instruction shares. The
// program indexes accounts positionally, so the order here is part of the
// wire contract.
type ammAccounts struct {
	User         solana.PublicKey
	UserWritable bool

	Pool domain.PoolKeys

	// Authorities over the user-side accounts. Both are the user for
	// swaps; add-liquidity splits them between the token source wallet
	// and the platform wallet.
	TokenAuthority solana.PublicKey
	SOLAuthority   solana.PublicKey

	UserTokenAccount solana.PublicKey
	UserSOLAccount   solana.PublicKey
}

func newAMMInstruction(programID solana.PublicKey, accs ammAccounts, data []byte) solana.Instruction {
	user := solana.Meta(accs.User).SIGNER()
	if accs.UserWritable {
		user = user.WRITE()
	}
	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		user,
		solana.Meta(accs.Pool.Pool).WRITE(),
		solana.Meta(accs.Pool.PoolTokenAccount).WRITE(),
		solana.Meta(accs.Pool.PoolSOLAccount).WRITE(),
		solana.Meta(accs.TokenAuthority).SIGNER(),
		solana.Meta(accs.SOLAuthority).SIGNER(),
		solana.Meta(accs.UserTokenAccount).WRITE(),
		solana.Meta(accs.UserSOLAccount).WRITE(),
		solana.Meta(common.TokenProgramID),
		solana.Meta(common.SystemID),
	}, data)
}

// NewInitializePoolInstruction builds the pool creation instruction. The
// platform wallet pays, so it is the only writable signer.
func NewInitializePoolInstruction(programID, platform, tokenMint solana.PublicKey, pool domain.PoolKeys, sourceTokenAccount, platformWSOLAccount solana.PublicKey) solana.Instruction {
	return newAMMInstruction(programID, ammAccounts{
		User:             platform,
		UserWritable:     true,
		Pool:             pool,
		TokenAuthority:   platform,
		SOLAuthority:     platform,
		UserTokenAccount: sourceTokenAccount,
		UserSOLAccount:   platformWSOLAccount,
	}, initializePoolData(tokenMint))
}

// NewAddLiquidityInstruction moves the initial reserves in. The token source
// wallet signs for the token leg, the platform wallet for the wrapped SOL leg.
func NewAddLiquidityInstruction(programID, platform, tokenSource solana.PublicKey, pool domain.PoolKeys, sourceTokenAccount, platformWSOLAccount solana.PublicKey, tokenAmount, lamports *big.Int) solana.Instruction {
	return newAMMInstruction(programID, ammAccounts{
		User:             platform,
		Pool:             pool,
		TokenAuthority:   tokenSource,
		SOLAuthority:     platform,
		UserTokenAccount: sourceTokenAccount,
		UserSOLAccount:   platformWSOLAccount,
	}, addLiquidityData(tokenAmount, lamports))
}

// NewSwapInstruction builds either swap direction. The amount is raw units
// of the spent side: lamports when buying tokens, raw token units when
// selling them.
func NewSwapInstruction(programID, user solana.PublicKey, pool domain.PoolKeys, userTokenAccount, userWSOLAccount solana.PublicKey, direction domain.SwapDirection, amount *big.Int) solana.Instruction {
	tag := common.IxSwapTokenForSOL
	if direction == domain.SwapSOLToToken {
		tag = common.IxSwapSOLForToken
	}
	return newAMMInstruction(programID, ammAccounts{
		User:             user,
		Pool:             pool,
		TokenAuthority:   user,
		SOLAuthority:     user,
		UserTokenAccount: userTokenAccount,
		UserSOLAccount:   userWSOLAccount,
	}, swapInstructionData(tag, amount))
}
