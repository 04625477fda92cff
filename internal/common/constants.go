// Package common contains common constants and variables used across services
package common

import "github.com/gagliardetto/solana-go"

var (
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	ATAProgramID   = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	MetadataID     = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	SystemID       = solana.SystemProgramID

	// WSOLMint is the wrapped-SOL mint every pool pairs against.
	WSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	PoolSeed = "amm"

	MetadataSeed = "metadata"

	LamportsPerSOL = 1_000_000_000

	// TokenDecimals is the fixed decimal precision of every channel token
	// minted by the token factory.
	TokenDecimals = 9

	// INRToSOL is the static rupee-to-SOL conversion rate applied to
	// deposits. Static until a price feed is wired in.
	INRToSOL = 0.0000742
)

// Instruction tags of the on-chain AMM program.
const (
	IxInitializePool  uint8 = 0
	IxAddLiquidity    uint8 = 1
	IxSwapTokenForSOL uint8 = 2
	IxSwapSOLForToken uint8 = 3
)
