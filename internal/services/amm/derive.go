package amm

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
)

// DerivePool returns the pool PDA for a channel token. The seeds pin one
// pool per mint: the token always pairs against wrapped SOL.
func DerivePool(programID, tokenMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			[]byte(common.PoolSeed),
			tokenMint.Bytes(),
			common.WSOLMint.Bytes(),
		},
		programID,
	)
}

// DerivePoolAccounts derives the pool PDA plus its two associated token
// accounts. Deriving twice for the same inputs always yields the same keys.
func DerivePoolAccounts(programID, tokenMint solana.PublicKey) (domain.PoolKeys, error) {
	pool, _, err := DerivePool(programID, tokenMint)
	if err != nil {
		return domain.PoolKeys{}, err
	}
	tokenAcc, _, err := solana.FindAssociatedTokenAddress(pool, tokenMint)
	if err != nil {
		return domain.PoolKeys{}, err
	}
	solAcc, _, err := solana.FindAssociatedTokenAddress(pool, common.WSOLMint)
	if err != nil {
		return domain.PoolKeys{}, err
	}
	return domain.PoolKeys{Pool: pool, PoolTokenAccount: tokenAcc, PoolSOLAccount: solAcc}, nil
}

// Reconcile compares persisted pool addresses against a fresh derivation.
// On mismatch it warns and keeps the persisted value: pools already funded
// under an older program deployment must stay addressable. An operator
// rewrites the record explicitly when a re-derivation is intended.
func Reconcile(stored domain.PoolKeys, programID, tokenMint solana.PublicKey) domain.PoolKeys {
	derived, err := DerivePoolAccounts(programID, tokenMint)
	if err != nil {
		log.Warn().Err(err).Str("mint", tokenMint.String()).Msg("pool derivation failed, using stored addresses")
		return stored
	}
	if !derived.Pool.Equals(stored.Pool) {
		log.Warn().
			Str("mint", tokenMint.String()).
			Str("stored", stored.Pool.String()).
			Str("derived", derived.Pool.String()).
			Msg("pool PDA mismatch, keeping stored address")
	}
	if !derived.PoolTokenAccount.Equals(stored.PoolTokenAccount) {
		log.Warn().
			Str("stored", stored.PoolTokenAccount.String()).
			Str("derived", derived.PoolTokenAccount.String()).
			Msg("pool token account mismatch, keeping stored address")
	}
	if !derived.PoolSOLAccount.Equals(stored.PoolSOLAccount) {
		log.Warn().
			Str("stored", stored.PoolSOLAccount.String()).
			Str("derived", derived.PoolSOLAccount.String()).
			Msg("pool SOL account mismatch, keeping stored address")
	}
	return stored
}
