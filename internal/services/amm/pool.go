package amm

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/metrics"
	"github.com/hypeeconomy/hype-engine/internal/wallet"
)

// poolFeeBufferSOL covers rent for the pool accounts plus transaction fees
// on top of the SOL being deposited.
const poolFeeBufferSOL = 2

// CreatePool seeds the on-chain pool for a channel's latest token: it
// derives the pool accounts, funds the platform's wrapped SOL, initializes
// the pool and deposits the initial reserves. The pool record is persisted
// only after the liquidity deposit is confirmed and verified. Calling it
// again for a channel that already has a pool returns the existing record.
func (s *Service) CreatePool(ctx context.Context, channelName string) (*domain.LiquidityPool, error) {
	tok, err := s.store.LatestTokenByChannel(ctx, channelName)
	if err != nil {
		return nil, err
	}
	if tok.LiquidityPool != nil {
		log.Info().Str("channel", channelName).Str("pool", tok.LiquidityPool.PoolAccount).Msg("pool already exists")
		return tok.LiquidityPool, nil
	}
	if tok.PoolSupply <= 0 || tok.PoolSOL <= 0 {
		return nil, common.HTTPErrorBadRequest(
			fmt.Sprintf("token %s has invalid reserves: supply=%f sol=%f", tok.TokenSymbol, tok.PoolSupply, tok.PoolSOL))
	}

	mint, err := solana.PublicKeyFromBase58(tok.MintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address %q: %w", tok.MintAddress, err)
	}
	sourcePub, err := solana.PublicKeyFromBase58(tok.PayerPublic)
	if err != nil {
		return nil, fmt.Errorf("invalid token source pubkey %q: %w", tok.PayerPublic, err)
	}
	sourceKey, err := wallet.Resolve(wallet.RoleTokenSource, tok.PayerSecret, sourcePub)
	if err != nil {
		return nil, err
	}

	decimals, err := s.mintDecimals(ctx, mint)
	if err != nil {
		return nil, err
	}
	supplyRaw := ScaleAmount(tok.PoolSupply, decimals)
	lamports := ScaleAmount(tok.PoolSOL, 9)

	if err := s.ensureSOLBalance(ctx, s.platform, tok.PoolSOL+poolFeeBufferSOL); err != nil {
		return nil, err
	}

	keys, err := DerivePoolAccounts(s.programID, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool accounts: %w", err)
	}
	log.Info().
		Str("channel", channelName).
		Str("mint", mint.String()).
		Str("pool", keys.Pool.String()).
		Msg("creating liquidity pool")

	accounts, err := s.prepareFunding(ctx, mint, sourcePub, keys, lamports)
	if err != nil {
		return nil, err
	}

	initIx := NewInitializePoolInstruction(s.programID, s.platform, mint, keys, accounts.sourceToken, accounts.platformWSOL)
	if _, err := s.pipe.Execute(ctx, []solana.Instruction{initIx}, s.platform, []solana.PrivateKey{s.platformKey}); err != nil {
		return nil, fmt.Errorf("pool initialization failed: %w", err)
	}

	sourceRaw, _, err := s.tokenAccountRaw(ctx, accounts.sourceToken)
	if err != nil {
		return nil, err
	}
	if sourceRaw.Cmp(supplyRaw) < 0 {
		return nil, common.NewError(common.KindInsufficientBalance,
			"token source holds %s raw units, %s required", sourceRaw, supplyRaw)
	}

	liqIx := NewAddLiquidityInstruction(s.programID, s.platform, sourcePub, keys,
		accounts.sourceToken, accounts.platformWSOL, supplyRaw, lamports)
	_, err = s.pipe.ExecuteVerified(ctx, []solana.Instruction{liqIx}, s.platform,
		[]solana.PrivateKey{s.platformKey, sourceKey},
		func(ctx context.Context) error {
			poolTokenRaw, _, err := s.tokenAccountRaw(ctx, keys.PoolTokenAccount)
			if err != nil {
				return err
			}
			if poolTokenRaw.Cmp(supplyRaw) < 0 {
				return fmt.Errorf("pool token account holds %s raw units, expected at least %s", poolTokenRaw, supplyRaw)
			}
			poolSOLRaw, _, err := s.tokenAccountRaw(ctx, keys.PoolSOLAccount)
			if err != nil {
				return err
			}
			if poolSOLRaw.Cmp(lamports) < 0 {
				return fmt.Errorf("pool SOL account holds %s lamports, expected at least %s", poolSOLRaw, lamports)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("liquidity deposit failed: %w", err)
	}

	pool := &domain.LiquidityPool{
		PoolAccount:      keys.Pool.String(),
		PoolTokenAccount: keys.PoolTokenAccount.String(),
		PoolSOLAccount:   keys.PoolSOLAccount.String(),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.StorePool(ctx, channelName, pool); err != nil {
		return nil, fmt.Errorf("pool created on chain but persisting it failed: %w", err)
	}
	metrics.PoolsCreated.Inc()
	if s.tracker != nil {
		s.tracker.TrackPool(mint, keys)
	}
	log.Info().Str("channel", channelName).Str("pool", pool.PoolAccount).Msg("liquidity pool created")
	return pool, nil
}

type fundingAccounts struct {
	platformWSOL solana.PublicKey
	sourceToken  solana.PublicKey
}

// prepareFunding creates whichever of the four token accounts are missing
// and wraps only the wrapped-SOL shortfall. Re-running it with the accounts
// already funded submits nothing.
func (s *Service) prepareFunding(ctx context.Context, mint, sourceOwner solana.PublicKey, keys domain.PoolKeys, lamports *big.Int) (*fundingAccounts, error) {
	var setup []solana.Instruction

	_, poolTokenIx, err := s.ensureTokenAccount(ctx, keys.Pool, mint, s.platform)
	if err != nil {
		return nil, err
	}
	if poolTokenIx != nil {
		setup = append(setup, poolTokenIx)
	}
	_, poolSOLIx, err := s.ensureTokenAccount(ctx, keys.Pool, common.WSOLMint, s.platform)
	if err != nil {
		return nil, err
	}
	if poolSOLIx != nil {
		setup = append(setup, poolSOLIx)
	}

	platformWSOL, wsolIx, err := s.ensureTokenAccount(ctx, s.platform, common.WSOLMint, s.platform)
	if err != nil {
		return nil, err
	}
	if wsolIx != nil {
		setup = append(setup, wsolIx)
	}

	sourceToken, sourceIx, err := s.ensureTokenAccount(ctx, sourceOwner, mint, s.platform)
	if err != nil {
		return nil, err
	}
	if sourceIx != nil {
		setup = append(setup, sourceIx)
	}

	wrapped := big.NewInt(0)
	if wsolIx == nil {
		wrapped, _, err = s.tokenAccountRaw(ctx, platformWSOL)
		if err != nil {
			return nil, err
		}
	}
	if shortfall := new(big.Int).Sub(lamports, wrapped); shortfall.Sign() > 0 {
		log.Info().Str("lamports", shortfall.String()).Msg("wrapping SOL shortfall")
		setup = append(setup,
			system.NewTransferInstruction(shortfall.Uint64(), s.platform, platformWSOL).Build(),
			token.NewSyncNativeInstruction(platformWSOL).Build(),
		)
	} else {
		log.Info().Str("lamports", wrapped.String()).Msg("wrapped SOL balance already sufficient")
	}

	if len(setup) > 0 {
		if _, err := s.pipe.Execute(ctx, setup, s.platform, []solana.PrivateKey{s.platformKey}); err != nil {
			return nil, fmt.Errorf("account funding failed: %w", err)
		}
	}

	wrapped, _, err = s.tokenAccountRaw(ctx, platformWSOL)
	if err != nil {
		return nil, err
	}
	if wrapped.Cmp(lamports) < 0 {
		return nil, common.NewError(common.KindInsufficientBalance,
			"wrapped SOL balance %s below required %s", wrapped, lamports)
	}

	return &fundingAccounts{platformWSOL: platformWSOL, sourceToken: sourceToken}, nil
}
