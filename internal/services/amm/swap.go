package amm

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/metrics"
	"github.com/hypeeconomy/hype-engine/internal/wallet"
)

// swapFeeBufferSOL keeps the user able to pay transaction fees after the
// swap amount is committed.
const swapFeeBufferSOL = 0.01

// Swap executes one swap for a signed-in user against a token's pool. The
// user's balance is checked before any instruction is composed, and the
// user record is updated only after the confirmed transaction's balance
// movement has been read back.
func (s *Service) Swap(ctx context.Context, user *domain.User, tok *domain.CreatorToken, req domain.SwapRequest) (*domain.SwapResult, error) {
	timer := prometheus.NewTimer(metrics.SwapDuration.WithLabelValues(string(req.Direction)))
	defer timer.ObserveDuration()

	res, err := s.swap(ctx, user, tok, req)
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.SwapRequests.WithLabelValues(string(req.Direction), status).Inc()
	return res, err
}

func (s *Service) swap(ctx context.Context, user *domain.User, tok *domain.CreatorToken, req domain.SwapRequest) (*domain.SwapResult, error) {
	if req.Amount <= 0 {
		return nil, common.HTTPErrorBadRequest("swap amount must be positive")
	}
	if tok.LiquidityPool == nil {
		return nil, common.HTTPErrorBadRequest(fmt.Sprintf("token %s has no liquidity pool", tok.TokenSymbol))
	}

	userPub, err := solana.PublicKeyFromBase58(user.SOLWalletPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid user wallet pubkey %q: %w", user.SOLWalletPublicKey, err)
	}
	userKey, err := wallet.Resolve(wallet.RoleUser, user.SOLWalletSecretKey, userPub)
	if err != nil {
		return nil, err
	}
	mint, err := solana.PublicKeyFromBase58(tok.MintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid mint address %q: %w", tok.MintAddress, err)
	}

	stored, err := tok.LiquidityPool.Keys()
	if err != nil {
		return nil, fmt.Errorf("corrupt pool record for %s: %w", tok.TokenSymbol, err)
	}
	keys := Reconcile(stored, s.programID, mint)

	var setup []solana.Instruction
	userToken, createTokenIx, err := s.ensureTokenAccount(ctx, userPub, mint, userPub)
	if err != nil {
		return nil, err
	}
	if createTokenIx != nil {
		setup = append(setup, createTokenIx)
	}
	userWSOL, createWSOLIx, err := s.ensureTokenAccount(ctx, userPub, common.WSOLMint, userPub)
	if err != nil {
		return nil, err
	}
	if createWSOLIx != nil {
		setup = append(setup, createWSOLIx)
	}

	preTokenRaw, _, err := s.tokenAccountRaw(ctx, userToken)
	if err != nil {
		return nil, err
	}

	ixs := setup
	var verify func(ctx context.Context) error

	switch req.Direction {
	case domain.SwapSOLToToken:
		if s.allowAirdrop {
			if err := s.ensureSOLBalance(ctx, userPub, req.Amount+1); err != nil {
				return nil, err
			}
		}
		lamports := Lamports(req.Amount)
		bal, err := s.reader.GetBalance(ctx, userPub, rpc.CommitmentConfirmed)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance of %s: %w", userPub, err)
		}
		if bal.Value < lamports+Lamports(swapFeeBufferSOL) {
			return nil, common.NewError(common.KindInsufficientBalance,
				"wallet %s holds %d lamports, %d required", userPub, bal.Value, lamports)
		}

		ixs = append(ixs,
			system.NewTransferInstruction(lamports, userPub, userWSOL).Build(),
			token.NewSyncNativeInstruction(userWSOL).Build(),
			NewSwapInstruction(s.programID, userPub, keys, userToken, userWSOL,
				domain.SwapSOLToToken, ScaleAmount(req.Amount, 9)),
		)
		verify = func(ctx context.Context) error {
			postRaw, _, err := s.tokenAccountRaw(ctx, userToken)
			if err != nil {
				return err
			}
			if postRaw.Cmp(preTokenRaw) <= 0 {
				return fmt.Errorf("token balance of %s did not increase", userToken)
			}
			return nil
		}

	case domain.SwapTokenToSOL:
		decimals, err := s.mintDecimals(ctx, mint)
		if err != nil {
			return nil, err
		}
		raw := ScaleAmount(req.Amount, decimals)
		if preTokenRaw.Cmp(raw) < 0 {
			return nil, common.NewError(common.KindInsufficientBalance,
				"wallet %s holds %s raw token units, %s required", userPub, preTokenRaw, raw)
		}

		ixs = append(ixs,
			NewSwapInstruction(s.programID, userPub, keys, userToken, userWSOL, domain.SwapTokenToSOL, raw))
		verify = func(ctx context.Context) error {
			postRaw, _, err := s.tokenAccountRaw(ctx, userToken)
			if err != nil {
				return err
			}
			if postRaw.Cmp(preTokenRaw) >= 0 {
				return fmt.Errorf("token balance of %s did not decrease", userToken)
			}
			return nil
		}

	default:
		return nil, common.HTTPErrorBadRequest(fmt.Sprintf("unknown swap direction %q", req.Direction))
	}

	sig, err := s.pipe.ExecuteVerified(ctx, ixs, userPub, []solana.PrivateKey{userKey}, verify)
	if err != nil {
		return nil, err
	}

	_, finalToken, err := s.tokenAccountRaw(ctx, userToken)
	if err != nil {
		return nil, err
	}

	var amountOut float64
	if req.Direction == domain.SwapSOLToToken {
		amountOut = finalToken
	} else {
		_, finalWSOL, err := s.tokenAccountRaw(ctx, userWSOL)
		if err != nil {
			return nil, err
		}
		amountOut = finalWSOL
	}

	result := &domain.SwapResult{
		TxSignature: sig.String(),
		SwapType:    req.Direction,
		AmountIn:    req.Amount,
		AmountOut:   amountOut,
		UserWallet:  userPub.String(),
	}

	if err := s.store.UpsertTokenWallet(ctx, user.GoogleID, domain.TokenWallet{
		Type:    tok.TokenSymbol,
		Address: userToken.String(),
		Balance: finalToken,
		Title:   tok.TokenTitle,
		Price:   tok.Price,
		URL:     tok.ThumbnailURL,
	}); err != nil {
		return nil, fmt.Errorf("swap %s confirmed but wallet record update failed: %w", sig, err)
	}
	if err := s.store.AppendSwapHistory(ctx, user.Email, domain.SwapRecord{
		TxSignature: sig.String(),
		SwapType:    string(req.Direction),
		AmountIn:    req.Amount,
		AmountOut:   amountOut,
		Token:       tok.TokenSymbol,
		Timestamp:   time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Str("signature", sig.String()).Msg("failed to append swap history")
	}

	if s.tracker != nil {
		s.tracker.TrackWallet(user.GoogleID, userPub)
		s.tracker.TrackTokenAccount(user.GoogleID, userToken, tok.MintAddress)
	}
	log.Info().
		Str("user", user.Email).
		Str("token", tok.TokenSymbol).
		Str("direction", string(req.Direction)).
		Float64("amount_in", req.Amount).
		Float64("amount_out", amountOut).
		Str("signature", sig.String()).
		Msg("swap executed")
	return result, nil
}
