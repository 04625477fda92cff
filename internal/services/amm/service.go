// Package amm composes and submits transactions against the constant-product
// pool program: pool creation, initial liquidity, and both swap directions.
package amm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/chain"
	"github.com/hypeeconomy/hype-engine/internal/services/pipeline"
)

const AMM_SERVICE = "amm-service"

// Reader is the read-only chain surface the service needs; *rpc.Client
// satisfies it.
type Reader interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetTokenSupply(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenSupplyResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
}

type executor interface {
	Execute(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey) (solana.Signature, error)
	ExecuteVerified(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey, verify func(ctx context.Context) error) (solana.Signature, error)
}

type tokenStore interface {
	LatestTokenByChannel(ctx context.Context, channelName string) (*domain.CreatorToken, error)
	StorePool(ctx context.Context, channelName string, pool *domain.LiquidityPool) error
	UpsertTokenWallet(ctx context.Context, googleID string, w domain.TokenWallet) error
	AppendSwapHistory(ctx context.Context, email string, rec domain.SwapRecord) error
}

// Tracker receives accounts whose balances the caller wants streamed.
// The balance listener registers itself here so pool and wallet accounts
// created mid-flight get picked up without a restart.
type Tracker interface {
	TrackPool(tokenMint solana.PublicKey, keys domain.PoolKeys)
	TrackWallet(googleID string, owner solana.PublicKey)
	TrackTokenAccount(googleID string, account solana.PublicKey, mint string)
}

type Service struct {
	container.BaseDIInstance

	chainSvc *chain.Service
	store    tokenStore

	reader  Reader
	pipe    executor
	tracker Tracker

	programID    solana.PublicKey
	platform     solana.PublicKey
	platformKey  solana.PrivateKey
	allowAirdrop bool
}

func (s *Service) ID() string {
	return AMM_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	chainSvc, ok := c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	if !ok {
		return errors.New("chain service not registered")
	}
	s.chainSvc = chainSvc

	store, ok := c.Instance(repository.REPOSITORY_SERVICE).(tokenStore)
	if !ok {
		return errors.New("repository service not registered")
	}
	s.store = store
	return nil
}

func (s *Service) Start() error {
	s.reader = s.chainSvc.RPC()
	s.pipe = pipeline.New(s.chainSvc.RPC())
	s.programID = s.chainSvc.AMMProgramID()
	s.platform = s.chainSvc.PlatformPubkey()
	s.platformKey = s.chainSvc.PlatformWallet()
	s.allowAirdrop = s.chainSvc.AllowAirdrop()
	return nil
}

func (s *Service) Stop() error { return nil }

// SetTracker wires the balance listener in. Safe to leave unset; tracking
// is best-effort.
func (s *Service) SetTracker(t Tracker) { s.tracker = t }

func (s *Service) mintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	out, err := s.reader.GetTokenSupply(ctx, mint, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch mint %s: %w", mint, err)
	}
	if out.Value == nil {
		return 0, fmt.Errorf("empty supply response for mint %s", mint)
	}
	return out.Value.Decimals, nil
}

// ensureSOLBalance tops an account up via airdrop when the validator allows
// it, then fails with an insufficient-balance error if the target still is
// not met.
func (s *Service) ensureSOLBalance(ctx context.Context, account solana.PublicKey, requiredSOL float64) error {
	required := Lamports(requiredSOL)
	bal, err := s.reader.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("failed to read balance of %s: %w", account, err)
	}
	if bal.Value >= required {
		return nil
	}

	if !s.allowAirdrop {
		return common.NewError(common.KindInsufficientBalance,
			"account %s holds %d lamports, %d required", account, bal.Value, required)
	}

	needed := required - bal.Value
	log.Info().Str("account", account.String()).Uint64("lamports", needed).Msg("requesting airdrop")
	if _, err := s.reader.RequestAirdrop(ctx, account, needed, rpc.CommitmentConfirmed); err != nil {
		return fmt.Errorf("airdrop of %d lamports to %s failed: %w", needed, account, err)
	}

	// Airdrops land asynchronously; poll until the balance reflects it.
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = backoff.Retry(waitCtx, func() (struct{}, error) {
		bal, err := s.reader.GetBalance(waitCtx, account, rpc.CommitmentConfirmed)
		if err != nil {
			return struct{}{}, err
		}
		if bal.Value < required {
			return struct{}{}, fmt.Errorf("airdrop to %s not yet credited", account)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return common.NewError(common.KindInsufficientBalance,
			"account %s still below %d lamports after airdrop", account, required)
	}
	return nil
}

// ensureTokenAccount derives the associated token account and, when it does
// not exist yet, returns the instruction that creates it.
func (s *Service) ensureTokenAccount(ctx context.Context, owner, mint, payer solana.PublicKey) (solana.PublicKey, solana.Instruction, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	_, err = s.reader.GetAccountInfo(ctx, addr)
	if err == nil {
		return addr, nil, nil
	}
	if !errors.Is(err, rpc.ErrNotFound) {
		return solana.PublicKey{}, nil, fmt.Errorf("failed to inspect token account %s: %w", addr, err)
	}
	ix := associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
	return addr, ix, nil
}

// tokenAccountRaw reads a token account balance in raw units. A missing
// account reads as zero.
func (s *Service) tokenAccountRaw(ctx context.Context, account solana.PublicKey) (*big.Int, float64, error) {
	out, err := s.reader.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return big.NewInt(0), 0, nil
		}
		return nil, 0, fmt.Errorf("failed to read token balance of %s: %w", account, err)
	}
	raw, err := rawBalance(out.Value)
	if err != nil {
		return nil, 0, err
	}
	return raw, uiBalance(out.Value), nil
}
