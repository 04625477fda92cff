// Package funding moves platform SOL into user wallets: fiat deposits are
// converted at a static rate and transferred on-chain, creating the wallet
// on first use.
package funding

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/metrics"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/amm"
	"github.com/hypeeconomy/hype-engine/internal/services/chain"
	"github.com/hypeeconomy/hype-engine/internal/services/pipeline"
	"github.com/hypeeconomy/hype-engine/internal/wallet"
)

const FUNDING_SERVICE = "funding-service"

type reader interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
}

type executor interface {
	Execute(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey) (solana.Signature, error)
}

type userStore interface {
	SetUserWallet(ctx context.Context, googleID, pubkey, secret string) error
	SetUserSOLBalance(ctx context.Context, googleID string, balance float64) error
	AppendDepositHistory(ctx context.Context, googleID string, rec domain.DepositRecord) error
}

// DepositResult is what the wallet API returns after a funded deposit.
type DepositResult struct {
	Address   string  `json:"address"`
	Balance   float64 `json:"balance"`
	Signature string  `json:"signature"`
}

type Service struct {
	container.BaseDIInstance

	chainSvc *chain.Service
	store    userStore

	reader  reader
	pipe    executor
	tracker amm.Tracker

	platform    solana.PublicKey
	platformKey solana.PrivateKey
}

func (s *Service) ID() string {
	return FUNDING_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	chainSvc, ok := c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	if !ok {
		return errors.New("chain service not configured")
	}
	s.chainSvc = chainSvc

	store, ok := c.Instance(repository.REPOSITORY_SERVICE).(userStore)
	if !ok {
		return errors.New("repository service not configured")
	}
	s.store = store
	return nil
}

func (s *Service) Start() error {
	s.reader = s.chainSvc.RPC()
	s.pipe = pipeline.New(s.chainSvc.RPC())
	s.platform = s.chainSvc.PlatformPubkey()
	s.platformKey = s.chainSvc.PlatformWallet()
	return nil
}

func (s *Service) Stop() error { return nil }

// SetTracker registers the balance listener hook. Optional.
func (s *Service) SetTracker(t amm.Tracker) { s.tracker = t }

// Deposit converts amountINR at the static rate and transfers the lamports
// from the platform wallet into the user's wallet, creating and rent-funding
// the wallet first when the user has none.
func (s *Service) Deposit(ctx context.Context, user *domain.User, amountINR float64) (*DepositResult, error) {
	if amountINR <= 0 {
		return nil, common.HTTPErrorBadRequest("invalid amount")
	}

	owner, created, err := s.resolveWallet(ctx, user)
	if err != nil {
		return nil, err
	}

	lamports := amm.Lamports(amountINR * common.INRToSOL)

	rentExempt, err := s.reader.GetMinimumBalanceForRentExemption(ctx, 0, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, err
	}
	existing := uint64(0)
	if bal, err := s.reader.GetBalance(ctx, owner, rpc.CommitmentConfirmed); err == nil {
		existing = bal.Value
	}

	var ixs []solana.Instruction
	if existing < rentExempt {
		ixs = append(ixs, system.NewTransferInstruction(rentExempt-existing, s.platform, owner).Build())
	}
	ixs = append(ixs, system.NewTransferInstruction(lamports, s.platform, owner).Build())

	sig, err := s.pipe.Execute(ctx, ixs, s.platform, []solana.PrivateKey{s.platformKey})
	if err != nil {
		return nil, err
	}

	balance := float64(existing+lamports) / common.LamportsPerSOL
	if bal, err := s.reader.GetBalance(ctx, owner, rpc.CommitmentConfirmed); err == nil {
		balance = float64(bal.Value) / common.LamportsPerSOL
	}

	if err := s.store.SetUserSOLBalance(ctx, user.GoogleID, balance); err != nil {
		return nil, err
	}
	if err := s.store.AppendDepositHistory(ctx, user.GoogleID, domain.DepositRecord{
		Amount:       amountINR,
		Signature:    sig.String(),
		BalanceAfter: balance,
		Timestamp:    time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Str("google_id", user.GoogleID).Msg("failed to append deposit history")
	}
	metrics.DepositsProcessed.Inc()

	if created && s.tracker != nil {
		s.tracker.TrackWallet(user.GoogleID, owner)
	}

	log.Info().
		Str("wallet", owner.String()).
		Float64("amount_inr", amountINR).
		Uint64("lamports", lamports).
		Str("signature", sig.String()).
		Msg("deposit funded")

	return &DepositResult{Address: owner.String(), Balance: balance, Signature: sig.String()}, nil
}

// resolveWallet loads the user's wallet or mints a fresh one, persisting the
// canonical secret before any funds move toward it.
func (s *Service) resolveWallet(ctx context.Context, user *domain.User) (solana.PublicKey, bool, error) {
	if user.SOLWalletPublicKey != "" && user.SOLWalletSecretKey != "" {
		expected, err := solana.PublicKeyFromBase58(user.SOLWalletPublicKey)
		if err != nil {
			return solana.PublicKey{}, false, common.WrapError(common.KindWalletMismatch, err, "stored wallet address is not a valid public key")
		}
		if _, err := wallet.Resolve(wallet.RoleUser, user.SOLWalletSecretKey, expected); err != nil {
			return solana.PublicKey{}, false, err
		}
		return expected, false, nil
	}

	fresh := solana.NewWallet()
	secret := wallet.Canonical(fresh.PrivateKey)
	if err := s.store.SetUserWallet(ctx, user.GoogleID, fresh.PublicKey().String(), secret); err != nil {
		return solana.PublicKey{}, false, err
	}
	user.SOLWalletPublicKey = fresh.PublicKey().String()
	user.SOLWalletSecretKey = secret

	log.Info().Str("wallet", fresh.PublicKey().String()).Str("google_id", user.GoogleID).Msg("created user wallet")
	return fresh.PublicKey(), true, nil
}
