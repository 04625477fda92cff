// Package listener keeps persisted balances in step with the chain. It
// holds one account-change subscription per tracked account (pool reserves,
// user wallets, user token accounts), recomputes pool pricing when reserves
// move, and fans every change out through Redis.
package listener

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/adapters/pubsub"
	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/metrics"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/amm"
	"github.com/hypeeconomy/hype-engine/internal/services/chain"
	"github.com/hypeeconomy/hype-engine/internal/services/funding"
)

const LISTENER_SERVICE = "listener-service"

// SPL token account layout: mint (32) + owner (32) + amount u64 LE.
const tokenAmountOffset = 64

type accountKind string

const (
	kindPoolToken  accountKind = "pool_token"
	kindPoolSOL    accountKind = "pool_sol"
	kindUserWallet accountKind = "user_wallet"
	kindUserToken  accountKind = "user_token"
)

type target struct {
	account  solana.PublicKey
	kind     accountKind
	mint     string
	googleID string
}

type Service struct {
	container.BaseDIInstance

	chainSvc *chain.Service
	repo     *repository.Repository
	bus      *pubsub.Service

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	tracked map[solana.PublicKey]*target
}

func (s *Service) ID() string {
	return LISTENER_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	chainSvc, ok := c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	if !ok {
		return errors.New("chain service not registered")
	}
	s.chainSvc = chainSvc

	repo, ok := c.Instance(repository.REPOSITORY_SERVICE).(*repository.Repository)
	if !ok {
		return errors.New("repository service not registered")
	}
	s.repo = repo

	bus, ok := c.Instance(pubsub.PUBSUB_SERVICE).(*pubsub.Service)
	if !ok {
		return errors.New("pubsub service not registered")
	}
	s.bus = bus

	// Register for accounts created after startup.
	if ammSvc, ok := c.Instance(amm.AMM_SERVICE).(*amm.Service); ok {
		ammSvc.SetTracker(s)
	}
	if fundingSvc, ok := c.Instance(funding.FUNDING_SERVICE).(*funding.Service); ok {
		fundingSvc.SetTracker(s)
	}

	s.tracked = make(map[solana.PublicKey]*target)
	return nil
}

func (s *Service) Start() error {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if err := s.seed(); err != nil {
		return err
	}
	log.Info().Int("accounts", len(s.tracked)).Msg("balance listener started")
	return nil
}

func (s *Service) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// seed subscribes everything already persisted: every pool's reserve
// accounts and every known user wallet with its token accounts.
func (s *Service) seed() error {
	ctx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()

	tokens, err := s.repo.ListTokens(ctx)
	if err != nil {
		return err
	}
	for i := range tokens {
		tok := &tokens[i]
		if tok.LiquidityPool == nil {
			continue
		}
		keys, err := tok.LiquidityPool.Keys()
		if err != nil {
			log.Warn().Err(err).Str("mint", tok.MintAddress).Msg("skipping pool with corrupt addresses")
			continue
		}
		mint, err := solana.PublicKeyFromBase58(tok.MintAddress)
		if err != nil {
			continue
		}
		s.TrackPool(mint, keys)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	for i := range users {
		u := &users[i]
		if u.SOLWalletPublicKey == "" {
			continue
		}
		owner, err := solana.PublicKeyFromBase58(u.SOLWalletPublicKey)
		if err != nil {
			continue
		}
		s.TrackWallet(u.GoogleID, owner)
		for _, w := range u.Wallets {
			acc, err := solana.PublicKeyFromBase58(w.Address)
			if err != nil {
				continue
			}
			s.TrackTokenAccount(u.GoogleID, acc, "")
		}
	}
	return nil
}

func (s *Service) TrackPool(tokenMint solana.PublicKey, keys domain.PoolKeys) {
	s.track(&target{account: keys.PoolTokenAccount, kind: kindPoolToken, mint: tokenMint.String()})
	s.track(&target{account: keys.PoolSOLAccount, kind: kindPoolSOL, mint: tokenMint.String()})
}

func (s *Service) TrackWallet(googleID string, owner solana.PublicKey) {
	s.track(&target{account: owner, kind: kindUserWallet, googleID: googleID})
}

func (s *Service) TrackTokenAccount(googleID string, account solana.PublicKey, mint string) {
	s.track(&target{account: account, kind: kindUserToken, mint: mint, googleID: googleID})
}

func (s *Service) track(t *target) {
	s.mu.Lock()
	if _, exists := s.tracked[t.account]; exists {
		s.mu.Unlock()
		return
	}
	s.tracked[t.account] = t
	s.mu.Unlock()

	s.wg.Add(1)
	go s.watch(t)
}

// watch holds one subscription open for the lifetime of the service,
// resubscribing with backoff whenever the websocket drops.
func (s *Service) watch(t *target) {
	defer s.wg.Done()

	bo := backoff.NewExponentialBackOff()
	for s.ctx.Err() == nil {
		sub, err := s.chainSvc.WS().AccountSubscribe(t.account, rpc.CommitmentConfirmed)
		if err != nil {
			wait := bo.NextBackOff()
			log.Warn().Err(err).Str("account", t.account.String()).Dur("retry_in", wait).Msg("account subscribe failed")
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		metrics.AccountSubscriptions.Inc()
		log.Debug().Str("account", t.account.String()).Str("kind", string(t.kind)).Msg("subscribed")

		for {
			res, err := sub.Recv(s.ctx)
			if err != nil {
				break
			}
			if res == nil {
				continue
			}
			s.handle(t, res)
		}
		sub.Unsubscribe()
		metrics.AccountSubscriptions.Dec()
	}
}

func (s *Service) handle(t *target, res *ws.AccountResult) {
	metrics.BalanceUpdates.WithLabelValues(string(t.kind)).Inc()
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()

	switch t.kind {
	case kindPoolToken, kindPoolSOL:
		s.refreshPool(ctx, t.mint)

	case kindUserWallet:
		balance := float64(res.Value.Lamports) / common.LamportsPerSOL
		if t.googleID != "" {
			if err := s.repo.SetUserSOLBalance(ctx, t.googleID, balance); err != nil {
				log.Warn().Err(err).Str("wallet", t.account.String()).Msg("failed to persist SOL balance")
			}
		}
		s.publishWallet(ctx, pubsub.WalletUpdate{
			Wallet:    t.account.String(),
			Kind:      "sol",
			Balance:   balance,
			Timestamp: time.Now().UTC(),
		})

	case kindUserToken:
		raw, ok := tokenAmount(res)
		if !ok {
			return
		}
		balance := float64(raw) / common.LamportsPerSOL // channel tokens are 9-decimal
		if t.googleID != "" {
			if err := s.repo.UpdateTokenWalletBalance(ctx, t.googleID, t.account.String(), balance); err != nil {
				log.Warn().Err(err).Str("account", t.account.String()).Msg("failed to persist token balance")
			}
		}
		s.publishWallet(ctx, pubsub.WalletUpdate{
			Wallet:    t.account.String(),
			Kind:      "token",
			Mint:      t.mint,
			Balance:   balance,
			Timestamp: time.Now().UTC(),
		})
	}
}

// refreshPool re-reads both reserves rather than trusting a single
// notification: the two accounts change in the same transaction and either
// subscription may fire first.
func (s *Service) refreshPool(ctx context.Context, mintAddr string) {
	tok, err := s.repo.TokenByMint(ctx, mintAddr)
	if err != nil || tok.LiquidityPool == nil {
		return
	}
	keys, err := tok.LiquidityPool.Keys()
	if err != nil {
		return
	}

	poolSupply, err := s.uiTokenBalance(ctx, keys.PoolTokenAccount)
	if err != nil {
		log.Warn().Err(err).Str("mint", mintAddr).Msg("failed to read pool token reserve")
		return
	}
	poolSOL, err := s.uiTokenBalance(ctx, keys.PoolSOLAccount)
	if err != nil {
		log.Warn().Err(err).Str("mint", mintAddr).Msg("failed to read pool SOL reserve")
		return
	}

	price := tok.Price
	if poolSupply > 0 {
		price = poolSOL / poolSupply
	}
	marketCap := price * poolSupply

	now := time.Now().UTC()
	if err := s.repo.UpdatePoolState(ctx, mintAddr, poolSOL, poolSupply, price, marketCap, now); err != nil {
		log.Warn().Err(err).Str("mint", mintAddr).Msg("failed to persist pool state")
		return
	}
	if err := s.bus.PublishPriceUpdate(ctx, pubsub.PriceUpdate{
		MintAddress: mintAddr,
		TokenSymbol: tok.TokenSymbol,
		Price:       price,
		MarketCap:   marketCap,
		PoolSOL:     poolSOL,
		PoolSupply:  poolSupply,
		Timestamp:   now,
	}); err != nil {
		log.Warn().Err(err).Str("mint", mintAddr).Msg("failed to publish price update")
	}
}

func (s *Service) publishWallet(ctx context.Context, u pubsub.WalletUpdate) {
	if err := s.bus.PublishWalletUpdate(ctx, u); err != nil {
		log.Warn().Err(err).Str("wallet", u.Wallet).Msg("failed to publish wallet update")
	}
}

func (s *Service) uiTokenBalance(ctx context.Context, account solana.PublicKey) (float64, error) {
	out, err := s.chainSvc.RPC().GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	if out.Value == nil || out.Value.UiAmount == nil {
		return 0, nil
	}
	return *out.Value.UiAmount, nil
}

// tokenAmount pulls the raw amount straight out of the notification's
// account data.
func tokenAmount(res *ws.AccountResult) (uint64, bool) {
	if res.Value.Data == nil {
		return 0, false
	}
	data := res.Value.Data.GetBinary()
	if len(data) < tokenAmountOffset+8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[tokenAmountOffset : tokenAmountOffset+8]), true
}
