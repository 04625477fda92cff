// Package chain owns the process-wide RPC and WebSocket clients plus the
// platform wallet. The wallet is resolved once at config load and is
// read-only for the life of the process.
package chain

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/config"
)

const (
	CHAIN_SERVICE = "chain-service"

	connectTimeout = 10 * time.Second
)

type Service struct {
	container.BaseDIInstance

	rpcConf    *config.RPCConfig
	walletConf *config.WalletConfig

	rpc *rpc.Client
	ws  *ws.Client
}

func (s *Service) ID() string {
	return CHAIN_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	s.rpcConf = c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	s.walletConf = c.GetConfig(config.WALLET_CONFIG_KEY).(*config.WalletConfig)
	if s.rpcConf == nil || s.walletConf == nil {
		return errors.New("invalid chain config")
	}
	s.rpc = rpc.New(s.rpcConf.RPCUrl)
	return nil
}

func (s *Service) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	version, err := s.rpc.GetVersion(ctx)
	if err != nil {
		return err
	}
	if _, err := s.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized); err != nil {
		return err
	}

	wsClient, err := ws.Connect(ctx, s.rpcConf.WSUrl)
	if err != nil {
		return err
	}
	s.ws = wsClient

	log.Info().
		Str("rpc", s.rpcConf.RPCUrl).
		Str("core", version.SolanaCore).
		Str("platform_wallet", s.walletConf.PlatformPubkey.String()).
		Msg("connected to cluster")
	return nil
}

func (s *Service) Stop() error {
	if s.ws != nil {
		s.ws.Close()
	}
	return nil
}

func (s *Service) RPC() *rpc.Client { return s.rpc }

func (s *Service) WS() *ws.Client { return s.ws }

func (s *Service) PlatformWallet() solana.PrivateKey { return s.walletConf.PlatformWallet }

func (s *Service) PlatformPubkey() solana.PublicKey { return s.walletConf.PlatformPubkey }

func (s *Service) AMMProgramID() solana.PublicKey { return s.walletConf.AMMProgramID }

func (s *Service) TokenFactoryProgramID() solana.PublicKey {
	return s.walletConf.TokenFactoryProgramID
}

// AllowAirdrop reports whether missing platform funds may be topped up with
// a faucet airdrop (test clusters only).
func (s *Service) AllowAirdrop() bool { return s.rpcConf.AllowAirdrop }
