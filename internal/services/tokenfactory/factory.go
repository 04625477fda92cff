// Package tokenfactory mints channel tokens: one SPL mint per YouTube
// channel, metadata registered through the on-chain factory program, and
// the full supply minted to a freshly generated token source wallet.
package tokenfactory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/common"
	"github.com/hypeeconomy/hype-engine/internal/domain"
	"github.com/hypeeconomy/hype-engine/internal/metrics"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/chain"
	"github.com/hypeeconomy/hype-engine/internal/services/pipeline"
	"github.com/hypeeconomy/hype-engine/internal/services/youtube"
	"github.com/hypeeconomy/hype-engine/internal/wallet"
)

const TOKEN_FACTORY_SERVICE = "token-factory-service"

// payerFundingSOL funds the generated token source wallet: mint rent,
// metadata rent and fees for both transactions.
const payerFundingSOL = 2

// MetricsSource resolves the signed-in user's own channel statistics.
type MetricsSource interface {
	ChannelForUser(ctx context.Context, accessToken string) (*domain.ChannelMetrics, error)
}

type reader interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
}

type executor interface {
	Execute(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey) (solana.Signature, error)
	ExecuteVerified(ctx context.Context, ixs []solana.Instruction, payer solana.PublicKey, signers []solana.PrivateKey, verify func(ctx context.Context) error) (solana.Signature, error)
}

type tokenStore interface {
	InsertToken(ctx context.Context, token *domain.CreatorToken) error
	AppendCreatedToken(ctx context.Context, googleID string, ref domain.CreatedTokenRef) error
}

type Service struct {
	container.BaseDIInstance

	chainSvc *chain.Service
	source   MetricsSource
	store    tokenStore

	reader reader
	pipe   executor

	programID    solana.PublicKey
	platform     solana.PublicKey
	platformKey  solana.PrivateKey
	allowAirdrop bool
}

func (s *Service) ID() string {
	return TOKEN_FACTORY_SERVICE
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

	source, ok := c.Instance(youtube.YOUTUBE_SERVICE).(MetricsSource)
	if !ok {
		return errors.New("youtube service not registered")
	}
	s.source = source
	return nil
}

func (s *Service) Start() error {
	s.reader = s.chainSvc.RPC()
	s.pipe = pipeline.New(s.chainSvc.RPC())
	s.programID = s.chainSvc.TokenFactoryProgramID()
	s.platform = s.chainSvc.PlatformPubkey()
	s.platformKey = s.chainSvc.PlatformWallet()
	s.allowAirdrop = s.chainSvc.AllowAirdrop()
	return nil
}

func (s *Service) Stop() error { return nil }

// CreateChannelToken mints a token for the caller's own channel. Two
// transactions: the factory program creates the mint and its metadata, then
// the full supply is minted to the token source wallet's associated account.
// The token record is persisted only after the minted balance is read back.
func (s *Service) CreateChannelToken(ctx context.Context, user *domain.User) (*domain.CreatorToken, error) {
	cm, err := s.source.ChannelForUser(ctx, user.AccessToken)
	if err != nil {
		return nil, err
	}

	payer := solana.NewWallet()
	mint := solana.NewWallet()

	if err := s.fundPayer(ctx, payer.PublicKey()); err != nil {
		return nil, err
	}

	metadataPDA, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte(common.MetadataSeed),
			common.MetadataID.Bytes(),
			mint.PublicKey().Bytes(),
		},
		common.MetadataID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive metadata account: %w", err)
	}

	args := createTokenArgs{
		TokenTitle:    cm.ChannelName + " Token",
		TokenSymbol:   GenerateTokenSymbol(cm.ChannelName),
		TokenURI:      metadataURI(cm),
		TokenDecimals: common.TokenDecimals,
	}
	data, err := args.encode()
	if err != nil {
		return nil, err
	}

	createIx := solana.NewInstruction(s.programID, solana.AccountMetaSlice{
		solana.Meta(mint.PublicKey()).WRITE().SIGNER(),
		solana.Meta(payer.PublicKey()).SIGNER(),
		solana.Meta(metadataPDA).WRITE(),
		solana.Meta(payer.PublicKey()).WRITE().SIGNER(),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(common.SystemID),
		solana.Meta(common.TokenProgramID),
		solana.Meta(common.MetadataID),
	}, data)

	sig, err := s.pipe.Execute(ctx, []solana.Instruction{createIx}, payer.PublicKey(),
		[]solana.PrivateKey{payer.PrivateKey, mint.PrivateKey})
	if err != nil {
		return nil, fmt.Errorf("token creation failed: %w", err)
	}
	log.Info().
		Str("mint", mint.PublicKey().String()).
		Str("symbol", args.TokenSymbol).
		Str("signature", sig.String()).
		Msg("token mint created")

	supply := TokenSupply(cm)
	price := InitialPrice(cm)
	initialSOL := InitialSOL(cm)
	supplyRaw := uint64(supply) * common.LamportsPerSOL // 9 decimals

	ata, _, err := solana.FindAssociatedTokenAddress(payer.PublicKey(), mint.PublicKey())
	if err != nil {
		return nil, err
	}
	mintIxs := []solana.Instruction{
		associatedtokenaccount.NewCreateInstruction(payer.PublicKey(), payer.PublicKey(), mint.PublicKey()).Build(),
		token.NewMintToInstruction(supplyRaw, mint.PublicKey(), ata, payer.PublicKey(), nil).Build(),
	}
	mintSig, err := s.pipe.ExecuteVerified(ctx, mintIxs, payer.PublicKey(),
		[]solana.PrivateKey{payer.PrivateKey},
		func(ctx context.Context) error {
			out, err := s.reader.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
			if err != nil {
				return err
			}
			if out.Value == nil || out.Value.Amount != fmt.Sprintf("%d", supplyRaw) {
				return fmt.Errorf("minted balance of %s does not match supply %d", ata, supplyRaw)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("supply mint failed: %w", err)
	}

	now := time.Now().UTC()
	tok := &domain.CreatorToken{
		ChannelName:   cm.ChannelName,
		ChannelHandle: cm.ChannelHandle,
		ThumbnailURL:  cm.ThumbnailURL,
		TokenSymbol:   args.TokenSymbol,
		TokenTitle:    args.TokenTitle,
		TokenURI:      args.TokenURI,
		MintAddress:   mint.PublicKey().String(),
		MetadataAddr:  metadataPDA.String(),
		PayerPublic:   payer.PublicKey().String(),
		PayerSecret:   wallet.Canonical(payer.PrivateKey),
		ATAAddress:    ata.String(),
		Signature:     sig.String(),
		Price:         price,
		PoolSupply:    supply,
		PoolSOL:       initialSOL,
		MarketCap:     MarketCap(price, supply),
		CreatedAt:     now,
		PriceHistory:  []domain.PricePoint{{Price: price, Timestamp: now}},
	}
	if err := s.store.InsertToken(ctx, tok); err != nil {
		return nil, fmt.Errorf("token minted but persisting it failed: %w", err)
	}
	if err := s.store.AppendCreatedToken(ctx, user.GoogleID, domain.CreatedTokenRef{
		MintAddress:  tok.MintAddress,
		TokenSymbol:  tok.TokenSymbol,
		TokenTitle:   tok.TokenTitle,
		TokenURI:     tok.TokenURI,
		InitialPrice: price,
		PoolSupply:   supply,
		PoolSOL:      initialSOL,
		MarketCap:    tok.MarketCap,
		CreatedAt:    now,
	}); err != nil {
		log.Warn().Err(err).Str("mint", tok.MintAddress).Msg("failed to record created token on user")
	}
	metrics.TokensCreated.Inc()
	log.Info().
		Str("mint", tok.MintAddress).
		Str("symbol", tok.TokenSymbol).
		Float64("supply", supply).
		Float64("price", price).
		Str("mint_signature", mintSig.String()).
		Msg("channel token created")
	return tok, nil
}

// fundPayer gives the fresh token source wallet enough SOL to pay rent and
// fees: an airdrop on permissive validators, a platform transfer otherwise.
func (s *Service) fundPayer(ctx context.Context, payer solana.PublicKey) error {
	lamports := uint64(payerFundingSOL * common.LamportsPerSOL)

	if !s.allowAirdrop {
		ix := system.NewTransferInstruction(lamports, s.platform, payer).Build()
		if _, err := s.pipe.Execute(ctx, []solana.Instruction{ix}, s.platform, []solana.PrivateKey{s.platformKey}); err != nil {
			return fmt.Errorf("failed to fund token source wallet: %w", err)
		}
		return nil
	}

	if _, err := s.reader.RequestAirdrop(ctx, payer, lamports, rpc.CommitmentConfirmed); err != nil {
		return fmt.Errorf("airdrop to token source wallet failed: %w", err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := backoff.Retry(waitCtx, func() (struct{}, error) {
		bal, err := s.reader.GetBalance(waitCtx, payer, rpc.CommitmentConfirmed)
		if err != nil {
			return struct{}{}, err
		}
		if bal.Value < lamports {
			return struct{}{}, fmt.Errorf("airdrop to %s not yet credited", payer)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()))
	if err != nil {
		return common.NewError(common.KindInsufficientBalance,
			"token source wallet %s not funded after airdrop", payer)
	}
	return nil
}

// createTokenArgs is the borsh-encoded argument block the factory program
// expects, field order included.
type createTokenArgs struct {
	TokenTitle    string
	TokenSymbol   string
	TokenURI      string
	TokenDecimals uint8
}

func (a createTokenArgs) encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(a); err != nil {
		return nil, fmt.Errorf("failed to encode token args: %w", err)
	}
	return buf.Bytes(), nil
}

var symbolClean = regexp.MustCompile(`[^a-zA-Z0-9]`)

// GenerateTokenSymbol derives a 3-4 character ticker from the channel name.
func GenerateTokenSymbol(channelName string) string {
	clean := symbolClean.ReplaceAllString(channelName, "")
	if len(clean) >= 4 {
		return strings.ToUpper(clean[:4])
	}
	if len(clean) > 3 {
		clean = clean[:3]
	}
	return strings.ToUpper(clean)
}

// metadataURI returns the off-chain metadata location for a channel token.
// TODO: pin the metadata document to IPFS once the uploader lands; until
// then every token points at the static placeholder.
func metadataURI(_ *domain.ChannelMetrics) string {
	return "https://example.com/mock-metadata.json"
}
