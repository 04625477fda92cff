// Package pubsub fans balance and price changes out through Redis so any
// number of API replicas can serve websocket streams without holding the
// chain subscriptions themselves.
package pubsub

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/config"
)

const (
	PUBSUB_SERVICE = "pubsub-service"

	PriceUpdatesChannel  = "price_updates"
	WalletUpdatesChannel = "wallet_balance_updates"
)

// PriceUpdate is published whenever a pool's reserves move.
type PriceUpdate struct {
	MintAddress string    `json:"mint_address"`
	TokenSymbol string    `json:"token_symbol"`
	Price       float64   `json:"price"`
	MarketCap   float64   `json:"market_cap"`
	PoolSOL     float64   `json:"pool_sol"`
	PoolSupply  float64   `json:"pool_supply"`
	Timestamp   time.Time `json:"timestamp"`
}

// WalletUpdate is published when a tracked wallet or token account balance
// changes. Kind is "sol" for the native balance, "token" otherwise.
type WalletUpdate struct {
	Wallet    string    `json:"wallet"`
	Kind      string    `json:"kind"`
	Mint      string    `json:"mint,omitempty"`
	Balance   float64   `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

type Service struct {
	container.BaseDIInstance

	conf   *config.RedisConfig
	client *redis.Client
}

func (s *Service) ID() string {
	return PUBSUB_SERVICE
}

func (s *Service) Configure(c container.IContainer) error {
	s.conf = c.GetConfig(config.REDIS_CONFIG_KEY).(*config.RedisConfig)
	if s.conf == nil {
		return errors.New("invalid redis config")
	}
	return nil
}

func (s *Service) Start() error {
	s.client = redis.NewClient(&redis.Options{
		Addr:     s.conf.Addr,
		Password: s.conf.Password,
		DB:       s.conf.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return err
	}
	log.Info().Str("addr", s.conf.Addr).Msg("connected to redis")
	return nil
}

func (s *Service) Stop() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Service) PublishPriceUpdate(ctx context.Context, u PriceUpdate) error {
	return s.publish(ctx, PriceUpdatesChannel, u)
}

func (s *Service) PublishWalletUpdate(ctx context.Context, u WalletUpdate) error {
	return s.publish(ctx, WalletUpdatesChannel, u)
}

func (s *Service) publish(ctx context.Context, channel string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, channel, body).Err()
}

// Subscribe hands the caller a raw subscription; the websocket relay owns
// its lifecycle.
func (s *Service) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return s.client.Subscribe(ctx, channels...)
}
