package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/adapters/pubsub"
	"github.com/hypeeconomy/hype-engine/internal/config"
	"github.com/hypeeconomy/hype-engine/internal/http"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/amm"
	"github.com/hypeeconomy/hype-engine/internal/services/chain"
	"github.com/hypeeconomy/hype-engine/internal/services/funding"
	"github.com/hypeeconomy/hype-engine/internal/services/listener"
	"github.com/hypeeconomy/hype-engine/internal/services/tokenfactory"
	"github.com/hypeeconomy/hype-engine/internal/services/youtube"
)

// @title HypeEconomy API
// @version 1.0
// @description Channel token platform: creators mint tokens valued from their
// @description YouTube metrics, pools are seeded on a Solana test validator, and
// @description users buy and sell through a constant-product AMM.
// @description
// @description ## Endpoints
// @description - **/api/v1/market**: public token list and per-token detail
// @description - **/api/v1/tokens**: mint, buy, sell (JWT required)
// @description - **/api/v1/pools**: pool creation (JWT required)
// @description - **/api/v1/wallet**: INR deposits and balances (JWT required)
// @description - **/api/v1/stream**: websocket price and balance feed
// @BasePath /
// @schemes http
// @tag.name market
// @tag.description Browse listed channel tokens
// @tag.name tokens
// @tag.description Mint channel tokens and swap against their pools
// @tag.name wallet
// @tag.description Fund custodial wallets from fiat deposits

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded")
	}

	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.RPCConfig{},
		&config.WalletConfig{},
		&config.MongoConfig{},
		&config.RedisConfig{},
		&config.AuthConfig{},
	)

	applyLogLevel()

	dic, err := container.New(
		conf,

		// core
		&repository.Repository{},
		&chain.Service{},
		&pubsub.Service{},

		// domain
		&youtube.Service{},
		&tokenfactory.Service{},
		&amm.Service{},
		&funding.Service{},
		&listener.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}

func applyLogLevel() {
	raw := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		raw = "info"
	}
	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
