// Package http is the REST and websocket surface of the service. Handlers
// stay thin: they bind, delegate to a service, and render the envelope.
package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hypeeconomy/hype-engine/internal/adapters/pubsub"
	"github.com/hypeeconomy/hype-engine/internal/config"
	"github.com/hypeeconomy/hype-engine/internal/http/httputil"
	"github.com/hypeeconomy/hype-engine/internal/http/middlewares"
	"github.com/hypeeconomy/hype-engine/internal/repository"
	"github.com/hypeeconomy/hype-engine/internal/services/amm"
	"github.com/hypeeconomy/hype-engine/internal/services/chain"
	"github.com/hypeeconomy/hype-engine/internal/services/funding"
	"github.com/hypeeconomy/hype-engine/internal/services/tokenfactory"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance

	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig
	authConf    *config.AuthConfig
	repo        *repository.Repository

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Start() error {
	r := gin.Default()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowOrigins = []string{svc.conf.FrontendURL}
	corsConf.AllowCredentials = true
	corsConf.AddAllowHeaders("Authorization")
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION)
	priv.Use(middlewares.AuthMiddleware(svc.authConf.JWTSecret, svc.repo))

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))
	admin.Use(middlewares.AuthMiddleware(svc.authConf.JWTSecret, svc.repo))

	svc.setupHandlers(pub, priv, admin)

	svc.server = &gohttp.Server{
		Addr:    svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler: r,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}

	return nil
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	svc.conf = c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	svc.authConf = c.GetConfig(config.AUTH_CONFIG_KEY).(*config.AuthConfig)
	if svc.conf == nil || svc.authConf == nil {
		return errors.New("invalid server config")
	}

	repo, ok := c.Instance(repository.REPOSITORY_SERVICE).(*repository.Repository)
	if !ok {
		return errors.New("repository service not configured")
	}
	svc.repo = repo

	chainSvc, ok := c.Instance(chain.CHAIN_SERVICE).(*chain.Service)
	if !ok {
		return errors.New("chain service not configured")
	}
	ammSvc, ok := c.Instance(amm.AMM_SERVICE).(*amm.Service)
	if !ok {
		return errors.New("amm service not configured")
	}
	factorySvc, ok := c.Instance(tokenfactory.TOKEN_FACTORY_SERVICE).(*tokenfactory.Service)
	if !ok {
		return errors.New("token factory service not configured")
	}
	fundingSvc, ok := c.Instance(funding.FUNDING_SERVICE).(*funding.Service)
	if !ok {
		return errors.New("funding service not configured")
	}
	pubsubSvc, ok := c.Instance(pubsub.PUBSUB_SERVICE).(*pubsub.Service)
	if !ok {
		return errors.New("pubsub service not configured")
	}

	svc.rateLimiter = middlewares.NewRateLimiter(10, 20)

	svc.handlers = []httputil.IHttpHandler{
		NewAuthHandler(repo, svc.authConf, svc.conf.FrontendURL),
		NewTokenHandler(factorySvc, ammSvc, repo),
		NewPoolHandler(ammSvc, repo, chainSvc.AMMProgramID()),
		NewMarketHandler(repo),
		NewProfileHandler(),
		NewWalletHandler(fundingSvc),
		NewStreamHandler(pubsubSvc),
	}
	return nil
}

func (svc *HTTPService) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
