// Package repository is the document-store boundary. Orchestration code only
// appends to history arrays and overwrites pool-address fields; nothing here
// ever deletes a record.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hypeeconomy/hype-engine/internal/config"
)

const (
	REPOSITORY_SERVICE = "repository-service"

	tokensCollection  = "tokens"
	usersCollection   = "users"
	metricsCollection = "channel_metrics"

	connectTimeout = 10 * time.Second
)

type Repository struct {
	container.BaseDIInstance

	conf   *config.MongoConfig
	client *mongo.Client
	db     *mongo.Database
}

func (r *Repository) ID() string {
	return REPOSITORY_SERVICE
}

func (r *Repository) Configure(c container.IContainer) error {
	r.conf = c.GetConfig(config.MONGO_CONFIG_KEY).(*config.MongoConfig)
	if r.conf == nil {
		return errors.New("invalid mongo config")
	}
	return nil
}

func (r *Repository) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(r.conf.URI))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}
	r.client = client
	r.db = client.Database(r.conf.DBName)
	log.Info().Str("db", r.conf.DBName).Msg("connected to mongo")
	return nil
}

func (r *Repository) Stop() error {
	if r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *Repository) tokens() *mongo.Collection {
	return r.db.Collection(tokensCollection)
}

func (r *Repository) users() *mongo.Collection {
	return r.db.Collection(usersCollection)
}

func (r *Repository) channelMetrics() *mongo.Collection {
	return r.db.Collection(metricsCollection)
}
