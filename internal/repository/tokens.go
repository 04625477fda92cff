package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hypeeconomy/hype-engine/internal/domain"
)

var ErrNotFound = errors.New("not found")

// LatestTokenByChannel returns the most recently created token for a
// channel. Records are ordered by ObjectID, matching the original store.
func (r *Repository) LatestTokenByChannel(ctx context.Context, channelName string) (*domain.CreatorToken, error) {
	var token domain.CreatorToken
	err := r.tokens().FindOne(ctx,
		bson.M{"channel_name": channelName},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("no token for channel %s: %w", channelName, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *Repository) TokenBySymbol(ctx context.Context, symbol string) (*domain.CreatorToken, error) {
	var token domain.CreatorToken
	err := r.tokens().FindOne(ctx,
		bson.M{"token_symbol": symbol},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}),
	).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("no token with symbol %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *Repository) TokenByMint(ctx context.Context, mint string) (*domain.CreatorToken, error) {
	var token domain.CreatorToken
	err := r.tokens().FindOne(ctx, bson.M{"mint_address": mint}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("no token with mint %s: %w", mint, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *Repository) ListTokens(ctx context.Context) ([]domain.CreatorToken, error) {
	cur, err := r.tokens().Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "market_cap", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tokens []domain.CreatorToken
	if err := cur.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *Repository) InsertToken(ctx context.Context, token *domain.CreatorToken) error {
	_, err := r.tokens().InsertOne(ctx, token)
	return err
}

// StorePool overwrites the liquidity_pool fields of a token record. This is
// the only mutation swaps depend on and it happens once per asset pair.
func (r *Repository) StorePool(ctx context.Context, channelName string, pool *domain.LiquidityPool) error {
	_, err := r.tokens().UpdateOne(ctx,
		bson.M{"channel_name": channelName},
		bson.M{"$set": bson.M{"liquidity_pool": pool}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) UpdatePoolState(ctx context.Context, mint string, poolSOL, poolSupply, price, marketCap float64, at time.Time) error {
	_, err := r.tokens().UpdateOne(ctx,
		bson.M{"mint_address": mint},
		bson.M{
			"$set": bson.M{
				"pool_sol":    poolSOL,
				"pool_supply": poolSupply,
				"price":       price,
				"market_cap":  marketCap,
			},
			"$push": bson.M{
				"price_history": domain.PricePoint{Price: price, Timestamp: at},
			},
		},
	)
	return err
}
