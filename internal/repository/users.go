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

func (r *Repository) UserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var user domain.User
	err := r.users().FindOne(ctx, bson.M{"googleId": googleID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("no user %s: %w", googleID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	cur, err := r.users().Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertOAuthUser creates or refreshes a user record after a Google login.
func (r *Repository) UpsertOAuthUser(ctx context.Context, googleID, displayName, email, accessToken string) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID},
		bson.M{"$set": bson.M{
			"displayName": displayName,
			"email":       email,
			"accessToken": accessToken,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// SetUserWallet records a freshly generated SOL wallet. The secret is the
// canonical base58 form; legacy encodings are normalized on read, not here.
func (r *Repository) SetUserWallet(ctx context.Context, googleID, pubkey, secret string) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID},
		bson.M{"$set": bson.M{
			"solWalletPublicKey": pubkey,
			"solWalletSecretKey": secret,
		}},
	)
	return err
}

func (r *Repository) SetUserSOLBalance(ctx context.Context, googleID string, balance float64) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID},
		bson.M{"$set": bson.M{"solBalance": balance}},
	)
	return err
}

// UpsertTokenWallet updates the balance of a user's holding for one token,
// inserting the wallet entry when the user buys that token for the first
// time.
func (r *Repository) UpsertTokenWallet(ctx context.Context, googleID string, w domain.TokenWallet) error {
	res, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID, "wallets.type": w.Type},
		bson.M{"$set": bson.M{
			"wallets.$.balance": w.Balance,
			"wallets.$.address": w.Address,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID},
		bson.M{"$push": bson.M{"wallets": w}},
	)
	return err
}

func (r *Repository) UpdateTokenWalletBalance(ctx context.Context, googleID, address string, balance float64) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID, "wallets.address": address},
		bson.M{"$set": bson.M{"wallets.$.balance": balance}},
	)
	return err
}

func (r *Repository) AppendSwapHistory(ctx context.Context, email string, rec domain.SwapRecord) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$push": bson.M{"swapHistory": rec}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Repository) AppendDepositHistory(ctx context.Context, googleID string, rec domain.DepositRecord) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID},
		bson.M{"$push": bson.M{"depositHistory": rec}},
	)
	return err
}

func (r *Repository) AppendCreatedToken(ctx context.Context, googleID string, ref domain.CreatedTokenRef) error {
	_, err := r.users().UpdateOne(ctx,
		bson.M{"googleId": googleID},
		bson.M{"$push": bson.M{"createdTokens": ref}},
	)
	return err
}

// Channel metrics cache

func (r *Repository) CachedChannelMetrics(ctx context.Context, handle string, maxAge time.Duration) (*domain.ChannelMetrics, error) {
	var m domain.ChannelMetrics
	err := r.channelMetrics().FindOne(ctx, bson.M{
		"channel_handle": handle,
		"fetched_at":     bson.M{"$gte": time.Now().Add(-maxAge)},
	}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) CacheChannelMetrics(ctx context.Context, m *domain.ChannelMetrics) error {
	_, err := r.channelMetrics().UpdateOne(ctx,
		bson.M{"channel_handle": m.ChannelHandle},
		bson.M{"$set": m},
		options.Update().SetUpsert(true),
	)
	return err
}
