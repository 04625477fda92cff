package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// LiquidityPool is the persisted pool descriptor: the pool PDA plus its two
// holding accounts. Written exactly once when the pool is created, read-only
// for every later swap.
type LiquidityPool struct {
	PoolAccount      string    `bson:"pool_account" json:"pool_account"`
	PoolTokenAccount string    `bson:"pool_token_account" json:"pool_token_account"`
	PoolSOLAccount   string    `bson:"pool_sol_account" json:"pool_sol_account"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}

type PricePoint struct {
	Price     float64   `bson:"price" json:"price"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// CreatorToken is one document in the tokens collection.
type CreatorToken struct {
	ChannelName   string  `bson:"channel_name" json:"channel_name"`
	ChannelHandle string  `bson:"channel_handle" json:"channel_handle"`
	ThumbnailURL  string  `bson:"thumbnail_url" json:"thumbnail_url"`
	TokenSymbol   string  `bson:"token_symbol" json:"token_symbol"`
	TokenTitle    string  `bson:"token_title" json:"token_title"`
	TokenURI      string  `bson:"token_uri" json:"token_uri"`
	MintAddress   string  `bson:"mint_address" json:"mint_address"`
	MetadataAddr  string  `bson:"metadata_address" json:"metadata_address"`
	PayerPublic   string  `bson:"payer_public" json:"payer_public"`
	PayerSecret   string  `bson:"payer_secret" json:"-"`
	ATAAddress    string  `bson:"associated_token_address" json:"associated_token_address"`
	Signature     string  `bson:"signature" json:"signature"`
	Price         float64 `bson:"price" json:"price"`
	PoolSupply    float64 `bson:"pool_supply" json:"pool_supply"`
	PoolSOL       float64 `bson:"pool_sol" json:"pool_sol"`
	MarketCap     float64 `bson:"market_cap" json:"market_cap"`

	LiquidityPool *LiquidityPool `bson:"liquidity_pool,omitempty" json:"liquidity_pool,omitempty"`

	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	PriceHistory []PricePoint `bson:"price_history" json:"price_history"`
}

// PoolKeys is the resolved, on-chain form of LiquidityPool.
type PoolKeys struct {
	Pool             solana.PublicKey
	PoolTokenAccount solana.PublicKey
	PoolSOLAccount   solana.PublicKey
}

func (p *LiquidityPool) Keys() (PoolKeys, error) {
	pool, err := solana.PublicKeyFromBase58(p.PoolAccount)
	if err != nil {
		return PoolKeys{}, err
	}
	tokenAcc, err := solana.PublicKeyFromBase58(p.PoolTokenAccount)
	if err != nil {
		return PoolKeys{}, err
	}
	solAcc, err := solana.PublicKeyFromBase58(p.PoolSOLAccount)
	if err != nil {
		return PoolKeys{}, err
	}
	return PoolKeys{Pool: pool, PoolTokenAccount: tokenAcc, PoolSOLAccount: solAcc}, nil
}
