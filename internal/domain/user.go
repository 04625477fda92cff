package domain

import "time"

// TokenWallet is one per-token holding of a user: the user's ATA for that
// token plus the last observed balance.
type TokenWallet struct {
	Type    string  `bson:"type" json:"type"` // token symbol
	Address string  `bson:"address" json:"address"`
	Balance float64 `bson:"balance" json:"balance"`
	Title   string  `bson:"title" json:"title"`
	Price   float64 `bson:"price" json:"price"`
	URL     string  `bson:"url" json:"url"`
}

type SwapRecord struct {
	TxSignature string    `bson:"transaction_signature" json:"transaction_signature"`
	SwapType    string    `bson:"swap_type" json:"swap_type"`
	AmountIn    float64   `bson:"amount_in" json:"amount_in"`
	AmountOut   float64   `bson:"amount_out" json:"amount_out"`
	Token       string    `bson:"token" json:"token"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
}

type DepositRecord struct {
	Amount       float64   `bson:"amount" json:"amount"`
	Signature    string    `bson:"signature" json:"signature"`
	BalanceAfter float64   `bson:"balanceAfter" json:"balanceAfter"`
	Timestamp    time.Time `bson:"timestamp" json:"timestamp"`
}

type CreatedTokenRef struct {
	MintAddress  string    `bson:"mint_address" json:"mint_address"`
	TokenSymbol  string    `bson:"token_symbol" json:"token_symbol"`
	TokenTitle   string    `bson:"token_title" json:"token_title"`
	TokenURI     string    `bson:"token_uri" json:"token_uri"`
	InitialPrice float64   `bson:"initial_price" json:"initial_price"`
	PoolSupply   float64   `bson:"pool_supply" json:"pool_supply"`
	PoolSOL      float64   `bson:"pool_sol" json:"pool_sol"`
	MarketCap    float64   `bson:"market_cap" json:"market_cap"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// User is one document in the users collection.
type User struct {
	GoogleID    string `bson:"googleId" json:"googleId"`
	DisplayName string `bson:"displayName" json:"displayName"`
	Email       string `bson:"email" json:"email"`
	AccessToken string `bson:"accessToken" json:"-"`

	SOLWalletPublicKey string  `bson:"solWalletPublicKey" json:"solWalletPublicKey"`
	SOLWalletSecretKey string  `bson:"solWalletSecretKey" json:"-"`
	SOLBalance         float64 `bson:"solBalance" json:"solBalance"`

	Wallets        []TokenWallet     `bson:"wallets" json:"wallets"`
	CreatedTokens  []CreatedTokenRef `bson:"createdTokens" json:"createdTokens"`
	SwapHistory    []SwapRecord      `bson:"swapHistory" json:"swapHistory"`
	DepositHistory []DepositRecord   `bson:"depositHistory" json:"depositHistory"`
}
