package domain

// SwapDirection tells which side of the pool the input amount is on.
type SwapDirection string

const (
	SwapSOLToToken SwapDirection = "SOL_TO_TOKEN"
	SwapTokenToSOL SwapDirection = "TOKEN_TO_SOL"
)

// SwapRequest is stateless: the pipeline is a pure function of it plus chain
// state.
type SwapRequest struct {
	Direction SwapDirection
	// Amount is the human-entered input amount: SOL for SOL_TO_TOKEN,
	// tokens for TOKEN_TO_SOL. Scaled by the asset's on-chain decimals
	// before encoding.
	Amount float64
}

type SwapResult struct {
	TxSignature string        `json:"txSignature"`
	SwapType    SwapDirection `json:"swapType"`
	AmountIn    float64       `json:"amountIn"`
	AmountOut   float64       `json:"amountOut"`
	UserWallet  string        `json:"userWallet"`
}

type SimulationResult struct {
	Success              bool     `json:"success"`
	Logs                 []string `json:"logs"`
	ComputeUnitsConsumed uint64   `json:"computeUnitsConsumed"`
	Error                string   `json:"error,omitempty"`

	InsufficientFunds bool `json:"insufficientFunds"`
}
