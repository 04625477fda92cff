package amm

import (
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go/rpc"
)

// ScaleAmount converts a UI amount to raw units at the given decimal
// precision, truncating toward zero. Truncation over rounding: the chain
// rejects fractional raw units, and crediting a user an extra unit is worse
// than dropping dust.
func ScaleAmount(amount float64, decimals uint8) *big.Int {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Mul(big.NewFloat(amount), scale)
	out, _ := scaled.Int(nil)
	return out
}

// Lamports converts a SOL amount to lamports with the same truncation rule.
func Lamports(sol float64) uint64 {
	return ScaleAmount(sol, 9).Uint64()
}

// rawBalance parses the raw unit string of a token balance response.
func rawBalance(v *rpc.UiTokenAmount) (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("empty token balance")
	}
	out, ok := new(big.Int).SetString(v.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("unparseable raw balance %q", v.Amount)
	}
	return out, nil
}

func uiBalance(v *rpc.UiTokenAmount) float64 {
	if v == nil || v.UiAmount == nil {
		return 0
	}
	return *v.UiAmount
}
