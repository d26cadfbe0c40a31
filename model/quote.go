package model

import (
	"fmt"
	"math/big"
)

// Quote is a normalized swap quote from a single provider. All amounts are
// decimal strings of the token's smallest unit. Never mutated after creation.
type Quote struct {
	Source      string   `json:"dex"`
	TokenIn     string   `json:"tokenIn"`
	TokenOut    string   `json:"tokenOut"`
	AmountIn    string   `json:"amountIn"`
	AmountOut   string   `json:"amountOut"`
	GasEstimate int64    `json:"gasEstimate"`
	PriceImpact float64  `json:"priceImpact"`
	Route       []string `json:"route"`
}

// AmountOutInt parses AmountOut as a raw integer. Comparison between quotes
// must go through this, never through floats.
func (q *Quote) AmountOutInt() *big.Int {
	n, ok := new(big.Int).SetString(q.AmountOut, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}

const (
	MinSlippagePercent = 0.1
	MaxSlippagePercent = 50.0
)

// SwapRequest is a quote request as it arrives at the system boundary.
// Read-only through the pipeline.
type SwapRequest struct {
	TokenIn  string   `json:"tokenIn"`
	TokenOut string   `json:"tokenOut"`
	AmountIn *big.Int `json:"amountIn"`
	ChainID  int64    `json:"chainId"`
	Slippage float64  `json:"slippage"` // percent
}

func (r *SwapRequest) Validate() error {
	if r.TokenIn == "" || r.TokenOut == "" {
		return fmt.Errorf("tokenIn and tokenOut are required")
	}
	if r.AmountIn == nil || r.AmountIn.Sign() <= 0 {
		return fmt.Errorf("amountIn must be a positive integer")
	}
	if r.Slippage < MinSlippagePercent || r.Slippage > MaxSlippagePercent {
		return fmt.Errorf("slippage %.2f%% out of range [%.1f, %.1f]",
			r.Slippage, MinSlippagePercent, MaxSlippagePercent)
	}
	return nil
}

// CacheKey identifies a request for short-TTL quote caching. Slippage is not
// part of the key: providers quote the same route regardless of tolerance.
func (r *SwapRequest) CacheKey() string {
	return fmt.Sprintf("%d_%s_%s_%s", r.ChainID, r.TokenIn, r.TokenOut, r.AmountIn.String())
}
