package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hellodex/swapengine/model"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned by the Unavailable capability for every call.
var ErrUnavailable = errors.New("chain client unavailable")

// Capability is the consumed chain surface: connectivity, balances, gas and
// the two funds-moving primitives against one router contract. Implementations
// own cryptography and ABI encoding; callers never re-implement either.
type Capability interface {
	// Available reports whether a real client is configured at all. False
	// means the process runs in permanent simulation mode, which is a valid
	// degraded state, not an error.
	Available() bool
	// Connected reports live reachability of the configured endpoint.
	Connected(ctx context.Context) bool

	// Balance returns the wallet's human-readable balance. A nil token means
	// the chain's native asset.
	Balance(ctx context.Context, token *common.Address) (decimal.Decimal, error)
	GasPriceWei(ctx context.Context) (*big.Int, error)
	EstimateSwapGas(ctx context.Context, tokenIn, tokenOut common.Address, amountInWei, minOutWei *big.Int) (*model.GasEstimate, error)

	// Approve and Swap move funds. Callers must never retry them.
	Approve(ctx context.Context, token, spender common.Address, amountWei *big.Int) (*model.TxOutcome, error)
	Swap(ctx context.Context, tokenIn, tokenOut common.Address, amountInWei, minOutWei *big.Int) (*model.TxOutcome, error)

	RouterAddress() common.Address
	WrappedNative() common.Address
}

// Unavailable is the capability-typed absent client: it always reports
// unavailable and rejects every call with ErrUnavailable. Callers already
// have defined behavior for that state (the executor simulates).
type Unavailable struct{}

func (Unavailable) Available() bool                { return false }
func (Unavailable) Connected(context.Context) bool { return false }
func (Unavailable) RouterAddress() common.Address  { return common.Address{} }
func (Unavailable) WrappedNative() common.Address  { return common.Address{} }

func (Unavailable) Balance(context.Context, *common.Address) (decimal.Decimal, error) {
	return decimal.Zero, ErrUnavailable
}

func (Unavailable) GasPriceWei(context.Context) (*big.Int, error) {
	return nil, ErrUnavailable
}

func (Unavailable) EstimateSwapGas(context.Context, common.Address, common.Address, *big.Int, *big.Int) (*model.GasEstimate, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Approve(context.Context, common.Address, common.Address, *big.Int) (*model.TxOutcome, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Swap(context.Context, common.Address, common.Address, *big.Int, *big.Int) (*model.TxOutcome, error) {
	return nil, ErrUnavailable
}
