package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol means the oracle has no price for the requested symbol.
var ErrUnknownSymbol = errors.New("no price for symbol")

// PriceOracle converts a token symbol to its live USD price. The executor
// requires one: daily volume caps are enforced on true USD notional, never on
// raw token quantity.
type PriceOracle interface {
	PriceUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Static serves prices from a fixed map. Used for config-pinned prices and in
// tests.
type Static struct {
	prices map[string]decimal.Decimal
}

func NewStatic(prices map[string]string) (*Static, error) {
	parsed := make(map[string]decimal.Decimal, len(prices))
	for symbol, raw := range prices {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w", raw, symbol, err)
		}
		parsed[symbol] = p
	}
	return &Static{prices: parsed}, nil
}

func (s *Static) PriceUSD(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := s.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return p, nil
}
