// Package market holds the static parameters of a trading pair and the
// order validation they imply. Prices are integer ticks, quantities
// integer lots; the market is where those units are pinned down.
package market

import (
	"fmt"
	"math"
)

// Params collects the tunable knobs for a spot market, separate from
// the runtime Market struct.
type Params struct {
	TickSize     uint64 // minimum price increment
	LotSize      uint64 // minimum quantity increment
	MinOrderSize uint64 // minimum order quantity, in lots
	MaxOrderSize uint64 // maximum single-order quantity, in lots
	MaxPrice     uint64 // maximum limit price, in ticks
}

// DefaultParams is a devnet-friendly configuration: unit tick and lot,
// generous bounds.
var DefaultParams = Params{
	TickSize:     1,
	LotSize:      1,
	MinOrderSize: 1,
	MaxOrderSize: 1_000_000,
	MaxPrice:     1_000_000_000,
}

// Market describes one tradeable pair.
type Market struct {
	Symbol     string // e.g. "BTC-USDT"
	BaseAsset  string // e.g. "BTC"
	QuoteAsset string // e.g. "USDT"

	TickSize     uint64
	LotSize      uint64
	MinOrderSize uint64
	MaxOrderSize uint64
	MaxPrice     uint64
}

// New validates params and builds a market.
func New(symbol, baseAsset, quoteAsset string, params Params) (*Market, error) {
	if symbol == "" || baseAsset == "" || quoteAsset == "" {
		return nil, fmt.Errorf("market: symbol and asset tags are required")
	}
	if baseAsset == quoteAsset {
		return nil, fmt.Errorf("market: base and quote asset must differ: %s", baseAsset)
	}
	if params.TickSize == 0 || params.LotSize == 0 {
		return nil, fmt.Errorf("market: tick size and lot size must be positive")
	}
	if params.MinOrderSize == 0 || params.MaxOrderSize < params.MinOrderSize {
		return nil, fmt.Errorf("market: bad order size bounds [%d, %d]",
			params.MinOrderSize, params.MaxOrderSize)
	}
	if params.MaxPrice == 0 {
		return nil, fmt.Errorf("market: max price must be positive")
	}
	// The worst-case bid collateral must fit in uint64.
	if params.MaxPrice > math.MaxUint64/params.MaxOrderSize {
		return nil, fmt.Errorf("market: max price * max order size overflows")
	}
	return &Market{
		Symbol:       symbol,
		BaseAsset:    baseAsset,
		QuoteAsset:   quoteAsset,
		TickSize:     params.TickSize,
		LotSize:      params.LotSize,
		MinOrderSize: params.MinOrderSize,
		MaxOrderSize: params.MaxOrderSize,
		MaxPrice:     params.MaxPrice,
	}, nil
}

// ValidateOrder checks a limit order against the market's precision and
// size rules. Runs before any ledger effect.
func (m *Market) ValidateOrder(price, quantity uint64) error {
	if price == 0 {
		return fmt.Errorf("market: price must be positive")
	}
	if price%m.TickSize != 0 {
		return fmt.Errorf("market: price %d not aligned to tick size %d", price, m.TickSize)
	}
	if price > m.MaxPrice {
		return fmt.Errorf("market: price %d exceeds max %d", price, m.MaxPrice)
	}
	if quantity == 0 {
		return fmt.Errorf("market: quantity must be positive")
	}
	if quantity%m.LotSize != 0 {
		return fmt.Errorf("market: quantity %d not aligned to lot size %d", quantity, m.LotSize)
	}
	if quantity < m.MinOrderSize {
		return fmt.Errorf("market: quantity %d below minimum %d", quantity, m.MinOrderSize)
	}
	if quantity > m.MaxOrderSize {
		return fmt.Errorf("market: quantity %d exceeds maximum %d", quantity, m.MaxOrderSize)
	}
	return nil
}
