package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Pebble key schema.
// Design principles:
// 1. Prefix-based for range scans (all balances of one asset, all
//    trades of one symbol)
// 2. Lexicographic ordering for time-based queries (zero-padded
//    timestamps)

const (
	prefixBalance = "bal:"   // escrow balance state
	prefixTrade   = "trade:" // trade history
)

// balanceKey returns the key for one (asset, address) balance record.
// Format: "bal:{asset}:{address}"
// Example: "bal:USDT:0x742d35cc6634c0532925a3b844bc9e7595f0beb"
func balanceKey(assetTag string, addr common.Address) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixBalance, assetTag, addr.Hex()))
}

// balancePrefix returns the prefix for all balances of one asset.
// Format: "bal:{asset}:"
func balancePrefix(assetTag string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixBalance, assetTag))
}

// tradeKey returns the key for a trade.
// Format: "trade:{symbol}:{timestamp}:{seq}"
// Timestamp and sequence are zero-padded so Pebble's lexicographic
// order is chronological.
func tradeKey(symbol string, timestamp int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%012d", prefixTrade, symbol, timestamp, seq))
}

// tradePrefix returns the prefix for all trades of a symbol.
// Format: "trade:{symbol}:"
func tradePrefix(symbol string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixTrade, symbol))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan:
// the prefix with its last byte incremented.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
