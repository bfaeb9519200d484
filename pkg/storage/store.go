// Package storage persists escrow balances and trade history to
// Pebble. It mirrors engine state for queries and audit; the in-memory
// ledgers stay authoritative, so a write failure here is logged by the
// caller rather than unwinding a settled match.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/common"
)

// BalanceRecord is the persisted locked/unlocked split of one user in
// one asset.
type BalanceRecord struct {
	Asset    string         `json:"asset"`
	Address  common.Address `json:"address"`
	Locked   uint64         `json:"locked"`
	Unlocked uint64         `json:"unlocked"`
}

// TradeRecord is one settled fill.
type TradeRecord struct {
	ID        string `json:"id"`
	Symbol    string `json:"symbol"`
	Price     uint64 `json:"price"` // maker price
	Quantity  uint64 `json:"quantity"`
	Side      string `json:"side"` // taker side: "bid" or "ask"
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	Seq       uint64 `json:"seq"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Store wraps a Pebble database. Thread safety comes from the engine's
// serialization; the store itself adds none.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if needed) a Pebble database at path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:                    pebble.NewCache(64 << 20),
		MemTableSize:             32 << 20,
		MaxConcurrentCompactions: func() int { return 2 },
		L0CompactionThreshold:    2,
		L0StopWritesThreshold:    12,
		MaxOpenFiles:             1000,
		BytesPerSync:             512 << 10,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBalance persists one balance record.
func (s *Store) SaveBalance(rec BalanceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal balance: %w", err)
	}
	if err := s.db.Set(balanceKey(rec.Asset, rec.Address), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

// LoadBalance loads one balance record, or nil if absent.
func (s *Store) LoadBalance(assetTag string, addr common.Address) (*BalanceRecord, error) {
	data, closer, err := s.db.Get(balanceKey(assetTag, addr))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	defer closer.Close()

	var rec BalanceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balance: %w", err)
	}
	return &rec, nil
}

// LoadBalances loads every balance record of one asset.
func (s *Store) LoadBalances(assetTag string) ([]*BalanceRecord, error) {
	prefix := balancePrefix(assetTag)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open balance iterator: %w", err)
	}
	defer iter.Close()

	var recs []*BalanceRecord
	for iter.First(); iter.Valid(); iter.Next() {
		var rec BalanceRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // skip invalid entries
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}

// SaveTrade persists one trade. NoSync: trade history is write-heavy
// and batched with the balance writes of the same placement when the
// caller uses NewBatch.
func (s *Store) SaveTrade(t *TradeRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	if err := s.db.Set(tradeKey(t.Symbol, t.Timestamp, t.Seq), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

// RecentTrades returns up to limit trades for a symbol, newest first.
func (s *Store) RecentTrades(symbol string, limit int) ([]*TradeRecord, error) {
	prefix := tradePrefix(symbol)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open trade iterator: %w", err)
	}
	defer iter.Close()

	var trades []*TradeRecord
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var t TradeRecord
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			continue
		}
		trades = append(trades, &t)
	}
	return trades, nil
}

// Batch groups the balance and trade writes of one placement into a
// single atomic Pebble commit.
type Batch struct {
	batch *pebble.Batch
}

// NewBatch starts a batch write.
func (s *Store) NewBatch() *Batch {
	return &Batch{batch: s.db.NewBatch()}
}

// SaveBalance adds a balance write to the batch.
func (b *Batch) SaveBalance(rec BalanceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.batch.Set(balanceKey(rec.Asset, rec.Address), data, nil)
}

// SaveTrade adds a trade write to the batch.
func (b *Batch) SaveTrade(t *TradeRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return b.batch.Set(tradeKey(t.Symbol, t.Timestamp, t.Seq), data, nil)
}

// Commit writes the batch atomically.
func (b *Batch) Commit() error {
	return b.batch.Commit(pebble.Sync)
}

// Close discards the batch without committing.
func (b *Batch) Close() error {
	return b.batch.Close()
}
