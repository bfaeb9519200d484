package storage

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir() + "/store.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testAddr = common.HexToAddress("0xAA00000000000000000000000000000000000000")

func TestBalanceRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec := BalanceRecord{Asset: "USDT", Address: testAddr, Locked: 30, Unlocked: 970}
	if err := s.SaveBalance(rec); err != nil {
		t.Fatalf("save balance: %v", err)
	}

	loaded, err := s.LoadBalance("USDT", testAddr)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if loaded == nil {
		t.Fatal("balance not found after save")
	}
	if *loaded != rec {
		t.Errorf("loaded = %+v, want %+v", *loaded, rec)
	}
}

func TestLoadBalanceMissing(t *testing.T) {
	s := newTestStore(t)

	loaded, err := s.LoadBalance("BTC", testAddr)
	if err != nil {
		t.Fatalf("load balance: %v", err)
	}
	if loaded != nil {
		t.Errorf("loaded = %+v, want nil for missing record", loaded)
	}
}

func TestLoadBalancesByAsset(t *testing.T) {
	s := newTestStore(t)

	other := common.HexToAddress("0xBB00000000000000000000000000000000000000")
	s.SaveBalance(BalanceRecord{Asset: "USDT", Address: testAddr, Unlocked: 1})
	s.SaveBalance(BalanceRecord{Asset: "USDT", Address: other, Unlocked: 2})
	s.SaveBalance(BalanceRecord{Asset: "BTC", Address: testAddr, Unlocked: 3})

	recs, err := s.LoadBalances("USDT")
	if err != nil {
		t.Fatalf("load balances: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("USDT records = %d, want 2 (BTC record must not leak in)", len(recs))
	}
}

func TestRecentTradesNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for i := uint64(1); i <= 5; i++ {
		err := s.SaveTrade(&TradeRecord{
			ID:        "t",
			Symbol:    "BTC-USDT",
			Price:     100 + i,
			Quantity:  1,
			Seq:       i,
			Timestamp: int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("save trade %d: %v", i, err)
		}
	}

	trades, err := s.RecentTrades("BTC-USDT", 3)
	if err != nil {
		t.Fatalf("recent trades: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("trades = %d, want 3", len(trades))
	}
	if trades[0].Seq != 5 || trades[1].Seq != 4 || trades[2].Seq != 3 {
		t.Errorf("order = %d,%d,%d, want 5,4,3 (newest first)",
			trades[0].Seq, trades[1].Seq, trades[2].Seq)
	}
}

func TestBatchCommit(t *testing.T) {
	s := newTestStore(t)

	b := s.NewBatch()
	if err := b.SaveBalance(BalanceRecord{Asset: "USDT", Address: testAddr, Unlocked: 42}); err != nil {
		t.Fatalf("batch save balance: %v", err)
	}
	if err := b.SaveTrade(&TradeRecord{Symbol: "BTC-USDT", Seq: 1, Timestamp: 1}); err != nil {
		t.Fatalf("batch save trade: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	loaded, err := s.LoadBalance("USDT", testAddr)
	if err != nil || loaded == nil {
		t.Fatalf("load after batch: rec=%v err=%v", loaded, err)
	}
	if loaded.Unlocked != 42 {
		t.Errorf("unlocked = %d, want 42", loaded.Unlocked)
	}
	trades, _ := s.RecentTrades("BTC-USDT", 10)
	if len(trades) != 1 {
		t.Errorf("trades = %d, want 1", len(trades))
	}
}
