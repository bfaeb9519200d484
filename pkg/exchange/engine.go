// Package exchange wires the matching core to the rest of the node: it
// serializes placements, keeps account custody for API-originated
// users, stamps fills into trade records, mirrors balances and trades
// into storage, and notifies subscribers.
package exchange

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"spotbook/pkg/exchange/account"
	"spotbook/pkg/exchange/asset"
	"spotbook/pkg/exchange/book"
	"spotbook/pkg/exchange/ledger"
	"spotbook/pkg/exchange/market"
	"spotbook/pkg/storage"
	"spotbook/pkg/util"
)

// recentTradeCap bounds the in-memory trade ring; full history lives in
// the store.
const recentTradeCap = 512

// Trade is one settled fill, stamped with identity and time.
type Trade struct {
	ID        string         `json:"id"`
	Symbol    string         `json:"symbol"`
	Price     uint64         `json:"price"` // maker price
	Quantity  uint64         `json:"quantity"`
	Side      string         `json:"side"` // taker side
	Maker     common.Address `json:"maker"`
	Taker     common.Address `json:"taker"`
	Seq       uint64         `json:"seq"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
}

// OrderResult reports what a placement did: the trades it produced and
// the quantity now resting on the book.
type OrderResult struct {
	Remaining uint64  `json:"remaining"`
	Trades    []Trade `json:"trades"`
}

// AssetBalance is one asset's escrow split for a user.
type AssetBalance struct {
	Asset    string `json:"asset"`
	Locked   uint64 `json:"locked"`
	Unlocked uint64 `json:"unlocked"`
}

// Engine owns one market's book and ledgers. Every mutating call runs
// under a single mutex: a placement legitimately needs exclusive access
// to both book sides and both ledgers for its whole duration, so the
// engine is the external serializer the core assumes.
type Engine struct {
	// Clock stamps trades; swap for a FixedClock in tests.
	Clock util.Clock

	// OnTrade, when set, is called after the engine lock is released
	// for every settled fill, so the hook may query the engine. Used by
	// the API layer to fan out to websockets. Set before serving.
	OnTrade func(Trade)

	mu      sync.Mutex
	market  *market.Market
	book    *book.Book
	custody map[common.Address]*account.Capability
	store   *storage.Store // nil disables persistence
	log     *zap.SugaredLogger
	seq     uint64
	recent  []Trade
}

// New builds an engine for the market. store may be nil (no
// persistence); logger may be nil (silent).
func New(m *market.Market, store *storage.Store, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{
		Clock:   util.RealClock{},
		market:  m,
		book:    book.New(ledger.New(m.BaseAsset), ledger.New(m.QuoteAsset)),
		custody: make(map[common.Address]*account.Capability),
		store:   store,
		log:     logger,
	}
}

// Market returns the market descriptor.
func (e *Engine) Market() *market.Market { return e.market }

// CreateAccount mints a capability, initializes it in both escrow
// ledgers, and keeps it in engine custody so API calls can refer to the
// account by address.
func (e *Engine) CreateAccount() (*account.Capability, error) {
	cap, err := account.Mint()
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	if err := e.Register(cap); err != nil {
		return nil, err
	}
	return cap, nil
}

// Register initializes an externally minted capability in both ledgers
// and takes it into engine custody.
func (e *Engine) Register(cap *account.Capability) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.book.BaseLedger().Initialize(cap); err != nil {
		return err
	}
	if err := e.book.QuoteLedger().Initialize(cap); err != nil {
		return err
	}
	e.custody[cap.Address()] = cap
	e.persistBalances(cap.Address())
	e.log.Infow("account_registered", "address", cap.Address().Hex())
	return nil
}

// Capability resolves an address to its custodied capability.
func (e *Engine) Capability(addr common.Address) (*account.Capability, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cap, ok := e.custody[addr]
	return cap, ok
}

// Fund deposits externally sourced unlocked funds. This is the only
// operation that changes an asset's total.
func (e *Engine) Fund(cap *account.Capability, assetTag string, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.ledgerFor(assetTag)
	if err != nil {
		return err
	}
	if err := l.Deposit(cap, asset.Mint(asset.Unlocked, amount)); err != nil {
		return err
	}
	e.persistBalances(cap.Address())
	e.log.Infow("funds_deposited", "address", cap.Address().Hex(), "asset", assetTag, "amount", amount)
	return nil
}

// PlaceBid submits a buy limit order for the capability's account.
func (e *Engine) PlaceBid(cap *account.Capability, price, quantity uint64) (OrderResult, error) {
	return e.place(book.Bid, cap, price, quantity)
}

// PlaceAsk submits a sell limit order for the capability's account.
func (e *Engine) PlaceAsk(cap *account.Capability, price, quantity uint64) (OrderResult, error) {
	return e.place(book.Ask, cap, price, quantity)
}

func (e *Engine) place(side book.Side, cap *account.Capability, price, quantity uint64) (OrderResult, error) {
	res, err := e.placeLocked(side, cap, price, quantity)
	if err != nil {
		return OrderResult{}, err
	}

	// Fired outside the lock: the hook re-enters the engine for depth
	// snapshots.
	if e.OnTrade != nil {
		for _, tr := range res.Trades {
			e.OnTrade(tr)
		}
	}
	return res, nil
}

func (e *Engine) placeLocked(side book.Side, cap *account.Capability, price, quantity uint64) (OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.market.ValidateOrder(price, quantity); err != nil {
		return OrderResult{}, err
	}
	o, err := book.NewOrder(cap, price, quantity)
	if err != nil {
		return OrderResult{}, err
	}

	var fills []book.Fill
	if side == book.Bid {
		fills, err = e.book.PlaceBid(o)
	} else {
		fills, err = e.book.PlaceAsk(o)
	}
	if err != nil {
		return OrderResult{}, err
	}

	now := e.Clock.Now().UnixMilli()
	trades := make([]Trade, 0, len(fills))
	touched := map[common.Address]struct{}{cap.Address(): {}}
	for _, f := range fills {
		e.seq++
		trades = append(trades, Trade{
			ID:        fmt.Sprintf("%s-%d", e.market.Symbol, e.seq),
			Symbol:    e.market.Symbol,
			Price:     f.Price,
			Quantity:  f.Quantity,
			Side:      side.String(),
			Maker:     f.Maker,
			Taker:     f.Taker,
			Seq:       e.seq,
			Timestamp: now,
		})
		touched[f.Maker] = struct{}{}
	}

	e.remember(trades)
	e.persistPlacement(touched, trades)

	e.log.Infow("order_placed",
		"side", side.String(),
		"owner", cap.Address().Hex(),
		"price", price,
		"quantity", quantity,
		"fills", len(trades),
		"remaining", o.Quantity)

	return OrderResult{Remaining: o.Quantity, Trades: trades}, nil
}

// Depth returns both sides' price levels (bids and asks ascending by
// price, FIFO within each level).
func (e *Engine) Depth() (bids, asks []book.LevelSnapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Ticks(book.Bid), e.book.Ticks(book.Ask)
}

// Balances returns the base and quote escrow splits for an address.
func (e *Engine) Balances(addr common.Address) ([]AssetBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]AssetBalance, 0, 2)
	for _, tag := range []string{e.market.BaseAsset, e.market.QuoteAsset} {
		locked, err := e.book.LockedBalance(tag, addr)
		if err != nil {
			return nil, err
		}
		unlocked, err := e.book.UnlockedBalance(tag, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, AssetBalance{Asset: tag, Locked: locked, Unlocked: unlocked})
	}
	return out, nil
}

// RecentTrades returns up to limit trades, newest first.
func (e *Engine) RecentTrades(limit int) []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	if limit > len(e.recent) {
		limit = len(e.recent)
	}
	out := make([]Trade, limit)
	for i := 0; i < limit; i++ {
		out[i] = e.recent[len(e.recent)-1-i]
	}
	return out
}

func (e *Engine) ledgerFor(assetTag string) (*ledger.Ledger, error) {
	switch assetTag {
	case e.market.BaseAsset:
		return e.book.BaseLedger(), nil
	case e.market.QuoteAsset:
		return e.book.QuoteLedger(), nil
	default:
		return nil, fmt.Errorf("exchange: unknown asset %q", assetTag)
	}
}

func (e *Engine) remember(trades []Trade) {
	e.recent = append(e.recent, trades...)
	if len(e.recent) > recentTradeCap {
		e.recent = e.recent[len(e.recent)-recentTradeCap:]
	}
}

// persistPlacement mirrors the balances of every account a placement
// touched, plus its trades, into the store in one batch. The in-memory
// ledgers stay authoritative: a store failure is logged, not unwound.
func (e *Engine) persistPlacement(touched map[common.Address]struct{}, trades []Trade) {
	if e.store == nil {
		return
	}
	batch := e.store.NewBatch()
	defer batch.Close()

	for addr := range touched {
		for _, rec := range e.balanceRecords(addr) {
			if err := batch.SaveBalance(rec); err != nil {
				e.log.Errorw("persist_balance_failed", "address", addr.Hex(), "err", err)
			}
		}
	}
	for i := range trades {
		tr := &trades[i]
		err := batch.SaveTrade(&storage.TradeRecord{
			ID:        tr.ID,
			Symbol:    tr.Symbol,
			Price:     tr.Price,
			Quantity:  tr.Quantity,
			Side:      tr.Side,
			Maker:     tr.Maker.Hex(),
			Taker:     tr.Taker.Hex(),
			Seq:       tr.Seq,
			Timestamp: tr.Timestamp,
		})
		if err != nil {
			e.log.Errorw("persist_trade_failed", "trade", tr.ID, "err", err)
		}
	}
	if err := batch.Commit(); err != nil {
		e.log.Errorw("persist_commit_failed", "err", err)
	}
}

func (e *Engine) persistBalances(addr common.Address) {
	if e.store == nil {
		return
	}
	for _, rec := range e.balanceRecords(addr) {
		if err := e.store.SaveBalance(rec); err != nil {
			e.log.Errorw("persist_balance_failed", "address", addr.Hex(), "err", err)
		}
	}
}

func (e *Engine) balanceRecords(addr common.Address) []storage.BalanceRecord {
	recs := make([]storage.BalanceRecord, 0, 2)
	for _, tag := range []string{e.market.BaseAsset, e.market.QuoteAsset} {
		locked, err := e.book.LockedBalance(tag, addr)
		if err != nil {
			continue
		}
		unlocked, _ := e.book.UnlockedBalance(tag, addr)
		recs = append(recs, storage.BalanceRecord{
			Asset:    tag,
			Address:  addr,
			Locked:   locked,
			Unlocked: unlocked,
		})
	}
	return recs
}
