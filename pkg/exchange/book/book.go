// Package book implements the order book for a single trading pair:
// two price-ordered sides and the maker-price matching algorithm that
// settles fills directly between counterparties' escrow ledgers.
//
// Each placement is one atomic unit. The only fallible step is the
// up-front collateral withdrawal, which happens before anything is
// mutated, so a failed placement leaves ledgers and books exactly as
// they were. Once matching starts the operation runs to completion; a
// counterparty shortfall mid-match would mean the resting-collateral
// invariant was already broken elsewhere, and the book treats it as a
// fatal programming error rather than a recoverable one.
package book

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"

	"spotbook/pkg/exchange/account"
	"spotbook/pkg/exchange/asset"
	"spotbook/pkg/exchange/ledger"
)

// Fill records one match: quantity base units traded at the maker's
// price between a resting order and the incoming taker.
type Fill struct {
	Maker    common.Address
	Taker    common.Address
	Price    uint64 // maker (resting) price
	Quantity uint64
}

// OrderSnapshot is a read-only copy of a resting order.
type OrderSnapshot struct {
	Owner    common.Address `json:"owner"`
	Price    uint64         `json:"price"`
	Quantity uint64         `json:"quantity"`
}

// LevelSnapshot is a read-only copy of one price level, orders in FIFO
// arrival order.
type LevelSnapshot struct {
	Price  uint64          `json:"price"`
	Orders []OrderSnapshot `json:"orders"`
}

// Book owns both sides of one pair plus the base and quote escrow
// ledgers. All mutation funnels through PlaceBid/PlaceAsk; the caller
// (the engine) serializes those calls.
type Book struct {
	base  *ledger.Ledger
	quote *ledger.Ledger
	bids  sideBook
	asks  sideBook
}

// New creates an empty book settling against the given ledgers.
func New(base, quote *ledger.Ledger) *Book {
	return &Book{base: base, quote: quote}
}

// BaseLedger returns the base-asset escrow ledger.
func (b *Book) BaseLedger() *ledger.Ledger { return b.base }

// QuoteLedger returns the quote-asset escrow ledger.
func (b *Book) QuoteLedger() *ledger.Ledger { return b.quote }

// PlaceBid withdraws the bid's full quote collateral (price*quantity),
// crosses it against the ask side at maker prices, locks whatever
// collateral matching did not consume, and parks the (possibly fully
// filled) order on the bid side.
func (b *Book) PlaceBid(o *Order) ([]Fill, error) {
	if o.Price != 0 && o.Quantity > math.MaxUint64/o.Price {
		return nil, ErrNotionalOverflow
	}
	pot, err := b.quote.Withdraw(asset.Unlocked, o.owner, o.Price*o.Quantity)
	if err != nil {
		return nil, err
	}

	fills := b.matchBid(o, &pot)

	// Unconsumed collateral stays encumbered for the resting remainder.
	mustDeposit(b.quote, o.owner, pot.Reclassify(asset.Locked))
	b.bids.insert(o)
	return fills, nil
}

// PlaceAsk is the mirror: collateral is the full base quantity, and
// matching scans the bid side from the highest price downward.
func (b *Book) PlaceAsk(o *Order) ([]Fill, error) {
	pot, err := b.base.Withdraw(asset.Unlocked, o.owner, o.Quantity)
	if err != nil {
		return nil, err
	}

	fills := b.matchAsk(o, &pot)

	mustDeposit(b.base, o.owner, pot.Reclassify(asset.Locked))
	b.asks.insert(o)
	return fills, nil
}

// matchBid scans asks from the lowest tick upward, stopping once a
// tick's price exceeds the bid or the bid is exhausted. Within a tick,
// resting asks fill in FIFO order at the tick's (maker) price: the
// quote leg moves out of the bid's collateral pot to the ask owner
// unlocked, the base leg moves out of the ask owner's locked cell into
// a parcel deposited unlocked to the bidder at the end.
func (b *Book) matchBid(o *Order, pot *asset.Cell) []Fill {
	var fills []Fill
	parcel := asset.Zero(asset.Unlocked)
	for _, t := range b.asks.ticks {
		if t.price > o.Price || o.Quantity == 0 {
			break
		}
		for _, maker := range t.orders {
			if o.Quantity == 0 {
				break
			}
			if maker.Quantity == 0 {
				continue // fully-filled record still parked at its tick
			}
			matched := min(o.Quantity, maker.Quantity)

			quoteLeg, err := pot.Split(t.price * matched)
			if err != nil {
				panic(fmt.Sprintf("book: bid collateral short mid-match: %v", err))
			}
			mustDeposit(b.quote, maker.owner, quoteLeg)

			baseLeg := mustWithdrawLocked(b.base, maker.owner, matched)
			if err := parcel.Join(baseLeg.Reclassify(asset.Unlocked)); err != nil {
				panic(fmt.Sprintf("book: base parcel join failed: %v", err))
			}

			o.Quantity -= matched
			maker.Quantity -= matched
			fills = append(fills, Fill{
				Maker:    maker.Owner(),
				Taker:    o.Owner(),
				Price:    t.price,
				Quantity: matched,
			})
		}
	}
	if parcel.Amount() > 0 {
		mustDeposit(b.base, o.owner, parcel)
	}
	return fills
}

// matchAsk scans bids from the highest tick downward, stopping once a
// tick's price falls below the ask. Settlement is symmetric to
// matchBid: base out of the ask's collateral pot to each bid owner,
// quote out of each bid owner's locked cell into the asker's parcel.
func (b *Book) matchAsk(o *Order, pot *asset.Cell) []Fill {
	var fills []Fill
	parcel := asset.Zero(asset.Unlocked)
	for i := len(b.bids.ticks) - 1; i >= 0; i-- {
		t := b.bids.ticks[i]
		if t.price < o.Price || o.Quantity == 0 {
			break
		}
		for _, maker := range t.orders {
			if o.Quantity == 0 {
				break
			}
			if maker.Quantity == 0 {
				continue
			}
			matched := min(o.Quantity, maker.Quantity)

			baseLeg, err := pot.Split(matched)
			if err != nil {
				panic(fmt.Sprintf("book: ask collateral short mid-match: %v", err))
			}
			mustDeposit(b.base, maker.owner, baseLeg)

			quoteLeg := mustWithdrawLocked(b.quote, maker.owner, t.price*matched)
			if err := parcel.Join(quoteLeg.Reclassify(asset.Unlocked)); err != nil {
				panic(fmt.Sprintf("book: quote parcel join failed: %v", err))
			}

			o.Quantity -= matched
			maker.Quantity -= matched
			fills = append(fills, Fill{
				Maker:    maker.Owner(),
				Taker:    o.Owner(),
				Price:    t.price,
				Quantity: matched,
			})
		}
	}
	if parcel.Amount() > 0 {
		mustDeposit(b.quote, o.owner, parcel)
	}
	return fills
}

// Ticks returns a snapshot of one side's price levels, ascending by
// price, each level's orders in FIFO arrival order.
func (b *Book) Ticks(side Side) []LevelSnapshot {
	sb := &b.bids
	if side == Ask {
		sb = &b.asks
	}
	levels := make([]LevelSnapshot, 0, len(sb.ticks))
	for _, t := range sb.ticks {
		orders := make([]OrderSnapshot, 0, len(t.orders))
		for _, o := range t.orders {
			orders = append(orders, OrderSnapshot{
				Owner:    o.Owner(),
				Price:    o.Price,
				Quantity: o.Quantity,
			})
		}
		levels = append(levels, LevelSnapshot{Price: t.price, Orders: orders})
	}
	return levels
}

// LockedBalance reads the locked cell for assetTag/user.
func (b *Book) LockedBalance(assetTag string, addr common.Address) (uint64, error) {
	l, err := b.ledgerFor(assetTag)
	if err != nil {
		return 0, err
	}
	return l.Balance(asset.Locked, addr)
}

// UnlockedBalance reads the unlocked cell for assetTag/user.
func (b *Book) UnlockedBalance(assetTag string, addr common.Address) (uint64, error) {
	l, err := b.ledgerFor(assetTag)
	if err != nil {
		return 0, err
	}
	return l.Balance(asset.Unlocked, addr)
}

func (b *Book) ledgerFor(assetTag string) (*ledger.Ledger, error) {
	switch assetTag {
	case b.base.Asset():
		return b.base, nil
	case b.quote.Asset():
		return b.quote, nil
	default:
		return nil, fmt.Errorf("book: unknown asset %q", assetTag)
	}
}

// mustDeposit deposits into an account the book has already touched
// this operation. The account exists and the classes line up, so a
// failure here is a conservation bug, not a caller error.
func mustDeposit(l *ledger.Ledger, cap *account.Capability, cell asset.Cell) {
	if err := l.Deposit(cap, cell); err != nil {
		panic(fmt.Sprintf("book: settlement deposit failed: %v", err))
	}
}

// mustWithdrawLocked pulls settled funds out of a resting order's
// locked collateral. A resting order's locked balance always covers its
// remaining commitment; a shortfall means the invariant was broken
// before this call.
func mustWithdrawLocked(l *ledger.Ledger, cap *account.Capability, amount uint64) asset.Cell {
	cell, err := l.Withdraw(asset.Locked, cap, amount)
	if err != nil {
		panic(fmt.Sprintf("book: resting collateral short: %v", err))
	}
	return cell
}
