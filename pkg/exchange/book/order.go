package book

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"spotbook/pkg/exchange/account"
)

// Side marks which half of the book an order belongs to.
type Side int8

const (
	Bid Side = 1  // buy base, pay quote
	Ask Side = -1 // sell base, receive quote
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	default:
		return "unknown"
	}
}

var (
	// ErrZeroPrice rejects an order priced at zero, before any ledger effect.
	ErrZeroPrice = errors.New("book: order price must be positive")

	// ErrZeroQuantity rejects an empty order, before any ledger effect.
	ErrZeroQuantity = errors.New("book: order quantity must be positive")

	// ErrNotionalOverflow rejects a bid whose price*quantity collateral
	// does not fit in uint64.
	ErrNotionalOverflow = errors.New("book: order notional overflows")
)

// Order is a single limit order, incoming or resting. Quantity only
// ever decreases, and only through matching. The owner capability is
// held by the order for its resting lifetime: placement transfers
// custody into the book, which is what lets matching settle against a
// resting order without the owner re-presenting anything.
type Order struct {
	owner    *account.Capability
	Price    uint64
	Quantity uint64
}

// NewOrder validates and builds an order, taking custody of owner.
func NewOrder(owner *account.Capability, price, quantity uint64) (*Order, error) {
	if price == 0 {
		return nil, ErrZeroPrice
	}
	if quantity == 0 {
		return nil, ErrZeroQuantity
	}
	return &Order{owner: owner, Price: price, Quantity: quantity}, nil
}

// Owner returns the identifier of the capability held by this order.
func (o *Order) Owner() common.Address {
	return o.owner.Address()
}
