// Package ledger implements the per-asset escrow ledger. Each user has
// exactly two cells per asset: unlocked funds free to collateralize new
// orders, and locked funds reserved against orders already resting on
// the book. All value movement goes through cell split/join, so the
// per-asset total across every user only changes when funds enter from
// outside (asset.Mint at the funding boundary).
//
// The ledger does no internal locking: each place/settle operation
// legitimately needs exclusive access to both ledgers and both book
// sides for its whole duration, so serialization lives one layer up in
// the engine.
package ledger

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"spotbook/pkg/exchange/account"
	"spotbook/pkg/exchange/asset"
)

var (
	// ErrAccountNotFound is returned for any balance operation on a
	// user never initialized in this ledger.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the
	// addressed cell's magnitude. The withdrawal is all-or-nothing.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrAlreadyInitialized is returned when Initialize is called twice
	// for the same user. Re-initializing would zero live cells.
	ErrAlreadyInitialized = errors.New("ledger: account already initialized")
)

type entry struct {
	locked   asset.Cell
	unlocked asset.Cell
}

// Ledger tracks the locked/unlocked escrow split of one asset for every
// initialized user.
type Ledger struct {
	assetTag string
	entries  map[common.Address]*entry
}

// New creates an empty ledger for the given asset tag (e.g. "BTC").
func New(assetTag string) *Ledger {
	return &Ledger{
		assetTag: assetTag,
		entries:  make(map[common.Address]*entry),
	}
}

// Asset returns the asset tag this ledger escrows.
func (l *Ledger) Asset() string { return l.assetTag }

// Initialize creates zero-balance locked and unlocked cells for the
// capability's account. Must be called once before any other operation
// for that user.
func (l *Ledger) Initialize(cap *account.Capability) error {
	addr := cap.Address()
	if _, exists := l.entries[addr]; exists {
		return fmt.Errorf("%w: %s (%s)", ErrAlreadyInitialized, addr.Hex(), l.assetTag)
	}
	l.entries[addr] = &entry{
		locked:   asset.Zero(asset.Locked),
		unlocked: asset.Zero(asset.Unlocked),
	}
	return nil
}

// Initialized reports whether the address has cells in this ledger.
func (l *Ledger) Initialized(addr common.Address) bool {
	_, ok := l.entries[addr]
	return ok
}

// Balance returns the magnitude of the addressed user's cell of the
// given class. Read-only.
func (l *Ledger) Balance(class asset.Class, addr common.Address) (uint64, error) {
	e, ok := l.entries[addr]
	if !ok {
		return 0, fmt.Errorf("%w: %s (%s)", ErrAccountNotFound, addr.Hex(), l.assetTag)
	}
	return e.cell(class).Amount(), nil
}

// Deposit merges the cell into the user's cell of the cell's class,
// consuming it. The cell's class decides whether the funds land locked
// or unlocked.
func (l *Ledger) Deposit(cap *account.Capability, cell asset.Cell) error {
	e, ok := l.entries[cap.Address()]
	if !ok {
		return fmt.Errorf("%w: %s (%s)", ErrAccountNotFound, cap.Address().Hex(), l.assetTag)
	}
	return e.cell(cell.Class()).Join(cell)
}

// Withdraw splits amount out of the user's cell of the given class and
// returns it as a new cell. Fails with ErrInsufficientFunds if the cell
// holds less than amount; a failed withdrawal changes nothing.
func (l *Ledger) Withdraw(class asset.Class, cap *account.Capability, amount uint64) (asset.Cell, error) {
	e, ok := l.entries[cap.Address()]
	if !ok {
		return asset.Cell{}, fmt.Errorf("%w: %s (%s)", ErrAccountNotFound, cap.Address().Hex(), l.assetTag)
	}
	cell := e.cell(class)
	if cell.Amount() < amount {
		return asset.Cell{}, fmt.Errorf("%w: %s %s %s, have %d, need %d",
			ErrInsufficientFunds, cap.Address().Hex(), class, l.assetTag, cell.Amount(), amount)
	}
	out, err := cell.Split(amount)
	if err != nil {
		// Unreachable after the magnitude check above.
		return asset.Cell{}, err
	}
	return out, nil
}

// Total returns the sum of locked and unlocked magnitude across all
// users. Matching and placement never change it; only external funding
// deposits do. Exposed for conservation checks.
func (l *Ledger) Total() uint64 {
	var sum uint64
	for _, e := range l.entries {
		sum += e.locked.Amount() + e.unlocked.Amount()
	}
	return sum
}

func (e *entry) cell(class asset.Class) *asset.Cell {
	if class == asset.Locked {
		return &e.locked
	}
	return &e.unlocked
}
