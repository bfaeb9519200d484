// Package asset provides the value-conservation primitive the escrow
// ledger is built on. A Cell is an opaque accumulator of one asset:
// value enters a Cell only by splitting it out of another Cell (or by
// minting at the external funding boundary) and leaves only by being
// merged into another Cell. Nothing here can silently create or destroy
// magnitude, which is what lets the layers above reason about
// conservation.
package asset

import (
	"errors"
	"fmt"
	"math"
)

// Class labels the escrow state of a Cell's funds.
type Class int8

const (
	Unlocked Class = iota // freely available
	Locked                // reserved against a resting order
)

func (c Class) String() string {
	switch c {
	case Unlocked:
		return "unlocked"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// ErrShortCell is returned when a split asks for more than the cell holds.
var ErrShortCell = errors.New("asset: split exceeds cell amount")

// ErrClassMismatch is returned when joining cells of different classes.
var ErrClassMismatch = errors.New("asset: cell class mismatch")

// ErrCellOverflow is returned when a join would wrap the accumulator.
var ErrCellOverflow = errors.New("asset: join overflows cell amount")

// Cell is a single typed value accumulator. The zero value is an empty
// unlocked cell. Cells are passed by value; an operation that consumes
// a cell (ledger deposit, Join) takes ownership of the caller's copy,
// and callers must not reuse a cell after handing it off.
type Cell struct {
	class  Class
	amount uint64
}

// Zero returns an empty cell of the given class.
func Zero(class Class) Cell {
	return Cell{class: class}
}

// Mint conjures a cell with the given amount. This is the external
// funding boundary: everything else in the system only moves value
// between existing cells, so the per-asset total changes exactly when
// Mint is called (bridge deposits, test funding).
func Mint(class Class, amount uint64) Cell {
	return Cell{class: class, amount: amount}
}

// Amount returns the cell's magnitude.
func (c Cell) Amount() uint64 { return c.amount }

// Class returns the cell's escrow class.
func (c Cell) Class() Class { return c.class }

// Split removes amount from the cell and returns it as a new cell of
// the same class. The receiver keeps the remainder. Fails with
// ErrShortCell if the cell holds less than amount, leaving the
// receiver untouched.
func (c *Cell) Split(amount uint64) (Cell, error) {
	if amount > c.amount {
		return Cell{}, fmt.Errorf("%w: have %d, want %d", ErrShortCell, c.amount, amount)
	}
	c.amount -= amount
	return Cell{class: c.class, amount: amount}, nil
}

// Join merges other into the receiver, consuming it. Both cells must
// share a class; reclassify first when moving funds between escrow
// states. Fails with ErrCellOverflow if the merged amount would wrap,
// leaving the receiver untouched; a wrapped accumulator would destroy
// value.
func (c *Cell) Join(other Cell) error {
	if other.class != c.class {
		return fmt.Errorf("%w: %s into %s", ErrClassMismatch, other.class, c.class)
	}
	if other.amount > math.MaxUint64-c.amount {
		return fmt.Errorf("%w: have %d, adding %d", ErrCellOverflow, c.amount, other.amount)
	}
	c.amount += other.amount
	return nil
}

// Reclassify relabels the cell's escrow class without touching its
// magnitude, consuming the receiver. A pure cast: no ledger is
// involved and no value moves.
func (c Cell) Reclassify(to Class) Cell {
	return Cell{class: to, amount: c.amount}
}
