package asset

import (
	"errors"
	"math"
	"testing"
)

func TestZeroCell(t *testing.T) {
	c := Zero(Unlocked)
	if c.Amount() != 0 {
		t.Errorf("zero cell amount = %d, want 0", c.Amount())
	}
	if c.Class() != Unlocked {
		t.Errorf("class = %s, want unlocked", c.Class())
	}
}

func TestSplitConservation(t *testing.T) {
	c := Mint(Unlocked, 100)

	part, err := c.Split(30)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if part.Amount() != 30 {
		t.Errorf("split amount = %d, want 30", part.Amount())
	}
	if c.Amount() != 70 {
		t.Errorf("remainder = %d, want 70", c.Amount())
	}
	if part.Amount()+c.Amount() != 100 {
		t.Errorf("split lost value: %d + %d != 100", part.Amount(), c.Amount())
	}
	if part.Class() != Unlocked {
		t.Errorf("split class = %s, want unlocked", part.Class())
	}
}

func TestSplitShort(t *testing.T) {
	c := Mint(Locked, 10)

	_, err := c.Split(11)
	if !errors.Is(err, ErrShortCell) {
		t.Fatalf("err = %v, want ErrShortCell", err)
	}
	// Receiver must be untouched after a failed split.
	if c.Amount() != 10 {
		t.Errorf("amount after failed split = %d, want 10", c.Amount())
	}
}

func TestSplitExact(t *testing.T) {
	c := Mint(Unlocked, 10)

	part, err := c.Split(10)
	if err != nil {
		t.Fatalf("exact split failed: %v", err)
	}
	if part.Amount() != 10 || c.Amount() != 0 {
		t.Errorf("exact split: part=%d remainder=%d, want 10/0", part.Amount(), c.Amount())
	}
}

func TestJoin(t *testing.T) {
	a := Mint(Unlocked, 40)
	b := Mint(Unlocked, 60)

	if err := a.Join(b); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if a.Amount() != 100 {
		t.Errorf("joined amount = %d, want 100", a.Amount())
	}
}

func TestJoinOverflow(t *testing.T) {
	a := Mint(Unlocked, math.MaxUint64)
	b := Mint(Unlocked, 2)

	err := a.Join(b)
	if !errors.Is(err, ErrCellOverflow) {
		t.Fatalf("err = %v, want ErrCellOverflow", err)
	}
	// A wrapped accumulator would destroy value; the receiver must be
	// untouched instead.
	if a.Amount() != math.MaxUint64 {
		t.Errorf("amount after failed join = %d, want MaxUint64", a.Amount())
	}

	// Joining exactly up to the limit still works.
	c := Mint(Unlocked, math.MaxUint64-2)
	if err := c.Join(b); err != nil {
		t.Fatalf("join to limit failed: %v", err)
	}
	if c.Amount() != math.MaxUint64 {
		t.Errorf("joined amount = %d, want MaxUint64", c.Amount())
	}
}

func TestJoinClassMismatch(t *testing.T) {
	a := Mint(Unlocked, 40)
	b := Mint(Locked, 60)

	err := a.Join(b)
	if !errors.Is(err, ErrClassMismatch) {
		t.Fatalf("err = %v, want ErrClassMismatch", err)
	}
	if a.Amount() != 40 {
		t.Errorf("amount after failed join = %d, want 40", a.Amount())
	}
}

func TestReclassify(t *testing.T) {
	c := Mint(Unlocked, 55)

	locked := c.Reclassify(Locked)
	if locked.Amount() != 55 {
		t.Errorf("reclassified amount = %d, want 55", locked.Amount())
	}
	if locked.Class() != Locked {
		t.Errorf("class = %s, want locked", locked.Class())
	}

	// Round trip preserves magnitude.
	back := locked.Reclassify(Unlocked)
	if back.Amount() != 55 || back.Class() != Unlocked {
		t.Errorf("round trip = %d/%s, want 55/unlocked", back.Amount(), back.Class())
	}
}
