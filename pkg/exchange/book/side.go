package book

// tick is one price level: every order in it shares price, and orders
// keep strict arrival (FIFO) ordering.
type tick struct {
	price  uint64
	orders []*Order
}

// sideBook keeps one side's ticks strictly ascending by price, at most
// one tick per price. Lookup is a binary search, insertion of a new
// price level is append-then-bubble, so the structure only ever needs
// append and adjacent-swap on its backing slice.
type sideBook struct {
	ticks []*tick
}

// findOutcome tags the four possible results of a price search.
type findOutcome int8

const (
	findEmpty  findOutcome = iota // no ticks at all
	findExact                     // ticks[index].price == price
	findBefore                    // price sorts immediately before ticks[index]
	findAfter                     // price sorts after ticks[index] (past the end)
)

type findResult struct {
	outcome findOutcome
	index   int
}

// find binary-searches the tick prices. On a miss the returned index
// names an existing tick and the outcome says which side of it the
// price belongs on; an empty book is its own case.
func (sb *sideBook) find(price uint64) findResult {
	if len(sb.ticks) == 0 {
		return findResult{outcome: findEmpty}
	}
	lo, hi := 0, len(sb.ticks)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		switch {
		case sb.ticks[mid].price == price:
			return findResult{outcome: findExact, index: mid}
		case sb.ticks[mid].price < price:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	if lo == len(sb.ticks) {
		return findResult{outcome: findAfter, index: len(sb.ticks) - 1}
	}
	return findResult{outcome: findBefore, index: lo}
}

// insert places the order at its price level. An existing tick gets the
// order appended to its FIFO queue, preserving time priority. Otherwise
// a new single-order tick is appended at the end and swapped leftward
// past every higher-priced tick until the ascending invariant holds.
func (sb *sideBook) insert(o *Order) {
	res := sb.find(o.Price)
	if res.outcome == findExact {
		t := sb.ticks[res.index]
		t.orders = append(t.orders, o)
		return
	}

	sb.ticks = append(sb.ticks, &tick{price: o.Price, orders: []*Order{o}})
	for i := len(sb.ticks) - 1; i > 0 && sb.ticks[i-1].price > sb.ticks[i].price; i-- {
		sb.ticks[i-1], sb.ticks[i] = sb.ticks[i], sb.ticks[i-1]
	}
}
