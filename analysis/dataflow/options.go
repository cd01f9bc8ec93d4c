package dataflow

import "fmt"

// Order selects the order in which blocks are visited in every round.
type Order int

const (
	// OrderDocument visits blocks in the order they appear in the function.
	OrderDocument Order = iota
	// OrderRPO visits the blocks reachable from the entry in reverse
	// post-order for forward problems, and in post-order for backward
	// problems. Unreachable blocks follow in document order.
	OrderRPO
)

func (o Order) String() string {
	switch o {
	case OrderDocument:
		return "document"
	case OrderRPO:
		return "rpo"
	}
	return "invalid"
}

// ParseOrder converts the textual name of an order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "document":
		return OrderDocument, nil
	case "rpo":
		return OrderRPO, nil
	}
	return OrderDocument, fmt.Errorf("unknown block order %q", s)
}

// Options tune the solver. The zero value is a valid configuration.
type Options struct {
	Order Order
	// MaxRounds caps the number of rounds. If 0, the cap is
	// (N+1)·(D+1)+1 for N blocks and a domain of size D.
	MaxRounds int
	// MaxDomain bounds the domain size. If 0, the domain is unbounded.
	MaxDomain int
	// Strict checks that every update moves in the direction of the lattice.
	Strict bool
}
