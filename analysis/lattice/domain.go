package lattice

import (
	"fmt"
	"strings"
)

// Domain is an append-only registry of program elements. Every element is
// assigned a stable bit index on first encounter, and indices are never
// reused or renumbered.
type Domain[E comparable] struct {
	index    map[E]int
	elements []E

	observers []func(int, E)
}

// NewDomain creates an empty domain.
func NewDomain[E comparable]() *Domain[E] {
	return &Domain[E]{index: make(map[E]int)}
}

// IndexOf returns the index of e, registering it if it has not been seen before.
func (d *Domain[E]) IndexOf(e E) int {
	if i, ok := d.index[e]; ok {
		return i
	}

	i := len(d.elements)
	d.index[e] = i
	d.elements = append(d.elements, e)

	for _, obs := range d.observers {
		obs(i, e)
	}
	return i
}

// Lookup returns the index of e without registering it.
func (d *Domain[E]) Lookup(e E) (int, bool) {
	i, ok := d.index[e]
	return i, ok
}

func (d *Domain[E]) At(i int) E {
	return d.elements[i]
}

func (d *Domain[E]) Len() int {
	return len(d.elements)
}

// Slice exposes all elements in index order. The slice must not be modified.
func (d *Domain[E]) Slice() []E {
	return d.elements
}

// OnAppend registers an observer that is notified of every element added
// to the domain after the call.
func (d *Domain[E]) OnAppend(f func(index int, e E)) {
	d.observers = append(d.observers, f)
}

// Elements lists the elements of bv in increasing index order.
// Bits outside the domain are ignored.
func (d *Domain[E]) Elements(bv BitVector) []E {
	res := make([]E, 0, bv.Count())
	bv.ForEach(func(i int) {
		if i < len(d.elements) {
			res = append(res, d.elements[i])
		}
	})
	return res
}

// Vector creates a bit vector over the domain with the bits of the given
// elements set. Unknown elements are registered.
func (d *Domain[E]) Vector(es ...E) BitVector {
	bv := Empty(d.Len())
	for _, e := range es {
		bv.Set(d.IndexOf(e))
	}
	return bv
}

// Format renders the elements of bv as "{e1, e2}" using the provided
// element renderer, or fmt's default formatting if it is nil.
func (d *Domain[E]) Format(bv BitVector, render func(E) string) string {
	if render == nil {
		render = func(e E) string { return fmt.Sprint(e) }
	}

	strs := []string{}
	for _, e := range d.Elements(bv) {
		strs = append(strs, render(e))
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
