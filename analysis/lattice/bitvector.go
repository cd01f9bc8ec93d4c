package lattice

import (
	"strconv"
	"strings"

	"github.com/willf/bitset"
)

// BitVector is a finite set of domain indices. The lattice is ordered by
// inclusion: the empty set is bottom and the full domain is top.
//
// Every vector has an explicit width. Binary operations first bring both
// operands to a common width, and bits exposed by growing a vector are
// always unset.
//
// Operations with a receiver of the form "xWith" mutate the receiver,
// everything else allocates a fresh vector.
type BitVector struct {
	bits *bitset.BitSet
}

// Empty creates the bottom element of width w.
func Empty(w int) BitVector {
	return BitVector{bitset.New(uint(w))}
}

// Full creates the top element of width w, i. e. the set of all indices below w.
func Full(w int) BitVector {
	return BitVector{bitset.New(uint(w)).Complement()}
}

// Of creates a vector of width w with the given indices set.
// The width grows to accommodate the largest index.
func Of(w int, indices ...int) BitVector {
	bv := Empty(w)
	for _, i := range indices {
		bv.Set(i)
	}
	return bv
}

func (bv BitVector) Width() int {
	if bv.bits == nil {
		return 0
	}
	return int(bv.bits.Len())
}

// Resize grows bv to width w in place. Existing bits are preserved and the
// new bits are unset. Vectors are never shrunk.
func (bv BitVector) Resize(w int) BitVector {
	if w > bv.Width() {
		bv.bits.Set(uint(w - 1))
		bv.bits.Clear(uint(w - 1))
	}
	return bv
}

func (bv BitVector) align(o BitVector) {
	w := bv.Width()
	if ow := o.Width(); ow > w {
		w = ow
	}
	bv.Resize(w)
	o.Resize(w)
}

// Set adds index i, growing the vector if needed.
func (bv BitVector) Set(i int) BitVector {
	bv.bits.Set(uint(i))
	return bv
}

func (bv BitVector) Clear(i int) BitVector {
	bv.bits.Clear(uint(i))
	return bv
}

func (bv BitVector) Test(i int) bool {
	return i >= 0 && bv.bits.Test(uint(i))
}

func (bv BitVector) Count() int {
	return int(bv.bits.Count())
}

func (bv BitVector) IsEmpty() bool {
	return bv.bits.None()
}

func (bv BitVector) Clone() BitVector {
	return BitVector{bv.bits.Clone()}
}

// UnionWith computes bv |= o.
func (bv BitVector) UnionWith(o BitVector) BitVector {
	bv.align(o)
	bv.bits.InPlaceUnion(o.bits)
	return bv
}

// IntersectWith computes bv &= o.
func (bv BitVector) IntersectWith(o BitVector) BitVector {
	bv.align(o)
	bv.bits.InPlaceIntersection(o.bits)
	return bv
}

// DifferenceWith computes bv &= ^o.
func (bv BitVector) DifferenceWith(o BitVector) BitVector {
	bv.align(o)
	bv.bits.InPlaceDifference(o.bits)
	return bv
}

func (bv BitVector) Union(o BitVector) BitVector {
	return bv.Clone().UnionWith(o)
}

func (bv BitVector) Intersection(o BitVector) BitVector {
	return bv.Clone().IntersectWith(o)
}

func (bv BitVector) Difference(o BitVector) BitVector {
	return bv.Clone().DifferenceWith(o)
}

// Complement computes the complement of bv relative to its width.
func (bv BitVector) Complement() BitVector {
	return BitVector{bv.bits.Complement()}
}

// Eq holds if both vectors contain the same indices.
// Vectors of different width may be equal.
func (bv BitVector) Eq(o BitVector) bool {
	bv.align(o)
	return bv.bits.Equal(o.bits)
}

// Leq holds if bv is a subset of o.
func (bv BitVector) Leq(o BitVector) bool {
	bv.align(o)
	return o.bits.IsSuperSet(bv.bits)
}

// ForEach calls do for every index in bv in increasing order.
func (bv BitVector) ForEach(do func(int)) {
	for i, ok := bv.bits.NextSet(0); ok; i, ok = bv.bits.NextSet(i + 1) {
		do(int(i))
	}
}

// Indices lists the indices of bv in increasing order.
func (bv BitVector) Indices() []int {
	res := make([]int, 0, bv.Count())
	bv.ForEach(func(i int) {
		res = append(res, i)
	})
	return res
}

func (bv BitVector) String() string {
	strs := []string{}
	bv.ForEach(func(i int) {
		strs = append(strs, strconv.Itoa(i))
	})
	return "{" + strings.Join(strs, ", ") + "}"
}
