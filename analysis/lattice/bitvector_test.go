package lattice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitVector_EmptyFull(t *testing.T) {
	e := Empty(70)
	require.Equal(t, 70, e.Width())
	require.True(t, e.IsEmpty())

	f := Full(70)
	require.Equal(t, 70, f.Count())
	require.True(t, f.Test(69))
	require.False(t, f.Test(70))
	require.True(t, e.Leq(f))
	require.False(t, f.Leq(e))
}

func TestBitVector_ResizePreserves(t *testing.T) {
	bv := Of(3, 0, 2)
	bv.Resize(130)

	require.Equal(t, 130, bv.Width())
	require.Equal(t, []int{0, 2}, bv.Indices())
	for i := 3; i < 130; i++ {
		require.False(t, bv.Test(i), "bit %d should be unset after resize", i)
	}

	bv.Resize(10)
	require.Equal(t, 130, bv.Width(), "vectors never shrink")
}

func TestBitVector_FullThenResize(t *testing.T) {
	// Growing top must not silently add the new elements.
	top := Full(5)
	top.Resize(9)
	require.Equal(t, []int{0, 1, 2, 3, 4}, top.Indices())
}

func TestBitVector_Operations(t *testing.T) {
	a := Of(4, 0, 1, 2)
	b := Of(8, 1, 2, 7)

	require.Equal(t, []int{0, 1, 2, 7}, a.Union(b).Indices())
	require.Equal(t, []int{1, 2}, a.Intersection(b).Indices())
	require.Equal(t, []int{0}, a.Difference(b).Indices())
	require.Equal(t, []int{3, 4, 5, 6}, a.Union(b).Complement().Indices())

	// The non-mutating variants leave the operands untouched.
	require.Equal(t, []int{0, 1, 2}, a.Indices())
	require.Equal(t, []int{1, 2, 7}, b.Indices())

	c := a.Clone()
	c.IntersectWith(Full(2))
	require.Equal(t, []int{0, 1}, c.Indices())
	require.Equal(t, []int{0, 1, 2}, a.Indices())
}

func TestBitVector_IntersectWithNarrower(t *testing.T) {
	a := Of(10, 1, 8)
	a.IntersectWith(Full(4))
	require.Equal(t, []int{1}, a.Indices())
	require.Equal(t, 10, a.Width())
}

func TestBitVector_EqAcrossWidths(t *testing.T) {
	require.True(t, Of(3, 1).Eq(Of(200, 1)))
	require.False(t, Of(3, 1).Eq(Of(200, 1, 150)))
	require.True(t, Empty(0).Eq(Empty(64)))
}

func TestBitVector_SetGrows(t *testing.T) {
	bv := Empty(0)
	bv.Set(100)
	require.Equal(t, 101, bv.Width())
	require.True(t, bv.Test(100))
	require.False(t, bv.Test(-1))

	bv.Clear(100)
	require.True(t, bv.IsEmpty())
}

func TestBitVector_String(t *testing.T) {
	require.Equal(t, "{}", Empty(4).String())
	require.Equal(t, "{0, 3, 65}", Of(0, 0, 3, 65).String())
}
