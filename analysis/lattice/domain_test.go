package lattice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomain_StableIndices(t *testing.T) {
	d := NewDomain[string]()

	require.Equal(t, 0, d.IndexOf("a"))
	require.Equal(t, 1, d.IndexOf("b"))
	require.Equal(t, 0, d.IndexOf("a"))
	require.Equal(t, 2, d.IndexOf("c"))
	require.Equal(t, 3, d.Len())

	i, ok := d.Lookup("b")
	require.True(t, ok)
	require.Equal(t, 1, i)

	_, ok = d.Lookup("z")
	require.False(t, ok)
	require.Equal(t, 3, d.Len(), "lookup must not register elements")

	require.Equal(t, "c", d.At(2))
	require.Equal(t, []string{"a", "b", "c"}, d.Slice())
}

func TestDomain_IdentityKeys(t *testing.T) {
	type elem struct{ name string }
	x1, x2 := &elem{"x"}, &elem{"x"}

	d := NewDomain[*elem]()
	require.NotEqual(t, d.IndexOf(x1), d.IndexOf(x2),
		"structurally equal pointers are distinct elements")
}

func TestDomain_Observers(t *testing.T) {
	d := NewDomain[int]()
	d.IndexOf(10)

	var seen []int
	d.OnAppend(func(i int, e int) {
		require.Equal(t, e, d.At(i))
		seen = append(seen, e)
	})

	d.IndexOf(10)
	d.IndexOf(20)
	d.IndexOf(30)
	d.IndexOf(20)

	require.Equal(t, []int{20, 30}, seen)
}

func TestDomain_ElementsAndFormat(t *testing.T) {
	d := NewDomain[string]()
	bv := d.Vector("x", "y", "z")
	bv.Clear(1)

	require.Equal(t, []string{"x", "z"}, d.Elements(bv))
	require.Equal(t, "{x, z}", d.Format(bv, nil))
	require.Equal(t, "{<x>, <z>}", d.Format(bv, func(s string) string { return "<" + s + ">" }))
	require.Equal(t, "{}", d.Format(Empty(0), nil))

	// Bits beyond the domain are ignored.
	bv.Set(10)
	require.Equal(t, []string{"x", "z"}, d.Elements(bv))
}
