package utils

import (
	"reflect"
	"strings"

	"github.com/benbjohnson/immutable"
)

// PointerHasher is a generic hasher for pointer-like values.
type PointerHasher[T any] struct{}

// Hash computes the uint32 hash of hashable pointer v.
func (PointerHasher[T]) Hash(v T) uint32 {
	// Use reflection to get a uintptr value
	p := reflect.ValueOf(v).Pointer()
	return uint32(p ^ (p >> 32))
}

// Equal checks equality between two hashable pointers.
func (PointerHasher[T]) Equal(a, b T) bool {
	return any(a) == any(b)
}

var _ immutable.Hasher[any] = PointerHasher[any]{}

// StringComparer orders strings lexicographically in sorted maps.
type StringComparer struct{}

func (StringComparer) Compare(a, b string) int {
	return strings.Compare(a, b)
}

var _ immutable.Comparer[string] = StringComparer{}
