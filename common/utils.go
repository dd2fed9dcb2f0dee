package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// RemoveFirst removes the first element of s for which match returns true, preserving order.
// The backing array is reused.
//
// Parameters:
//   - s: the slice to remove from
//   - match: predicate selecting the element to remove
//
// Returns:
//   - []T: the resulting slice
//   - bool: true if an element was removed
func RemoveFirst[T any](s []T, match func(T) bool) ([]T, bool) {
	for i, v := range s {
		if match(v) {
			copy(s[i:], s[i+1:])
			var zero T
			s[len(s)-1] = zero
			return s[:len(s)-1], true
		}
	}
	return s, false
}
