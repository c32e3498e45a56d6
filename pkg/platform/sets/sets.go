// Package sets provides order-preserving set operations over slices.
// Capability states keep actor and group sets as slices so they serialize
// naturally; these helpers keep them duplicate-free.
package sets

import "slices"

// Dedupe removes duplicates from values. Order of first occurrence is preserved.
//
// Example:
//
//	Dedupe([]int{3, 1, 3, 2, 1})
//	// Returns: []int{3, 1, 2}
func Dedupe[T comparable](values []T) []T {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// Add returns values with v appended, and whether v was absent.
func Add[T comparable](values []T, v T) ([]T, bool) {
	if slices.Contains(values, v) {
		return values, false
	}
	return append(slices.Clone(values), v), true
}

// AddAll adds every element of items, returning the result and the elements
// that were newly added.
func AddAll[T comparable](values []T, items []T) ([]T, []T) {
	result := slices.Clone(values)
	var added []T
	for _, v := range items {
		if slices.Contains(result, v) {
			continue
		}
		result = append(result, v)
		added = append(added, v)
	}
	return result, added
}

// Remove returns values without v, and whether v was present.
func Remove[T comparable](values []T, v T) ([]T, bool) {
	idx := slices.Index(values, v)
	if idx < 0 {
		return values, false
	}
	result := slices.Clone(values)
	return slices.Delete(result, idx, idx+1), true
}

// RemoveAll removes every element of items, returning the result and the
// elements that were actually present.
func RemoveAll[T comparable](values []T, items []T) ([]T, []T) {
	var removed []T
	result := make([]T, 0, len(values))
	for _, v := range values {
		if slices.Contains(items, v) {
			removed = append(removed, v)
			continue
		}
		result = append(result, v)
	}
	return result, removed
}

// Union merges the given slices without duplicates.
func Union[T comparable](lists ...[]T) []T {
	var total int
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]T, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return Dedupe(merged)
}

// Intersects reports whether a and b share at least one element.
func Intersects[T comparable](a, b []T) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}

// Equal reports whether a and b hold the same elements regardless of order.
func Equal[T comparable](a, b []T) bool {
	a, b = Dedupe(a), Dedupe(b)
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}
