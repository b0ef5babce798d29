// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	entries := []catalog.Entry{{Question: "a"}, {Question: "b"}, {Question: "a"}}
//	unique := sliceutil.Deduplicate(entries, func(e catalog.Entry) string { return e.Question })
//	// Result: [{Question: "a"}, {Question: "b"}]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// Unique is Deduplicate keyed on the items themselves.
func Unique[T comparable](items []T) []T {
	return Deduplicate(items, func(v T) T { return v })
}

// Filter returns the items for which keep reports true, in order.
func Filter[T any](items []T, keep func(T) bool) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}
