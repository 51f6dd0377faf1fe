// Package reconcile merges server responses and local mutations into the
// lists screens render. Every function returns a new slice and leaves its
// input untouched.
package reconcile

import "time"

// Dedupe drops later items whose key was already seen. Order is preserved.
func Dedupe[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// FilterUpcoming keeps items whose end time is at or after now.
func FilterUpcoming[T any](items []T, end func(T) time.Time, now time.Time) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !end(item).Before(now) {
			out = append(out, item)
		}
	}
	return out
}

// ApplyDelete removes every item with key id. Deleting an absent id is a no-op.
func ApplyDelete[T any, K comparable](items []T, id K, key func(T) K) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if key(item) != id {
			out = append(out, item)
		}
	}
	return out
}

// ApplyUpsert replaces the item sharing updated's key in place, or appends it.
func ApplyUpsert[T any, K comparable](items []T, updated T, key func(T) K) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	k := key(updated)
	for i := range out {
		if key(out[i]) == k {
			out[i] = updated
			return out
		}
	}
	return append(out, updated)
}

// Exclude is ApplyDelete for selection lists, used to drop the acting user.
func Exclude[T any, K comparable](items []T, id K, key func(T) K) []T {
	return ApplyDelete(items, id, key)
}
